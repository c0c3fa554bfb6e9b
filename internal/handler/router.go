package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"banknote-review-service/internal/logger"
	"banknote-review-service/internal/middleware"
	"banknote-review-service/internal/model"
	"banknote-review-service/internal/service"
)

// RouterDeps collects what the HTTP surface needs.
type RouterDeps struct {
	Log            *logger.Logger
	Sessions       *middleware.SessionResolver
	Reviews        *service.ReviewService
	Accounts       *service.AccountService
	AllowedOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.CORS(deps.AllowedOrigins))
	r.Use(middleware.ErrorHandler(deps.Log))
	r.Use(deps.Sessions.Handler())

	NewAuthHandler(deps.Accounts).RegisterRoutes(r)
	NewAvatarHandler(deps.Accounts).RegisterRoutes(r)
	NewReviewHandler(deps.Reviews).RegisterRoutes(r)

	r.GET("/dashboard", middleware.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "Dashboard Page")
	})
	r.GET("/admin", middleware.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, "Admin Page")
	})

	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Route does not exist")
	})
	return r
}
