package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"banknote-review-service/internal/apperr"
	"banknote-review-service/internal/middleware"
	"banknote-review-service/internal/service"
)

type LoginRequestDTO struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SignupRequestDTO struct {
	Fullname string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponseDTO struct {
	JWT string `json:"jwt"`
}

type AuthHandler struct {
	accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// RegisterRoutes registers:
//
//	GET  /auth/me
//	POST /auth/login
//	POST /auth/signup
//	POST /auth/logout
func (h *AuthHandler) RegisterRoutes(router gin.IRouter) {
	grp := router.Group("/auth")
	{
		grp.GET("/me", h.Me)
		grp.POST("/login", h.Login)
		grp.POST("/signup", h.Signup)
		grp.POST("/logout", h.Logout)
	}
}

// Me reports the caller's identity, or a null session when anonymous.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": middleware.SessionFrom(c).User})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Wrap(http.StatusBadRequest, "Invalid credentials", err))
		return
	}
	token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, TokenResponseDTO{JWT: token})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Wrap(http.StatusBadRequest, "Invalid credentials", err))
		return
	}
	token, err := h.accounts.Signup(c.Request.Context(), req.Fullname, req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, TokenResponseDTO{JWT: token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), middleware.SessionFrom(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusOK)
}
