package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"banknote-review-service/internal/apperr"
	"banknote-review-service/internal/middleware"
	"banknote-review-service/internal/service"
)

const maxAvatarBytes = 2 << 20

type AvatarHandler struct {
	accounts *service.AccountService
}

func NewAvatarHandler(accounts *service.AccountService) *AvatarHandler {
	return &AvatarHandler{accounts: accounts}
}

func (h *AvatarHandler) RegisterRoutes(router gin.IRouter) {
	router.PUT("/auth/avatar", middleware.RequireAuth(), h.UploadAvatar)
	router.GET("/avatars/:id", h.DownloadAvatar)
}

func (h *AvatarHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(apperr.Wrap(http.StatusBadRequest, "file is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		_ = c.Error(apperr.Wrap(http.StatusBadRequest, "cannot open file", err))
		return
	}
	defer file.Close()

	avatar, err := h.accounts.UploadAvatar(
		c.Request.Context(),
		middleware.SessionFrom(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": avatar})
}

func (h *AvatarHandler) DownloadAvatar(c *gin.Context) {
	data, contentType, err := h.accounts.Avatar(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, contentType, data)
}
