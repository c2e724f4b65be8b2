package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	repo "travelog/internal/domain/repository"
	"travelog/pkg/response"
)

type PostHandler struct {
	Repo   repo.PostRepository
	Logger *logrus.Logger
}

func NewPostHandler(r repo.PostRepository, logger *logrus.Logger) *PostHandler {
	return &PostHandler{Repo: r, Logger: logger}
}

// List GET /api/posts
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.Repo.List(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("list posts failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to load posts", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"posts": posts}, "community posts", nil)
}
