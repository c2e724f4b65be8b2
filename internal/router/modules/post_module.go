package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"travelog/internal/container"
	handlers "travelog/internal/interface/http"
	"travelog/internal/interface/middleware"
)

type PostModule struct {
	Handler *handlers.PostHandler
}

func NewPostModule(h *handlers.PostHandler) *PostModule {
	return &PostModule{Handler: h}
}

func (m *PostModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/posts", rl, m.Handler.List)
}
