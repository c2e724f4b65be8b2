package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"travelog/internal/container"
	handlers "travelog/internal/interface/http"
	"travelog/internal/interface/middleware"
	"travelog/pkg/helpers"
)

// UserModule wires profile routes.
// Public: GET /api/user/public/:username
// Protected: GET /api/user/profile, PUT /api/user/update,
// PUT /api/user/change-password, DELETE /api/user

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	publicLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/user/public/:username", publicLimiter, m.Handler.PublicProfile)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/user/profile", m.Handler.Profile)
		auth.PUT("/user/update", m.Handler.Update)
		auth.PUT("/user/change-password", m.Handler.ChangePassword)
		auth.DELETE("/user", m.Handler.Delete)
	}
}
