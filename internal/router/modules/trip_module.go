package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"travelog/internal/container"
	handlers "travelog/internal/interface/http"
	"travelog/internal/interface/middleware"
	"travelog/pkg/helpers"
)

// TripModule wires the journal routes. Reads are public; anything that
// mutates a trip sits behind the bearer middleware.

type TripModule struct {
	Handler *handlers.TripHandler
	JWT     *helpers.JWTManager
}

func NewTripModule(h *handlers.TripHandler, jwt *helpers.JWTManager) *TripModule {
	return &TripModule{Handler: h, JWT: jwt}
}

func (m *TripModule) Register(rg *gin.RouterGroup) {
	readLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	searchLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.GET("/tripDetail/random", readLimiter, m.Handler.Random)
	rg.GET("/tripDetail/all", readLimiter, m.Handler.All)
	rg.GET("/tripDetail/search", searchLimiter, m.Handler.Search)
	rg.GET("/tripDetail/user/:username", readLimiter, m.Handler.ByUsername)
	rg.GET("/tripDetail/:tripId", readLimiter, m.Handler.ByID)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/tripDetail", m.Handler.Create)
		auth.GET("/tripDetail/user/trips", m.Handler.UserTrips)
		auth.PUT("/tripDetail/:tripId", m.Handler.Update)
		auth.DELETE("/tripDetail/:id", m.Handler.Delete)
	}
}
