package router

import (
	"travelog/internal/application"
	"travelog/internal/container"
	gcsinfra "travelog/internal/infrastructure/gcs"
	pginfra "travelog/internal/infrastructure/postgres"
	handlers "travelog/internal/interface/http"
	"travelog/internal/router/modules"
)

type moduleDeps struct {
	Auth *handlers.AuthHandler
	User *handlers.UserHandler
	Trip *handlers.TripHandler
	Post *handlers.PostHandler
}

func buildDeps() moduleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	trips := pginfra.NewTripRepository(pool)
	posts := pginfra.NewPostRepository(pool)
	media := gcsinfra.New(container.GetGCS(), cfg.GCSBucket)

	authSvc := application.NewAuthService(
		users,
		trips,
		media,
		container.GetJWT(),
		container.GetRedis(),
		container.GetRabbitPub(),
		logger,
		cfg,
	)
	tripSvc := application.NewTripService(
		trips,
		users,
		media,
		logger,
		container.GetES(),
		cfg.ESTripsIndex,
	)

	return moduleDeps{
		Auth: handlers.NewAuthHandler(authSvc, logger, cfg.CookieDomain, cfg.CookieSecure),
		User: handlers.NewUserHandler(authSvc, logger),
		Trip: handlers.NewTripHandler(tripSvc, logger),
		Post: handlers.NewPostHandler(posts, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	jwt := container.GetJWT()

	r.Add(modules.NewAuthModule(deps.Auth, jwt))
	r.Add(modules.NewUserModule(deps.User, jwt))
	r.Add(modules.NewTripModule(deps.Trip, jwt))
	r.Add(modules.NewPostModule(deps.Post))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
