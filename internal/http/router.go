package http

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/triple/internal/cache"
	"github.com/geocoder89/triple/internal/config"
	"github.com/geocoder89/triple/internal/http/handlers"
	"github.com/geocoder89/triple/internal/http/middlewares"
	"github.com/geocoder89/triple/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router needs. Storage is already chosen by the
// caller, so the router works the same over Postgres and memory.
type Deps struct {
	Config       config.Config
	Log          *slog.Logger
	Users        handlers.Credentials
	Tokens       TokenService
	Destinations handlers.DestinationsReader
	Trips        handlers.TripsStore
	Cache        cache.Store
	Prom         *observability.Prom
	Gatherer     prometheus.Gatherer
	Checks       map[string]handlers.Pinger
}

// TokenService issues and verifies access tokens.
type TokenService interface {
	handlers.TokenIssuer
	middlewares.TokenVerifier
}

func NewRouter(d Deps) *gin.Engine {
	if !d.Config.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	handlers.RegisterValidators()

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("triple-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(log, d.Checks)
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(d.Tokens, d.Prom, log)
	authLimiter := middlewares.NewRateLimiter(d.Config.AuthRateLimitRPS, d.Config.AuthRateLimitBurst)
	writeLimiter := middlewares.NewRateLimiter(d.Config.WriteRateLimitRPS, d.Config.WriteRateLimitBurst)

	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens, log)
	destinationsHandler := handlers.NewDestinationsHandler(d.Destinations, d.Cache, d.Prom, log)
	tripsHandler := handlers.NewTripsHandler(d.Trips, log)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middlewares.RequireJSON())
	{
		authGroup.POST("/register", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SignUp)
		authGroup.POST("/login", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
		authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)
	}

	// search is registered before :id so it is not taken for an id
	destinations := api.Group("/destinations")
	{
		destinations.GET("", destinationsHandler.List)
		destinations.GET("/search", destinationsHandler.Search)
		destinations.GET("/:id", destinationsHandler.Get)
	}

	writeLimit := writeLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	// auth runs first so an anonymous write is a 401, not a 415
	trips := api.Group("/trips")
	trips.Use(authMW.RequireAuth(), middlewares.RequireJSON())
	{
		trips.GET("", tripsHandler.List)
		trips.POST("", writeLimit, tripsHandler.Create)
		trips.GET("/:id", tripsHandler.Get)
		trips.PUT("/:id", writeLimit, tripsHandler.Update)
		trips.DELETE("/:id", writeLimit, tripsHandler.Delete)
	}

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusNotFound, "Route not found")
	})

	return r
}
