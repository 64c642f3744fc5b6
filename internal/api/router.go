package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facesim/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facesim/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facesim/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facesim/internal/database"
	"github.com/saturnino-fabrica-de-software/facesim/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facesim/internal/service"
	"github.com/saturnino-fabrica-de-software/facesim/internal/ws"
)

type Dependencies struct {
	Service  *service.RecognitionService
	Store    database.Pinger
	Hub      *ws.Hub
	Recorder *metrics.Recorder
	// RateLimit applies to every /v1 route; zero values take the defaults
	RateLimit middleware.RateLimiterConfig
	Version   string
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Facesim API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	if r.deps.Recorder != nil {
		r.app.Use(middleware.Logger(r.logger, r.deps.Recorder))
	} else {
		r.app.Use(middleware.Logger(r.logger))
	}
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(r.deps.Store, r.deps.Version, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps.Recorder != nil {
		r.app.Get("/metrics", adaptor.HTTPHandler(r.deps.Recorder.Handler()))
	}

	v1 := r.app.Group("/v1")

	// Rate limiting (per client IP)
	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	v1.Use(r.rateLimiter.Handler())

	recognitionHandler := handler.NewRecognitionHandler(r.deps.Service, r.logger)
	identityHandler := handler.NewIdentityHandler(r.deps.Service, r.logger)
	analyticsHandler := handler.NewAnalyticsHandler(r.deps.Service, r.logger)

	// Recognition routes
	v1.Post("/compare", recognitionHandler.Compare)
	v1.Post("/verify", recognitionHandler.Verify)
	v1.Post("/identify", recognitionHandler.Identify)
	v1.Post("/search", recognitionHandler.Search)

	// Identity routes
	v1.Post("/identities", identityHandler.Enroll)
	v1.Get("/identities", identityHandler.List)
	v1.Get("/identities/:label", identityHandler.Get)
	v1.Delete("/identities/:label", identityHandler.Delete)
	v1.Post("/identities/:label/verify", recognitionHandler.VerifyIdentity)
	v1.Get("/identities/:label/events", analyticsHandler.History)
	v1.Delete("/enrollments/:id", identityHandler.DeleteEnrollment)

	// Analytics routes
	v1.Get("/analytics/events", analyticsHandler.Events)
	v1.Get("/analytics/stats", analyticsHandler.Stats)

	// WebSocket endpoint
	if r.deps.Hub != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)

		v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop WebSocket hub
	if r.cancelHub != nil {
		r.cancelHub()
	}

	return r.app.Shutdown()
}
