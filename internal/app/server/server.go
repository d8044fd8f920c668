package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/reflens/reflens/internal/app/service"
	inthttp "github.com/reflens/reflens/internal/http/handler"
	"github.com/reflens/reflens/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles everything required by the HTTP server.
type Dependencies struct {
	Logger       *zap.Logger
	Redis        *redis.Client
	Applications *service.ApplicationService
	Visits       *service.VisitService
	Analytics    *service.AnalyticsService
	AdminToken   string
	SiteTitle    string
	SiteTagline  string
	CalendlyURL  string
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New()

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS())
	if s.deps.Redis != nil {
		s.app.Use(middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), s.deps.Logger))
	}

	trackHandler := inthttp.NewTrackHandler(inthttp.TrackDeps{
		Logger:      s.deps.Logger,
		Visits:      s.deps.Visits,
		SiteTitle:   s.deps.SiteTitle,
		SiteTagline: s.deps.SiteTagline,
		CalendlyURL: s.deps.CalendlyURL,
	})
	trackHandler.Register(s.app)

	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:       s.deps.Logger,
		Applications: s.deps.Applications,
		Analytics:    s.deps.Analytics,
	})
	apiHandler.Register(s.app.Group("/api", middleware.AdminAuth(s.deps.AdminToken)))
}
