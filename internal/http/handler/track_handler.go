package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/reflens/reflens/internal/app/service"
	"github.com/reflens/reflens/internal/http/view"
	"go.uber.org/zap"
)

// TrackDeps groups dependencies required by the public tracking handlers.
type TrackDeps struct {
	Logger      *zap.Logger
	Visits      *service.VisitService
	SiteTitle   string
	SiteTagline string
	CalendlyURL string
}

// TrackHandler serves the public portfolio page and records referral visits
// carried on the ref query parameter.
type TrackHandler struct {
	logger      *zap.Logger
	visits      *service.VisitService
	siteTitle   string
	siteTagline string
	calendlyURL string
}

// NewTrackHandler creates a tracking handler with the provided dependencies.
func NewTrackHandler(deps TrackDeps) *TrackHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	title := deps.SiteTitle
	if title == "" {
		title = "Portfolio"
	}
	return &TrackHandler{
		logger:      logger,
		visits:      deps.Visits,
		siteTitle:   title,
		siteTagline: deps.SiteTagline,
		calendlyURL: deps.CalendlyURL,
	}
}

// Register wires public routes onto the provided router.
func (h *TrackHandler) Register(router fiber.Router) {
	router.Get("/", h.Home)
	router.Get("/health", h.Health)
}

// Health is a simple endpoint so we know the service is running.
func (h *TrackHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "reflens",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Home handles GET / and logs a visit when a ref code is present. The page
// is served regardless of what happens to the tracking side: a bad or
// unknown code must never break the portfolio itself.
func (h *TrackHandler) Home(c *fiber.Ctx) error {
	if ref := c.Query("ref"); ref != "" {
		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}

		logged, err := h.visits.Record(ctx, ref, c.IP())
		if err != nil {
			h.logger.Error("failed to record visit",
				zap.Error(err),
				zap.String("ref_code", ref))
		} else if logged {
			h.logger.Debug("referral visit recorded", zap.String("ref_code", ref))
		}
	}

	html, err := view.RenderLandingPage(view.LandingPageData{
		Title:       h.siteTitle,
		Tagline:     h.siteTagline,
		CalendlyURL: h.calendlyURL,
	})
	if err != nil {
		h.logger.Error("failed to render landing page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to render page",
		})
	}

	return c.
		Type("html", "utf-8").
		SendString(html)
}
