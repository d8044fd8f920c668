package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/reflens/reflens/internal/app/repository"
	"github.com/reflens/reflens/internal/app/service"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger       *zap.Logger
	Applications *service.ApplicationService
	Analytics    *service.AnalyticsService
}

// APIHandler implements the management API endpoints.
type APIHandler struct {
	logger       *zap.Logger
	applications *service.ApplicationService
	analytics    *service.AnalyticsService
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:       logger,
		applications: deps.Applications,
		analytics:    deps.Analytics,
	}
}

// Register wires API routes onto the provided router, which is expected to
// already carry the /api prefix and admin auth.
func (h *APIHandler) Register(api fiber.Router) {
	apps := api.Group("/applications")
	{
		apps.Post("/", h.CreateApplication)
		apps.Get("/", h.ListApplications)
		apps.Patch("/:id/outcome", h.UpdateOutcome)
	}
	api.Get("/dashboard", h.Dashboard)
}

// CreateApplicationRequest represents the request body for registering an application.
type CreateApplicationRequest struct {
	CompanyName string `json:"company_name"`
	Position    string `json:"position"`
	PersonName  string `json:"person_name,omitempty"`
	Notes       string `json:"notes,omitempty"`
	DateApplied string `json:"date_applied,omitempty"`
}

// CreateApplication handles POST /api/applications
func (h *APIHandler) CreateApplication(c *fiber.Ctx) error {
	var req CreateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	input := service.CreateApplicationInput{
		CompanyName: req.CompanyName,
		Position:    req.Position,
		PersonName:  req.PersonName,
		Notes:       req.Notes,
	}

	if req.DateApplied != "" {
		applied, err := time.Parse("2006-01-02", req.DateApplied)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date_applied must be YYYY-MM-DD",
			})
		}
		input.DateApplied = &applied
	}

	created, err := h.applications.Create(h.userContext(c), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("failed to create application", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create application",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListApplications handles GET /api/applications
func (h *APIHandler) ListApplications(c *fiber.Ctx) error {
	apps, err := h.analytics.Applications(h.userContext(c))
	if err != nil {
		h.logger.Error("failed to list applications", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list applications",
		})
	}

	return c.JSON(fiber.Map{
		"applications": apps,
		"count":        len(apps),
	})
}

// UpdateOutcomeRequest represents the request body for an outcome update.
type UpdateOutcomeRequest struct {
	Outcome string `json:"outcome"`
}

// UpdateOutcome handles PATCH /api/applications/:id/outcome
func (h *APIHandler) UpdateOutcome(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid application id",
		})
	}

	var req UpdateOutcomeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.applications.UpdateOutcome(h.userContext(c), uint(id), req.Outcome); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, repository.ErrApplicationNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "application not found",
			})
		default:
			h.logger.Error("failed to update outcome", zap.Error(err), zap.Int("id", id))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update outcome",
			})
		}
	}

	return c.JSON(fiber.Map{
		"id":      id,
		"outcome": req.Outcome,
	})
}

// Dashboard handles GET /api/dashboard
func (h *APIHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.analytics.Dashboard(h.userContext(c))
	if err != nil {
		h.logger.Error("failed to compute dashboard", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to compute dashboard",
		})
	}

	return c.JSON(stats)
}

func (h *APIHandler) userContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}
