package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reflens/reflens/internal/app/model"
	"github.com/reflens/reflens/internal/app/repository"
	infraPrometheus "github.com/reflens/reflens/internal/infra/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minFieldLength = 2
	maxFieldLength = 200
	maxNotesLength = 500

	// How many times the create transaction retries when the unique
	// constraint on ref_codes rejects a candidate that raced past the
	// generator's own check.
	maxCreateAttempts = 5
)

// ErrInvalidInput marks client-facing validation rejections. Handlers match
// it with errors.Is and turn it into a 400.
var ErrInvalidInput = errors.New("invalid input")

// CreateApplicationInput captures the data required to register an application.
type CreateApplicationInput struct {
	CompanyName string
	Position    string
	PersonName  string
	Notes       string
	DateApplied *time.Time
}

// CreatedApplication is the result of a successful registration, including
// the shareable referral link.
type CreatedApplication struct {
	ID          uint   `json:"id"`
	CompanyName string `json:"company_name"`
	Position    string `json:"position"`
	RefCode     string `json:"ref_code"`
	RefLink     string `json:"ref_link"`
}

// ApplicationService registers applications together with their referral
// codes and handles outcome updates.
type ApplicationService struct {
	apps      repository.ApplicationRepository
	generator *CodeGenerator
	baseURL   string
	logger    *zap.Logger
}

// NewApplicationService returns an ApplicationService. baseURL is the public
// origin referral links point at.
func NewApplicationService(apps repository.ApplicationRepository, generator *CodeGenerator, baseURL string, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{
		apps:      apps,
		generator: generator,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// Create validates the input, generates a unique code and persists the
// application and its referral code as one unit.
func (s *ApplicationService) Create(ctx context.Context, input CreateApplicationInput) (*CreatedApplication, error) {
	company, err := requireField("company_name", input.CompanyName)
	if err != nil {
		return nil, err
	}
	position, err := requireField("position", input.Position)
	if err != nil {
		return nil, err
	}

	dateApplied := time.Now().Truncate(24 * time.Hour)
	if input.DateApplied != nil {
		dateApplied = *input.DateApplied
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		code, err := s.generator.Generate(ctx)
		if err != nil {
			return nil, err
		}

		app := &model.Application{
			CompanyName: company,
			PersonName:  optional(input.PersonName, maxFieldLength),
			Position:    position,
			DateApplied: dateApplied,
			Outcome:     model.OutcomePending,
			Notes:       optional(input.Notes, maxNotesLength),
		}
		refCode := &model.RefCode{
			RefCode:  code,
			IsActive: true,
		}

		if err := s.apps.CreateWithCode(ctx, app, refCode); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the race on the unique constraint; a fresh
				// candidate resolves it.
				s.logger.Warn("ref code conflict on insert, regenerating",
					zap.String("code", code),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, fmt.Errorf("create application: %w", err)
		}

		s.generator.MarkIssued(code)
		infraPrometheus.ApplicationsCreated.Inc()
		s.logger.Info("application registered",
			zap.Uint("id", app.ID),
			zap.String("company", company),
			zap.String("position", position),
			zap.String("ref_code", code))

		return &CreatedApplication{
			ID:          app.ID,
			CompanyName: company,
			Position:    position,
			RefCode:     code,
			RefLink:     fmt.Sprintf("%s/?ref=%s", s.baseURL, code),
		}, nil
	}

	return nil, fmt.Errorf("create application: %w", ErrCodeSpaceExhausted)
}

// UpdateOutcome sets the outcome of an existing application.
func (s *ApplicationService) UpdateOutcome(ctx context.Context, id uint, outcome string) error {
	if !model.ValidOutcome(outcome) {
		return fmt.Errorf("%w: outcome must be one of pending, got_call, rejected, no_response", ErrInvalidInput)
	}
	if err := s.apps.UpdateOutcome(ctx, id, outcome); err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return err
		}
		return fmt.Errorf("update outcome: %w", err)
	}
	return nil
}

func requireField(name, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) < minFieldLength {
		return "", fmt.Errorf("%w: %s must be at least %d characters", ErrInvalidInput, name, minFieldLength)
	}
	if len(trimmed) > maxFieldLength {
		return "", fmt.Errorf("%w: %s too long (max %d chars)", ErrInvalidInput, name, maxFieldLength)
	}
	return trimmed, nil
}

func optional(value string, maxLen int) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen]
	}
	return &trimmed
}
