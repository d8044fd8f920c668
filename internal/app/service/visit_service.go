package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/reflens/reflens/internal/app/model"
	"github.com/reflens/reflens/internal/app/repository"
	infraPrometheus "github.com/reflens/reflens/internal/infra/prometheus"
	"go.uber.org/zap"
)

// Notifier delivers the one-time first-visit notification. Implementations
// must swallow their own failures; the visit path never waits on them.
type Notifier interface {
	NotifyFirstVisit(ctx context.Context, refCode string)
}

// VisitService is the visit-logging pipeline: code lookup, rate-limit gate,
// sequential count, insert, first-visit dispatch.
type VisitService struct {
	codes     repository.RefCodeRepository
	visits    repository.VisitRepository
	limiter   *RateLimiter
	publisher *FirstVisitPublisher
	notifier  Notifier
	logger    *zap.Logger
}

// NewVisitService wires the pipeline. publisher and notifier may each be
// nil; when the publisher is set first-visit events go through the queue,
// otherwise the notifier is invoked directly in a detached goroutine.
func NewVisitService(
	codes repository.RefCodeRepository,
	visits repository.VisitRepository,
	limiter *RateLimiter,
	publisher *FirstVisitPublisher,
	notifier Notifier,
	logger *zap.Logger,
) *VisitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitService{
		codes:     codes,
		visits:    visits,
		limiter:   limiter,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// Record logs one visit for the given referral code. Unknown, inactive or
// empty codes and rate-limited pairs all resolve to (false, nil): a guessed
// or stale link is expected input, not a fault.
func (s *VisitService) Record(ctx context.Context, refCode, source string) (bool, error) {
	if refCode == "" {
		return false, nil
	}

	rc, err := s.codes.GetByCode(ctx, refCode)
	if err != nil {
		if errors.Is(err, repository.ErrRefCodeNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up ref code: %w", err)
	}
	if !rc.IsActive {
		return false, nil
	}

	if s.limiter.ShouldSuppress(source, refCode) {
		infraPrometheus.VisitsSuppressed.Inc()
		s.logger.Debug("visit suppressed by rate limit",
			zap.String("ref_code", refCode),
			zap.String("source", source))
		return false, nil
	}

	// Read-then-insert: two truly concurrent first visits to the same code
	// can both observe count 0 and both dispatch a notification. Tolerated;
	// worst case is a duplicate email for a single-owner site.
	existing, err := s.visits.CountByCode(ctx, refCode)
	if err != nil {
		return false, fmt.Errorf("count visits: %w", err)
	}
	visitCount := int(existing) + 1

	visit := &model.Visit{
		RefCode:    refCode,
		VisitCount: visitCount,
		Country:    resolveCountry(source),
	}
	if err := s.visits.Create(ctx, visit); err != nil {
		return false, fmt.Errorf("insert visit: %w", err)
	}

	infraPrometheus.VisitsLogged.Inc()
	s.logger.Info("visit logged",
		zap.String("ref_code", refCode),
		zap.Int("visit_count", visitCount))

	if visitCount == 1 {
		s.dispatchFirstVisit(refCode)
	}

	return true, nil
}

// dispatchFirstVisit hands the notification off without blocking the
// request path. Failures are logged and dropped.
func (s *VisitService) dispatchFirstVisit(refCode string) {
	switch {
	case s.publisher != nil:
		go func() {
			if err := s.publisher.Publish(refCode); err != nil {
				s.logger.Error("failed to publish first visit event",
					zap.Error(err),
					zap.String("ref_code", refCode))
			}
		}()
	case s.notifier != nil:
		go s.notifier.NotifyFirstVisit(context.Background(), refCode)
	default:
		s.logger.Debug("first visit recorded, no dispatcher configured",
			zap.String("ref_code", refCode))
	}
}

// resolveCountry is a stub: geo-IP lookup is out of scope, the column just
// exists in the schema.
func resolveCountry(_ string) *string {
	return nil
}
