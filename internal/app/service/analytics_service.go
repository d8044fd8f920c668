package service

import (
	"context"
	"fmt"
	"math"

	"github.com/reflens/reflens/internal/app/repository"
)

// positionFunnelLimit caps the per-position funnel at the busiest titles.
const positionFunnelLimit = 8

// DashboardStats is the aggregated view the dashboard renders.
type DashboardStats struct {
	TotalApplications  int64                          `json:"total_applications"`
	ViewedCount        int64                          `json:"viewed_count"`
	CallsCount         int64                          `json:"calls_count"`
	ConversionRate     float64                        `json:"conversion_rate"`
	ViewRate           float64                        `json:"view_rate"`
	AvgDaysToFirstView float64                        `json:"avg_days_to_first_view"`
	HighIntentCount    int64                          `json:"high_intent_count"`
	WeeklyTrend        []repository.WeeklyBucket      `json:"weekly_trend"`
	PositionFunnel     []repository.PositionFunnelRow `json:"position_funnel"`
}

// AnalyticsService computes derived statistics over the stored applications
// and visits. Strictly read-only.
type AnalyticsService struct {
	repo repository.AnalyticsRepository
}

// NewAnalyticsService returns a service backed by the given repository.
func NewAnalyticsService(repo repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// Dashboard assembles the full stats view. Rates are percentages rounded to
// one decimal and zero when there is nothing to divide by.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	stats := &DashboardStats{
		TotalApplications: counts.Total,
		ViewedCount:       counts.Viewed,
		CallsCount:        counts.GotCall,
	}
	if counts.Total > 0 {
		stats.ConversionRate = round1(float64(counts.GotCall) / float64(counts.Total) * 100)
		stats.ViewRate = round1(float64(counts.Viewed) / float64(counts.Total) * 100)
	}

	avgDays, err := s.repo.AvgDaysToFirstView(ctx)
	if err != nil {
		return nil, fmt.Errorf("avg days to first view: %w", err)
	}
	stats.AvgDaysToFirstView = round1(avgDays)

	highIntent, err := s.repo.HighIntentCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("high intent count: %w", err)
	}
	stats.HighIntentCount = highIntent

	trend, err := s.repo.WeeklyTrend(ctx)
	if err != nil {
		return nil, fmt.Errorf("weekly trend: %w", err)
	}
	stats.WeeklyTrend = trend

	funnel, err := s.repo.PositionFunnel(ctx, positionFunnelLimit)
	if err != nil {
		return nil, fmt.Errorf("position funnel: %w", err)
	}
	stats.PositionFunnel = funnel

	return stats, nil
}

// Applications lists every application joined with its visit aggregates.
func (s *AnalyticsService) Applications(ctx context.Context) ([]repository.ApplicationOverview, error) {
	apps, err := s.repo.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
