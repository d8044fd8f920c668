package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reflens/reflens/internal/app/repository"
)

type mockAnalyticsRepository struct {
	countsFn      func(ctx context.Context) (repository.DashboardCounts, error)
	weeklyTrendFn func(ctx context.Context) ([]repository.WeeklyBucket, error)
	funnelFn      func(ctx context.Context, limit int) ([]repository.PositionFunnelRow, error)
	avgDaysFn     func(ctx context.Context) (float64, error)
	highIntentFn  func(ctx context.Context) (int64, error)
	listFn        func(ctx context.Context) ([]repository.ApplicationOverview, error)
}

func (m *mockAnalyticsRepository) Counts(ctx context.Context) (repository.DashboardCounts, error) {
	if m.countsFn != nil {
		return m.countsFn(ctx)
	}
	return repository.DashboardCounts{}, nil
}

func (m *mockAnalyticsRepository) WeeklyTrend(ctx context.Context) ([]repository.WeeklyBucket, error) {
	if m.weeklyTrendFn != nil {
		return m.weeklyTrendFn(ctx)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) PositionFunnel(ctx context.Context, limit int) ([]repository.PositionFunnelRow, error) {
	if m.funnelFn != nil {
		return m.funnelFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockAnalyticsRepository) AvgDaysToFirstView(ctx context.Context) (float64, error) {
	if m.avgDaysFn != nil {
		return m.avgDaysFn(ctx)
	}
	return 0, nil
}

func (m *mockAnalyticsRepository) HighIntentCount(ctx context.Context) (int64, error) {
	if m.highIntentFn != nil {
		return m.highIntentFn(ctx)
	}
	return 0, nil
}

func (m *mockAnalyticsRepository) ListApplications(ctx context.Context) ([]repository.ApplicationOverview, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func TestAnalyticsService_Dashboard_EmptyStore(t *testing.T) {
	svc := NewAnalyticsService(&mockAnalyticsRepository{})

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}

	if stats.TotalApplications != 0 || stats.ViewedCount != 0 || stats.CallsCount != 0 {
		t.Fatalf("expected zero counts, got %+v", stats)
	}
	if stats.ConversionRate != 0 || stats.ViewRate != 0 {
		t.Fatalf("expected zero rates on empty store, got conversion=%v view=%v",
			stats.ConversionRate, stats.ViewRate)
	}
	if stats.AvgDaysToFirstView != 0 || stats.HighIntentCount != 0 {
		t.Fatalf("expected zero derived stats, got %+v", stats)
	}
}

func TestAnalyticsService_Dashboard_Rates(t *testing.T) {
	repo := &mockAnalyticsRepository{
		countsFn: func(ctx context.Context) (repository.DashboardCounts, error) {
			return repository.DashboardCounts{Total: 3, Viewed: 2, GotCall: 1}, nil
		},
	}
	svc := NewAnalyticsService(repo)

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}

	if stats.ConversionRate != 33.3 {
		t.Fatalf("expected conversion rate 33.3, got %v", stats.ConversionRate)
	}
	if stats.ViewRate != 66.7 {
		t.Fatalf("expected view rate 66.7, got %v", stats.ViewRate)
	}
}

func TestAnalyticsService_Dashboard_FullView(t *testing.T) {
	repo := &mockAnalyticsRepository{
		countsFn: func(ctx context.Context) (repository.DashboardCounts, error) {
			return repository.DashboardCounts{Total: 1, Viewed: 1, GotCall: 0}, nil
		},
	}
	svc := NewAnalyticsService(repo)

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if stats.ViewRate != 100.0 {
		t.Fatalf("expected view rate 100.0, got %v", stats.ViewRate)
	}
	if stats.ConversionRate != 0 {
		t.Fatalf("expected conversion rate 0, got %v", stats.ConversionRate)
	}
}

func TestAnalyticsService_Dashboard_RoundsAvgDays(t *testing.T) {
	repo := &mockAnalyticsRepository{
		avgDaysFn: func(ctx context.Context) (float64, error) {
			return 2.4444, nil
		},
		highIntentFn: func(ctx context.Context) (int64, error) {
			return 1, nil
		},
	}
	svc := NewAnalyticsService(repo)

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if stats.AvgDaysToFirstView != 2.4 {
		t.Fatalf("expected avg days 2.4, got %v", stats.AvgDaysToFirstView)
	}
	if stats.HighIntentCount != 1 {
		t.Fatalf("expected high intent 1, got %d", stats.HighIntentCount)
	}
}

func TestAnalyticsService_Dashboard_PassesThroughTrendAndFunnel(t *testing.T) {
	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	var funnelLimit int
	repo := &mockAnalyticsRepository{
		weeklyTrendFn: func(ctx context.Context) ([]repository.WeeklyBucket, error) {
			return []repository.WeeklyBucket{{WeekStart: week, TotalViews: 5, UniqueCodes: 2}}, nil
		},
		funnelFn: func(ctx context.Context, limit int) ([]repository.PositionFunnelRow, error) {
			funnelLimit = limit
			return []repository.PositionFunnelRow{{Position: "Engineer", Total: 4, Viewed: 2, GotCall: 1}}, nil
		},
	}
	svc := NewAnalyticsService(repo)

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if funnelLimit != positionFunnelLimit {
		t.Fatalf("expected funnel limit %d, got %d", positionFunnelLimit, funnelLimit)
	}
	if len(stats.WeeklyTrend) != 1 || !stats.WeeklyTrend[0].WeekStart.Equal(week) {
		t.Fatalf("unexpected weekly trend: %+v", stats.WeeklyTrend)
	}
	if len(stats.PositionFunnel) != 1 || stats.PositionFunnel[0].Position != "Engineer" {
		t.Fatalf("unexpected funnel: %+v", stats.PositionFunnel)
	}
}

func TestAnalyticsService_Dashboard_RepoError(t *testing.T) {
	boom := errors.New("pool closed")
	repo := &mockAnalyticsRepository{
		countsFn: func(ctx context.Context) (repository.DashboardCounts, error) {
			return repository.DashboardCounts{}, boom
		},
	}
	svc := NewAnalyticsService(repo)

	if _, err := svc.Dashboard(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected repo error to propagate, got %v", err)
	}
}

func TestAnalyticsService_Applications(t *testing.T) {
	repo := &mockAnalyticsRepository{
		listFn: func(ctx context.Context) ([]repository.ApplicationOverview, error) {
			return []repository.ApplicationOverview{
				{ID: 1, CompanyName: "Acme", Position: "Engineer", VisitCount: 2},
			}, nil
		},
	}
	svc := NewAnalyticsService(repo)

	apps, err := svc.Applications(context.Background())
	if err != nil {
		t.Fatalf("Applications returned error: %v", err)
	}
	if len(apps) != 1 || apps[0].CompanyName != "Acme" {
		t.Fatalf("unexpected listing: %+v", apps)
	}
}
