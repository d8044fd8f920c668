package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardCounts holds the headline counters for the dashboard cards.
type DashboardCounts struct {
	Total   int64
	Viewed  int64
	GotCall int64
}

// WeeklyBucket is one calendar week of visit activity.
type WeeklyBucket struct {
	WeekStart   time.Time `json:"week_start"`
	TotalViews  int64     `json:"total_views"`
	UniqueCodes int64     `json:"unique_codes"`
}

// PositionFunnelRow is the applied/viewed/got_call funnel for one position title.
type PositionFunnelRow struct {
	Position string `json:"position"`
	Total    int64  `json:"total"`
	Viewed   int64  `json:"viewed"`
	GotCall  int64  `json:"got_call"`
}

// ApplicationOverview is one application joined with its visit aggregates,
// as shown on the dashboard listing.
type ApplicationOverview struct {
	ID          uint       `json:"id"`
	CompanyName string     `json:"company_name"`
	PersonName  *string    `json:"person_name,omitempty"`
	Position    string     `json:"position"`
	DateApplied time.Time  `json:"date_applied"`
	Outcome     string     `json:"outcome"`
	Notes       *string    `json:"notes,omitempty"`
	RefCode     string     `json:"ref_code"`
	VisitCount  int64      `json:"visit_count"`
	FirstVisit  *time.Time `json:"first_visit,omitempty"`
	LastVisit   *time.Time `json:"last_visit,omitempty"`
}

// AnalyticsRepository runs the read-only aggregation queries behind the
// dashboard. It is separate from the GORM repositories because the queries
// are plain SQL over the pgx pool.
type AnalyticsRepository interface {
	Counts(ctx context.Context) (DashboardCounts, error)
	WeeklyTrend(ctx context.Context) ([]WeeklyBucket, error)
	PositionFunnel(ctx context.Context, limit int) ([]PositionFunnelRow, error)
	AvgDaysToFirstView(ctx context.Context) (float64, error)
	HighIntentCount(ctx context.Context) (int64, error)
	ListApplications(ctx context.Context) ([]ApplicationOverview, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository returns a pgx-backed AnalyticsRepository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) Counts(ctx context.Context) (DashboardCounts, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM applications),
			(SELECT COUNT(DISTINCT rc.application_id)
			   FROM ref_codes rc
			   JOIN visits v ON v.ref_code = rc.ref_code),
			(SELECT COUNT(*) FROM applications WHERE outcome = 'got_call')`

	var counts DashboardCounts
	err := r.pool.QueryRow(ctx, q).Scan(&counts.Total, &counts.Viewed, &counts.GotCall)
	return counts, err
}

func (r *analyticsRepository) WeeklyTrend(ctx context.Context) ([]WeeklyBucket, error) {
	const q = `
		SELECT
			DATE_TRUNC('week', v.timestamp)::date AS week_start,
			COUNT(*) AS total_views,
			COUNT(DISTINCT v.ref_code) AS unique_codes
		FROM visits v
		GROUP BY DATE_TRUNC('week', v.timestamp)
		ORDER BY week_start ASC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trend []WeeklyBucket
	for rows.Next() {
		var b WeeklyBucket
		if err := rows.Scan(&b.WeekStart, &b.TotalViews, &b.UniqueCodes); err != nil {
			return nil, err
		}
		trend = append(trend, b)
	}
	return trend, rows.Err()
}

func (r *analyticsRepository) PositionFunnel(ctx context.Context, limit int) ([]PositionFunnelRow, error) {
	const q = `
		SELECT
			a.position,
			COUNT(*) AS total,
			COUNT(v.ref_code) AS viewed,
			COUNT(*) FILTER (WHERE a.outcome = 'got_call') AS got_call
		FROM applications a
		JOIN ref_codes rc ON rc.application_id = a.id
		LEFT JOIN (SELECT DISTINCT ref_code FROM visits) v ON v.ref_code = rc.ref_code
		GROUP BY a.position
		ORDER BY total DESC, a.position ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var funnel []PositionFunnelRow
	for rows.Next() {
		var row PositionFunnelRow
		if err := rows.Scan(&row.Position, &row.Total, &row.Viewed, &row.GotCall); err != nil {
			return nil, err
		}
		funnel = append(funnel, row)
	}
	return funnel, rows.Err()
}

func (r *analyticsRepository) AvgDaysToFirstView(ctx context.Context) (float64, error) {
	const q = `
		SELECT COALESCE(AVG(sub.days_to_view), 0)
		FROM (
			SELECT EXTRACT(DAY FROM MIN(v.timestamp) - a.date_applied::timestamp) AS days_to_view
			FROM applications a
			JOIN ref_codes rc ON rc.application_id = a.id
			JOIN visits v ON v.ref_code = rc.ref_code
			GROUP BY a.id
		) sub`

	var avg float64
	err := r.pool.QueryRow(ctx, q).Scan(&avg)
	return avg, err
}

func (r *analyticsRepository) HighIntentCount(ctx context.Context) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM (
			SELECT rc.application_id
			FROM ref_codes rc
			JOIN visits v ON v.ref_code = rc.ref_code
			GROUP BY rc.application_id
			HAVING COUNT(v.id) > 1
		) sub`

	var count int64
	err := r.pool.QueryRow(ctx, q).Scan(&count)
	return count, err
}

func (r *analyticsRepository) ListApplications(ctx context.Context) ([]ApplicationOverview, error) {
	const q = `
		SELECT
			a.id,
			a.company_name,
			a.person_name,
			a.position,
			a.date_applied,
			a.outcome,
			a.notes,
			rc.ref_code,
			COUNT(v.id) AS visit_count,
			MIN(v.timestamp) AS first_visit,
			MAX(v.timestamp) AS last_visit
		FROM applications a
		JOIN ref_codes rc ON rc.application_id = a.id
		LEFT JOIN visits v ON v.ref_code = rc.ref_code
		GROUP BY a.id, rc.ref_code
		ORDER BY a.date_applied DESC, a.id DESC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ApplicationOverview
	for rows.Next() {
		var row ApplicationOverview
		if err := rows.Scan(
			&row.ID,
			&row.CompanyName,
			&row.PersonName,
			&row.Position,
			&row.DateApplied,
			&row.Outcome,
			&row.Notes,
			&row.RefCode,
			&row.VisitCount,
			&row.FirstVisit,
			&row.LastVisit,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
