// Package report_repo provides the PostgreSQL implementation of the
// reporting queries.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"bancaflow/internal/core/id"
	"bancaflow/internal/domain/reports"
	"bancaflow/internal/infrastructure/storage/postgres"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo answers aggregate queries straight from PostgreSQL.
// Aggregation stays in SQL so the dashboard does not pull raw sales rows.
type ReportRepo struct {
	txm *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

// TodayTotals aggregates the owner's sales for the current day.
func (r *ReportRepo) TodayTotals(ctx context.Context, ownerID id.ID) (*reports.TodayTotals, error) {
	sql := `
		SELECT COALESCE(SUM(total_value), 0) AS revenue,
		       COUNT(*) AS sales,
		       COALESCE(SUM(quantity), 0) AS units
		FROM sales
		WHERE owner_id = $1 AND sold_at >= date_trunc('day', now())
	`

	var totals reports.TodayTotals
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &totals, sql, ownerID); err != nil {
		return nil, fmt.Errorf("today totals: %w", err)
	}

	return &totals, nil
}

// PeriodTotals aggregates the owner's sales since the given time.
func (r *ReportRepo) PeriodTotals(ctx context.Context, ownerID id.ID, since time.Time) (*reports.PeriodTotals, error) {
	sql := `
		SELECT COALESCE(SUM(total_value), 0) AS revenue,
		       COUNT(*) AS sales
		FROM sales
		WHERE owner_id = $1 AND sold_at >= $2
	`

	var totals reports.PeriodTotals
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &totals, sql, ownerID, since); err != nil {
		return nil, fmt.Errorf("period totals: %w", err)
	}

	return &totals, nil
}

// TopSellers ranks the owner's best selling magazines since the given time.
func (r *ReportRepo) TopSellers(ctx context.Context, ownerID id.ID, since time.Time, limit int) ([]reports.TopSeller, error) {
	sql := `
		SELECT m.name AS magazine_name,
		       m.edition_number,
		       SUM(s.quantity) AS units
		FROM sales s
		JOIN magazines m ON m.id = s.magazine_id
		WHERE s.owner_id = $1 AND s.sold_at >= $2
		GROUP BY m.id, m.name, m.edition_number
		ORDER BY units DESC, m.name
		LIMIT $3
	`

	var sellers []reports.TopSeller
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &sellers, sql, ownerID, since, limit); err != nil {
		return nil, fmt.Errorf("top sellers: %w", err)
	}

	return sellers, nil
}

// WeekPerformance returns one row per day for the last seven days. Days
// without sales are filled in with zeros.
func (r *ReportRepo) WeekPerformance(ctx context.Context, ownerID id.ID) ([]reports.DailyPerformance, error) {
	sql := `
		SELECT d.day::timestamptz AS day,
		       COALESCE(SUM(s.total_value), 0) AS revenue,
		       COALESCE(SUM(s.quantity), 0) AS units
		FROM generate_series(
			date_trunc('day', now()) - interval '6 days',
			date_trunc('day', now()),
			interval '1 day'
		) AS d(day)
		LEFT JOIN sales s
			ON s.owner_id = $1
			AND s.sold_at >= d.day
			AND s.sold_at < d.day + interval '1 day'
		GROUP BY d.day
		ORDER BY d.day
	`

	var days []reports.DailyPerformance
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &days, sql, ownerID); err != nil {
		return nil, fmt.Errorf("week performance: %w", err)
	}

	return days, nil
}

// SalesByPayment splits the owner's sales by payment method since the
// given time.
func (r *ReportRepo) SalesByPayment(ctx context.Context, ownerID id.ID, since time.Time) ([]reports.PaymentBreakdown, error) {
	sql := `
		SELECT payment_method,
		       COALESCE(SUM(total_value), 0) AS revenue,
		       COUNT(*) AS sales
		FROM sales
		WHERE owner_id = $1 AND sold_at >= $2
		GROUP BY payment_method
		ORDER BY revenue DESC
	`

	var breakdown []reports.PaymentBreakdown
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &breakdown, sql, ownerID, since); err != nil {
		return nil, fmt.Errorf("sales by payment: %w", err)
	}

	return breakdown, nil
}

// CountOpenReturns counts the owner's return calls still open.
func (r *ReportRepo) CountOpenReturns(ctx context.Context, ownerID id.ID) (int, error) {
	sql := `SELECT COUNT(*) FROM return_calls WHERE owner_id = $1 AND status = 'open'`

	var count int
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open returns: %w", err)
	}

	return count, nil
}

// NextReturnDeadline returns the earliest deadline among the owner's open
// return calls, or nil when none is open.
func (r *ReportRepo) NextReturnDeadline(ctx context.Context, ownerID id.ID) (*time.Time, error) {
	sql := `SELECT MIN(deadline) FROM return_calls WHERE owner_id = $1 AND status = 'open'`

	var deadline *time.Time
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, ownerID).Scan(&deadline); err != nil {
		return nil, fmt.Errorf("next return deadline: %w", err)
	}

	return deadline, nil
}

// OpenReturnsDueBy lists the owner's open return calls with a deadline at
// or before the cutoff, earliest first.
func (r *ReportRepo) OpenReturnsDueBy(ctx context.Context, ownerID id.ID, cutoff time.Time) ([]reports.ReturnAlert, error) {
	sql := `
		SELECT id AS document_id, deadline, status
		FROM return_calls
		WHERE owner_id = $1 AND status = 'open' AND deadline <= $2
		ORDER BY deadline, created_at
	`

	var alerts []reports.ReturnAlert
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &alerts, sql, ownerID, cutoff); err != nil {
		return nil, fmt.Errorf("open returns due: %w", err)
	}

	return alerts, nil
}
