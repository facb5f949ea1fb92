package reports

import (
	"context"
	"time"

	"bancaflow/internal/core/id"
)

// Repository answers the aggregate queries behind the dashboard.
type Repository interface {
	// TodayTotals aggregates the owner's sales for the current day.
	TodayTotals(ctx context.Context, ownerID id.ID) (*TodayTotals, error)

	// PeriodTotals aggregates the owner's sales since the given time.
	PeriodTotals(ctx context.Context, ownerID id.ID, since time.Time) (*PeriodTotals, error)

	// TopSellers ranks the owner's best selling magazines since the given
	// time, most units first.
	TopSellers(ctx context.Context, ownerID id.ID, since time.Time, limit int) ([]TopSeller, error)

	// WeekPerformance returns one row per day for the last seven days.
	WeekPerformance(ctx context.Context, ownerID id.ID) ([]DailyPerformance, error)

	// SalesByPayment splits the owner's sales by payment method since the
	// given time.
	SalesByPayment(ctx context.Context, ownerID id.ID, since time.Time) ([]PaymentBreakdown, error)

	// CountOpenReturns counts the owner's return calls still open.
	CountOpenReturns(ctx context.Context, ownerID id.ID) (int, error)

	// NextReturnDeadline returns the earliest deadline among the owner's
	// open return calls, or nil when none is open.
	NextReturnDeadline(ctx context.Context, ownerID id.ID) (*time.Time, error)

	// OpenReturnsDueBy lists the owner's open return calls with a deadline
	// at or before the cutoff, earliest first.
	OpenReturnsDueBy(ctx context.Context, ownerID id.ID, cutoff time.Time) ([]ReturnAlert, error)
}
