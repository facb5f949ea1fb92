package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bancaflow/internal/core/id"
)

const (
	topSellersLimit  = 10
	defaultAlertDays = 5
	maxAlertDays     = 60
)

// Clock supplies the current time. Swappable in tests.
type Clock func() time.Time

// Service assembles the dashboard reports.
type Service struct {
	repo Repository
	now  Clock
}

// NewService creates a reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the service clock.
func (s *Service) WithClock(now Clock) *Service {
	s.now = now
	return s
}

// Dashboard builds the consolidated main-screen report.
func (s *Service) Dashboard(ctx context.Context, ownerID id.ID) (*Dashboard, error) {
	today, err := s.repo.TodayTotals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("today totals: %w", err)
	}

	week, err := s.repo.WeekPerformance(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("week performance: %w", err)
	}

	weekAgo := s.now().UTC().AddDate(0, 0, -7)
	top, err := s.repo.TopSellers(ctx, ownerID, weekAgo, topSellersLimit)
	if err != nil {
		return nil, fmt.Errorf("top sellers: %w", err)
	}

	return &Dashboard{
		Today:         *today,
		Week:          week,
		AverageTicket: averageTicket(today.Revenue, today.Sales),
		TopSellers:    top,
	}, nil
}

// KPIs builds the headline indicators.
func (s *Service) KPIs(ctx context.Context, ownerID id.ID) (*KPISet, error) {
	today, err := s.repo.TodayTotals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("today totals: %w", err)
	}

	monthAgo := s.now().UTC().AddDate(0, 0, -30)
	period, err := s.repo.PeriodTotals(ctx, ownerID, monthAgo)
	if err != nil {
		return nil, fmt.Errorf("period totals: %w", err)
	}

	pending, err := s.repo.CountOpenReturns(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("open returns: %w", err)
	}

	next, err := s.repo.NextReturnDeadline(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("next deadline: %w", err)
	}

	return &KPISet{
		RevenueToday:       today.Revenue,
		UnitsToday:         today.Units,
		Revenue30d:         period.Revenue,
		AverageTicket30d:   averageTicket(period.Revenue, period.Sales),
		PendingReturns:     pending,
		NextReturnDeadline: next,
	}, nil
}

// SalesByPayment splits the last 30 days of sales by payment method.
func (s *Service) SalesByPayment(ctx context.Context, ownerID id.ID) ([]PaymentBreakdown, error) {
	monthAgo := s.now().UTC().AddDate(0, 0, -30)
	return s.repo.SalesByPayment(ctx, ownerID, monthAgo)
}

// ReturnAlerts lists open return calls due within the window. Overdue calls
// are included unless includeOverdue is false.
func (s *Service) ReturnAlerts(ctx context.Context, ownerID id.ID, days int, includeOverdue bool) ([]ReturnAlert, error) {
	if days < 0 || days > maxAlertDays {
		days = defaultAlertDays
	}

	today := truncateToDay(s.now().UTC())
	cutoff := today.AddDate(0, 0, days)

	alerts, err := s.repo.OpenReturnsDueBy(ctx, ownerID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("open returns due: %w", err)
	}

	out := make([]ReturnAlert, 0, len(alerts))
	for _, a := range alerts {
		a.DaysLeft = int(truncateToDay(a.Deadline).Sub(today).Hours() / 24)
		if a.DaysLeft < 0 && !includeOverdue {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func averageTicket(revenue decimal.Decimal, sales int) decimal.Decimal {
	if sales <= 0 {
		return decimal.Zero
	}
	return revenue.DivRound(decimal.NewFromInt(int64(sales)), 2)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
