package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bancaflow/internal/core/id"
	"bancaflow/internal/core/types"
)

type fakeRepo struct {
	today   TodayTotals
	period  PeriodTotals
	top     []TopSeller
	week    []DailyPerformance
	byPay   []PaymentBreakdown
	open    int
	next    *time.Time
	dueBy   []ReturnAlert
	cutoffs []time.Time
}

func (f *fakeRepo) TodayTotals(context.Context, id.ID) (*TodayTotals, error) {
	t := f.today
	return &t, nil
}

func (f *fakeRepo) PeriodTotals(context.Context, id.ID, time.Time) (*PeriodTotals, error) {
	p := f.period
	return &p, nil
}

func (f *fakeRepo) TopSellers(context.Context, id.ID, time.Time, int) ([]TopSeller, error) {
	return f.top, nil
}

func (f *fakeRepo) WeekPerformance(context.Context, id.ID) ([]DailyPerformance, error) {
	return f.week, nil
}

func (f *fakeRepo) SalesByPayment(context.Context, id.ID, time.Time) ([]PaymentBreakdown, error) {
	return f.byPay, nil
}

func (f *fakeRepo) CountOpenReturns(context.Context, id.ID) (int, error) {
	return f.open, nil
}

func (f *fakeRepo) NextReturnDeadline(context.Context, id.ID) (*time.Time, error) {
	return f.next, nil
}

func (f *fakeRepo) OpenReturnsDueBy(_ context.Context, _ id.ID, cutoff time.Time) ([]ReturnAlert, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.dueBy, nil
}

var testNow = time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func TestDashboard(t *testing.T) {
	repo := &fakeRepo{
		today: TodayTotals{Revenue: types.MustMoney("139.00"), Sales: 10, Units: 14},
		top:   []TopSeller{{MagazineName: "Veja", EditionNumber: 2904, Units: 6}},
	}
	svc := NewService(repo).WithClock(fixedClock)

	dash, err := svc.Dashboard(context.Background(), id.New())
	require.NoError(t, err)

	assert.Equal(t, 10, dash.Today.Sales)
	assert.True(t, dash.AverageTicket.Equal(types.MustMoney("13.90")), dash.AverageTicket.String())
	require.Len(t, dash.TopSellers, 1)
	assert.Equal(t, "Veja", dash.TopSellers[0].MagazineName)
}

func TestDashboardNoSales(t *testing.T) {
	svc := NewService(&fakeRepo{}).WithClock(fixedClock)

	dash, err := svc.Dashboard(context.Background(), id.New())
	require.NoError(t, err)
	assert.True(t, dash.AverageTicket.IsZero())
}

func TestKPIs(t *testing.T) {
	next := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		today:  TodayTotals{Revenue: types.MustMoney("50.00"), Sales: 5, Units: 7},
		period: PeriodTotals{Revenue: types.MustMoney("900.00"), Sales: 60},
		open:   2,
		next:   &next,
	}
	svc := NewService(repo).WithClock(fixedClock)

	kpis, err := svc.KPIs(context.Background(), id.New())
	require.NoError(t, err)

	assert.Equal(t, 7, kpis.UnitsToday)
	assert.True(t, kpis.Revenue30d.Equal(types.MustMoney("900.00")))
	assert.True(t, kpis.AverageTicket30d.Equal(types.MustMoney("15.00")))
	assert.Equal(t, 2, kpis.PendingReturns)
	require.NotNil(t, kpis.NextReturnDeadline)
	assert.Equal(t, next, *kpis.NextReturnDeadline)
}

func TestReturnAlerts(t *testing.T) {
	overdue := ReturnAlert{DocumentID: id.New(), Deadline: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), Status: "open"}
	soon := ReturnAlert{DocumentID: id.New(), Deadline: time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), Status: "open"}

	t.Run("days left is computed from today", func(t *testing.T) {
		repo := &fakeRepo{dueBy: []ReturnAlert{overdue, soon}}
		svc := NewService(repo).WithClock(fixedClock)

		alerts, err := svc.ReturnAlerts(context.Background(), id.New(), 5, true)
		require.NoError(t, err)

		require.Len(t, alerts, 2)
		assert.Equal(t, -2, alerts[0].DaysLeft)
		assert.Equal(t, 3, alerts[1].DaysLeft)

		// Window cutoff is today plus the requested days.
		require.Len(t, repo.cutoffs, 1)
		assert.Equal(t, time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), repo.cutoffs[0])
	})

	t.Run("overdue excluded on request", func(t *testing.T) {
		repo := &fakeRepo{dueBy: []ReturnAlert{overdue, soon}}
		svc := NewService(repo).WithClock(fixedClock)

		alerts, err := svc.ReturnAlerts(context.Background(), id.New(), 5, false)
		require.NoError(t, err)

		require.Len(t, alerts, 1)
		assert.Equal(t, soon.DocumentID, alerts[0].DocumentID)
	})

	t.Run("out of range window falls back to default", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := NewService(repo).WithClock(fixedClock)

		_, err := svc.ReturnAlerts(context.Background(), id.New(), 500, true)
		require.NoError(t, err)

		require.Len(t, repo.cutoffs, 1)
		assert.Equal(t, time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), repo.cutoffs[0])
	})
}
