// Package reports aggregates sales and return data for the dashboard.
package reports

import (
	"time"

	"bancaflow/internal/core/id"
	"bancaflow/internal/core/types"
)

// TodayTotals are the owner's sales aggregates for the current day.
type TodayTotals struct {
	Revenue types.Money `json:"revenue" db:"revenue"`
	Sales   int         `json:"sales" db:"sales"`
	Units   int         `json:"units" db:"units"`
}

// PeriodTotals are sales aggregates over a rolling window.
type PeriodTotals struct {
	Revenue types.Money `json:"revenue" db:"revenue"`
	Sales   int         `json:"sales" db:"sales"`
}

// TopSeller is one entry of the best-sellers ranking.
type TopSeller struct {
	MagazineName  string `json:"magazine_name" db:"magazine_name"`
	EditionNumber int    `json:"edition_number" db:"edition_number"`
	Units         int    `json:"units" db:"units"`
}

// DailyPerformance is one day of the weekly sales series.
type DailyPerformance struct {
	Day     time.Time   `json:"day" db:"day"`
	Revenue types.Money `json:"revenue" db:"revenue"`
	Units   int         `json:"units" db:"units"`
}

// PaymentBreakdown is revenue split by payment method.
type PaymentBreakdown struct {
	PaymentMethod string      `json:"payment_method" db:"payment_method"`
	Revenue       types.Money `json:"revenue" db:"revenue"`
	Sales         int         `json:"sales" db:"sales"`
}

// Dashboard is the consolidated main-screen report.
type Dashboard struct {
	Today         TodayTotals        `json:"today"`
	Week          []DailyPerformance `json:"week"`
	AverageTicket types.Money        `json:"average_ticket"`
	TopSellers    []TopSeller        `json:"top_sellers"`
}

// KPISet are the headline indicators.
type KPISet struct {
	RevenueToday       types.Money `json:"revenue_today"`
	UnitsToday         int         `json:"units_today"`
	Revenue30d         types.Money `json:"revenue_30d"`
	AverageTicket30d   types.Money `json:"average_ticket_30d"`
	PendingReturns     int         `json:"pending_returns"`
	NextReturnDeadline *time.Time  `json:"next_return_deadline,omitempty"`
}

// ReturnAlert flags an open return call whose deadline is close or past.
type ReturnAlert struct {
	DocumentID id.ID     `json:"document_id" db:"document_id"`
	Deadline   time.Time `json:"deadline" db:"deadline"`
	DaysLeft   int       `json:"days_left"`
	Status     string    `json:"status" db:"status"`
}
