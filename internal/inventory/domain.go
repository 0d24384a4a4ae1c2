package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/forecast"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// BatchStatus tracks an inbound purchase batch through its lifecycle.
type BatchStatus string

const (
	BatchPending  BatchStatus = "PENDING"
	BatchReceived BatchStatus = "RECEIVED"
)

// InboundBatch is an open or received purchase arriving into stock.
type InboundBatch struct {
	ID       string
	SKU      string
	Quantity float64
	Status   BatchStatus
	// ETA is the expected arrival date; the simulator books the quantity
	// into ETA's calendar month.
	ETA time.Time
}

// MonthlyAggregate is one month of actual sales for a SKU.
type MonthlyAggregate struct {
	Month     shared.YearMonth
	Quantity  float64
	Amount    decimal.Decimal
	Customers float64
}

// WeekdayAggregate is total sales for one weekday over the lookback window.
type WeekdayAggregate struct {
	Weekday  time.Weekday
	Quantity float64
}

// ForecastPoint is one month of the report's demand line.
type ForecastPoint struct {
	Month    shared.YearMonth `json:"month"`
	Quantity float64          `json:"quantity"`
	Amount   decimal.Decimal  `json:"amount"`
	Source   string           `json:"source"`
	Actual   bool             `json:"actual"`
	// Daily is the weight-proportional allocation of the month's quantity
	// across its days. Forecast months only; history carries none.
	Daily []forecast.DailyQuantity `json:"daily_breakdown,omitempty"`
}

// RiskTier buckets projected stock cover for the dashboard.
type RiskTier string

const (
	RiskHigh   RiskTier = "high"
	RiskMedium RiskTier = "medium"
	RiskLow    RiskTier = "low"
)

// riskTierFor classifies days of cover. Under 15 days is high risk, under
// 45 medium, anything longer low.
func riskTierFor(daysOfCover float64) RiskTier {
	switch {
	case daysOfCover < 15:
		return RiskHigh
	case daysOfCover < 45:
		return RiskMedium
	default:
		return RiskLow
	}
}

// KPIs summarizes the header strip of the forecast report.
type KPIs struct {
	OnHand          float64  `json:"on_hand"`
	PendingInbound  float64  `json:"pending_inbound"`
	CurrentForecast float64  `json:"current_forecast"`
	DaysOfCover     float64  `json:"days_of_cover"`
	RiskTier        RiskTier `json:"risk_tier"`
	// BenchmarkPct compares the current month's forecast against the
	// policy's benchmark period (previous month or same month last year).
	BenchmarkPct float64 `json:"benchmark_pct"`
	// CustomerForecast is the trailing-average distinct-buyer estimate for
	// the coming month. Display metric only.
	CustomerForecast float64 `json:"customer_forecast"`
}
