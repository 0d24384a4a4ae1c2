package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/forecast"
	"github.com/stockpilot/stockpilot/internal/shared"
)

const (
	// historyMonths is how far back the report's actual line reaches.
	historyMonths = 12
	// modelMonths is the zero-filled window fed to the statistical model.
	modelMonths = 60
	// weekdayLookbackMonths bounds the seasonality sample.
	weekdayLookbackMonths = 12
)

// PolicyView is the slice of a replenishment policy the forecast report
// needs. The replenishment package adapts its full policy into this view so
// this package does not depend on it.
type PolicyView struct {
	Overrides            map[shared.YearMonth]float64
	Calculated           map[shared.YearMonth]float64
	RatioAdjustmentPct   float64
	SafetyStockDays      float64
	LeadTimeDays         int
	SeasonalWeightConfig string
	BenchmarkType        string
}

// RepositoryPort is what the service needs from storage.
type RepositoryPort interface {
	MonthlyAggregates(ctx context.Context, sku string, from shared.YearMonth, months int) ([]MonthlyAggregate, error)
	WeekdayAggregates(ctx context.Context, sku string, since time.Time) ([]WeekdayAggregate, error)
	PendingBatches(ctx context.Context, sku string) ([]InboundBatch, error)
	OnHand(ctx context.Context, sku string) (float64, error)
	LastUnitPrice(ctx context.Context, sku string) (decimal.Decimal, error)
	ReceiveBatch(ctx context.Context, sku, batchID string) error
}

// PolicyProvider resolves the policy view for a SKU. Implementations fall
// back to defaults for SKUs without an explicit policy.
type PolicyProvider interface {
	View(ctx context.Context, sku string) (PolicyView, error)
}

// Service assembles forecast reports and exposes resolved demand.
type Service struct {
	repo     RepositoryPort
	policies PolicyProvider
	logger   *slog.Logger
	horizon  int
	now      func() time.Time
}

// NewService wires a Service. horizon <= 0 uses the default.
func NewService(repo RepositoryPort, policies PolicyProvider, logger *slog.Logger, horizon int) *Service {
	if horizon <= 0 {
		horizon = forecast.DefaultHorizon
	}
	return &Service{repo: repo, policies: policies, logger: logger, horizon: horizon, now: time.Now}
}

// ForecastReport is the full payload behind GET /skus/{sku}/forecast.
type ForecastReport struct {
	SKU        string                   `json:"sku"`
	KPIs       KPIs                     `json:"kpis"`
	History    []ForecastPoint          `json:"history"`
	Forecast   []ForecastPoint          `json:"forecast"`
	Simulation []SimPoint               `json:"simulation"`
	Daily      []forecast.DailyQuantity `json:"daily"`
	Weights    [7]float64               `json:"weekday_weights"`
	Method     forecast.Method          `json:"method"`
}

// BuildForecastReport assembles the actuals line, the resolved forward
// demand line, the stock simulation and the KPI strip for one SKU.
func (s *Service) BuildForecastReport(ctx context.Context, sku string) (*ForecastReport, error) {
	now := s.now()
	current := shared.YearMonthOf(now)

	onHand, err := s.repo.OnHand(ctx, sku)
	if err != nil {
		return nil, err
	}
	pv, err := s.policies.View(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("inventory: load policy view: %w", err)
	}

	aggregates, err := s.repo.MonthlyAggregates(ctx, sku, current, modelMonths)
	if err != nil {
		return nil, err
	}
	history := make(map[shared.YearMonth]float64, len(aggregates))
	amounts := make(map[shared.YearMonth]decimal.Decimal, len(aggregates))
	customers := make(map[shared.YearMonth]float64, len(aggregates))
	for _, agg := range aggregates {
		history[agg.Month] = agg.Quantity
		amounts[agg.Month] = agg.Amount
		customers[agg.Month] = agg.Customers
	}

	// Model from history ending one month back so the running month's
	// partial sales do not drag the projection down; the extra horizon
	// month covers the running month itself.
	outcome := forecast.MonthlyForecast(history, current.AddMonths(-1), modelMonths, s.horizon+1)
	if outcome.FitErr != nil {
		s.logger.Warn("forecast model fell back to mean", "sku", sku, "error", outcome.FitErr)
	}
	resolver := forecast.Resolver{
		Overrides:          pv.Overrides,
		Calculated:         pv.Calculated,
		Model:              outcome.Values,
		RatioAdjustmentPct: pv.RatioAdjustmentPct,
	}

	unitPrice, err := s.repo.LastUnitPrice(ctx, sku)
	if err != nil {
		return nil, err
	}
	weights, err := s.weekdayWeights(ctx, sku, now, pv.SeasonalWeightConfig)
	if err != nil {
		return nil, err
	}

	report := &ForecastReport{SKU: sku, Method: outcome.Method, Weights: weights}
	for _, month := range shared.MonthRange(current.AddMonths(-(historyMonths - 1)), historyMonths) {
		report.History = append(report.History, ForecastPoint{
			Month:    month,
			Quantity: history[month],
			Amount:   amounts[month],
			Source:   "actual",
			Actual:   true,
		})
	}
	demand := make(map[shared.YearMonth]float64, s.horizon)
	for _, month := range shared.MonthRange(current.AddMonths(1), s.horizon) {
		qty, source := resolver.Resolve(month)
		demand[month] = qty
		report.Forecast = append(report.Forecast, ForecastPoint{
			Month:    month,
			Quantity: qty,
			Amount:   unitPrice.Mul(decimal.NewFromFloat(qty)).Round(2),
			Source:   string(source),
			Daily:    forecast.AllocateDaily(month, qty, weights),
		})
	}

	currentDemand, _ := resolver.Resolve(current)
	daily := currentDemand / 30
	rop := daily*30*pv.SafetyStockDays + daily*float64(pv.LeadTimeDays)

	batches, err := s.repo.PendingBatches(ctx, sku)
	if err != nil {
		return nil, err
	}
	report.Simulation = Simulate(onHand, shared.MonthRange(current.AddMonths(1), s.horizon), demand, BucketInbound(batches), rop)

	report.Daily = forecast.AllocateDaily(current, currentDemand, weights)

	var pendingTotal float64
	for _, b := range batches {
		pendingTotal += b.Quantity
	}
	cover := 9999.0
	if daily > 0 {
		cover = onHand / daily
	}
	report.KPIs = KPIs{
		OnHand:           onHand,
		PendingInbound:   pendingTotal,
		CurrentForecast:  currentDemand,
		DaysOfCover:      cover,
		RiskTier:         riskTierFor(cover),
		BenchmarkPct:     benchmarkPct(currentDemand, history, current, pv.BenchmarkType),
		CustomerForecast: forecast.CustomerForecast(customers, current.AddMonths(-1)),
	}
	return report, nil
}

// weekdayWeights derives the seasonality vector from the trailing ledger.
// An explicit "uniform" policy opts out of the estimator; zero history
// degrades to the equal-share profile inside it.
func (s *Service) weekdayWeights(ctx context.Context, sku string, now time.Time, config string) ([7]float64, error) {
	if config == "uniform" {
		return forecast.UniformWeights(), nil
	}
	weekdays, err := s.repo.WeekdayAggregates(ctx, sku, now.AddDate(0, -weekdayLookbackMonths, 0))
	if err != nil {
		return [7]float64{}, err
	}
	sales := make([]forecast.WeekdaySales, 0, len(weekdays))
	for _, wd := range weekdays {
		sales = append(sales, forecast.WeekdaySales{Weekday: wd.Weekday, Quantity: wd.Quantity})
	}
	return forecast.WeekdayWeights(sales), nil
}

// ReceiveBatch books an arrived batch into stock.
func (s *Service) ReceiveBatch(ctx context.Context, sku, batchID string) error {
	if err := s.repo.ReceiveBatch(ctx, sku, batchID); err != nil {
		return err
	}
	s.logger.Info("inbound batch received", "sku", sku, "batch", batchID)
	return nil
}

// CurrentMonthDemand resolves the effective forecast for the running month.
// The replenishment engine consumes this as its demand input.
func (s *Service) CurrentMonthDemand(ctx context.Context, sku string, pv PolicyView) (float64, error) {
	current := shared.YearMonthOf(s.now())
	aggregates, err := s.repo.MonthlyAggregates(ctx, sku, current, modelMonths)
	if err != nil {
		return 0, err
	}
	history := make(map[shared.YearMonth]float64, len(aggregates))
	for _, agg := range aggregates {
		history[agg.Month] = agg.Quantity
	}
	// Model the current month from history ending one month back so the
	// running month's partial sales do not drag the projection down.
	outcome := forecast.MonthlyForecast(history, current.AddMonths(-1), modelMonths, 1)
	if outcome.FitErr != nil {
		s.logger.Warn("forecast model fell back to mean", "sku", sku, "error", outcome.FitErr)
	}
	resolver := forecast.Resolver{
		Overrides:          pv.Overrides,
		Calculated:         pv.Calculated,
		Model:              outcome.Values,
		RatioAdjustmentPct: pv.RatioAdjustmentPct,
	}
	qty, _ := resolver.Resolve(current)
	return qty, nil
}

// benchmarkPct compares the current forecast against last month ("mom") or
// the same month last year ("yoy"). Zero baseline yields zero.
func benchmarkPct(current float64, history map[shared.YearMonth]float64, month shared.YearMonth, benchmarkType string) float64 {
	var baseline float64
	switch benchmarkType {
	case "yoy":
		baseline = history[month.AddMonths(-12)]
	default:
		baseline = history[month.AddMonths(-1)]
	}
	if baseline == 0 {
		return 0
	}
	return (current - baseline) / baseline * 100
}
