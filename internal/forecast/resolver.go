package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/shared"
)

// Source labels where a resolved month quantity came from.
type Source string

const (
	// SourceOverride is an operator-pinned quantity.
	SourceOverride Source = "override"
	// SourceCalculated is a persisted planning figure.
	SourceCalculated Source = "calculated"
	// SourceModel is the live statistical projection.
	SourceModel Source = "model"
)

// Resolver layers the three forecast inputs for one SKU. Overrides win over
// calculated figures, which win over the live model. The ratio adjustment
// applies to model values only: pinned and planned figures are taken as
// written.
type Resolver struct {
	Overrides  map[shared.YearMonth]float64
	Calculated map[shared.YearMonth]float64
	Model      map[shared.YearMonth]float64

	// RatioAdjustmentPct scales model output, e.g. 10 lifts it by 10%.
	RatioAdjustmentPct float64
}

// Resolve returns the effective quantity for the month and which layer
// supplied it. A month present in a layer counts even when the value is
// zero; an explicit zero override suppresses the model.
func (r Resolver) Resolve(ym shared.YearMonth) (float64, Source) {
	if qty, ok := r.Overrides[ym]; ok {
		return qty, SourceOverride
	}
	if qty, ok := r.Calculated[ym]; ok {
		return qty, SourceCalculated
	}
	qty := r.Model[ym]
	if r.RatioAdjustmentPct != 0 {
		qty *= 1 + r.RatioAdjustmentPct/100
	}
	if qty < 0 {
		qty = 0
	}
	return qty, SourceModel
}

// ResolveRange resolves n consecutive months starting at from.
func (r Resolver) ResolveRange(from shared.YearMonth, n int) map[shared.YearMonth]float64 {
	out := make(map[shared.YearMonth]float64, n)
	for _, ym := range shared.MonthRange(from, n) {
		qty, _ := r.Resolve(ym)
		out[ym] = qty
	}
	return out
}

// AmountForecast converts resolved unit quantities into revenue using the
// SKU's last known unit price. Prices stay in decimal form until the final
// rounding so repeated multiplication does not drift.
func AmountForecast(quantities map[shared.YearMonth]float64, unitPrice decimal.Decimal) map[shared.YearMonth]decimal.Decimal {
	out := make(map[shared.YearMonth]decimal.Decimal, len(quantities))
	for ym, qty := range quantities {
		out[ym] = unitPrice.Mul(decimal.NewFromFloat(qty)).Round(2)
	}
	return out
}
