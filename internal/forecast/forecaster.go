package forecast

import (
	"math"

	"github.com/stockpilot/stockpilot/internal/shared"
)

const (
	// DefaultHorizon is how many future months a live forecast covers.
	DefaultHorizon = 6

	// minModelMonths is the minimum number of months with actual sales
	// before the ARIMA path is attempted. Thinner histories get a flat
	// projection of the nonzero mean.
	minModelMonths = 5
)

// Method labels how a monthly projection was produced.
type Method string

const (
	MethodARIMA Method = "arima"
	MethodMean  Method = "mean"
)

// Outcome is the result of a live monthly projection.
type Outcome struct {
	Values map[shared.YearMonth]float64
	Method Method
	// FitErr records why the model path was abandoned, when it was. The
	// projection in Values is still valid; callers log the error and move on.
	FitErr error
}

// MonthlyForecast produces a horizon-month projection starting at the month
// after the last history entry. history maps months to actual sold
// quantities; months with zero sales participate in the model series as
// zeros so the differencing sees real gaps. Never returns an empty Outcome:
// any model failure falls back to the flat nonzero-mean projection.
func MonthlyForecast(history map[shared.YearMonth]float64, from shared.YearMonth, months int, horizon int) Outcome {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	future := shared.MonthRange(from.AddMonths(1), horizon)

	series := make([]float64, 0, months)
	nonzero := 0
	var nonzeroSum float64
	for _, ym := range shared.MonthRange(from.AddMonths(-(months - 1)), months) {
		qty := history[ym]
		if qty < 0 {
			qty = 0
		}
		series = append(series, qty)
		if qty > 0 {
			nonzero++
			nonzeroSum += qty
		}
	}

	if nonzero < minModelMonths {
		return constantOutcome(future, nonzeroSum, nonzero, nil)
	}

	model, err := FitARIMA111(series)
	if err != nil {
		return constantOutcome(future, nonzeroSum, nonzero, err)
	}
	projected := model.Forecast(horizon)

	values := make(map[shared.YearMonth]float64, horizon)
	for i, ym := range future {
		values[ym] = projected[i]
	}
	return Outcome{Values: values, Method: MethodARIMA}
}

// constantOutcome projects the rounded mean of nonzero months flat across
// the horizon. A history with no sales at all projects zero.
func constantOutcome(future []shared.YearMonth, nonzeroSum float64, nonzero int, fitErr error) Outcome {
	flat := 0.0
	if nonzero > 0 {
		flat = math.Round(nonzeroSum / float64(nonzero))
	}
	values := make(map[shared.YearMonth]float64, len(future))
	for _, ym := range future {
		values[ym] = flat
	}
	return Outcome{Values: values, Method: MethodMean, FitErr: fitErr}
}

// CustomerForecast estimates next-month demand for a single customer as the
// average of their trailing six months of purchases, zero-filled.
func CustomerForecast(history map[shared.YearMonth]float64, from shared.YearMonth) float64 {
	var sum float64
	for _, ym := range shared.MonthRange(from.AddMonths(-5), 6) {
		sum += history[ym]
	}
	return sum / 6
}
