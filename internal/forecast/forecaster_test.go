package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/shared"
)

func ym(year int, month time.Month) shared.YearMonth {
	return shared.YearMonth{Year: year, Month: month}
}

func TestMonthlyForecastFlatWhenHistoryThin(t *testing.T) {
	history := map[shared.YearMonth]float64{
		ym(2025, time.March): 100,
		ym(2025, time.May):   110,
		ym(2025, time.June):  95,
	}
	out := MonthlyForecast(history, ym(2025, time.June), 24, 6)

	require.Equal(t, MethodMean, out.Method)
	require.NoError(t, out.FitErr)
	require.Len(t, out.Values, 6)
	// mean(100, 110, 95) = 101.67, rounded to 102, flat across the horizon
	for _, month := range shared.MonthRange(ym(2025, time.July), 6) {
		require.Equal(t, 102.0, out.Values[month])
	}
}

func TestMonthlyForecastZeroWithoutAnySales(t *testing.T) {
	out := MonthlyForecast(nil, ym(2025, time.June), 24, 6)
	require.Equal(t, MethodMean, out.Method)
	for _, qty := range out.Values {
		require.Equal(t, 0.0, qty)
	}
}

func TestMonthlyForecastModelPath(t *testing.T) {
	history := map[shared.YearMonth]float64{}
	from := ym(2023, time.January)
	// 30 months of gently trending demand, plenty for the model path.
	for i := 0; i < 30; i++ {
		history[from.AddMonths(i)] = 100 + 2*float64(i)
	}
	last := from.AddMonths(29)
	out := MonthlyForecast(history, last, 30, 6)

	require.Len(t, out.Values, 6)
	for _, month := range shared.MonthRange(last.AddMonths(1), 6) {
		require.Contains(t, out.Values, month)
		require.GreaterOrEqual(t, out.Values[month], 0.0)
	}
	if out.Method == MethodMean {
		// The fallback is only acceptable with a recorded reason.
		require.Error(t, out.FitErr)
	}
}

func TestMonthlyForecastNeverNegative(t *testing.T) {
	history := map[shared.YearMonth]float64{}
	from := ym(2023, time.January)
	for i := 0; i < 24; i++ {
		history[from.AddMonths(i)] = float64(240 - 10*i)
	}
	out := MonthlyForecast(history, from.AddMonths(23), 24, 6)
	for _, qty := range out.Values {
		require.GreaterOrEqual(t, qty, 0.0)
	}
}

func TestCustomerForecastTrailingAverage(t *testing.T) {
	history := map[shared.YearMonth]float64{
		ym(2025, time.May):  60,
		ym(2025, time.June): 30,
	}
	// (0+0+0+0+60+30)/6 over the trailing half year
	require.InDelta(t, 15.0, CustomerForecast(history, ym(2025, time.June)), 1e-9)
}
