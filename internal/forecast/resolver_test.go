package forecast

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/shared"
)

func TestResolverLayerPriority(t *testing.T) {
	target := ym(2025, time.September)
	r := Resolver{
		Overrides:  map[shared.YearMonth]float64{target: 50},
		Calculated: map[shared.YearMonth]float64{target: 30},
		Model:      map[shared.YearMonth]float64{target: 10},
	}

	qty, source := r.Resolve(target)
	require.Equal(t, 50.0, qty)
	require.Equal(t, SourceOverride, source)

	delete(r.Overrides, target)
	qty, source = r.Resolve(target)
	require.Equal(t, 30.0, qty)
	require.Equal(t, SourceCalculated, source)

	delete(r.Calculated, target)
	qty, source = r.Resolve(target)
	require.Equal(t, 10.0, qty)
	require.Equal(t, SourceModel, source)
}

func TestResolverZeroOverrideSuppressesModel(t *testing.T) {
	target := ym(2025, time.September)
	r := Resolver{
		Overrides: map[shared.YearMonth]float64{target: 0},
		Model:     map[shared.YearMonth]float64{target: 200},
	}
	qty, source := r.Resolve(target)
	require.Equal(t, 0.0, qty)
	require.Equal(t, SourceOverride, source)
}

func TestResolverRatioAdjustmentModelOnly(t *testing.T) {
	adjusted := ym(2025, time.September)
	pinned := ym(2025, time.October)
	r := Resolver{
		Overrides:          map[shared.YearMonth]float64{pinned: 100},
		Model:              map[shared.YearMonth]float64{adjusted: 100, pinned: 100},
		RatioAdjustmentPct: 10,
	}

	qty, _ := r.Resolve(adjusted)
	require.InDelta(t, 110.0, qty, 1e-9)

	qty, _ = r.Resolve(pinned)
	require.Equal(t, 100.0, qty)
}

func TestResolveRangeMissingMonthsAreZero(t *testing.T) {
	from := ym(2025, time.September)
	r := Resolver{Model: map[shared.YearMonth]float64{from: 40}}
	out := r.ResolveRange(from, 3)
	require.Equal(t, 40.0, out[from])
	require.Equal(t, 0.0, out[from.AddMonths(1)])
	require.Equal(t, 0.0, out[from.AddMonths(2)])
}

func TestAmountForecast(t *testing.T) {
	quantities := map[shared.YearMonth]float64{
		ym(2025, time.September): 3,
	}
	amounts := AmountForecast(quantities, decimal.RequireFromString("19.99"))
	require.True(t, amounts[ym(2025, time.September)].Equal(decimal.RequireFromString("59.97")))
}
