package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeekdayWeightsNormalize(t *testing.T) {
	weights := WeekdayWeights([]WeekdaySales{
		{Weekday: time.Monday, Quantity: 50},
		{Weekday: time.Friday, Quantity: 30},
		{Weekday: time.Saturday, Quantity: 20},
	})

	require.InDelta(t, 0.5, weights[0], 1e-9)
	require.InDelta(t, 0.3, weights[4], 1e-9)
	require.InDelta(t, 0.2, weights[5], 1e-9)

	var sum float64
	for _, w := range weights {
		sum += w
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestWeekdayWeightsIgnoresNonPositive(t *testing.T) {
	weights := WeekdayWeights([]WeekdaySales{
		{Weekday: time.Monday, Quantity: 80},
		{Weekday: time.Tuesday, Quantity: -5},
		{Weekday: time.Wednesday, Quantity: 20},
	})
	require.InDelta(t, 0.8, weights[0], 1e-9)
	require.InDelta(t, 0.0, weights[1], 1e-9)
	require.InDelta(t, 0.2, weights[2], 1e-9)
}

func TestWeekdayWeightsUniformFallback(t *testing.T) {
	for _, sales := range [][]WeekdaySales{
		nil,
		{{Weekday: time.Sunday, Quantity: 0}},
		{{Weekday: time.Monday, Quantity: -10}},
	} {
		weights := WeekdayWeights(sales)
		for i := range weights {
			require.InDelta(t, 1.0/7.0, weights[i], 1e-9)
		}
	}
}

func TestMondayIndexLayout(t *testing.T) {
	require.Equal(t, 0, mondayIndex(time.Monday))
	require.Equal(t, 5, mondayIndex(time.Saturday))
	require.Equal(t, 6, mondayIndex(time.Sunday))
}
