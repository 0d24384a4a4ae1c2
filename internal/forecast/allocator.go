package forecast

import "github.com/stockpilot/stockpilot/internal/shared"

// DailyQuantity is one day of an allocated month.
type DailyQuantity struct {
	Day      int
	Quantity float64
}

// AllocateDaily spreads a month's forecast across its calendar days using
// weekday weights: each day receives the month total times its weekday's
// weight, normalized by the weight summed over every day of the month. The
// output is a fractional units-per-day curve, deliberately unrounded so
// charts stay smooth. A zero month weight falls back to an even split so the
// total is always distributed.
func AllocateDaily(ym shared.YearMonth, total float64, weights [7]float64) []DailyQuantity {
	days := ym.Days()
	first := ym.First()

	var monthWeight float64
	for d := 0; d < days; d++ {
		monthWeight += weights[mondayIndex(first.AddDate(0, 0, d).Weekday())]
	}

	out := make([]DailyQuantity, 0, days)
	for d := 0; d < days; d++ {
		share := 1 / float64(days)
		if monthWeight > 0 {
			share = weights[mondayIndex(first.AddDate(0, 0, d).Weekday())] / monthWeight
		}
		out = append(out, DailyQuantity{Day: d + 1, Quantity: total * share})
	}
	return out
}
