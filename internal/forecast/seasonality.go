package forecast

import "time"

// WeekdaySales carries aggregate sales volume for one weekday across the
// lookback window.
type WeekdaySales struct {
	Weekday  time.Weekday
	Quantity float64
}

// WeekdayWeights converts weekday sales totals into normalized allocation
// weights, index 0 = Monday through index 6 = Sunday. Weekdays absent from
// the input count as zero. When the totals sum to zero (no sales history,
// or negative adjustments cancelling out) every weekday gets an equal 1/7
// share so downstream allocation still distributes the full month.
func WeekdayWeights(sales []WeekdaySales) [7]float64 {
	var weights [7]float64
	var total float64
	for _, s := range sales {
		if s.Quantity <= 0 {
			continue
		}
		weights[mondayIndex(s.Weekday)] += s.Quantity
		total += s.Quantity
	}
	if total <= 0 {
		return UniformWeights()
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// UniformWeights returns the equal-share fallback profile.
func UniformWeights() [7]float64 {
	var weights [7]float64
	for i := range weights {
		weights[i] = 1.0 / 7.0
	}
	return weights
}

// mondayIndex maps time.Weekday (Sunday=0) onto the Monday-first layout.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
