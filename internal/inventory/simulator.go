package inventory

import (
	"math"

	"github.com/stockpilot/stockpilot/internal/shared"
)

// SimPoint is one simulated month of projected stock.
type SimPoint struct {
	Month shared.YearMonth `json:"month"`
	// Inbound is the quantity of pending batches landing this month.
	Inbound float64 `json:"inbound"`
	// Demand is the resolved forecast consumed this month.
	Demand float64 `json:"demand"`
	// Stock is the projected end-of-month balance. It goes negative when
	// demand outruns supply; the deficit nets against later inbound.
	Stock    float64 `json:"stock"`
	BelowROP bool    `json:"below_rop"`
	// SafetyLine and ROPLine are the chart reference lines. SafetyLine
	// sits at 60% of the reorder point.
	SafetyLine float64 `json:"safety_line"`
	ROPLine    float64 `json:"rop_line"`
}

// Simulate folds opening stock forward through the given months: each month
// adds the inbound quantity landing then and consumes that month's demand.
// Pure function of its inputs; callers supply resolved demand and batch
// arrivals already bucketed by month.
func Simulate(opening float64, months []shared.YearMonth, demand map[shared.YearMonth]float64, inbound map[shared.YearMonth]float64, rop float64) []SimPoint {
	safetyLine := math.Round(rop * 0.6)
	stock := opening

	out := make([]SimPoint, 0, len(months))
	for _, month := range months {
		in := inbound[month]
		consumed := demand[month]
		// The reorder flag is observed after inbound lands and before the
		// month's demand drains, mirroring when an ordering decision would
		// actually be taken.
		afterInbound := stock + in
		stock = afterInbound - consumed
		out = append(out, SimPoint{
			Month:      month,
			Inbound:    in,
			Demand:     consumed,
			Stock:      stock,
			BelowROP:   afterInbound < rop,
			SafetyLine: safetyLine,
			ROPLine:    rop,
		})
	}
	return out
}

// BucketInbound sums pending batch quantities by arrival month. Received
// batches are already inside the on-hand balance and are skipped.
func BucketInbound(batches []InboundBatch) map[shared.YearMonth]float64 {
	out := make(map[shared.YearMonth]float64, len(batches))
	for _, b := range batches {
		if b.Status != BatchPending {
			continue
		}
		out[shared.YearMonthOf(b.ETA)] += b.Quantity
	}
	return out
}
