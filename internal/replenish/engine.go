package replenish

import "math"

// orderRounding snaps order quantities up to carton multiples.
const orderRounding = 100

// Input feeds one engine evaluation.
type Input struct {
	// Forecast is the resolved demand for the current month, in units.
	Forecast float64
	// OnHand is the physical balance; PendingInbound the open purchase
	// quantity already on its way.
	OnHand         float64
	PendingInbound float64
	Policy         Policy
}

// Decision is the engine's verdict for one SKU.
type Decision struct {
	DailySales     float64 `json:"daily_sales"`
	LeadTimeDays   int     `json:"lead_time_days"`
	Mode           Mode    `json:"mode"`
	SafetyStock    float64 `json:"safety_stock"`
	ReorderPoint   float64 `json:"reorder_point"`
	EffectiveStock float64 `json:"effective_stock"`
	Triggered      bool    `json:"triggered"`
	TargetLevel    float64 `json:"target_level"`
	OrderQty       float64 `json:"order_qty"`
}

// Evaluate runs the replenishment formulas. Daily sales derive from the
// monthly forecast over a flat 30-day month. The reorder point is safety
// stock plus demand over the lane's lead time; a reorder triggers only when
// effective stock (on hand plus inbound) sits below it and there is demand
// at all. The order tops stock up to the larger of 1.5x the reorder point
// and reorder point plus 15 days of sales, floored at the policy EOQ and
// rounded up to carton multiples.
func Evaluate(in Input) Decision {
	mode := in.Policy.PreferredMode
	if mode == "" {
		mode = ModeFast
	}
	lead := mode.LeadTimeDays()

	daily := in.Forecast / 30
	safety := daily * 30 * in.Policy.SafetyStockDays
	rop := safety + daily*float64(lead)
	effective := in.OnHand + in.PendingInbound

	d := Decision{
		DailySales:     daily,
		LeadTimeDays:   lead,
		Mode:           mode,
		SafetyStock:    safety,
		ReorderPoint:   rop,
		EffectiveStock: effective,
	}

	if in.Forecast <= 0 || effective >= rop {
		return d
	}
	d.Triggered = true
	d.TargetLevel = math.Max(rop*1.5, rop+daily*15)

	need := math.Max(d.TargetLevel-effective, in.Policy.EOQ)
	d.OrderQty = math.Ceil(need/orderRounding) * orderRounding
	return d
}
