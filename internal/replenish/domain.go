package replenish

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/shared"
)

// Mode selects which supplier lane a reorder rides.
type Mode string

const (
	// ModeFast is the short lead-time lane (7 days).
	ModeFast Mode = "fast"
	// ModeEconomic is the long lead-time lane (30 days).
	ModeEconomic Mode = "economic"
)

// LeadTimeDays returns the lane's lead time.
func (m Mode) LeadTimeDays() int {
	if m == ModeEconomic {
		return 30
	}
	return 7
}

// Policy is the per-SKU replenishment configuration.
type Policy struct {
	SKU             string  `json:"sku" validate:"required"`
	SafetyStockDays float64 `json:"safety_stock_days" validate:"gte=0"`
	PreferredMode   Mode    `json:"preferred_mode" validate:"oneof=fast economic"`
	EOQ             float64 `json:"eoq" validate:"gte=0"`

	// AutoEnabled opts the SKU into the minute scheduler; AutoTime is the
	// wall-clock minute (scheduler timezone) at which it is evaluated.
	AutoEnabled bool   `json:"auto_enabled"`
	AutoTime    string `json:"auto_time" validate:"omitempty,datetime=15:04"`

	// RatioAdjustmentPct scales the live model forecast, e.g. 10 = +10%.
	RatioAdjustmentPct float64 `json:"ratio_adjustment_pct" validate:"gte=-100,lte=1000"`
	// BenchmarkType picks the KPI baseline: month-over-month or
	// year-over-year.
	BenchmarkType string `json:"benchmark_type" validate:"omitempty,oneof=mom yoy"`
	// SeasonalWeightConfig selects the daily allocation profile.
	SeasonalWeightConfig string  `json:"seasonal_weight_config" validate:"omitempty,oneof=uniform weekday"`
	ServiceLevel         float64 `json:"service_level" validate:"gte=0,lte=1"`

	// Overrides pin month forecasts; Calculated carries persisted planning
	// figures. Both win over the live model, overrides first.
	Overrides  map[shared.YearMonth]float64 `json:"overrides"`
	Calculated map[shared.YearMonth]float64 `json:"calculated"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultPolicy is what SKUs without an explicit policy run under.
func DefaultPolicy(sku string) Policy {
	return Policy{
		SKU:             sku,
		SafetyStockDays: 1,
		PreferredMode:   ModeFast,
		ServiceLevel:    0.95,
	}
}

// PriceTier is one quantity break of a supplier's price list. At most one
// tier per offer is marked selected; with none selected the lowest-quantity
// tier is the effective default.
type PriceTier struct {
	MinQty       float64         `json:"min_qty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LeadTimeDays int             `json:"lead_time_days"`
	Selected     bool            `json:"selected"`
}

// SupplierPricing is a supplier's offer for a SKU on one lane.
type SupplierPricing struct {
	SupplierID   string      `json:"supplier_id"`
	SKU          string      `json:"sku"`
	Mode         Mode        `json:"mode"`
	LeadTimeDays int         `json:"lead_time_days"`
	Tiers        []PriceTier `json:"tiers"`
}

// ProposalSource records how a proposal came to exist.
type ProposalSource string

const (
	SourceManual ProposalSource = "MANUAL"
	SourceAuto   ProposalSource = "AUTO"
)

// NotifyStatus tracks the outbound alert for a proposal.
type NotifyStatus string

const (
	NotifyPending NotifyStatus = "pending"
	NotifySent    NotifyStatus = "sent"
	NotifyFailed  NotifyStatus = "failed"
)

// Proposal is a procurement suggestion awaiting buyer review.
type Proposal struct {
	ID           uuid.UUID       `json:"id"`
	SKU          string          `json:"sku"`
	Quantity     float64         `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SupplierID   string          `json:"supplier_id"`
	Source       ProposalSource  `json:"source"`
	NotifyStatus NotifyStatus    `json:"notify_status"`
	// Snapshot preserves the decision inputs for audit.
	Snapshot map[string]any `json:"snapshot"`
	// OrderDate is the day the order should be placed; the engine proposes
	// ordering immediately, so it is the evaluation day.
	OrderDate time.Time `json:"order_date"`
	CreatedAt time.Time `json:"created_at"`
}
