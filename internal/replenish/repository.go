package replenish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot/stockpilot/internal/shared"
)

// ErrDuplicateProposal maps unique-violation inserts on proposals.
var ErrDuplicateProposal = errors.New("replenish: duplicate proposal")

// Repository persists policies and proposals in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const policyColumns = `sku, safety_stock_days, preferred_mode, eoq, auto_enabled,
	COALESCE(auto_time, ''), ratio_adjustment_pct, COALESCE(benchmark_type, ''),
	COALESCE(seasonal_weight_config, ''), service_level, overrides, calculated, updated_at`

// GetPolicy loads the policy for a SKU, ErrNotFound when absent.
func (r *Repository) GetPolicy(ctx context.Context, sku string) (Policy, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+policyColumns+` FROM replenishment_policies WHERE sku = $1`, sku)
	return scanPolicy(row)
}

func scanPolicy(row pgx.Row) (Policy, error) {
	var p Policy
	var overrides, calculated map[string]any
	err := row.Scan(&p.SKU, &p.SafetyStockDays, &p.PreferredMode, &p.EOQ, &p.AutoEnabled,
		&p.AutoTime, &p.RatioAdjustmentPct, &p.BenchmarkType,
		&p.SeasonalWeightConfig, &p.ServiceLevel, &overrides, &calculated, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Policy{}, shared.ErrNotFound
	}
	if err != nil {
		return Policy{}, fmt.Errorf("replenish: scan policy: %w", err)
	}
	p.Overrides = shared.LenientQtyMap(overrides)
	p.Calculated = shared.LenientQtyMap(calculated)
	return p, nil
}

// UpsertPolicy writes the policy, replacing any existing row for the SKU.
func (r *Repository) UpsertPolicy(ctx context.Context, p Policy) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO replenishment_policies (
			sku, safety_stock_days, preferred_mode, eoq, auto_enabled, auto_time,
			ratio_adjustment_pct, benchmark_type, seasonal_weight_config,
			service_level, overrides, calculated, updated_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), NULLIF($9, ''), $10, $11, $12, NOW())
		ON CONFLICT (sku) DO UPDATE SET
			safety_stock_days = EXCLUDED.safety_stock_days,
			preferred_mode = EXCLUDED.preferred_mode,
			eoq = EXCLUDED.eoq,
			auto_enabled = EXCLUDED.auto_enabled,
			auto_time = EXCLUDED.auto_time,
			ratio_adjustment_pct = EXCLUDED.ratio_adjustment_pct,
			benchmark_type = EXCLUDED.benchmark_type,
			seasonal_weight_config = EXCLUDED.seasonal_weight_config,
			service_level = EXCLUDED.service_level,
			overrides = EXCLUDED.overrides,
			calculated = EXCLUDED.calculated,
			updated_at = NOW()`,
		p.SKU, p.SafetyStockDays, p.PreferredMode, p.EOQ, p.AutoEnabled, p.AutoTime,
		p.RatioAdjustmentPct, p.BenchmarkType, p.SeasonalWeightConfig,
		p.ServiceLevel, p.Overrides, p.Calculated)
	if err != nil {
		return fmt.Errorf("replenish: upsert policy: %w", err)
	}
	return nil
}

// ListAutoCandidates returns SKUs whose auto evaluation is scheduled for the
// given wall-clock minute ("15:04" form, scheduler timezone).
func (r *Repository) ListAutoCandidates(ctx context.Context, hhmm string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sku FROM replenishment_policies
		WHERE auto_enabled AND auto_time = $1
		ORDER BY sku`, hhmm)
	if err != nil {
		return nil, fmt.Errorf("replenish: query auto candidates: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sku string
		if err := rows.Scan(&sku); err != nil {
			return nil, fmt.Errorf("replenish: scan auto candidate: %w", err)
		}
		out = append(out, sku)
	}
	return out, rows.Err()
}

// SupplierOffers lists every supplier offer for the SKU across lanes.
func (r *Repository) SupplierOffers(ctx context.Context, sku string) ([]SupplierPricing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT supplier_id, sku, mode, lead_time_days, tiers
		FROM supplier_pricing
		WHERE sku = $1
		ORDER BY supplier_id`, sku)
	if err != nil {
		return nil, fmt.Errorf("replenish: query supplier offers: %w", err)
	}
	defer rows.Close()

	var out []SupplierPricing
	for rows.Next() {
		var offer SupplierPricing
		if err := rows.Scan(&offer.SupplierID, &offer.SKU, &offer.Mode, &offer.LeadTimeDays, &offer.Tiers); err != nil {
			return nil, fmt.Errorf("replenish: scan supplier offer: %w", err)
		}
		out = append(out, offer)
	}
	return out, rows.Err()
}

// CreateProposal inserts a proposal row.
func (r *Repository) CreateProposal(ctx context.Context, p Proposal) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO procurement_proposals (
			id, sku, quantity, unit_price, supplier_id, source, notify_status, snapshot, order_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.SKU, p.Quantity, p.UnitPrice, p.SupplierID, p.Source, p.NotifyStatus, p.Snapshot, p.OrderDate, p.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateProposal
	}
	if err != nil {
		return fmt.Errorf("replenish: insert proposal: %w", err)
	}
	return nil
}

// RecentAutoProposalExists reports whether an AUTO proposal for the SKU was
// created at or after the cutoff. The scheduler uses this as its duplicate
// window guard.
func (r *Repository) RecentAutoProposalExists(ctx context.Context, sku string, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM procurement_proposals
			WHERE sku = $1 AND source = 'AUTO' AND created_at >= $2
		)`, sku, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("replenish: query recent auto proposal: %w", err)
	}
	return exists, nil
}

// UpdateNotifyStatus records the outcome of the proposal alert.
func (r *Repository) UpdateNotifyStatus(ctx context.Context, id string, status NotifyStatus) error {
	_, err := r.pool.Exec(ctx, `UPDATE procurement_proposals SET notify_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("replenish: update notify status: %w", err)
	}
	return nil
}

// ListProposals pages through proposals newest first. An empty sku lists
// every SKU.
func (r *Repository) ListProposals(ctx context.Context, sku string, page, perPage int) ([]Proposal, shared.Pagination, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM procurement_proposals
		WHERE $1 = '' OR sku = $1`, sku).Scan(&total); err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("replenish: count proposals: %w", err)
	}
	pagination := shared.NewPagination(page, perPage, total)

	rows, err := r.pool.Query(ctx, `
		SELECT id, sku, quantity, unit_price, supplier_id, source, notify_status, snapshot, order_date, created_at
		FROM procurement_proposals
		WHERE $1 = '' OR sku = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, sku, pagination.PerPage, (pagination.Page-1)*pagination.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("replenish: query proposals: %w", err)
	}
	defer rows.Close()

	var out []Proposal
	for rows.Next() {
		var p Proposal
		if err := rows.Scan(&p.ID, &p.SKU, &p.Quantity, &p.UnitPrice, &p.SupplierID, &p.Source, &p.NotifyStatus, &p.Snapshot, &p.OrderDate, &p.CreatedAt); err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("replenish: scan proposal: %w", err)
		}
		out = append(out, p)
	}
	return out, pagination, rows.Err()
}
