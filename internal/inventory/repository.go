package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/platform/db"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// Repository reads sales history and stock state from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MonthlyAggregates returns per-month sold quantity and revenue for the sku
// over the window [from-(months-1), from]. Months without sales are absent.
func (r *Repository) MonthlyAggregates(ctx context.Context, sku string, from shared.YearMonth, months int) ([]MonthlyAggregate, error) {
	start := from.AddMonths(-(months - 1)).First()
	end := from.AddMonths(1).First()

	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('month', sold_at) AS month,
		       COALESCE(SUM(quantity), 0),
		       COALESCE(SUM(quantity * unit_price), 0),
		       COUNT(DISTINCT customer_id)
		FROM sales_ledger
		WHERE sku = $1 AND sold_at >= $2 AND sold_at < $3
		GROUP BY 1
		ORDER BY 1`, sku, start, end)
	if err != nil {
		return nil, fmt.Errorf("inventory: query monthly aggregates: %w", err)
	}
	defer rows.Close()

	var out []MonthlyAggregate
	for rows.Next() {
		var month time.Time
		var agg MonthlyAggregate
		if err := rows.Scan(&month, &agg.Quantity, &agg.Amount, &agg.Customers); err != nil {
			return nil, fmt.Errorf("inventory: scan monthly aggregate: %w", err)
		}
		agg.Month = shared.YearMonthOf(month)
		out = append(out, agg)
	}
	return out, rows.Err()
}

// WeekdayAggregates sums sold quantity by weekday since the cutoff. ISODOW
// runs Monday=1 through Sunday=7.
func (r *Repository) WeekdayAggregates(ctx context.Context, sku string, since time.Time) ([]WeekdayAggregate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(ISODOW FROM sold_at)::int, COALESCE(SUM(quantity), 0)
		FROM sales_ledger
		WHERE sku = $1 AND sold_at >= $2
		GROUP BY 1`, sku, since)
	if err != nil {
		return nil, fmt.Errorf("inventory: query weekday aggregates: %w", err)
	}
	defer rows.Close()

	var out []WeekdayAggregate
	for rows.Next() {
		var isodow int
		var qty float64
		if err := rows.Scan(&isodow, &qty); err != nil {
			return nil, fmt.Errorf("inventory: scan weekday aggregate: %w", err)
		}
		out = append(out, WeekdayAggregate{Weekday: time.Weekday(isodow % 7), Quantity: qty})
	}
	return out, rows.Err()
}

// PendingBatches lists open inbound batches for the sku ordered by ETA.
func (r *Repository) PendingBatches(ctx context.Context, sku string) ([]InboundBatch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sku, quantity, status, eta
		FROM inbound_batches
		WHERE sku = $1 AND status = 'PENDING'
		ORDER BY eta`, sku)
	if err != nil {
		return nil, fmt.Errorf("inventory: query pending batches: %w", err)
	}
	defer rows.Close()

	var out []InboundBatch
	for rows.Next() {
		var b InboundBatch
		if err := rows.Scan(&b.ID, &b.SKU, &b.Quantity, &b.Status, &b.ETA); err != nil {
			return nil, fmt.Errorf("inventory: scan inbound batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReceiveBatch marks a pending batch as arrived and books its quantity into
// the stock balance. The two writes ride one transaction so a crash cannot
// count the quantity twice or lose it.
func (r *Repository) ReceiveBatch(ctx context.Context, sku, batchID string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var qty float64
		err := tx.QueryRow(ctx, `
			UPDATE inbound_batches SET status = 'RECEIVED', received_at = NOW()
			WHERE id = $1 AND sku = $2 AND status = 'PENDING'
			RETURNING quantity`, batchID, sku).Scan(&qty)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("inventory: receive batch: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO stock_balances (sku, on_hand) VALUES ($1, $2)
			ON CONFLICT (sku) DO UPDATE SET on_hand = stock_balances.on_hand + EXCLUDED.on_hand`, sku, qty)
		if err != nil {
			return fmt.Errorf("inventory: book received quantity: %w", err)
		}
		return nil
	})
}

// PendingInbound sums the open inbound quantity for the sku.
func (r *Repository) PendingInbound(ctx context.Context, sku string) (float64, error) {
	var qty float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM inbound_batches
		WHERE sku = $1 AND status = 'PENDING'`, sku).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("inventory: query pending inbound: %w", err)
	}
	return qty, nil
}

// OnHand returns the current balance for the sku. Unknown SKUs map to
// ErrNotFound so handlers can 404 instead of reporting phantom zero stock.
func (r *Repository) OnHand(ctx context.Context, sku string) (float64, error) {
	var qty float64
	err := r.pool.QueryRow(ctx, `SELECT on_hand FROM stock_balances WHERE sku = $1`, sku).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("inventory: query on hand: %w", err)
	}
	return qty, nil
}

// LastUnitPrice returns the most recent nonzero sale price for the sku, or
// zero when it has never sold at a real price.
func (r *Repository) LastUnitPrice(ctx context.Context, sku string) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT unit_price FROM sales_ledger
		WHERE sku = $1 AND unit_price > 0
		ORDER BY sold_at DESC
		LIMIT 1`, sku).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("inventory: query last unit price: %w", err)
	}
	return price, nil
}
