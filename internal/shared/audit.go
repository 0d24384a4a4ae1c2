package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry represents a write-once record stored in audit_entries.
type AuditEntry struct {
	SKU     string
	Action  string
	Content map[string]any
	At      time.Time
}

// AuditLogger appends records into audit_entries.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the entry.
func (l *AuditLogger) Record(ctx context.Context, entry AuditEntry) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if entry.SKU == "" || entry.Action == "" {
		return errors.New("audit entry requires sku/action")
	}
	contentJSON, err := json.Marshal(entry.Content)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_entries (sku, action, content, created_at) VALUES ($1, $2, $3, COALESCE($4, NOW()))`, entry.SKU, entry.Action, contentJSON, entry.At)
	return err
}
