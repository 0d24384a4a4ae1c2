package replenish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stockpilot/stockpilot/internal/inventory"
	"github.com/stockpilot/stockpilot/internal/shared"
)

const (
	// idempotencyWindow suppresses repeat AUTO proposals for a SKU. A tick
	// that fires twice, or overlapping workers, land inside the window and
	// skip instead of double-ordering.
	idempotencyWindow = 5 * time.Minute

	// lockTTL bounds how long a per-SKU evaluation may hold its lock.
	lockTTL = 30 * time.Second
)

// PolicyStore persists policies and supplier offers.
type PolicyStore interface {
	GetPolicy(ctx context.Context, sku string) (Policy, error)
	UpsertPolicy(ctx context.Context, p Policy) error
	SupplierOffers(ctx context.Context, sku string) ([]SupplierPricing, error)
}

// ProposalStore persists procurement proposals.
type ProposalStore interface {
	CreateProposal(ctx context.Context, p Proposal) error
	RecentAutoProposalExists(ctx context.Context, sku string, since time.Time) (bool, error)
	UpdateNotifyStatus(ctx context.Context, id string, status NotifyStatus) error
	ListProposals(ctx context.Context, sku string, page, perPage int) ([]Proposal, shared.Pagination, error)
}

// StockPort reads current stock state.
type StockPort interface {
	OnHand(ctx context.Context, sku string) (float64, error)
	PendingInbound(ctx context.Context, sku string) (float64, error)
}

// DemandPort resolves the effective current-month forecast.
type DemandPort interface {
	CurrentMonthDemand(ctx context.Context, sku string, pv inventory.PolicyView) (float64, error)
}

// Notifier delivers proposal alerts. Failures are tolerated: the proposal
// stands and the miss is recorded on its notify status.
type Notifier interface {
	ProposalCreated(ctx context.Context, p Proposal, d Decision) error
}

// AuditPort records decision trails.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditEntry) error
}

// Lock is a held distributed lock.
type Lock interface {
	Release(ctx context.Context) error
}

// ErrLockNotObtained reports a lock already held elsewhere.
var ErrLockNotObtained = errors.New("replenish: lock not obtained")

// LockManager hands out per-SKU locks.
type LockManager interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Service runs replenishment evaluations and owns policy CRUD.
type Service struct {
	policies  PolicyStore
	proposals ProposalStore
	stock     StockPort
	demand    DemandPort
	notifier  Notifier
	audit     AuditPort
	locks     LockManager
	logger    *slog.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// NewService wires a Service.
func NewService(policies PolicyStore, proposals ProposalStore, stock StockPort, demand DemandPort, notifier Notifier, audit AuditPort, locks LockManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		policies:  policies,
		proposals: proposals,
		stock:     stock,
		demand:    demand,
		notifier:  notifier,
		audit:     audit,
		locks:     locks,
		logger:    logger,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// PolicyFor returns the SKU's policy, falling back to defaults.
func (s *Service) PolicyFor(ctx context.Context, sku string) (Policy, error) {
	p, err := s.policies.GetPolicy(ctx, sku)
	if errors.Is(err, shared.ErrNotFound) {
		return DefaultPolicy(sku), nil
	}
	if err != nil {
		return Policy{}, err
	}
	return p, nil
}

// SavePolicy validates and persists a policy.
func (s *Service) SavePolicy(ctx context.Context, p Policy) error {
	if p.PreferredMode == "" {
		p.PreferredMode = ModeFast
	}
	if err := s.validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return s.policies.UpsertPolicy(ctx, p)
}

// View adapts the SKU's policy into the slice the forecast report needs.
func (s *Service) View(ctx context.Context, sku string) (inventory.PolicyView, error) {
	p, err := s.PolicyFor(ctx, sku)
	if err != nil {
		return inventory.PolicyView{}, err
	}
	return viewOf(p), nil
}

func viewOf(p Policy) inventory.PolicyView {
	mode := p.PreferredMode
	if mode == "" {
		mode = ModeFast
	}
	return inventory.PolicyView{
		Overrides:            p.Overrides,
		Calculated:           p.Calculated,
		RatioAdjustmentPct:   p.RatioAdjustmentPct,
		SafetyStockDays:      p.SafetyStockDays,
		LeadTimeDays:         mode.LeadTimeDays(),
		SeasonalWeightConfig: p.SeasonalWeightConfig,
		BenchmarkType:        p.BenchmarkType,
	}
}

// Evaluate runs the engine read-only for one SKU. No proposal is created.
func (s *Service) Evaluate(ctx context.Context, sku string) (Decision, error) {
	policy, err := s.PolicyFor(ctx, sku)
	if err != nil {
		return Decision{}, err
	}
	return s.evaluateWith(ctx, sku, policy)
}

func (s *Service) evaluateWith(ctx context.Context, sku string, policy Policy) (Decision, error) {
	forecast, err := s.demand.CurrentMonthDemand(ctx, sku, viewOf(policy))
	if err != nil {
		return Decision{}, fmt.Errorf("replenish: resolve demand for %s: %w", sku, err)
	}
	onHand, err := s.stock.OnHand(ctx, sku)
	if err != nil {
		return Decision{}, err
	}
	pending, err := s.stock.PendingInbound(ctx, sku)
	if err != nil {
		return Decision{}, err
	}
	return Evaluate(Input{Forecast: forecast, OnHand: onHand, PendingInbound: pending, Policy: policy}), nil
}

// TriggerAuto evaluates one SKU under its per-SKU lock and creates an AUTO
// proposal when the engine triggers. Returns nil without error when nothing
// was created: lock contention, a proposal inside the idempotency window,
// or an engine that did not trigger.
func (s *Service) TriggerAuto(ctx context.Context, sku string) (*Proposal, error) {
	lock, err := s.locks.Obtain(ctx, shared.ReplenishLockKey(sku), lockTTL)
	if errors.Is(err, ErrLockNotObtained) {
		s.logger.Debug("sku evaluation already in flight", "sku", sku)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("replenish: obtain lock for %s: %w", sku, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release sku lock failed", "sku", sku, "error", err)
		}
	}()

	now := s.now()
	recent, err := s.proposals.RecentAutoProposalExists(ctx, sku, now.Add(-idempotencyWindow))
	if err != nil {
		return nil, err
	}
	if recent {
		s.logger.Debug("recent auto proposal exists, skipping", "sku", sku)
		return nil, nil
	}

	policy, err := s.PolicyFor(ctx, sku)
	if err != nil {
		return nil, err
	}
	decision, err := s.evaluateWith(ctx, sku, policy)
	if err != nil {
		return nil, err
	}
	if !decision.Triggered {
		return nil, nil
	}

	proposal := Proposal{
		ID:           uuid.New(),
		SKU:          sku,
		Quantity:     decision.OrderQty,
		Source:       SourceAuto,
		NotifyStatus: NotifyPending,
		Snapshot:     decisionSnapshot(decision),
		OrderDate:    now.Truncate(24 * time.Hour),
		CreatedAt:    now,
	}
	offers, err := s.policies.SupplierOffers(ctx, sku)
	if err != nil {
		return nil, err
	}
	quote, err := ResolvePricing(offers, decision.Mode, decision.OrderQty)
	switch {
	case errors.Is(err, ErrNoSupplier):
		s.logger.Warn("no supplier pricing, proposal created unpriced", "sku", sku)
	case err != nil:
		return nil, err
	default:
		proposal.SupplierID = quote.SupplierID
		proposal.UnitPrice = quote.UnitPrice
		proposal.Snapshot["supplier_lead_time_days"] = quote.LeadTimeDays
	}

	if err := s.proposals.CreateProposal(ctx, proposal); err != nil {
		if errors.Is(err, ErrDuplicateProposal) {
			s.logger.Debug("proposal already created concurrently", "sku", sku)
			return nil, nil
		}
		return nil, err
	}
	s.recordAudit(ctx, sku, "auto_proposal_created", proposal, decision)
	proposal.NotifyStatus = s.notify(ctx, proposal, decision)
	return &proposal, nil
}

// CreateManualProposal creates a buyer-initiated proposal for an explicit
// quantity, priced off the policy's preferred lane.
func (s *Service) CreateManualProposal(ctx context.Context, sku string, qty float64) (Proposal, error) {
	if qty <= 0 {
		return Proposal{}, fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}
	policy, err := s.PolicyFor(ctx, sku)
	if err != nil {
		return Proposal{}, err
	}
	decision, err := s.evaluateWith(ctx, sku, policy)
	if err != nil {
		return Proposal{}, err
	}

	now := s.now()
	proposal := Proposal{
		ID:           uuid.New(),
		SKU:          sku,
		Quantity:     qty,
		Source:       SourceManual,
		NotifyStatus: NotifyPending,
		Snapshot:     decisionSnapshot(decision),
		OrderDate:    now.Truncate(24 * time.Hour),
		CreatedAt:    now,
	}
	offers, err := s.policies.SupplierOffers(ctx, sku)
	if err != nil {
		return Proposal{}, err
	}
	quote, err := ResolvePricing(offers, decision.Mode, qty)
	if err == nil {
		proposal.SupplierID = quote.SupplierID
		proposal.UnitPrice = quote.UnitPrice
		proposal.Snapshot["supplier_lead_time_days"] = quote.LeadTimeDays
	} else if !errors.Is(err, ErrNoSupplier) {
		return Proposal{}, err
	}

	if err := s.proposals.CreateProposal(ctx, proposal); err != nil {
		return Proposal{}, err
	}
	s.recordAudit(ctx, sku, "manual_proposal_created", proposal, decision)
	proposal.NotifyStatus = s.notify(ctx, proposal, decision)
	return proposal, nil
}

// ListProposals pages proposals newest first, optionally filtered to a SKU.
func (s *Service) ListProposals(ctx context.Context, sku string, page, perPage int) ([]Proposal, shared.Pagination, error) {
	return s.proposals.ListProposals(ctx, sku, page, perPage)
}

// notify delivers the proposal alert and records the outcome. A failed
// delivery never fails the proposal.
func (s *Service) notify(ctx context.Context, p Proposal, d Decision) NotifyStatus {
	status := NotifySent
	if err := s.notifier.ProposalCreated(ctx, p, d); err != nil {
		s.logger.Warn("proposal notification failed", "sku", p.SKU, "proposal_id", p.ID, "error", err)
		status = NotifyFailed
	}
	if err := s.proposals.UpdateNotifyStatus(ctx, p.ID.String(), status); err != nil {
		s.logger.Warn("update notify status failed", "proposal_id", p.ID, "error", err)
	}
	return status
}

func (s *Service) recordAudit(ctx context.Context, sku, action string, p Proposal, d Decision) {
	entry := shared.AuditEntry{
		SKU:    sku,
		Action: action,
		Content: map[string]any{
			"proposal_id": p.ID.String(),
			"quantity":    p.Quantity,
			"supplier_id": p.SupplierID,
			"decision":    decisionSnapshot(d),
		},
		At: p.CreatedAt,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", "sku", sku, "action", action, "error", err)
	}
}

func decisionSnapshot(d Decision) map[string]any {
	return map[string]any{
		"daily_sales":     d.DailySales,
		"lead_time_days":  d.LeadTimeDays,
		"mode":            string(d.Mode),
		"safety_stock":    d.SafetyStock,
		"reorder_point":   d.ReorderPoint,
		"effective_stock": d.EffectiveStock,
		"target_level":    d.TargetLevel,
		"order_qty":       d.OrderQty,
	}
}
