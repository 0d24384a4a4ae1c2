package replenish

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/inventory"
	"github.com/stockpilot/stockpilot/internal/shared"
)

type fakePolicyStore struct {
	policies map[string]Policy
	offers   []SupplierPricing
	saved    []Policy
}

func (f *fakePolicyStore) GetPolicy(_ context.Context, sku string) (Policy, error) {
	p, ok := f.policies[sku]
	if !ok {
		return Policy{}, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakePolicyStore) UpsertPolicy(_ context.Context, p Policy) error {
	f.saved = append(f.saved, p)
	return nil
}

func (f *fakePolicyStore) SupplierOffers(_ context.Context, _ string) ([]SupplierPricing, error) {
	return f.offers, nil
}

type fakeProposalStore struct {
	created   []Proposal
	recent    bool
	createErr error
	statuses  map[string]NotifyStatus
}

func (f *fakeProposalStore) CreateProposal(_ context.Context, p Proposal) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, p)
	return nil
}

func (f *fakeProposalStore) RecentAutoProposalExists(_ context.Context, _ string, _ time.Time) (bool, error) {
	return f.recent, nil
}

func (f *fakeProposalStore) UpdateNotifyStatus(_ context.Context, id string, status NotifyStatus) error {
	if f.statuses == nil {
		f.statuses = map[string]NotifyStatus{}
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeProposalStore) ListProposals(_ context.Context, sku string, page, perPage int) ([]Proposal, shared.Pagination, error) {
	if sku == "" {
		return f.created, shared.NewPagination(page, perPage, len(f.created)), nil
	}
	var out []Proposal
	for _, p := range f.created {
		if p.SKU == sku {
			out = append(out, p)
		}
	}
	return out, shared.NewPagination(page, perPage, len(out)), nil
}

type fakeStock struct {
	onHand  float64
	pending float64
}

func (f *fakeStock) OnHand(_ context.Context, _ string) (float64, error) {
	return f.onHand, nil
}

func (f *fakeStock) PendingInbound(_ context.Context, _ string) (float64, error) {
	return f.pending, nil
}

type fakeDemand struct {
	qty float64
}

func (f *fakeDemand) CurrentMonthDemand(_ context.Context, _ string, _ inventory.PolicyView) (float64, error) {
	return f.qty, nil
}

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) ProposalCreated(_ context.Context, _ Proposal, _ Decision) error {
	f.calls++
	return f.err
}

type fakeAudit struct {
	entries []shared.AuditEntry
}

func (f *fakeAudit) Record(_ context.Context, entry shared.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeLock struct{}

func (fakeLock) Release(_ context.Context) error { return nil }

type fakeLocks struct {
	contended bool
	obtained  int
}

func (f *fakeLocks) Obtain(_ context.Context, _ string, _ time.Duration) (Lock, error) {
	if f.contended {
		return nil, ErrLockNotObtained
	}
	f.obtained++
	return fakeLock{}, nil
}

type harness struct {
	policies  *fakePolicyStore
	proposals *fakeProposalStore
	stock     *fakeStock
	demand    *fakeDemand
	notifier  *fakeNotifier
	audit     *fakeAudit
	locks     *fakeLocks
	service   *Service
}

func newHarness() *harness {
	h := &harness{
		policies: &fakePolicyStore{
			policies: map[string]Policy{
				"SKU-001": {
					SKU:             "SKU-001",
					SafetyStockDays: 1,
					PreferredMode:   ModeFast,
					EOQ:             50,
				},
			},
			offers: []SupplierPricing{
				{SupplierID: "SUP-A", SKU: "SKU-001", Mode: ModeFast, LeadTimeDays: 7, Tiers: []PriceTier{
					{MinQty: 0, UnitPrice: decimal.RequireFromString("9.50")},
				}},
			},
		},
		proposals: &fakeProposalStore{},
		stock:     &fakeStock{onHand: 100},
		demand:    &fakeDemand{qty: 300},
		notifier:  &fakeNotifier{},
		audit:     &fakeAudit{},
		locks:     &fakeLocks{},
	}
	h.service = NewService(h.policies, h.proposals, h.stock, h.demand, h.notifier, h.audit, h.locks, slog.New(slog.DiscardHandler))
	h.service.now = func() time.Time {
		return time.Date(2025, time.August, 15, 9, 30, 0, 0, time.UTC)
	}
	return h
}

func TestTriggerAutoCreatesProposal(t *testing.T) {
	h := newHarness()

	proposal, err := h.service.TriggerAuto(context.Background(), "SKU-001")
	require.NoError(t, err)
	require.NotNil(t, proposal)

	// forecast 300 -> daily 10, rop 370, effective 100, order 500
	require.Equal(t, 500.0, proposal.Quantity)
	require.Equal(t, SourceAuto, proposal.Source)
	require.Equal(t, "SUP-A", proposal.SupplierID)
	require.True(t, proposal.UnitPrice.Equal(decimal.RequireFromString("9.50")))

	require.Len(t, h.proposals.created, 1)
	require.Equal(t, 1, h.notifier.calls)
	require.Equal(t, NotifySent, h.proposals.statuses[proposal.ID.String()])
	require.Len(t, h.audit.entries, 1)
	require.Equal(t, "auto_proposal_created", h.audit.entries[0].Action)
	require.Equal(t, 1, h.locks.obtained)
}

func TestTriggerAutoSkipsInsideIdempotencyWindow(t *testing.T) {
	h := newHarness()
	h.proposals.recent = true

	proposal, err := h.service.TriggerAuto(context.Background(), "SKU-001")
	require.NoError(t, err)
	require.Nil(t, proposal)
	require.Empty(t, h.proposals.created)
	require.Zero(t, h.notifier.calls)
}

func TestTriggerAutoSkipsWhenLockHeld(t *testing.T) {
	h := newHarness()
	h.locks.contended = true

	proposal, err := h.service.TriggerAuto(context.Background(), "SKU-001")
	require.NoError(t, err)
	require.Nil(t, proposal)
	require.Empty(t, h.proposals.created)
}

func TestTriggerAutoNoProposalWhenStockSufficient(t *testing.T) {
	h := newHarness()
	h.stock.onHand = 1000

	proposal, err := h.service.TriggerAuto(context.Background(), "SKU-001")
	require.NoError(t, err)
	require.Nil(t, proposal)
	require.Empty(t, h.proposals.created)
}

func TestTriggerAutoToleratesNotifyFailure(t *testing.T) {
	h := newHarness()
	h.notifier.err = errors.New("smtp down")

	proposal, err := h.service.TriggerAuto(context.Background(), "SKU-001")
	require.NoError(t, err)
	require.NotNil(t, proposal)

	// The proposal stands; the miss lands on its notify status.
	require.Len(t, h.proposals.created, 1)
	require.Equal(t, NotifyFailed, proposal.NotifyStatus)
	require.Equal(t, NotifyFailed, h.proposals.statuses[proposal.ID.String()])
}

func TestTriggerAutoUnpricedWithoutSupplier(t *testing.T) {
	h := newHarness()
	h.policies.offers = nil

	proposal, err := h.service.TriggerAuto(context.Background(), "SKU-001")
	require.NoError(t, err)
	require.NotNil(t, proposal)
	require.Empty(t, proposal.SupplierID)
	require.True(t, proposal.UnitPrice.IsZero())
}

func TestTriggerAutoDuplicateInsertTreatedAsSkip(t *testing.T) {
	h := newHarness()
	h.proposals.createErr = ErrDuplicateProposal

	proposal, err := h.service.TriggerAuto(context.Background(), "SKU-001")
	require.NoError(t, err)
	require.Nil(t, proposal)
	require.Zero(t, h.notifier.calls)
}

func TestPolicyForFallsBackToDefault(t *testing.T) {
	h := newHarness()

	policy, err := h.service.PolicyFor(context.Background(), "SKU-UNKNOWN")
	require.NoError(t, err)
	require.Equal(t, "SKU-UNKNOWN", policy.SKU)
	require.Equal(t, 1.0, policy.SafetyStockDays)
	require.Equal(t, ModeFast, policy.PreferredMode)
}

func TestSavePolicyValidation(t *testing.T) {
	h := newHarness()

	err := h.service.SavePolicy(context.Background(), Policy{
		SKU:           "SKU-001",
		PreferredMode: ModeFast,
		AutoTime:      "25:99",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, h.policies.saved)

	err = h.service.SavePolicy(context.Background(), Policy{
		SKU:             "SKU-001",
		SafetyStockDays: 2,
		PreferredMode:   ModeEconomic,
		AutoTime:        "09:30",
		AutoEnabled:     true,
		ServiceLevel:    0.95,
	})
	require.NoError(t, err)
	require.Len(t, h.policies.saved, 1)
}

func TestCreateManualProposal(t *testing.T) {
	h := newHarness()

	_, err := h.service.CreateManualProposal(context.Background(), "SKU-001", 0)
	require.ErrorIs(t, err, shared.ErrValidation)

	proposal, err := h.service.CreateManualProposal(context.Background(), "SKU-001", 250)
	require.NoError(t, err)
	require.Equal(t, SourceManual, proposal.Source)
	require.Equal(t, 250.0, proposal.Quantity)
	require.Equal(t, "SUP-A", proposal.SupplierID)
	require.Len(t, h.audit.entries, 1)
	require.Equal(t, "manual_proposal_created", h.audit.entries[0].Action)
}

func TestViewAdaptsPolicy(t *testing.T) {
	h := newHarness()
	h.policies.policies["SKU-001"] = Policy{
		SKU:                  "SKU-001",
		SafetyStockDays:      2,
		PreferredMode:        ModeEconomic,
		RatioAdjustmentPct:   10,
		SeasonalWeightConfig: "weekday",
		BenchmarkType:        "yoy",
	}

	view, err := h.service.View(context.Background(), "SKU-001")
	require.NoError(t, err)
	require.Equal(t, 2.0, view.SafetyStockDays)
	require.Equal(t, 30, view.LeadTimeDays)
	require.Equal(t, 10.0, view.RatioAdjustmentPct)
	require.Equal(t, "weekday", view.SeasonalWeightConfig)
	require.Equal(t, "yoy", view.BenchmarkType)
}
