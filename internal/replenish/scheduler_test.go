package replenish

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeCandidates struct {
	byMinute map[string][]string
	asked    []string
	err      error
}

func (f *fakeCandidates) ListAutoCandidates(_ context.Context, hhmm string) ([]string, error) {
	f.asked = append(f.asked, hhmm)
	if f.err != nil {
		return nil, f.err
	}
	return f.byMinute[hhmm], nil
}

type fakeTrigger struct {
	mu       sync.Mutex
	seen     []string
	failSKU  string
	panicSKU string
}

func (f *fakeTrigger) TriggerAuto(_ context.Context, sku string) (*Proposal, error) {
	f.mu.Lock()
	f.seen = append(f.seen, sku)
	f.mu.Unlock()
	if sku == f.panicSKU {
		panic("boom")
	}
	if sku == f.failSKU {
		return nil, errors.New("evaluation failed")
	}
	return &Proposal{SKU: sku, Source: SourceAuto}, nil
}

func newTestScheduler(candidates *fakeCandidates, trigger *fakeTrigger) *Scheduler {
	s := NewScheduler(candidates, trigger, slog.New(slog.DiscardHandler), nil, time.UTC, 2)
	s.now = func() time.Time {
		return time.Date(2025, time.August, 15, 9, 30, 0, 0, time.UTC)
	}
	return s
}

func TestHandleScanMatchesCurrentMinute(t *testing.T) {
	candidates := &fakeCandidates{byMinute: map[string][]string{
		"09:30": {"SKU-001", "SKU-002"},
		"09:31": {"SKU-999"},
	}}
	trigger := &fakeTrigger{}
	s := newTestScheduler(candidates, trigger)

	require.NoError(t, s.HandleScan(context.Background(), nil))
	require.Equal(t, []string{"09:30"}, candidates.asked)
	require.ElementsMatch(t, []string{"SKU-001", "SKU-002"}, trigger.seen)
}

func TestHandleScanIsolatesSKUFailures(t *testing.T) {
	candidates := &fakeCandidates{byMinute: map[string][]string{
		"09:30": {"SKU-001", "SKU-BAD", "SKU-PANIC", "SKU-004"},
	}}
	trigger := &fakeTrigger{failSKU: "SKU-BAD", panicSKU: "SKU-PANIC"}
	s := newTestScheduler(candidates, trigger)

	// one failing and one panicking SKU must not fail the tick
	require.NoError(t, s.HandleScan(context.Background(), nil))
	require.ElementsMatch(t, []string{"SKU-001", "SKU-BAD", "SKU-PANIC", "SKU-004"}, trigger.seen)
}

func TestHandleScanPropagatesCandidateError(t *testing.T) {
	candidates := &fakeCandidates{err: errors.New("db down")}
	s := newTestScheduler(candidates, &fakeTrigger{})

	require.Error(t, s.HandleScan(context.Background(), nil))
}

func TestHandleScanSequentialTicksBothRun(t *testing.T) {
	candidates := &fakeCandidates{byMinute: map[string][]string{
		"09:30": {"SKU-001"},
	}}
	trigger := &fakeTrigger{}
	s := newTestScheduler(candidates, trigger)

	require.NoError(t, s.HandleScan(context.Background(), nil))
	require.NoError(t, s.HandleScan(context.Background(), nil))
	require.Len(t, trigger.seen, 2)
}

func TestHandleScanConvertsToConfiguredTimezone(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	candidates := &fakeCandidates{byMinute: map[string][]string{}}
	s := NewScheduler(candidates, &fakeTrigger{}, slog.New(slog.DiscardHandler), nil, jakarta, 2)
	// 02:30 UTC is 09:30 in Jakarta (UTC+7)
	s.now = func() time.Time {
		return time.Date(2025, time.August, 15, 2, 30, 0, 0, time.UTC)
	}

	require.NoError(t, s.HandleScan(context.Background(), nil))
	require.Equal(t, []string{"09:30"}, candidates.asked)
}
