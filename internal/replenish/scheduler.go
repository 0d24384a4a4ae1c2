package replenish

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/stockpilot/stockpilot/internal/observability"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// maxScanHold is how long a scan may appear to run before a later tick is
// allowed to reclaim the run state.
const maxScanHold = 10 * time.Minute

// CandidateSource lists the SKUs scheduled for a wall-clock minute.
type CandidateSource interface {
	ListAutoCandidates(ctx context.Context, hhmm string) ([]string, error)
}

// AutoTrigger runs one SKU's auto evaluation.
type AutoTrigger interface {
	TriggerAuto(ctx context.Context, sku string) (*Proposal, error)
}

// Scheduler is the asynq handler behind the minute replenishment tick. Each
// tick matches policies whose auto_time equals the current minute in the
// configured timezone and evaluates them with bounded concurrency. One SKU
// failing, or even panicking, never takes down the rest of the batch.
type Scheduler struct {
	candidates  CandidateSource
	trigger     AutoTrigger
	state       *shared.RunState
	logger      *slog.Logger
	metrics     *observability.Metrics
	location    *time.Location
	concurrency int
	now         func() time.Time
}

// NewScheduler wires a Scheduler. concurrency <= 0 defaults to 4.
func NewScheduler(candidates CandidateSource, trigger AutoTrigger, logger *slog.Logger, metrics *observability.Metrics, location *time.Location, concurrency int) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if location == nil {
		location = time.UTC
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Scheduler{
		candidates:  candidates,
		trigger:     trigger,
		state:       shared.NewRunState(maxScanHold),
		logger:      logger,
		metrics:     metrics,
		location:    location,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// HandleScan processes one scheduler tick. The tick time is taken from the
// wall clock rather than the task payload so a delayed delivery does not
// evaluate a stale minute.
func (s *Scheduler) HandleScan(ctx context.Context, _ *asynq.Task) error {
	now := s.now().In(s.location)
	if !s.state.TryStart(now) {
		s.logger.Info("replenishment scan still running, skipping tick")
		return nil
	}
	defer s.state.Finish()
	s.metrics.ScanTick()

	hhmm := now.Format("15:04")
	skus, err := s.candidates.ListAutoCandidates(ctx, hhmm)
	if err != nil {
		s.logger.Error("list auto candidates failed", "minute", hhmm, "error", err)
		return err
	}
	if len(skus) == 0 {
		return nil
	}

	var created atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for _, sku := range skus {
		group.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.metrics.SKUFailure()
					s.logger.Error("sku evaluation panicked", "sku", sku, "panic", r, "stack", string(debug.Stack()))
				}
			}()
			s.metrics.SKUEvaluated()
			proposal, err := s.trigger.TriggerAuto(groupCtx, sku)
			if err != nil {
				s.metrics.SKUFailure()
				s.logger.Error("sku evaluation failed", "sku", sku, "error", err)
				return nil
			}
			if proposal != nil {
				s.metrics.ProposalCreated(string(SourceAuto))
				if proposal.NotifyStatus == NotifyFailed {
					s.metrics.NotifyFailure()
				}
				created.Add(1)
				s.logger.Info("auto proposal created",
					"sku", sku, "proposal_id", proposal.ID, "quantity", proposal.Quantity)
			}
			return nil
		})
	}
	_ = group.Wait()

	s.logger.Info("replenishment scan finished", "minute", hhmm, "candidates", len(skus), "proposals", created.Load())
	return nil
}
