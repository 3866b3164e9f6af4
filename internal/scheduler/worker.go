package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studioops/billing/internal/clock"
	documentdomain "github.com/studioops/billing/internal/document/domain"
	subscriptiondomain "github.com/studioops/billing/internal/subscription/domain"
)

// Worker drives the two periodic billing jobs: flipping past-due documents
// to OVERDUE and running due subscription templates.
type Worker struct {
	log           *zap.Logger
	clock         clock.Clock
	sweeper       documentdomain.Sweeper
	subscriptions subscriptiondomain.Service
	cfg           Config
}

func NewWorker(
	log *zap.Logger,
	clk clock.Clock,
	sweeper documentdomain.Sweeper,
	subscriptions subscriptiondomain.Service,
	cfg Config,
) *Worker {
	return &Worker{
		log:           log.Named("scheduler.worker"),
		clock:         clk,
		sweeper:       sweeper,
		subscriptions: subscriptions,
		cfg:           cfg.withDefaults(),
	}
}

// RunForever sweeps on a fixed interval until the context is cancelled.
func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.log.Warn("billing sweep failed", zap.Error(err))
			}
		}
	}
}

// RunOnce executes one sweep. Both jobs run even if the first fails; the
// last error wins.
func (w *Worker) RunOnce(ctx context.Context) error {
	now := w.clock.Now()

	overdue, sweepErr := w.sweeper.MarkOverdue(ctx, now, w.cfg.BatchSize)
	if sweepErr != nil {
		w.log.Warn("overdue sweep failed", zap.Error(sweepErr))
	}

	ran, runErr := w.subscriptions.RunDue(ctx, now, w.cfg.BatchSize)
	if runErr != nil {
		w.log.Warn("subscription sweep failed", zap.Error(runErr))
	}

	if overdue > 0 || ran > 0 {
		w.log.Info("billing sweep completed",
			zap.Int("documents_overdue", overdue),
			zap.Int("subscriptions_run", ran),
		)
	}
	if sweepErr != nil {
		return sweepErr
	}
	return runErr
}
