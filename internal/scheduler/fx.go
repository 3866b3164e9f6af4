package scheduler

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/studioops/billing/internal/clock"
	documentdomain "github.com/studioops/billing/internal/document/domain"
	subscriptiondomain "github.com/studioops/billing/internal/subscription/domain"
)

type workerParams struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	Sweeper       documentdomain.Sweeper
	Subscriptions subscriptiondomain.Service
	Config        Config `optional:"true"`
}

var Module = fx.Module("scheduler.worker",
	fx.Provide(func(p workerParams) *Worker {
		return NewWorker(p.Log, p.Clock, p.Sweeper, p.Subscriptions, p.Config)
	}),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, worker *Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
