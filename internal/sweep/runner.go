package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/murabitopit/attendance-app/internal/balance"
	"github.com/murabitopit/attendance-app/internal/dayclose"
)

// Runner drives the periodic sweeps from a background goroutine. The
// throttle is shared with the HTTP triggers so a manual poke and the timer
// never double-run a sweep inside one interval.
type Runner struct {
	balances balance.Service
	closer   dayclose.Service
	throttle *Throttle
	interval time.Duration
	logger   *zap.Logger
}

func NewRunner(balances balance.Service, closer dayclose.Service, throttle *Throttle) *Runner {
	return &Runner{
		balances: balances,
		closer:   closer,
		throttle: throttle,
		interval: defaultInterval,
		logger:   zap.L().Named("sweep_runner"),
	}
}

func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("sweep runner started", zap.Duration("interval", r.interval))

	// One pass right away so restarts never wait a full interval.
	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("sweep runner stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	if r.throttle.Allow(SweepResets) {
		if _, err := r.balances.SweepResets(ctx); err != nil {
			r.logger.Error("reset sweep failed", zap.Error(err))
		}
	}
	if r.throttle.Allow(SweepForceClose) {
		if _, err := r.closer.ForceCloseOverdue(ctx); err != nil {
			r.logger.Error("force-close sweep failed", zap.Error(err))
		}
	}
}
