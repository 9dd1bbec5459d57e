package worker

import (
	"context"
	"time"

	"casino-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// Reconciler periodically replays pending settlements whose credit
// never landed. It runs until its context is cancelled.
type Reconciler struct {
	retrier  ports.SettlementRetrier
	interval time.Duration
	log      zerolog.Logger
}

// NewReconciler creates a reconciler ticking at the given interval.
func NewReconciler(retrier ports.SettlementRetrier, interval time.Duration, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		retrier:  retrier,
		interval: interval,
		log:      log,
	}
}

// Run blocks, scanning for due settlements every tick. An immediate
// first pass picks up anything left over from before a restart.
func (r *Reconciler) Run(ctx context.Context) {
	r.log.Info().Dur("interval", r.interval).Msg("settlement reconciler started")

	r.pass(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("settlement reconciler stopped")
			return
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	applied, err := r.retrier.RetryDue(ctx, time.Now().UTC())
	if err != nil {
		r.log.Error().Err(err).Msg("settlement retry pass failed")
		return
	}
	if applied > 0 {
		r.log.Info().Int("applied", applied).Msg("settlement retry pass applied credits")
	}
}
