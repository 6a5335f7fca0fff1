package index

import (
	"context"
	"log/slog"
	"time"
)

// OwnerEnumerator yields the set of owners whose indexes the driver keeps
// fresh. storage.Provider satisfies it.
type OwnerEnumerator interface {
	Owners() ([]string, error)
}

// DefaultSyncInterval is the pause between periodic reconciliation passes.
const DefaultSyncInterval = 5 * time.Minute

// Driver runs incremental reconciliation for every owner on a fixed
// interval. It is the backstop for anything the event path missed:
// changes made while the process was down, unwatchable mounts, missed
// notifications.
type Driver struct {
	syncer   *Syncer
	owners   OwnerEnumerator
	interval time.Duration
	logger   *slog.Logger
}

// NewDriver creates a periodic driver. A non-positive interval falls back
// to DefaultSyncInterval.
func NewDriver(syncer *Syncer, owners OwnerEnumerator, interval time.Duration, logger *slog.Logger) *Driver {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Driver{syncer: syncer, owners: owners, interval: interval, logger: logger}
}

// Run executes reconciliation passes until ctx is cancelled. One pass runs
// immediately on start.
func (d *Driver) Run(ctx context.Context) error {
	d.runPass()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("sync driver: stopped")
			return nil
		case <-ticker.C:
			d.runPass()
		}
	}
}

// runPass reconciles every owner. A failure for one owner is logged and
// must not stop the pass for the others.
func (d *Driver) runPass() {
	owners, err := d.owners.Owners()
	if err != nil {
		d.logger.Warn("sync driver: enumerate owners failed",
			slog.String("error", err.Error()))
		return
	}
	for _, owner := range owners {
		res, err := d.syncer.IncrementalSync(owner)
		if err != nil {
			d.logger.Warn("sync driver: pass failed",
				slog.String("owner", owner),
				slog.String("error", err.Error()))
			continue
		}
		if res.Updated > 0 {
			d.logger.Debug("sync driver: reconciled",
				slog.String("owner", owner),
				slog.Int("total", res.Total),
				slog.Int("updated", res.Updated))
		}
	}
}
