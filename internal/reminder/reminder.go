// Package reminder periodically delivers due task reminders.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/Voelzke/notehub/internal/models"
	"github.com/Voelzke/notehub/internal/noteservice"
)

// Notifier delivers one reminder to its owner. Implementations push to
// whatever channel the deployment has: desktop notifications, mail, a bot.
type Notifier interface {
	Notify(ctx context.Context, owner string, note models.Note) error
}

// LogNotifier is the fallback Notifier: it only logs the reminder.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(_ context.Context, owner string, note models.Note) error {
	l.Logger.Info("reminder due",
		slog.String("owner", owner),
		slog.Uint64("id", note.ID),
		slog.String("title", note.Title),
		slog.String("remind", note.Remind))
	return nil
}

// OwnerEnumerator yields the owners whose reminders the driver checks.
type OwnerEnumerator interface {
	Owners() ([]string, error)
}

// DefaultInterval is the pause between reminder passes.
const DefaultInterval = 5 * time.Minute

// Driver checks for due reminders on a fixed interval and delivers them at
// most once. A reminder is only marked delivered after the Notifier
// succeeded, so a failed delivery is retried on the next pass.
type Driver struct {
	svc      *noteservice.Service
	owners   OwnerEnumerator
	notifier Notifier
	interval time.Duration
	logger   *slog.Logger
}

// NewDriver creates a reminder driver. A non-positive interval falls back to
// DefaultInterval.
func NewDriver(svc *noteservice.Service, owners OwnerEnumerator, notifier Notifier, interval time.Duration, logger *slog.Logger) *Driver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Driver{svc: svc, owners: owners, notifier: notifier, interval: interval, logger: logger}
}

// Run executes reminder passes until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("reminder driver: stopped")
			return nil
		case <-ticker.C:
			d.runPass(ctx)
		}
	}
}

// runPass delivers due reminders for every owner. One owner's failure must
// not block the others.
func (d *Driver) runPass(ctx context.Context) {
	owners, err := d.owners.Owners()
	if err != nil {
		d.logger.Warn("reminder driver: enumerate owners failed",
			slog.String("error", err.Error()))
		return
	}
	now := time.Now()
	for _, owner := range owners {
		if err := d.deliverFor(ctx, owner, now); err != nil {
			d.logger.Warn("reminder driver: pass failed",
				slog.String("owner", owner),
				slog.String("error", err.Error()))
		}
	}
}

func (d *Driver) deliverFor(ctx context.Context, owner string, now time.Time) error {
	pending, err := d.svc.FindPendingReminders(ctx, owner, now)
	if err != nil {
		return err
	}
	for _, note := range pending {
		if err := d.notifier.Notify(ctx, owner, note); err != nil {
			d.logger.Warn("reminder driver: notify failed",
				slog.String("owner", owner),
				slog.Uint64("id", note.ID),
				slog.String("error", err.Error()))
			continue
		}
		if err := d.svc.MarkReminded(ctx, owner, note.ID); err != nil {
			d.logger.Warn("reminder driver: mark failed",
				slog.String("owner", owner),
				slog.Uint64("id", note.ID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
