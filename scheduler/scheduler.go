// Package scheduler is the cron/one-shot job runner: a
// single 1Hz ticker that fires due Schedule rows through the Gateway
// Client.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wazecore/wazecore/store"
)

// tickInterval is the scheduler's fixed cadence: a single ticker at 1 Hz.
const tickInterval = 1 * time.Second

// misfireWindow is how stale a schedule's next_fire_at may be before it is
// treated as a missed-while-down misfire that still fires exactly once.
// Chosen for pragmatism, not tied to any configuration knob.
const misfireWindow = 60 * time.Second

// Sender is the subset of *gateway.Client the Scheduler needs.
type Sender interface {
	SendText(ctx context.Context, targetJID, text string) (string, error)
}

// Scheduler fires due Schedule rows on a 1Hz tick.
type Scheduler struct {
	st     *store.Store
	gw     Sender
	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Scheduler.
func New(st *store.Store, gw Sender) *Scheduler {
	return &Scheduler{st: st, gw: gw, stopCh: make(chan struct{}), doneCh: make(chan struct{})}
}

// Run blocks, ticking at 1Hz until ctx is cancelled or Stop is called.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop signals Run to exit and waits for it to finish its current tick.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// FireNow requests the named schedule fire on the next tick, without
// altering its natural cron-derived cadence (a manual trigger).
func (s *Scheduler) FireNow(ctx context.Context, id string) error {
	return s.st.FireNow(ctx, id)
}

// tick lists every due schedule and fires each one in turn.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()

	due, err := s.st.ListDueSchedules(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("[SCHEDULER] list_due_schedules failed")
		return
	}

	for _, sched := range due {
		s.fire(ctx, sched, now)
	}
}

// fire sends one due schedule, then records the result. RecordScheduleFire
// recomputes next_fire_at whether the send succeeded or failed, so a send
// failure never stalls a recurring job.
func (s *Scheduler) fire(ctx context.Context, sched store.Schedule, now time.Time) {
	result := store.ResultOK
	if _, err := s.gw.SendText(ctx, sched.TargetJID, sched.Content); err != nil {
		logrus.WithError(err).WithField("schedule_id", sched.ID).Warn("[SCHEDULER] send failed")
		result = store.ResultFailed
	}

	if err := s.st.RecordScheduleFire(ctx, sched.ID, now, result); err != nil {
		logrus.WithError(err).WithField("schedule_id", sched.ID).Error("[SCHEDULER] record_schedule_fire failed")
	}
}

// IsMisfire reports whether a schedule's next_fire_at is stale enough to
// be a missed-while-down misfire rather than a routine due tick. The
// Scheduler's normal list_due_schedules/fire path already fires it exactly
// once regardless; this helper exists for diagnostics and tests.
func IsMisfire(nextFireAt, now time.Time) bool {
	return now.Sub(nextFireAt) > misfireWindow
}
