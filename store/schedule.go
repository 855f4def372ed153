package store

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wazecore/wazecore/pkg/apierr"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronFire computes the earliest strictly-future fire instant for a
// five-field cron expression evaluated in the given IANA timezone.
func nextCronFire(expression, timezone string, after time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, apierr.New(apierr.BadCron, "unknown timezone %q", timezone)
	}
	schedule, err := cronParser.Parse(expression)
	if err != nil {
		return time.Time{}, apierr.New(apierr.BadCron, "invalid cron expression %q: %v", expression, err)
	}
	return schedule.Next(after.In(loc)).UTC(), nil
}

// CreateSchedule inserts a new Schedule, computing its initial
// next_fire_at from kind/fire_at/expression.
func (s *Store) CreateSchedule(ctx context.Context, kind ScheduleKind, fireAt *time.Time, expression, timezone, targetJID, content string) (Schedule, error) {
	sched := Schedule{
		ID:         newID(),
		Kind:       kind,
		FireAt:     fireAt,
		Expression: expression,
		Timezone:   timezone,
		TargetJID:  targetJID,
		Content:    content,
		Enabled:    true,
	}

	next, err := computeInitialFire(sched, time.Now().UTC())
	if err != nil {
		return Schedule{}, err
	}
	sched.NextFireAt = next

	if err := s.db.WithContext(ctx).Create(&sched).Error; err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

func computeInitialFire(sched Schedule, now time.Time) (*time.Time, error) {
	switch sched.Kind {
	case ScheduleOnce:
		if sched.FireAt == nil {
			return nil, apierr.New(apierr.BadInput, "once schedule requires fire_at")
		}
		t := *sched.FireAt
		return &t, nil
	case ScheduleCron:
		next, err := nextCronFire(sched.Expression, sched.Timezone, now)
		if err != nil {
			return nil, err
		}
		return &next, nil
	default:
		return nil, apierr.New(apierr.BadInput, "unknown schedule kind %q", sched.Kind)
	}
}

// GetSchedule fetches a Schedule by id.
func (s *Store) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	var sched Schedule
	err := s.db.WithContext(ctx).First(&sched, "id = ?", id).Error
	if err != nil {
		return Schedule{}, wrapNotFound("schedule", err)
	}
	return sched, nil
}

// ListSchedules returns schedules ordered by next_fire_at, with offset
// pagination for the REST browsing endpoint.
func (s *Store) ListSchedules(ctx context.Context, limit, offset int) ([]Schedule, error) {
	var rows []Schedule
	err := s.db.WithContext(ctx).
		Order("next_fire_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// ListDueSchedules returns enabled schedules whose next_fire_at has
// passed, oldest first.
func (s *Store) ListDueSchedules(ctx context.Context, now time.Time) ([]Schedule, error) {
	var rows []Schedule
	err := s.db.WithContext(ctx).
		Where("enabled = ? AND next_fire_at IS NOT NULL AND next_fire_at <= ?", true, now).
		Order("next_fire_at ASC").
		Find(&rows).Error
	return rows, err
}

// UpdateSchedule changes a schedule's content/target/enabled state and
// recomputes next_fire_at if it was just re-enabled.
func (s *Store) UpdateSchedule(ctx context.Context, id, targetJID, content string, enabled bool) error {
	sched, err := s.GetSchedule(ctx, id)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"target_jid": targetJID,
		"content":    content,
		"enabled":    enabled,
	}
	if enabled && !sched.Enabled {
		next, err := computeInitialFire(sched, time.Now().UTC())
		if err != nil {
			return err
		}
		updates["next_fire_at"] = next
	}
	if !enabled {
		updates["next_fire_at"] = nil
	}

	res := s.db.WithContext(ctx).Model(&Schedule{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.New(apierr.NotFound, "schedule not found")
	}
	return nil
}

// DeleteSchedule removes a Schedule by id.
func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Schedule{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.New(apierr.NotFound, "schedule not found")
	}
	return nil
}

// RecordScheduleFire atomically updates last_fire_at/last_result and the
// recomputed next_fire_at after a fire attempt. A once
// schedule's next_fire_at becomes nil and it is implicitly disabled — it
// does not fire again.
func (s *Store) RecordScheduleFire(ctx context.Context, id string, firedAt time.Time, result ScheduleResult) error {
	sched, err := s.GetSchedule(ctx, id)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"last_fire_at": firedAt,
		"last_result":  result,
	}
	switch sched.Kind {
	case ScheduleOnce:
		updates["next_fire_at"] = nil
		updates["enabled"] = false
	case ScheduleCron:
		next, err := nextCronFire(sched.Expression, sched.Timezone, firedAt)
		if err != nil {
			return err
		}
		updates["next_fire_at"] = next
	}

	res := s.db.WithContext(ctx).Model(&Schedule{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.New(apierr.NotFound, "schedule not found")
	}
	return nil
}

// FireNow sets next_fire_at to now, causing the Scheduler to pick the job
// up on its next tick without altering the underlying cron cadence
// (a manual fire_now trigger).
func (s *Store) FireNow(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&Schedule{}).
		Where("id = ? AND enabled = ?", id, true).
		Update("next_fire_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.New(apierr.NotFound, "schedule not found or disabled")
	}
	return nil
}
