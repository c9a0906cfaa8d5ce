package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aazoaer/health-manager/internal/events"
)

// PeriodID numbers the half hours of a day: 0 for 00:00-00:29 through 47.
func PeriodID(t time.Time) int {
	id := t.Hour() * 2
	if t.Minute() >= 30 {
		id++
	}
	return id
}

// IsReminderTime reports whether t falls on a half-hour boundary minute.
func IsReminderTime(t time.Time) bool {
	return t.Minute() == 0 || t.Minute() == 30
}

// ShouldTriggerReminder is true when nothing was drunk yet or the last drink
// belongs to a different half-hour period than now.
func ShouldTriggerReminder(last *time.Time, now time.Time) bool {
	if last == nil || last.IsZero() {
		return true
	}
	return !sameDay(*last, now) || PeriodID(*last) != PeriodID(now)
}

// NextReminder returns the next half-hour boundary strictly after now.
func NextReminder(now time.Time) time.Time {
	base := now.Truncate(time.Minute)
	if now.Minute() < 30 {
		base = base.Add(time.Duration(30-now.Minute()) * time.Minute)
	} else {
		base = base.Add(time.Duration(60-now.Minute()) * time.Minute)
	}
	return base
}

type ReminderStatus struct {
	Due       bool       `json:"due"`
	Active    bool       `json:"active"`
	LastDrink *time.Time `json:"last_drink,omitempty"`
	Next      time.Time  `json:"next"`
	Period    int        `json:"period"`
}

func (t *Tracker) ReminderStatus(ctx context.Context) (ReminderStatus, error) {
	w, err := t.Water(ctx)
	if err != nil {
		return ReminderStatus{}, err
	}
	now := t.now()
	return ReminderStatus{
		Due:       ShouldTriggerReminder(w.LastDrink, now),
		Active:    w.ReminderActive,
		LastDrink: w.LastDrink,
		Next:      NextReminder(now),
		Period:    PeriodID(now),
	}, nil
}

// CheckReminder fires at most once per (date, period): on a boundary minute
// with no drink in the current period it marks the reminder active and
// publishes events.ReminderDue. It reports whether it fired.
func (t *Tracker) CheckReminder(ctx context.Context, lastFired *string) (bool, error) {
	now := t.now()
	if !IsReminderTime(now) {
		return false, nil
	}
	key := fmt.Sprintf("%s#%d", dateKey(now), PeriodID(now))
	if lastFired != nil && *lastFired == key {
		return false, nil
	}
	w, err := t.Water(ctx)
	if err != nil {
		return false, err
	}
	if !ShouldTriggerReminder(w.LastDrink, now) {
		return false, nil
	}
	if err := t.SaveUserData(ctx, Patch{KeyReminderActive: true}, false); err != nil {
		return false, err
	}
	if lastFired != nil {
		*lastFired = key
	}
	t.logger.Info("water reminder due", "period", PeriodID(now), "intake", w.Intake, "goal", w.Goal)
	t.bus.Publish(events.ReminderDue, ReminderStatus{Due: true, Active: true, LastDrink: w.LastDrink, Next: NextReminder(now), Period: PeriodID(now)})
	return true, nil
}

// RunReminders polls every interval until ctx is done.
func (t *Tracker) RunReminders(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var lastFired string
	for {
		if _, err := t.CheckReminder(ctx, &lastFired); err != nil {
			t.logger.Error("check water reminder", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
