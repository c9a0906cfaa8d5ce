package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aazoaer/health-manager/internal/events"
	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/model"
)

const maxSleepMinutes = 24 * 60

type SleepInput struct {
	Bedtime time.Time
	Wakeup  time.Time
	Quality string
}

func (t *Tracker) SleepRecords(ctx context.Context) (model.SleepLog, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.loadFresh(ctx, KeyDailySleep)
	if err != nil {
		return model.SleepLog{}, err
	}
	return u.DailySleep, nil
}

// AddSleep records a sleep interval. Intervals must be positive, at most a
// day long, and must not overlap another interval logged today.
func (t *Tracker) AddSleep(ctx context.Context, in SleepInput) (model.SleepRecord, error) {
	quality := normalizeName(in.Quality)
	if quality == "" {
		quality = health.QualityGood
	}
	if !health.ValidQuality(quality) {
		return model.SleepRecord{}, invalidf("sleep quality must be one of: excellent, good, fair, poor")
	}
	if !in.Wakeup.After(in.Bedtime) {
		return model.SleepRecord{}, invalidf("wakeup time must be after bedtime")
	}
	minutes := int(in.Wakeup.Sub(in.Bedtime).Minutes())
	if minutes <= 0 || minutes > maxSleepMinutes {
		return model.SleepRecord{}, invalidf("sleep duration must be between 1 and %d minutes", maxSleepMinutes)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.loadFresh(ctx, KeyDailySleep)
	if err != nil {
		return model.SleepRecord{}, err
	}
	for _, r := range u.DailySleep.Records {
		if overlaps(in.Bedtime, in.Wakeup, r.Bedtime.Time, r.Wakeup.Time) {
			return model.SleepRecord{}, invalidf("sleep %s-%s overlaps an existing record (%s-%s)",
				in.Bedtime.Format("15:04"), in.Wakeup.Format("15:04"),
				r.Bedtime.Format("15:04"), r.Wakeup.Format("15:04"))
		}
	}

	rec := model.SleepRecord{
		ID:              uuid.NewString(),
		Bedtime:         model.NewLocalTime(in.Bedtime),
		Wakeup:          model.NewLocalTime(in.Wakeup),
		DurationMinutes: minutes,
		Quality:         quality,
	}
	u.DailySleep.Records = append(u.DailySleep.Records, rec)
	sort.SliceStable(u.DailySleep.Records, func(i, j int) bool {
		return u.DailySleep.Records[i].Bedtime.Before(u.DailySleep.Records[j].Bedtime.Time)
	})
	if err := t.save(ctx, Patch{KeyDailySleep: u.DailySleep}, true); err != nil {
		return model.SleepRecord{}, err
	}
	t.bus.Publish(events.SleepAdded, rec)
	return rec, nil
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aStart.IsZero() || bStart.IsZero() {
		return false
	}
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	return start.Before(end)
}

func (t *Tracker) DeleteSleep(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.loadFresh(ctx, KeyDailySleep)
	if err != nil {
		return err
	}
	records, ok := removeByID(u.DailySleep.Records, id, func(r model.SleepRecord) string { return r.ID })
	if !ok {
		return fmt.Errorf("sleep record %q: %w", id, ErrNotFound)
	}
	u.DailySleep.Records = records
	if err := t.save(ctx, Patch{KeyDailySleep: u.DailySleep}, true); err != nil {
		return err
	}
	t.bus.Publish(events.RecordDeleted, map[string]string{"kind": "sleep", "id": id})
	return nil
}

// TodaySleep returns total minutes and grade for today's sleep records.
func TodaySleep(u model.UserData, today string) (int, string) {
	if u.DailySleep.Date != today || len(u.DailySleep.Records) == 0 {
		return 0, "F"
	}
	total := 0
	for _, r := range u.DailySleep.Records {
		total += r.DurationMinutes
	}
	return total, health.SleepGrade(total, health.BestQuality(u.DailySleep.Records))
}
