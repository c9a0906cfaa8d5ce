package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aazoaer/health-manager/internal/events"
	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/model"
	"github.com/aazoaer/health-manager/internal/store"
)

// ComputeSummary derives the summary for today from user data. Lists whose
// date stamp is not today count as empty.
func ComputeSummary(u model.UserData, now time.Time) model.DailySummary {
	today := dateKey(now)

	intake := u.WaterIntake.Float()
	if waterStale(u, now) {
		intake = 0
	}
	goal := health.WaterGoal(u)

	sleepMinutes, grade := TodaySleep(u, today)
	exMinutes, exCalories, exScore := TodayExercise(u, today)

	return model.DailySummary{
		Date:             today,
		WaterIntake:      intake,
		WaterGoal:        goal,
		WaterAchieved:    intake >= float64(goal),
		NutritionScore:   health.NutritionScore(TodayIntake(u, today), health.NutritionGoals(u)),
		SleepGrade:       grade,
		SleepDuration:    sleepMinutes,
		ExerciseScore:    exScore,
		ExerciseDuration: exMinutes,
		ExerciseCalories: exCalories,
	}
}

// UpdateTodaySummary recomputes today's summary and upserts it.
func (t *Tracker) UpdateTodaySummary(ctx context.Context) (model.DailySummary, error) {
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return model.DailySummary{}, err
	}
	summary := ComputeSummary(u, t.now())
	if err := t.SaveDailySummary(ctx, summary.Date, summary); err != nil {
		return model.DailySummary{}, err
	}
	t.bus.Publish(events.SummarySaved, summary)
	return summary, nil
}

func (t *Tracker) SaveDailySummary(ctx context.Context, date string, summary model.DailySummary) error {
	row, err := historyRow(date, summary)
	if err != nil {
		return err
	}
	if err := t.store.SaveHistory(ctx, date, row.Summary); err != nil {
		return err
	}
	t.logger.Debug("saved daily summary", "date", date)
	return nil
}

// LoadDailySummary returns ErrNotFound when date has no stored summary.
func (t *Tracker) LoadDailySummary(ctx context.Context, date string) (model.DailySummary, error) {
	raw, err := t.store.History(ctx, date)
	if errors.Is(err, store.ErrNotFound) {
		return model.DailySummary{}, fmt.Errorf("summary for %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return model.DailySummary{}, err
	}
	var s model.DailySummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.DailySummary{}, fmt.Errorf("decode summary %s: %w", date, err)
	}
	s.Date = date
	return s, nil
}

// LoadMonthSummaries returns the stored summaries of one calendar month
// keyed by date.
func (t *Tracker) LoadMonthSummaries(ctx context.Context, year int, month time.Month) (map[string]model.DailySummary, error) {
	if month < time.January || month > time.December {
		return nil, invalidf("month must be 1-12")
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)
	rows, err := t.store.HistoryRange(ctx, dateKey(first), dateKey(last))
	if err != nil {
		return nil, err
	}
	return t.decodeHistory(rows), nil
}

// LoadAllHistory returns every stored summary. Rows that do not decode are
// skipped.
func (t *Tracker) LoadAllHistory(ctx context.Context) (map[string]model.DailySummary, error) {
	rows, err := t.store.AllHistory(ctx)
	if err != nil {
		return nil, err
	}
	return t.decodeHistory(rows), nil
}

// SaveAllHistory upserts every summary in one store transaction.
func (t *Tracker) SaveAllHistory(ctx context.Context, history map[string]model.DailySummary) error {
	rows := make([]store.HistoryRow, 0, len(history))
	for date, s := range history {
		row, err := historyRow(date, s)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return t.store.WriteHistory(ctx, rows, false)
}

func historyRow(date string, summary model.DailySummary) (store.HistoryRow, error) {
	if !store.ValidDate(date) {
		return store.HistoryRow{}, invalidf("invalid summary date %q (expected YYYY-MM-DD)", date)
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return store.HistoryRow{}, fmt.Errorf("encode summary %s: %w", date, err)
	}
	return store.HistoryRow{Date: date, Summary: raw}, nil
}

func (t *Tracker) decodeHistory(rows []store.HistoryRow) map[string]model.DailySummary {
	out := make(map[string]model.DailySummary, len(rows))
	for _, row := range rows {
		var s model.DailySummary
		if err := json.Unmarshal(row.Summary, &s); err != nil {
			t.logger.Warn("skip undecodable summary", "date", row.Date, "error", err)
			continue
		}
		s.Date = row.Date
		out[row.Date] = s
	}
	return out
}
