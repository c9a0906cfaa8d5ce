package service

import (
	"context"

	"github.com/aazoaer/health-manager/internal/model"
)

// freshen resets every named daily list whose date stamp is not today and
// persists the reset. Callers hold t.mu.
func (t *Tracker) freshen(ctx context.Context, u *model.UserData, keys ...string) error {
	today := t.today()
	patch := Patch{}
	for _, key := range keys {
		switch key {
		case KeyDailyMeals:
			if u.DailyMeals.Date != today {
				u.DailyMeals = model.MealLog{Date: today, Records: []model.Meal{}}
				patch[key] = u.DailyMeals
			}
		case KeyDailySleep:
			if u.DailySleep.Date != today {
				u.DailySleep = model.SleepLog{Date: today, Records: []model.SleepRecord{}}
				patch[key] = u.DailySleep
			}
		case KeyDailyExercises:
			if u.DailyExercises.Date != today {
				u.DailyExercises = model.ExerciseLog{Date: today, Records: []model.ExerciseRecord{}}
				patch[key] = u.DailyExercises
			}
		}
	}
	if len(patch) == 0 {
		return nil
	}
	t.logger.Info("reset daily lists for new day", "date", today, "keys", patchKeys(patch))
	return t.save(ctx, patch, false)
}

// loadFresh loads user data with the named lists rolled over to today.
func (t *Tracker) loadFresh(ctx context.Context, keys ...string) (model.UserData, error) {
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return model.UserData{}, err
	}
	if err := t.freshen(ctx, &u, keys...); err != nil {
		return model.UserData{}, err
	}
	return u, nil
}

func removeByID[T any](records []T, id string, idOf func(T) string) ([]T, bool) {
	for i, r := range records {
		if idOf(r) == id {
			out := append([]T(nil), records[:i]...)
			return append(out, records[i+1:]...), true
		}
	}
	return records, false
}
