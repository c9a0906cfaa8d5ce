package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aazoaer/health-manager/internal/model"
	"github.com/aazoaer/health-manager/internal/service"
)

func TestAddMealScalesNutrients(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _ := newTestTracker(t, at("2025-03-10", 12, 0))

	meal, err := tr.AddMeal(ctx, service.MealInput{
		Name:      " Rice ",
		Amount:    150,
		Nutrients: model.Nutrients{"calories": 130, "protein": 2.4, "total_carbs": 28},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rice", meal.Name)
	assert.Equal(t, 195.0, meal.Level1["calories"])
	assert.InDelta(t, 3.6, meal.Level1["protein"], 1e-9)
	assert.Equal(t, 42.0, meal.Level1["total_carbs"])
	assert.Contains(t, meal.Level1, "vitamin_d")
	assert.Equal(t, model.Serving{Value: 150, Unit: "g"}, meal.ServingEaten)

	log, err := tr.Meals(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", log.Date)
	require.Len(t, log.Records, 1)

	require.NoError(t, tr.DeleteMeal(ctx, meal.ID))
	require.ErrorIs(t, tr.DeleteMeal(ctx, meal.ID), service.ErrNotFound)

	_, err = tr.AddMeal(ctx, service.MealInput{Name: "tea", Amount: 1, Nutrients: model.Nutrients{"caffeine": 40}})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = tr.AddMeal(ctx, service.MealInput{Name: "soup", Amount: 1, Unit: "cup", Nutrients: model.Nutrients{"calories": 50}})
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestAddSleepRejectsOverlapAndBadDurations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _ := newTestTracker(t, at("2025-03-10", 9, 0))

	rec, err := tr.AddSleep(ctx, service.SleepInput{
		Bedtime: at("2025-03-09", 23, 0),
		Wakeup:  at("2025-03-10", 7, 0),
		Quality: "Good",
	})
	require.NoError(t, err)
	assert.Equal(t, 480, rec.DurationMinutes)
	assert.Equal(t, "good", rec.Quality)

	_, err = tr.AddSleep(ctx, service.SleepInput{Bedtime: at("2025-03-10", 6, 0), Wakeup: at("2025-03-10", 8, 0)})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Contains(t, err.Error(), "overlaps")

	_, err = tr.AddSleep(ctx, service.SleepInput{Bedtime: at("2025-03-10", 8, 0), Wakeup: at("2025-03-10", 8, 0)})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = tr.AddSleep(ctx, service.SleepInput{Bedtime: at("2025-03-08", 8, 0), Wakeup: at("2025-03-09", 9, 0)})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = tr.AddSleep(ctx, service.SleepInput{Bedtime: at("2025-03-10", 13, 0), Wakeup: at("2025-03-10", 14, 0), Quality: "meh"})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	// Touching intervals do not overlap.
	nap, err := tr.AddSleep(ctx, service.SleepInput{Bedtime: at("2025-03-10", 7, 0), Wakeup: at("2025-03-10", 7, 30), Quality: "poor"})
	require.NoError(t, err)

	log, err := tr.SleepRecords(ctx)
	require.NoError(t, err)
	require.Len(t, log.Records, 2)
	assert.Equal(t, rec.ID, log.Records[0].ID)

	s, err := tr.LoadDailySummary(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 510, s.SleepDuration)
	assert.Equal(t, "A", s.SleepGrade)

	require.NoError(t, tr.DeleteSleep(ctx, nap.ID))
	require.ErrorIs(t, tr.DeleteSleep(ctx, "missing"), service.ErrNotFound)
}

func TestAddExerciseCalories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _ := newTestTracker(t, at("2025-03-10", 18, 0))

	run, err := tr.AddExercise(ctx, service.ExerciseInput{Type: "Running", DurationMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, "running", run.Type)
	assert.Equal(t, "medium", run.Intensity)
	assert.Equal(t, 343, run.Calories)

	other, err := tr.AddExercise(ctx, service.ExerciseInput{Type: "other", DurationMinutes: 30, Intensity: "high", HourlyCalories: 600})
	require.NoError(t, err)
	assert.Equal(t, 300, other.Calories)

	_, err = tr.AddExercise(ctx, service.ExerciseInput{Type: "jousting", DurationMinutes: 30})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = tr.AddExercise(ctx, service.ExerciseInput{Type: "running", DurationMinutes: 0})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = tr.AddExercise(ctx, service.ExerciseInput{Type: "walking", DurationMinutes: 601})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = tr.AddExercise(ctx, service.ExerciseInput{Type: "running", DurationMinutes: 10, Intensity: "extreme"})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	s, err := tr.LoadDailySummary(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 60, s.ExerciseDuration)
	assert.Equal(t, 643, s.ExerciseCalories)
	assert.Equal(t, 96, s.ExerciseScore)

	require.NoError(t, tr.DeleteExercise(ctx, run.ID))
	log, err := tr.ExerciseRecords(ctx)
	require.NoError(t, err)
	require.Len(t, log.Records, 1)
	assert.Equal(t, other.ID, log.Records[0].ID)

	hourly, err := tr.HourlyEstimate(ctx, "running", "medium")
	require.NoError(t, err)
	assert.Equal(t, 686, hourly)
}

func TestDailyListsRollOver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, clock := newTestTracker(t, at("2025-03-10", 12, 0))

	_, err := tr.AddMeal(ctx, service.MealInput{Name: "apple", Amount: 100, Nutrients: model.Nutrients{"calories": 52}})
	require.NoError(t, err)
	_, err = tr.AddExercise(ctx, service.ExerciseInput{Type: "walking", DurationMinutes: 20})
	require.NoError(t, err)

	clock.Set(at("2025-03-11", 0, 5))
	meals, err := tr.Meals(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", meals.Date)
	assert.Empty(t, meals.Records)

	ex, err := tr.ExerciseRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", ex.Date)
	assert.Empty(t, ex.Records)

	prev, err := tr.LoadDailySummary(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 20, prev.ExerciseDuration)
	assert.Greater(t, prev.NutritionScore, 0)
}

func TestTodayOverview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _ := newTestTracker(t, at("2025-03-10", 20, 0))

	require.NoError(t, tr.SaveProfile(ctx, validProfile()))
	_, err := tr.AddWater(ctx, 1090)
	require.NoError(t, err)
	_, err = tr.AddSleep(ctx, service.SleepInput{Bedtime: at("2025-03-10", 1, 0), Wakeup: at("2025-03-10", 7, 0), Quality: "fair"})
	require.NoError(t, err)

	ov, err := tr.TodayOverview(ctx)
	require.NoError(t, err)
	assert.True(t, ov.Complete)
	assert.Equal(t, "2025-03-10", ov.Summary.Date)
	assert.Equal(t, 2180.0, ov.Water.Goal)
	assert.Equal(t, 0.5, ov.Water.Ratio())
	assert.Equal(t, 360.0, ov.Sleep.Current)
	assert.Equal(t, "C", ov.Summary.SleepGrade)
	assert.Equal(t, 20.0, ov.Exercise.Goal)
	assert.Zero(t, ov.Summary.NutritionScore)
}
