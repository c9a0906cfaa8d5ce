package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aazoaer/health-manager/internal/events"
	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/model"
)

const maxExerciseMinutes = 600

type ExerciseInput struct {
	Type            string
	DurationMinutes int
	Intensity       string
	// HourlyCalories overrides the MET estimate when > 0.
	HourlyCalories float64
}

func (t *Tracker) ExerciseRecords(ctx context.Context) (model.ExerciseLog, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.loadFresh(ctx, KeyDailyExercises)
	if err != nil {
		return model.ExerciseLog{}, err
	}
	return u.DailyExercises, nil
}

func normalizeExerciseInput(in ExerciseInput) (ExerciseInput, error) {
	in.Type = normalizeName(in.Type)
	in.Intensity = normalizeName(in.Intensity)
	if in.Intensity == "" {
		in.Intensity = health.IntensityMedium
	}
	if !health.ValidExerciseType(in.Type) {
		return in, invalidf("unknown exercise type %q (valid: %s)", in.Type, strings.Join(health.ExerciseTypes, ", "))
	}
	if !health.ValidIntensity(in.Intensity) {
		return in, invalidf("intensity must be one of: low, medium, high")
	}
	if err := validatePositiveInt("duration", in.DurationMinutes); err != nil {
		return in, err
	}
	if in.DurationMinutes > maxExerciseMinutes {
		return in, invalidf("duration must be <= %d minutes", maxExerciseMinutes)
	}
	if err := validateNonNegativeFloat("hourly calories", in.HourlyCalories); err != nil {
		return in, err
	}
	return in, nil
}

func (t *Tracker) AddExercise(ctx context.Context, in ExerciseInput) (model.ExerciseRecord, error) {
	in, err := normalizeExerciseInput(in)
	if err != nil {
		return model.ExerciseRecord{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.loadFresh(ctx, KeyDailyExercises)
	if err != nil {
		return model.ExerciseRecord{}, err
	}

	var calories int
	if in.HourlyCalories > 0 {
		calories = health.CaloriesFromHourly(in.HourlyCalories, in.DurationMinutes)
	} else {
		calories = health.CaloriesForExercise(in.Type, in.DurationMinutes, in.Intensity, u.Weight.Float())
	}
	rec := model.ExerciseRecord{
		ID:              uuid.NewString(),
		Type:            in.Type,
		DurationMinutes: in.DurationMinutes,
		Intensity:       in.Intensity,
		Calories:        calories,
		Timestamp:       model.NewLocalTime(t.now()),
	}
	u.DailyExercises.Records = append(u.DailyExercises.Records, rec)
	if err := t.save(ctx, Patch{KeyDailyExercises: u.DailyExercises}, true); err != nil {
		return model.ExerciseRecord{}, err
	}
	t.bus.Publish(events.ExerciseAdded, rec)
	return rec, nil
}

func (t *Tracker) DeleteExercise(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.loadFresh(ctx, KeyDailyExercises)
	if err != nil {
		return err
	}
	records, ok := removeByID(u.DailyExercises.Records, id, func(r model.ExerciseRecord) string { return r.ID })
	if !ok {
		return fmt.Errorf("exercise record %q: %w", id, ErrNotFound)
	}
	u.DailyExercises.Records = records
	if err := t.save(ctx, Patch{KeyDailyExercises: u.DailyExercises}, true); err != nil {
		return err
	}
	t.bus.Publish(events.RecordDeleted, map[string]string{"kind": "exercise", "id": id})
	return nil
}

// HourlyEstimate returns the MET-based kcal per hour for the user's weight.
func (t *Tracker) HourlyEstimate(ctx context.Context, exerciseType, intensity string) (int, error) {
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return 0, err
	}
	return health.HourlyCalories(normalizeName(exerciseType), normalizeName(intensity), u.Weight.Float()), nil
}

// TodayExercise returns total minutes, calories and score for today.
func TodayExercise(u model.UserData, today string) (int, int, int) {
	if u.DailyExercises.Date != today || len(u.DailyExercises.Records) == 0 {
		return 0, 0, 0
	}
	minutes, calories := 0, 0
	for _, r := range u.DailyExercises.Records {
		minutes += r.DurationMinutes
		calories += r.Calories
	}
	return minutes, calories, health.ExerciseScore(u.DailyExercises.Records, u)
}
