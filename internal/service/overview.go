package service

import (
	"context"

	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/model"
)

type Progress struct {
	Current float64 `json:"current"`
	Goal    float64 `json:"goal"`
}

func (p Progress) Ratio() float64 {
	if p.Goal <= 0 {
		return 0
	}
	r := p.Current / p.Goal
	if r > 1 {
		return 1
	}
	return r
}

type Overview struct {
	Summary  model.DailySummary `json:"summary"`
	Water    Progress           `json:"water"`
	Sleep    Progress           `json:"sleep"`
	Exercise Progress           `json:"exercise"`
	Calories Progress           `json:"calories"`
	Intake   model.Nutrients    `json:"intake"`
	Advice   []health.Advice    `json:"advice"`
	Profile  ProfileInput       `json:"profile"`
	Complete bool               `json:"profile_complete"`
}

// TodayOverview rolls every list over to today, refreshes today's summary
// and returns progress toward each goal.
func (t *Tracker) TodayOverview(ctx context.Context) (Overview, error) {
	t.mu.Lock()
	u, err := t.loadFresh(ctx, KeyDailyMeals, KeyDailySleep, KeyDailyExercises)
	if err == nil {
		_, _, err = t.currentWater(ctx, u)
	}
	t.mu.Unlock()
	if err != nil {
		return Overview{}, err
	}

	summary, err := t.UpdateTodaySummary(ctx)
	if err != nil {
		return Overview{}, err
	}
	u, err = t.LoadUserData(ctx)
	if err != nil {
		return Overview{}, err
	}

	today := t.today()
	goals := health.NutritionGoals(u)
	intake := TodayIntake(u, today)
	profile := ProfileFromUser(u)
	return Overview{
		Summary:  summary,
		Water:    Progress{Current: summary.WaterIntake, Goal: float64(summary.WaterGoal)},
		Sleep:    Progress{Current: float64(summary.SleepDuration), Goal: health.SleepGoalMinutes},
		Exercise: Progress{Current: float64(summary.ExerciseDuration), Goal: float64(health.ExerciseGoalMinutes(u.ExerciseIntensity, u.Age.Int()))},
		Calories: Progress{Current: intake[health.NutrientCalories], Goal: goals[health.NutrientCalories].Range[1]},
		Intake:   intake,
		Advice:   health.NutritionAdvice(intake, goals),
		Profile:  profile,
		Complete: t.validate.Struct(profile) == nil,
	}, nil
}

// Goals bundles every target derived from the profile.
type Goals struct {
	Water           health.WaterBreakdown `json:"water"`
	Nutrition       health.Goals          `json:"nutrition"`
	SleepMinutes    int                   `json:"sleep_minutes"`
	ExerciseMinutes int                   `json:"exercise_minutes"`
	EnergyKcal      float64               `json:"energy_kcal"`
}

func (t *Tracker) Goals(ctx context.Context) (Goals, error) {
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return Goals{}, err
	}
	return Goals{
		Water:           health.WaterGoalBreakdown(u),
		Nutrition:       health.NutritionGoals(u),
		SleepMinutes:    health.SleepGoalMinutes,
		ExerciseMinutes: health.ExerciseGoalMinutes(u.ExerciseIntensity, u.Age.Int()),
		EnergyKcal:      health.DailyEnergy(u),
	}, nil
}
