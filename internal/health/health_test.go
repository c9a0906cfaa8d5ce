package health_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/model"
)

func TestWaterGoal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		user model.UserData
		want int
	}{
		{name: "no weight falls back", user: model.UserData{}, want: 2000},
		{
			name: "tall active adult in heat",
			user: model.UserData{Weight: 70, Age: 30, Height: 180, ExerciseIntensity: "very_active", Environment: "hot_env"},
			want: 3960,
		},
		{
			name: "short child with air conditioning",
			user: model.UserData{Weight: 60, Age: 10, Height: 140, ExerciseIntensity: "sedentary", Environment: "ac_env"},
			want: 3050,
		},
		{
			name: "rounds to nearest ten",
			user: model.UserData{Weight: 61.5, Age: 30, Height: 170},
			want: 2030,
		},
		{
			name: "half rounds to even",
			user: model.UserData{Weight: 87.2, Age: 70, Height: 160},
			want: 2000,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, health.WaterGoal(tc.user))
		})
	}
}

func TestWaterGoalBreakdownSteps(t *testing.T) {
	t.Parallel()

	b := health.WaterGoalBreakdown(model.UserData{Weight: 50, Age: 15, Height: 165, ExerciseIntensity: "moderately_active"})
	assert.False(t, b.Fallback)
	assert.Equal(t, 40, b.Coefficient)
	assert.Equal(t, 2000, b.Base)
	assert.Equal(t, 0, b.HeightAdjust)
	assert.Equal(t, 750, b.ExerciseAdjust)
	assert.Equal(t, 2750, b.Total)

	fb := health.WaterGoalBreakdown(model.UserData{Weight: -1})
	assert.True(t, fb.Fallback)
	assert.Equal(t, health.DefaultWaterGoal, fb.Total)
}

func TestSleepGrade(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A", health.SleepGrade(480, health.QualityExcellent))
	assert.Equal(t, "A", health.SleepGrade(480, health.QualityGood))
	assert.Equal(t, "B", health.SleepGrade(480, health.QualityFair))
	assert.Equal(t, "C", health.SleepGrade(480, health.QualityPoor))
	assert.Equal(t, "C", health.SleepGrade(380, health.QualityFair))
	assert.Equal(t, "F", health.SleepGrade(320, health.QualityPoor))
	assert.Equal(t, "F", health.SleepGrade(0, health.QualityExcellent))
}

func TestBestQuality(t *testing.T) {
	t.Parallel()

	assert.Equal(t, health.QualityFair, health.BestQuality(nil))
	assert.Equal(t, health.QualityGood, health.BestQuality([]model.SleepRecord{{Quality: "poor"}, {Quality: "good"}}))
	assert.Equal(t, health.QualityFair, health.BestQuality([]model.SleepRecord{{Quality: "restless"}}))
	assert.Equal(t, health.QualityExcellent, health.BestQuality([]model.SleepRecord{{Quality: "excellent"}, {Quality: "fair"}}))
}

func TestExerciseGoalMinutes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 20, health.ExerciseGoalMinutes("", 0))
	assert.Equal(t, 45, health.ExerciseGoalMinutes("very_active", 70))
	assert.Equal(t, 45, health.ExerciseGoalMinutes("light_active", 15))
	assert.Equal(t, 35, health.ExerciseGoalMinutes("sedentary", 16))
	assert.Equal(t, 45, health.ExerciseGoalMinutes("moderately_active", 40))
	assert.Equal(t, 15, health.ExerciseGoalMinutes("sedentary", 80))
}

func TestExerciseCalories(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 343, health.CaloriesForExercise("running", 30, health.IntensityMedium, 70))
	assert.Equal(t, 686, health.HourlyCalories("running", health.IntensityMedium, 0))
	assert.Equal(t, 375, health.CaloriesFromHourly(500, 45))
	assert.Equal(t, 0, health.CaloriesForExercise("running", 0, health.IntensityHigh, 70))
	assert.Equal(t,
		health.CaloriesForExercise("other", 60, health.IntensityLow, 70),
		health.CaloriesForExercise("parkour", 60, health.IntensityLow, 70),
	)
	assert.Len(t, health.ExerciseTypes, len(health.ExerciseMETs))
}

func TestExerciseScore(t *testing.T) {
	t.Parallel()

	user := model.UserData{Age: 30, ExerciseIntensity: "sedentary"}
	assert.Equal(t, 0, health.ExerciseScore(nil, user))
	assert.Equal(t, 100, health.ExerciseScore([]model.ExerciseRecord{{DurationMinutes: 30, Intensity: "high"}}, user))
	assert.Equal(t, 50, health.ExerciseScore([]model.ExerciseRecord{{DurationMinutes: 10, Intensity: "low"}}, user))
}

func TestNutritionGoalsAndScore(t *testing.T) {
	t.Parallel()

	user := model.UserData{Weight: 70, Height: 175, Age: 30, Gender: "male", ExerciseIntensity: "sedentary"}
	assert.InDelta(t, 1978.5, health.DailyEnergy(user), 0.001)
	assert.InDelta(t, 2000, health.DailyEnergy(model.UserData{}), 0.001)

	goals := health.NutritionGoals(user)
	require.Len(t, goals, len(health.NutrientKeys))
	assert.InDelta(t, 1978.5, goals[health.NutrientCalories].Range[1], 0.001)
	assert.Equal(t, "mg", goals[health.NutrientSodium].Unit)

	assert.Equal(t, 0, health.NutritionScore(model.Nutrients{}, goals))

	perfect := model.Nutrients{}
	for key, g := range goals {
		perfect[key] = g.Range[1]
	}
	assert.Equal(t, 100, health.NutritionScore(perfect, goals))

	perfect[health.NutrientSodium] = 4600
	assert.Equal(t, 95, health.NutritionScore(perfect, goals))
}

func TestNutritionAdvice(t *testing.T) {
	t.Parallel()

	goals := health.NutritionGoals(model.UserData{})
	advice := health.NutritionAdvice(model.Nutrients{health.NutrientSodium: 4000, health.NutrientFiber: 30}, goals)
	require.Len(t, advice, len(health.NutrientKeys))

	byKey := map[string]string{}
	for _, a := range advice {
		byKey[a.Key] = a.Status
	}
	assert.Equal(t, health.AdviceLow, byKey[health.NutrientCalories])
	assert.Equal(t, health.AdviceHigh, byKey[health.NutrientSodium])
	assert.Equal(t, health.AdviceOK, byKey[health.NutrientFiber])
	assert.Equal(t, health.AdviceOK, byKey[health.NutrientSugars])
}

func TestSumNutrients(t *testing.T) {
	t.Parallel()

	total := health.SumNutrients([]model.Meal{
		{Level1: model.Nutrients{"calories": 200, "protein": 10}},
		{Level1: model.Nutrients{"calories": 300.5}},
	})
	assert.InDelta(t, 500.5, total["calories"], 0.0001)
	assert.InDelta(t, 10, total["protein"], 0.0001)
}
