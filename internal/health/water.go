package health

import (
	"math"
	"strings"

	"github.com/aazoaer/health-manager/internal/model"
)

const DefaultWaterGoal = 2000

// WaterBreakdown lists every step of the daily water goal formula.
type WaterBreakdown struct {
	Weight            float64 `json:"weight"`
	Age               int     `json:"age"`
	Coefficient       int     `json:"coefficient"`
	Base              int     `json:"base"`
	HeightAdjust      int     `json:"height_adjust"`
	ExerciseAdjust    int     `json:"exercise_adjust"`
	EnvironmentAdjust int     `json:"environment_adjust"`
	Total             int     `json:"total"`
	Fallback          bool    `json:"fallback"`
}

func WaterGoal(u model.UserData) int {
	return WaterGoalBreakdown(u).Total
}

func WaterGoalBreakdown(u model.UserData) WaterBreakdown {
	weight := u.Weight.Float()
	if weight <= 0 {
		return WaterBreakdown{Total: DefaultWaterGoal, Fallback: true}
	}
	age := u.Age.Int()
	b := WaterBreakdown{
		Weight:      weight,
		Age:         age,
		Coefficient: ageCoefficient(age),
	}
	b.Base = int(weight * float64(b.Coefficient))

	height := u.Height.Float()
	switch {
	case height >= 175:
		b.HeightAdjust = 250
	case height <= 155:
		b.HeightAdjust = -150
	}
	b.ExerciseAdjust = exerciseWaterAdjust(u.ExerciseIntensity)
	b.EnvironmentAdjust = environmentWaterAdjust(u.Environment)

	total := float64(b.Base + b.HeightAdjust + b.ExerciseAdjust + b.EnvironmentAdjust)
	b.Total = int(math.RoundToEven(total/10) * 10)
	return b
}

func ageCoefficient(age int) int {
	switch {
	case age >= 3 && age <= 12:
		return 50
	case age >= 13 && age <= 17:
		return 40
	case age >= 18 && age <= 55:
		return 33
	case age >= 56 && age <= 65:
		return 28
	case age >= 66:
		return 23
	default:
		return 30
	}
}

func exerciseWaterAdjust(intensity string) int {
	switch {
	case strings.Contains(intensity, "light_active"):
		return 400
	case strings.Contains(intensity, "moderately_active"):
		return 750
	case strings.Contains(intensity, "very_active"),
		strings.Contains(intensity, "extra_active"),
		strings.Contains(intensity, "high_active"):
		return 1000
	default:
		return 0
	}
}

func environmentWaterAdjust(env string) int {
	switch {
	case strings.Contains(env, "hot_env"):
		return 400
	case strings.Contains(env, "ac_env"):
		return 200
	default:
		return 0
	}
}
