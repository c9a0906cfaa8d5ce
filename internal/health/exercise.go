package health

import (
	"math"
	"strings"

	"github.com/aazoaer/health-manager/internal/model"
)

const (
	IntensityLow    = "low"
	IntensityMedium = "medium"
	IntensityHigh   = "high"

	ExerciseOther = "other"

	DefaultBodyWeight = 70.0
)

// ExerciseMETs holds metabolic equivalents per exercise type for low, medium
// and high intensity.
var ExerciseMETs = map[string][3]float64{
	"running":    {7.0, 9.8, 11.5},
	"walking":    {2.8, 3.5, 5.0},
	"cycling":    {4.0, 6.8, 10.0},
	"swimming":   {5.8, 8.3, 10.0},
	"yoga":       {2.0, 2.5, 4.0},
	"strength":   {3.5, 5.0, 6.0},
	"hiit":       {6.0, 8.0, 10.0},
	"dance":      {4.5, 5.5, 7.8},
	"basketball": {4.5, 6.5, 8.0},
	"football":   {5.0, 7.0, 10.0},
	"badminton":  {4.5, 5.5, 7.0},
	"tennis":     {5.0, 7.3, 8.0},
	"other":      {3.0, 4.5, 6.0},
}

// ExerciseTypes is the fixed listing order.
var ExerciseTypes = []string{
	"running", "walking", "cycling", "swimming", "yoga", "strength", "hiit",
	"dance", "basketball", "football", "badminton", "tennis", ExerciseOther,
}

func ValidExerciseType(t string) bool {
	_, ok := ExerciseMETs[t]
	return ok
}

func ValidIntensity(i string) bool {
	return i == IntensityLow || i == IntensityMedium || i == IntensityHigh
}

func met(exerciseType, intensity string) float64 {
	row, ok := ExerciseMETs[exerciseType]
	if !ok {
		row = ExerciseMETs[ExerciseOther]
	}
	switch intensity {
	case IntensityLow:
		return row[0]
	case IntensityHigh:
		return row[2]
	default:
		return row[1]
	}
}

func bodyWeight(w float64) float64 {
	if w <= 0 {
		return DefaultBodyWeight
	}
	return w
}

// HourlyCalories is the kcal burned in one hour.
func HourlyCalories(exerciseType, intensity string, weight float64) int {
	return int(math.Round(met(exerciseType, intensity) * bodyWeight(weight)))
}

func CaloriesForExercise(exerciseType string, minutes int, intensity string, weight float64) int {
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(met(exerciseType, intensity) * bodyWeight(weight) * float64(minutes) / 60))
}

// CaloriesFromHourly scales a user-supplied hourly rate to a duration.
func CaloriesFromHourly(hourly float64, minutes int) int {
	if hourly <= 0 || minutes <= 0 {
		return 0
	}
	return int(math.Round(hourly * float64(minutes) / 60))
}

// ExerciseGoalMinutes derives the daily exercise target from the profile's
// activity level, adjusted for age.
func ExerciseGoalMinutes(intensity string, age int) int {
	goal := 20
	switch {
	case strings.Contains(intensity, "very"), strings.Contains(intensity, "extra"), strings.Contains(intensity, "high"):
		goal = 60
	case strings.Contains(intensity, "moderately"), strings.Contains(intensity, "medium"):
		goal = 45
	case strings.Contains(intensity, "light"), strings.Contains(intensity, "low"):
		goal = 30
	}
	switch {
	case age >= 65:
		goal = max(15, goal-15)
	case age > 0 && age < 18:
		goal = max(30, goal+15)
	}
	return goal
}

var intensityWeight = map[string]float64{
	IntensityLow:    0.5,
	IntensityMedium: 0.75,
	IntensityHigh:   1.0,
}

// ExerciseScore rates the day's exercise on 0-100: 70 points for reaching
// the duration goal and 30 for the duration-weighted intensity mix.
func ExerciseScore(records []model.ExerciseRecord, u model.UserData) int {
	total := 0
	var weighted float64
	for _, r := range records {
		if r.DurationMinutes <= 0 {
			continue
		}
		total += r.DurationMinutes
		w, ok := intensityWeight[r.Intensity]
		if !ok {
			w = intensityWeight[IntensityMedium]
		}
		weighted += w * float64(r.DurationMinutes)
	}
	if total == 0 {
		return 0
	}
	goal := ExerciseGoalMinutes(u.ExerciseIntensity, u.Age.Int())
	durationPart := math.Min(float64(total)/float64(goal), 1) * 70
	intensityPart := weighted / float64(total) * 30
	score := int(math.Round(durationPart + intensityPart))
	return min(max(score, 0), 100)
}
