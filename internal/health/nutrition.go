package health

import (
	"math"
	"strings"

	"github.com/aazoaer/health-manager/internal/model"
)

// Nutrient keys stored under a meal's level1 block.
const (
	NutrientCalories = "calories"
	NutrientProtein  = "protein"
	NutrientFat      = "total_fat"
	NutrientCarbs    = "total_carbs"
	NutrientFiber    = "fiber"
	NutrientSugars   = "sugars"
	NutrientSodium   = "sodium"
	NutrientCalcium  = "calcium"
	NutrientVitC     = "vitamin_c"
	NutrientVitD     = "vitamin_d"
)

// NutrientKeys is the display and scoring order.
var NutrientKeys = []string{
	NutrientCalories, NutrientProtein, NutrientFat, NutrientCarbs, NutrientFiber,
	NutrientSugars, NutrientSodium, NutrientCalcium, NutrientVitC, NutrientVitD,
}

var nutrientUnits = map[string]string{
	NutrientCalories: "kcal",
	NutrientProtein:  "g",
	NutrientFat:      "g",
	NutrientCarbs:    "g",
	NutrientFiber:    "g",
	NutrientSugars:   "g",
	NutrientSodium:   "mg",
	NutrientCalcium:  "mg",
	NutrientVitC:     "mg",
	NutrientVitD:     "ug",
}

const defaultEnergyKcal = 2000

// Goal is a nutrient target: Range holds min, target and max.
type Goal struct {
	Unit  string     `json:"unit"`
	Range [3]float64 `json:"range"`
}

type Goals map[string]Goal

func NutrientUnit(key string) string {
	return nutrientUnits[key]
}

// DailyEnergy estimates total energy expenditure with Mifflin-St Jeor and an
// activity factor. Incomplete profiles fall back to 2000 kcal.
func DailyEnergy(u model.UserData) float64 {
	w, h, a := u.Weight.Float(), u.Height.Float(), u.Age.Float()
	if w <= 0 || h <= 0 || a <= 0 {
		return defaultEnergyKcal
	}
	bmr := 10*w + 6.25*h - 5*a
	switch u.Gender {
	case "male":
		bmr += 5
	case "female":
		bmr -= 161
	default:
		bmr -= 78
	}
	return bmr * activityFactor(u.ExerciseIntensity)
}

func activityFactor(intensity string) float64 {
	switch {
	case strings.Contains(intensity, "extra"):
		return 1.9
	case strings.Contains(intensity, "very"), strings.Contains(intensity, "high"):
		return 1.725
	case strings.Contains(intensity, "moderately"):
		return 1.55
	case strings.Contains(intensity, "light"):
		return 1.375
	default:
		return 1.2
	}
}

func NutritionGoals(u model.UserData) Goals {
	kcal := DailyEnergy(u)
	weight := u.Weight.Float()

	protein := [3]float64{40, 50, 100}
	if weight > 0 {
		protein = [3]float64{0.8 * weight, 1.2 * weight, 2.0 * weight}
	}

	ranges := map[string][3]float64{
		NutrientCalories: {0.9 * kcal, kcal, 1.1 * kcal},
		NutrientProtein:  protein,
		NutrientFat:      {kcal * 0.20 / 9, kcal * 0.275 / 9, kcal * 0.35 / 9},
		NutrientCarbs:    {kcal * 0.45 / 4, kcal * 0.55 / 4, kcal * 0.65 / 4},
		NutrientFiber:    {25, 30, 70},
		NutrientSugars:   {0, 25, 50},
		NutrientSodium:   {500, 1500, 2300},
		NutrientCalcium:  {800, 1000, 2000},
		NutrientVitC:     {75, 100, 2000},
		NutrientVitD:     {10, 15, 100},
	}

	goals := make(Goals, len(ranges))
	for key, r := range ranges {
		goals[key] = Goal{
			Unit:  nutrientUnits[key],
			Range: [3]float64{round1(r[0]), round1(r[1]), round1(r[2])},
		}
	}
	return goals
}

// NutritionScore rates intake against goals on a 0-100 scale. Each nutrient
// scores 1 inside its range and decays proportionally outside it.
func NutritionScore(intake model.Nutrients, goals Goals) int {
	if !hasIntake(intake) {
		return 0
	}
	var sum float64
	var n int
	for _, key := range NutrientKeys {
		g, ok := goals[key]
		if !ok {
			continue
		}
		sum += nutrientScore(intake[key], g.Range)
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(sum / float64(n) * 100))
}

func nutrientScore(v float64, r [3]float64) float64 {
	lo, hi := r[0], r[2]
	switch {
	case v < lo:
		if lo <= 0 {
			return 1
		}
		return v / lo
	case v > hi:
		if v <= 0 {
			return 1
		}
		return hi / v
	default:
		return 1
	}
}

func hasIntake(intake model.Nutrients) bool {
	for _, v := range intake {
		if v > 0 {
			return true
		}
	}
	return false
}

const (
	AdviceLow  = "low"
	AdviceOK   = "ok"
	AdviceHigh = "high"
)

type Advice struct {
	Key     string  `json:"key"`
	Current float64 `json:"current"`
	Goal    Goal    `json:"goal"`
	Status  string  `json:"status"`
}

// NutritionAdvice flags every nutrient below its minimum or above its
// maximum, in NutrientKeys order.
func NutritionAdvice(intake model.Nutrients, goals Goals) []Advice {
	out := make([]Advice, 0, len(NutrientKeys))
	for _, key := range NutrientKeys {
		g, ok := goals[key]
		if !ok {
			continue
		}
		cur := intake[key]
		status := AdviceOK
		switch {
		case cur < g.Range[0]:
			status = AdviceLow
		case cur > g.Range[2]:
			status = AdviceHigh
		}
		out = append(out, Advice{Key: key, Current: cur, Goal: g, Status: status})
	}
	return out
}

// SumNutrients totals the level1 blocks of every meal.
func SumNutrients(meals []model.Meal) model.Nutrients {
	total := model.Nutrients{}
	for _, m := range meals {
		for key, v := range m.Level1 {
			total[key] += v
		}
	}
	return total
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
