package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LocalLayout is the timestamp layout used inside stored record blobs.
const LocalLayout = "2006-01-02T15:04:05"

// DateLayout is the ISO calendar date used for list stamps and history keys.
const DateLayout = "2006-01-02"

// Number decodes JSON numbers as well as numeric strings written by older
// versions. Null and unparseable strings decode to zero.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decode number: %w", err)
	}
	*n = Number(v)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

func (n Number) Int() int { return int(n) }

// LocalTime is a wall-clock timestamp serialised without zone offset.
// Unparseable values decode to the zero time instead of failing the whole
// blob.
type LocalTime struct {
	time.Time
}

func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{Time: t.Truncate(time.Second)}
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(LocalLayout))
}

func (t *LocalTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	parsed, ok := ParseLocalTime(s)
	if !ok {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parsed
	return nil
}

// ParseLocalTime accepts the stored layout, fractional seconds and RFC 3339.
func ParseLocalTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{LocalLayout, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if v, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return v, true
		}
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return v.Local(), true
	}
	return time.Time{}, false
}

// Nutrients maps nutrient keys (calories, protein, ...) to amounts.
// Non-numeric entries are dropped on decode.
type Nutrients map[string]float64

func (n *Nutrients) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*n = Nutrients{}
		return nil
	}
	out := Nutrients{}
	for key, value := range raw {
		var num Number
		if err := json.Unmarshal(value, &num); err != nil {
			continue
		}
		out[key] = num.Float()
	}
	*n = out
	return nil
}

type WaterRecord struct {
	Timestamp LocalTime `json:"timestamp"`
	Amount    Number    `json:"amount"`
}

// WaterLog is today's drink list. Older data stored a bare list of records,
// which decodes with an empty Date.
type WaterLog struct {
	Date    string        `json:"date"`
	Records []WaterRecord `json:"records"`
}

func (w *WaterLog) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var records []WaterRecord
		if err := json.Unmarshal(b, &records); err != nil {
			return fmt.Errorf("decode legacy water records: %w", err)
		}
		*w = WaterLog{Records: records}
		return nil
	}
	type plain WaterLog
	var p plain
	if len(b) > 0 && !bytes.Equal(b, []byte("null")) {
		if err := json.Unmarshal(b, &p); err != nil {
			return fmt.Errorf("decode water records: %w", err)
		}
	}
	*w = WaterLog(p)
	return nil
}

type Serving struct {
	Value Number `json:"value"`
	Unit  string `json:"unit"`
}

type Meal struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Level1       Nutrients `json:"level1"`
	ServingEaten Serving   `json:"serving_eaten"`
	IsCustom     bool      `json:"is_custom,omitempty"`
	Barcode      string    `json:"barcode,omitempty"`
	Timestamp    LocalTime `json:"timestamp"`
}

type MealLog struct {
	Date    string `json:"date"`
	Records []Meal `json:"records"`
}

type SleepRecord struct {
	ID              string    `json:"id"`
	Bedtime         LocalTime `json:"bedtime"`
	Wakeup          LocalTime `json:"wakeup"`
	DurationMinutes int       `json:"duration_minutes"`
	Quality         string    `json:"quality"`
}

type SleepLog struct {
	Date    string        `json:"date"`
	Records []SleepRecord `json:"records"`
}

type ExerciseRecord struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	DurationMinutes int       `json:"duration_minutes"`
	Intensity       string    `json:"intensity"`
	Calories        int       `json:"calories"`
	Timestamp       LocalTime `json:"timestamp"`
}

type ExerciseLog struct {
	Date    string           `json:"date"`
	Records []ExerciseRecord `json:"records"`
}

// UserData is the merged view of every persisted user key.
type UserData struct {
	Age               Number `json:"age"`
	Height            Number `json:"height"`
	Weight            Number `json:"weight"`
	Gender            string `json:"gender"`
	ExerciseIntensity string `json:"exercise_intensity"`
	Environment       string `json:"environment"`

	ThemeMode   string `json:"theme_mode"`
	Language    string `json:"language"`
	CloseMode   string `json:"close_mode"`
	ChinaAIMode bool   `json:"china_ai_mode"`

	WaterIntake        Number      `json:"water_intake"`
	LastDrinkTimestamp *string     `json:"last_drink_timestamp"`
	ReminderActive     bool        `json:"reminder_active"`
	WaterRecords       WaterLog    `json:"water_records"`
	DailyMeals         MealLog     `json:"daily_meals"`
	DailySleep         SleepLog    `json:"daily_sleep"`
	DailyExercises     ExerciseLog `json:"daily_exercises"`
}

// DailySummary is the per-day history blob. Date is the storage key and is
// not part of the blob.
type DailySummary struct {
	Date             string  `json:"-" yaml:"-"`
	WaterIntake      float64 `json:"water_intake" yaml:"water_intake"`
	WaterGoal        int     `json:"water_goal" yaml:"water_goal"`
	WaterAchieved    bool    `json:"water_achieved" yaml:"water_achieved"`
	NutritionScore   int     `json:"nutrition_score" yaml:"nutrition_score"`
	SleepGrade       string  `json:"sleep_grade" yaml:"sleep_grade"`
	SleepDuration    int     `json:"sleep_duration" yaml:"sleep_duration"`
	ExerciseScore    int     `json:"exercise_score" yaml:"exercise_score"`
	ExerciseDuration int     `json:"exercise_duration" yaml:"exercise_duration"`
	ExerciseCalories int     `json:"exercise_calories" yaml:"exercise_calories"`
}
