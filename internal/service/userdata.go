package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aazoaer/health-manager/internal/events"
	"github.com/aazoaer/health-manager/internal/model"
)

// User-data keys.
const (
	KeyAge                = "age"
	KeyHeight             = "height"
	KeyWeight             = "weight"
	KeyGender             = "gender"
	KeyExerciseIntensity  = "exercise_intensity"
	KeyEnvironment        = "environment"
	KeyThemeMode          = "theme_mode"
	KeyLanguage           = "language"
	KeyCloseMode          = "close_mode"
	KeyChinaAIMode        = "china_ai_mode"
	KeyWaterIntake        = "water_intake"
	KeyLastDrinkTimestamp = "last_drink_timestamp"
	KeyReminderActive     = "reminder_active"
	KeyWaterRecords       = "water_records"
	KeyDailyMeals         = "daily_meals"
	KeyDailySleep         = "daily_sleep"
	KeyDailyExercises     = "daily_exercises"
)

// Patch is a partial user-data update keyed by user-data key.
type Patch map[string]any

type migrationRule struct {
	legacy    string
	canonical string
}

// Legacy label fragments, checked in order; the first contained fragment wins.
var intensityMigration = []migrationRule{
	{"almost no exercise", "sedentary"},
	{"light activity", "light_active"},
	{"moderate activity", "moderately_active"},
	{"high activity", "very_active"},
	{"extra active", "extra_active"},
}

var environmentMigration = []migrationRule{
	{"air conditioning", "ac_env"},
	{"cold", "cold_env"},
	{"hot", "hot_env"},
}

func migrateField(value string, rules []migrationRule) string {
	if value == "" {
		return value
	}
	for _, r := range rules {
		if strings.Contains(value, r.legacy) {
			return r.canonical
		}
	}
	return value
}

func DefaultUserData() model.UserData {
	return model.UserData{
		ExerciseIntensity: "sedentary",
		ThemeMode:         "system",
		Language:          "zh_CN",
		CloseMode:         "ask",
		WaterRecords:      model.WaterLog{Records: []model.WaterRecord{}},
		DailyMeals:        model.MealLog{Records: []model.Meal{}},
		DailySleep:        model.SleepLog{Records: []model.SleepRecord{}},
		DailyExercises:    model.ExerciseLog{Records: []model.ExerciseRecord{}},
	}
}

// LoadUserData merges every stored key over the defaults and rewrites
// legacy intensity and environment labels. A key whose value does not
// decode keeps its default and is logged.
func (t *Tracker) LoadUserData(ctx context.Context) (model.UserData, error) {
	rows, err := t.store.GetAll(ctx)
	if err != nil {
		return model.UserData{}, fmt.Errorf("load user data: %w", err)
	}
	u := DefaultUserData()
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := decodeUserDataKey(&u, key, rows[key]); err != nil {
			t.logger.Warn("skip undecodable user data key", "key", key, "error", err)
		}
	}
	u.ExerciseIntensity = migrateField(u.ExerciseIntensity, intensityMigration)
	u.Environment = migrateField(u.Environment, environmentMigration)
	return u, nil
}

// decodeUserDataKey applies one stored value to u with the field's own type.
// Keys UserData does not know are ignored.
func decodeUserDataKey(u *model.UserData, key string, raw json.RawMessage) error {
	single, err := json.Marshal(map[string]json.RawMessage{key: raw})
	if err != nil {
		return err
	}
	return json.Unmarshal(single, u)
}

// SaveUserData upserts patch and announces it. With updateHistory set it
// also refreshes today's summary; a refresh failure is logged, not returned.
func (t *Tracker) SaveUserData(ctx context.Context, patch Patch, updateHistory bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.save(ctx, patch, updateHistory)
}

func (t *Tracker) save(ctx context.Context, patch Patch, updateHistory bool) error {
	values := make(map[string]json.RawMessage, len(patch))
	for key, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode user data %q: %w", key, err)
		}
		values[key] = raw
	}
	if err := t.store.SetMany(ctx, values); err != nil {
		return fmt.Errorf("save user data: %w", err)
	}
	t.bus.Publish(events.UserDataSaved, patchKeys(patch))

	if updateHistory {
		if _, err := t.UpdateTodaySummary(ctx); err != nil {
			t.logger.Error("update today summary", "error", err)
		}
	}
	return nil
}

func patchKeys(p Patch) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ProfileInput is the body profile. Every field is required.
type ProfileInput struct {
	Age               float64 `json:"age" yaml:"age" validate:"required,gte=3,lte=100"`
	Height            float64 `json:"height" yaml:"height" validate:"required,gte=50,lte=230"`
	Weight            float64 `json:"weight" yaml:"weight" validate:"required,gte=10,lte=200"`
	Gender            string  `json:"gender" yaml:"gender" validate:"required,oneof=male female"`
	ExerciseIntensity string  `json:"exercise_intensity" yaml:"exercise_intensity" validate:"required,oneof=sedentary light_active moderately_active very_active extra_active"`
	Environment       string  `json:"environment" yaml:"environment" validate:"required,oneof=ac_env cold_env hot_env"`
}

func ProfileFromUser(u model.UserData) ProfileInput {
	return ProfileInput{
		Age:               u.Age.Float(),
		Height:            u.Height.Float(),
		Weight:            u.Weight.Float(),
		Gender:            u.Gender,
		ExerciseIntensity: u.ExerciseIntensity,
		Environment:       u.Environment,
	}
}

func (t *Tracker) SaveProfile(ctx context.Context, in ProfileInput) error {
	in.Gender = normalizeName(in.Gender)
	in.ExerciseIntensity = migrateField(normalizeName(in.ExerciseIntensity), intensityMigration)
	in.Environment = migrateField(normalizeName(in.Environment), environmentMigration)
	if err := t.validate.Struct(in); err != nil {
		return validationError(err)
	}
	return t.SaveUserData(ctx, Patch{
		KeyAge:               in.Age,
		KeyHeight:            in.Height,
		KeyWeight:            in.Weight,
		KeyGender:            in.Gender,
		KeyExerciseIntensity: in.ExerciseIntensity,
		KeyEnvironment:       in.Environment,
	}, true)
}

// validationError flattens validator output into one ErrInvalidInput.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidf("%v", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "gte", "lte":
			parts = append(parts, fmt.Sprintf("%s must be %s %s", field, map[string]string{"gte": ">=", "lte": "<="}[fe.Tag()], fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return invalidf("%s", strings.Join(parts, "; "))
}

func fieldName(goName string) string {
	var b strings.Builder
	for i, r := range goName {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
