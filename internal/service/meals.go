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

// MealInput describes a food eaten. Nutrients are given per RefAmount of
// RefUnit (100 g when unset) and scaled to Amount of Unit.
type MealInput struct {
	Name       string
	Amount     float64
	Unit       string
	Nutrients  model.Nutrients
	RefAmount  float64
	RefUnit    string
	DensityGML float64
	Barcode    string
	Custom     bool
}

func (t *Tracker) Meals(ctx context.Context) (model.MealLog, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.loadFresh(ctx, KeyDailyMeals)
	if err != nil {
		return model.MealLog{}, err
	}
	return u.DailyMeals, nil
}

func (t *Tracker) AddMeal(ctx context.Context, in MealInput) (model.Meal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Meal{}, invalidf("meal name is required")
	}
	if in.Unit == "" {
		in.Unit = "g"
	}
	if in.RefAmount == 0 {
		in.RefAmount = 100
	}
	if in.RefUnit == "" {
		in.RefUnit = "g"
	}
	level1, err := ScaleNutrients(in.Nutrients, in.Amount, in.Unit, in.RefAmount, in.RefUnit, in.DensityGML)
	if err != nil {
		return model.Meal{}, err
	}
	meal := model.Meal{
		ID:           uuid.NewString(),
		Name:         name,
		Level1:       level1,
		ServingEaten: model.Serving{Value: model.Number(in.Amount), Unit: in.Unit},
		IsCustom:     in.Custom,
		Barcode:      strings.TrimSpace(in.Barcode),
		Timestamp:    model.NewLocalTime(t.now()),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.loadFresh(ctx, KeyDailyMeals)
	if err != nil {
		return model.Meal{}, err
	}
	u.DailyMeals.Records = append(u.DailyMeals.Records, meal)
	if err := t.save(ctx, Patch{KeyDailyMeals: u.DailyMeals}, true); err != nil {
		return model.Meal{}, err
	}
	t.bus.Publish(events.MealAdded, meal)
	return meal, nil
}

func (t *Tracker) DeleteMeal(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.loadFresh(ctx, KeyDailyMeals)
	if err != nil {
		return err
	}
	records, ok := removeByID(u.DailyMeals.Records, id, func(m model.Meal) string { return m.ID })
	if !ok {
		return fmt.Errorf("meal %q: %w", id, ErrNotFound)
	}
	u.DailyMeals.Records = records
	if err := t.save(ctx, Patch{KeyDailyMeals: u.DailyMeals}, true); err != nil {
		return err
	}
	t.bus.Publish(events.RecordDeleted, map[string]string{"kind": "meal", "id": id})
	return nil
}

// TodayIntake totals nutrients over meals logged today. A stale meal list
// contributes nothing.
func TodayIntake(u model.UserData, today string) model.Nutrients {
	if u.DailyMeals.Date != today {
		return model.Nutrients{}
	}
	return health.SumNutrients(u.DailyMeals.Records)
}
