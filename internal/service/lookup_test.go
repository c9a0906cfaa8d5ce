package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aazoaer/health-manager/internal/model"
	"github.com/aazoaer/health-manager/internal/service"
)

type fakeSource struct {
	name    string
	foods   map[string]service.FoodResult
	results []service.FoodResult
	err     error
	calls   atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) LookupBarcode(_ context.Context, barcode string) (service.FoodResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return service.FoodResult{}, f.err
	}
	food, ok := f.foods[barcode]
	if !ok {
		return service.FoodResult{}, errors.New("product not found")
	}
	return food, nil
}

func (f *fakeSource) SearchFoods(_ context.Context, _ string, _ int) ([]service.FoodResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestFoodFinderFallsBackAndCaches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	off := &fakeSource{name: "openfoodfacts", foods: map[string]service.FoodResult{}}
	fdc := &fakeSource{name: "usda", foods: map[string]service.FoodResult{
		"012345678905": {Provider: "usda", Name: "Greek Yogurt", Per100: model.Nutrients{"calories": 59, "protein": 10, "total_fat": 0.4, "total_carbs": 3.6}},
	}}
	finder := service.NewFoodFinder(off, fdc)

	got, err := finder.LookupBarcode(ctx, " 012345678905 ")
	require.NoError(t, err)
	assert.Equal(t, "Greek Yogurt", got.Name)
	assert.Equal(t, []string{"openfoodfacts", "usda"}, got.LookupTrail)
	assert.Equal(t, service.CompletenessComplete, got.Completeness)
	assert.False(t, got.FromCache)

	again, err := finder.LookupBarcode(ctx, "012345678905")
	require.NoError(t, err)
	assert.True(t, again.FromCache)
	assert.EqualValues(t, 1, fdc.calls.Load())

	_, err = finder.LookupBarcode(ctx, "99999999")
	require.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorContains(t, err, "openfoodfacts: product not found")

	_, err = finder.LookupBarcode(ctx, "abc")
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestFoodFinderStopsOnContextError(t *testing.T) {
	t.Parallel()
	first := &fakeSource{name: "openfoodfacts", err: context.DeadlineExceeded}
	second := &fakeSource{name: "usda", foods: map[string]service.FoodResult{"12345678": {Name: "x"}}}
	finder := service.NewFoodFinder(first, second)

	_, err := finder.LookupBarcode(context.Background(), "12345678")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, second.calls.Load())
}

func TestFoodFinderSearchDedupesAndRanks(t *testing.T) {
	t.Parallel()
	off := &fakeSource{name: "openfoodfacts", results: []service.FoodResult{
		{Name: "Oat Milk", Brand: "Brand", Per100: model.Nutrients{"calories": 45}},
		{Name: "Oats", Per100: model.Nutrients{}},
	}}
	fdc := &fakeSource{name: "usda", results: []service.FoodResult{
		{Name: "oat milk", Brand: "brand", Per100: model.Nutrients{"calories": 46, "protein": 1, "total_fat": 1.5, "total_carbs": 6.6}},
		{Name: "Rolled Oats", Per100: model.Nutrients{"calories": 379, "protein": 13, "total_fat": 6.5, "total_carbs": 68}},
	}}
	broken := &fakeSource{name: "broken", err: errors.New("boom")}
	finder := service.NewFoodFinder(off, broken, fdc)

	got, err := finder.SearchFoods(context.Background(), "oat", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Rolled Oats", got[0].Name)
	assert.Equal(t, service.CompletenessComplete, got[0].Completeness)
	assert.Equal(t, "Oat Milk", got[1].Name)
	assert.Equal(t, service.CompletenessPartial, got[1].Completeness)
	assert.Equal(t, service.CompletenessMinimal, got[2].Completeness)

	_, err = service.NewFoodFinder(broken).SearchFoods(context.Background(), "oat", 3)
	require.ErrorIs(t, err, service.ErrNotFound)
	_, err = finder.SearchFoods(context.Background(), "  ", 3)
	require.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = finder.SearchFoods(context.Background(), "oat", service.MaxSearchLimit+1)
	require.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = finder.SearchFoods(context.Background(), "oat", 999999999999999)
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestFoodFinderSearchDedupesByBarcode(t *testing.T) {
	t.Parallel()
	off := &fakeSource{name: "openfoodfacts", results: []service.FoodResult{
		{Name: "Whole Milk", Barcode: "4000000000001", Per100: model.Nutrients{"calories": 64}},
	}}
	fdc := &fakeSource{name: "usda", results: []service.FoodResult{
		{Name: "MILK, WHOLE", Barcode: "4000000000001", Per100: model.Nutrients{"calories": 61}},
		{Name: "Skim Milk", Barcode: "4000000000002"},
	}}
	got, err := service.NewFoodFinder(off, fdc).SearchFoods(context.Background(), "milk", service.MaxSearchLimit)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Whole Milk", got[0].Name)
	assert.Equal(t, "Skim Milk", got[1].Name)
}

func TestFoodResultMealInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _ := newTestTracker(t, at("2025-03-10", 12, 0))
	food := service.FoodResult{Barcode: "12345678", Name: "Cola", Brand: "Fizz", ServingUnit: "ml", Per100: model.Nutrients{"calories": 42, "sugars": 10.6}}

	in := food.MealInput(330, "ml")
	assert.Equal(t, "Fizz Cola", in.Name)
	assert.Equal(t, "ml", in.RefUnit)

	meal, err := tr.AddMeal(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 138.6, meal.Level1["calories"])
	assert.Equal(t, 34.98, meal.Level1["sugars"])
	assert.Equal(t, "12345678", meal.Barcode)
}
