package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aazoaer/health-manager/internal/service"
)

func TestMealPromptFollowsLanguage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _ := newTestTracker(t, at("2025-03-10", 12, 0))
	foods := []service.PromptFood{{Name: "rice", Amount: 150, Unit: "g"}, {Name: "egg", Amount: 1, Unit: "piece"}}

	p, err := tr.MealPrompt(ctx, foods)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "请估算")
	assert.Contains(t, p.Text, "- 150g rice\n- 1piece egg")
	assert.Equal(t, "https://chatgpt.com/", p.URL)

	require.NoError(t, tr.SetSetting(ctx, "language", "en_US"))
	require.NoError(t, tr.SetSetting(ctx, "china_ai_mode", "true"))
	p, err = tr.MealPrompt(ctx, foods)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Estimate the nutrients per 100 g")
	assert.Contains(t, p.Text, "vitamin_d")
	assert.Equal(t, "https://chat.deepseek.com/", p.URL)

	_, err = tr.MealPrompt(ctx, []service.PromptFood{{Name: "rice", Unit: "g"}})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = tr.MealPrompt(ctx, nil)
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestExercisePromptUsesProfileWeight(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _ := newTestTracker(t, at("2025-03-10", 12, 0))

	p, err := tr.ExercisePrompt(ctx, "rock climbing", "")
	require.NoError(t, err)
	assert.Contains(t, p.Text, "rock climbing (medium intensity)")
	assert.Contains(t, p.Text, "70 kg")

	require.NoError(t, tr.SaveProfile(ctx, validProfile()))
	p, err = tr.ExercisePrompt(ctx, "rock climbing", "high")
	require.NoError(t, err)
	assert.Contains(t, p.Text, "60 kg")

	_, err = tr.ExercisePrompt(ctx, " ", "")
	require.ErrorIs(t, err, service.ErrInvalidInput)
}
