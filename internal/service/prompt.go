package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	chatGPTURL  = "https://chatgpt.com/"
	deepSeekURL = "https://chat.deepseek.com/"
)

// PromptFood is one food portion to ask an assistant about.
type PromptFood struct {
	Name   string
	Amount float64
	Unit   string
}

type AIPrompt struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// AssistantURL picks the chat assistant for the user's region setting.
func AssistantURL(chinaAIMode bool) string {
	if chinaAIMode {
		return deepSeekURL
	}
	return chatGPTURL
}

// MealPrompt builds a question asking a chat assistant for the level1
// nutrients of the given foods per 100 g, in JSON the meal importer reads.
func (t *Tracker) MealPrompt(ctx context.Context, foods []PromptFood) (AIPrompt, error) {
	if len(foods) == 0 {
		return AIPrompt{}, invalidf("at least one food is required")
	}
	lines := make([]string, 0, len(foods))
	for i, f := range foods {
		name := strings.TrimSpace(f.Name)
		unit := strings.TrimSpace(f.Unit)
		if name == "" || unit == "" || f.Amount <= 0 {
			return AIPrompt{}, invalidf("food %d needs a name, a positive amount and a unit", i+1)
		}
		lines = append(lines, fmt.Sprintf("%s%s %s", strconv.FormatFloat(f.Amount, 'f', -1, 64), unit, name))
	}
	settings, err := t.Settings(ctx)
	if err != nil {
		return AIPrompt{}, err
	}

	var b strings.Builder
	if settings.Language == "zh_CN" {
		b.WriteString("请估算以下食物每100克的营养成分：\n- ")
		b.WriteString(strings.Join(lines, "\n- "))
		b.WriteString("\n只返回JSON，键为：")
	} else {
		b.WriteString("Estimate the nutrients per 100 g of the following food:\n- ")
		b.WriteString(strings.Join(lines, "\n- "))
		b.WriteString("\nReply with JSON only, using the keys: ")
	}
	b.WriteString("calories, protein, total_fat, total_carbs, fiber, sugars, sodium, calcium, vitamin_c, vitamin_d")
	return AIPrompt{Text: b.String(), URL: AssistantURL(settings.ChinaAIMode)}, nil
}

// ExercisePrompt asks an assistant for the hourly burn of an exercise the
// MET table does not cover.
func (t *Tracker) ExercisePrompt(ctx context.Context, name, intensity string) (AIPrompt, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return AIPrompt{}, invalidf("exercise name is required")
	}
	if intensity == "" {
		intensity = "medium"
	}
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return AIPrompt{}, err
	}
	weight := u.Weight.Float()
	if weight <= 0 {
		weight = 70
	}
	text := fmt.Sprintf("How many kcal per hour does %s (%s intensity) burn? Assume body weight %s kg. Reply with a single number.",
		name, intensity, strconv.FormatFloat(weight, 'f', -1, 64))
	return AIPrompt{Text: text, URL: AssistantURL(u.ChinaAIMode)}, nil
}
