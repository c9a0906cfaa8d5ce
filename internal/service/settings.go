package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/aazoaer/health-manager/internal/model"
)

// Settings are the app preferences kept alongside the profile.
type Settings struct {
	ThemeMode   string `json:"theme_mode" yaml:"theme_mode" validate:"oneof=light dark system"`
	Language    string `json:"language" yaml:"language" validate:"oneof=zh_CN en_US"`
	CloseMode   string `json:"close_mode" yaml:"close_mode" validate:"oneof=ask minimize quit"`
	ChinaAIMode bool   `json:"china_ai_mode" yaml:"china_ai_mode"`
}

var settingKeys = []string{KeyThemeMode, KeyLanguage, KeyCloseMode, KeyChinaAIMode}

func SettingKeys() []string {
	out := append([]string(nil), settingKeys...)
	sort.Strings(out)
	return out
}

func SettingsFromUser(u model.UserData) Settings {
	return Settings{
		ThemeMode:   u.ThemeMode,
		Language:    u.Language,
		CloseMode:   u.CloseMode,
		ChinaAIMode: u.ChinaAIMode,
	}
}

func (t *Tracker) Settings(ctx context.Context) (Settings, error) {
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return Settings{}, err
	}
	return SettingsFromUser(u), nil
}

// SetSetting validates and stores a single preference given as text.
func (t *Tracker) SetSetting(ctx context.Context, key, value string) error {
	key = normalizeName(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return invalidf("setting key is required")
	}
	current, err := t.Settings(ctx)
	if err != nil {
		return err
	}
	var stored any
	switch key {
	case KeyThemeMode:
		current.ThemeMode = strings.ToLower(value)
		stored = current.ThemeMode
	case KeyLanguage:
		current.Language = value
		stored = value
	case KeyCloseMode:
		current.CloseMode = strings.ToLower(value)
		stored = current.CloseMode
	case KeyChinaAIMode:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalidf("%s must be true or false", key)
		}
		current.ChinaAIMode = b
		stored = b
	default:
		return invalidf("unknown setting %q (valid: %s)", key, strings.Join(SettingKeys(), ", "))
	}
	if err := t.validate.Struct(current); err != nil {
		return validationError(err)
	}
	return t.SaveUserData(ctx, Patch{key: stored}, false)
}

// SaveSettings replaces all preferences at once.
func (t *Tracker) SaveSettings(ctx context.Context, s Settings) error {
	if err := t.validate.Struct(s); err != nil {
		return validationError(err)
	}
	return t.SaveUserData(ctx, Patch{
		KeyThemeMode:   s.ThemeMode,
		KeyLanguage:    s.Language,
		KeyCloseMode:   s.CloseMode,
		KeyChinaAIMode: s.ChinaAIMode,
	}, false)
}
