// Package config loads settings from flags, HEALTHMGR_* environment
// variables and an optional config.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/aazoaer/health-manager/internal/app"
	"github.com/aazoaer/health-manager/internal/store"
)

const EnvPrefix = "HEALTHMGR"

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type ReminderConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type OpenFoodFactsConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type USDAConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type Config struct {
	DB            string              `mapstructure:"db"`
	Backend       string              `mapstructure:"backend"`
	BadgerDir     string              `mapstructure:"badger_dir"`
	BackupDir     string              `mapstructure:"backup_dir"`
	Log           LogConfig           `mapstructure:"log"`
	Server        ServerConfig        `mapstructure:"server"`
	Reminder      ReminderConfig      `mapstructure:"reminder"`
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openfoodfacts"`
	USDA          USDAConfig          `mapstructure:"usda"`
}

// New returns a viper instance with defaults and env binding. file is the
// config file to read; when empty the default config.yaml is used and may
// be absent.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("backend", store.BackendSQLite)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.addr", "127.0.0.1:8765")
	v.SetDefault("reminder.interval", "30s")
	v.SetDefault("openfoodfacts.base_url", "")
	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "")

	dbPath, err := app.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	badgerDir, err := app.DefaultBadgerDir()
	if err != nil {
		return nil, err
	}
	backupDir, err := app.DefaultBackupDir()
	if err != nil {
		return nil, err
	}
	v.SetDefault("db", dbPath)
	v.SetDefault("badger_dir", badgerDir)
	v.SetDefault("backup_dir", backupDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		return v, nil
	}
	def, err := app.DefaultConfigFile()
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(def)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", def, err)
		}
	}
	return v, nil
}

// Decode unmarshals and validates the current settings.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch cfg.Backend {
	case store.BackendSQLite, store.BackendBadger:
	default:
		return Config{}, fmt.Errorf("unknown backend %q (use sqlite or badger)", cfg.Backend)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("unknown log format %q (use text or json)", cfg.Log.Format)
	}
	if cfg.Reminder.Interval <= 0 {
		return Config{}, fmt.Errorf("reminder.interval must be > 0")
	}
	return cfg, nil
}

// Watch re-decodes the file on every change and hands valid results to
// onChange. Invalid edits are reported through onError and ignored.
func Watch(v *viper.Viper, onChange func(Config), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Decode(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
