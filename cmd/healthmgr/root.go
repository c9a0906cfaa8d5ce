package healthmgr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aazoaer/health-manager/internal/config"
	"github.com/aazoaer/health-manager/internal/logging"
)

var (
	dbPath     string
	badgerDir  string
	configFile string
	backend    string
	logLevel   string
)

// Resolved in PersistentPreRunE for every command.
var (
	cfgViper    *viper.Viper
	cfg         config.Config
	logger      *slog.Logger
	logLevelVar *slog.LevelVar
)

var rootCmd = &cobra.Command{
	Use:   "healthmgr",
	Short: "healthmgr tracks water, meals, sleep and exercise from your terminal",
	Long: "healthmgr is a local-first personal health tracker. It keeps today's water, meals, sleep " +
		"and exercise, derives daily goals from your profile and stores one summary per day.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dbPath, "db", "", "Path to SQLite database")
	flags.StringVar(&badgerDir, "badger-dir", "", "Badger store directory (badger backend)")
	flags.StringVar(&configFile, "config", "", "Config file (default: config.yaml in the app config dir)")
	flags.StringVar(&backend, "backend", "", "Storage backend: sqlite or badger")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig layers flags over env and the config file, then builds the
// logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	v, err := config.New(configFile)
	if err != nil {
		return err
	}
	flags := cmd.Root().PersistentFlags()
	for key, name := range map[string]string{
		"db":         "db",
		"badger_dir": "badger-dir",
		"backend":    "backend",
		"log.level":  "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	decoded, err := config.Decode(v)
	if err != nil {
		return err
	}
	l, lv, err := logging.New(logging.Options{Level: decoded.Log.Level, Format: decoded.Log.Format, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	cfgViper, cfg, logger, logLevelVar = v, decoded, l, lv
	logger.Debug("config loaded", "file", v.ConfigFileUsed(), "backend", cfg.Backend)
	return nil
}
