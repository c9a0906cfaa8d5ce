package healthmgr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/aazoaer/health-manager/internal/api"
	"github.com/aazoaer/health-manager/internal/config"
	"github.com/aazoaer/health-manager/internal/logging"
	"github.com/aazoaer/health-manager/internal/service"
)

const shutdownTimeout = 5 * time.Second

var (
	serveAddr        string
	serveNoReminders bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local JSON API, event stream and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := strings.TrimSpace(serveAddr)
		if addr == "" {
			addr = cfg.Server.Addr
		}
		return withTracker(func(tr *service.Tracker) error {
			router := api.NewRouter(tr, api.WithFoodFinder(newFoodFinder()), api.WithLogger(logger))
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", ln.Addr())
			return serve(cmd.Context(), ln, router.Handler(), tr)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default server.addr)")
	serveCmd.Flags().BoolVar(&serveNoReminders, "no-reminders", false, "Do not run the water reminder loop")
}

// serve runs the HTTP server and the reminder loop until ctx is cancelled
// or either fails.
func serve(ctx context.Context, ln net.Listener, h http.Handler, tr *service.Tracker) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if !serveNoReminders {
		g.Go(func() error {
			return tr.RunReminders(gctx, cfg.Reminder.Interval)
		})
	}
	if watchable(cfgViper) {
		config.Watch(cfgViper, func(next config.Config) {
			lvl, err := logging.ParseLevel(next.Log.Level)
			if err != nil {
				logger.Warn("ignoring log level from config", "error", err)
				return
			}
			if logLevelVar != nil {
				logLevelVar.Set(lvl)
			}
			logger.Info("config reloaded", "log_level", lvl.String())
		}, func(err error) {
			logger.Warn("config reload failed", "error", err)
		})
	}
	logger.Info("api listening", "addr", ln.Addr().String())
	return g.Wait()
}

func watchable(v *viper.Viper) bool {
	if v == nil || v.ConfigFileUsed() == "" {
		return false
	}
	_, err := os.Stat(v.ConfigFileUsed())
	return err == nil
}
