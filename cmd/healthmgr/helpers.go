package healthmgr

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aazoaer/health-manager/internal/app"
	"github.com/aazoaer/health-manager/internal/events"
	"github.com/aazoaer/health-manager/internal/provider/openfoodfacts"
	"github.com/aazoaer/health-manager/internal/provider/usda"
	"github.com/aazoaer/health-manager/internal/service"
	"github.com/aazoaer/health-manager/internal/store"
)

const eventBuffer = 64

// storePath is the sqlite file or badger directory for the active backend.
func storePath() string {
	if cfg.Backend == store.BackendBadger {
		return cfg.BadgerDir
	}
	return cfg.DB
}

func openStore() (store.Store, error) {
	path := storePath()
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("no %s path configured", cfg.Backend)
	}
	if cfg.Backend == store.BackendBadger {
		b, err := store.OpenBadger(store.BadgerConfig{Path: path, SyncWrites: true, Logger: logger})
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	if err := app.EnsureDBDir(path); err != nil {
		return nil, err
	}
	s, err := store.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func withTracker(run func(*service.Tracker) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	tr := service.NewTracker(s, service.WithLogger(logger), service.WithBus(events.NewBus(eventBuffer)))
	return run(tr)
}

// newFoodFinder queries Open Food Facts first and USDA when an API key is
// configured.
func newFoodFinder() *service.FoodFinder {
	sources := []service.FoodSource{
		service.NewOpenFoodFactsSource(&openfoodfacts.Client{BaseURL: cfg.OpenFoodFacts.BaseURL}),
	}
	if strings.TrimSpace(cfg.USDA.APIKey) != "" {
		sources = append(sources, service.NewUSDASource(&usda.Client{APIKey: cfg.USDA.APIKey, BaseURL: cfg.USDA.BaseURL}))
	}
	return service.NewFoodFinder(sources...)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(b))
	return nil
}

func parsePositiveFloat(name, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

// parseClock reads HH:MM on date, or a full YYYY-MM-DD HH:MM / ISO
// timestamp.
func parseClock(date time.Time, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, ok := parseLocal(value); ok {
		return t, nil
	}
	hm, err := time.ParseInLocation("15:04", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected HH:MM or YYYY-MM-DD HH:MM)", value)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hm.Hour(), hm.Minute(), 0, 0, time.Local), nil
}

func parseLocal(value string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sleepWindow resolves bed and wake times. A bare HH:MM bedtime later than
// the wake time is taken to be the previous evening.
func sleepWindow(now time.Time, bed, wake string) (time.Time, time.Time, error) {
	wakeAt, err := parseClock(now, wake)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--wake: %w", err)
	}
	bedAt, err := parseClock(wakeAt, bed)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--bed: %w", err)
	}
	if _, full := parseLocal(strings.TrimSpace(bed)); !full && !bedAt.Before(wakeAt) {
		bedAt = bedAt.AddDate(0, 0, -1)
	}
	return bedAt, wakeAt, nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
