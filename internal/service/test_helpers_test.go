package service_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aazoaer/health-manager/internal/events"
	"github.com/aazoaer/health-manager/internal/service"
	"github.com/aazoaer/health-manager/internal/store"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func at(date string, hour, minute int) time.Time {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestTracker(t *testing.T, now time.Time) (*service.Tracker, *testClock) {
	t.Helper()
	clock := &testClock{now: now}
	tr := service.NewTracker(newTestStore(t), service.WithClock(clock.Now), service.WithBus(events.NewBus(64)))
	return tr, clock
}
