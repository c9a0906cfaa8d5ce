// Package store persists user-data keys and per-day summaries.
//
// Values are opaque JSON; decoding and defaults live in the service layer.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("not found")

const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// HistoryRow is one stored daily summary.
type HistoryRow struct {
	Date    string
	Summary json.RawMessage
}

type Store interface {
	// GetAll returns every user-data key.
	GetAll(ctx context.Context) (map[string]json.RawMessage, error)
	// SetMany upserts all keys atomically.
	SetMany(ctx context.Context, values map[string]json.RawMessage) error
	DeleteKeys(ctx context.Context, keys ...string) error

	SaveHistory(ctx context.Context, date string, summary json.RawMessage) error
	// History returns ErrNotFound when no summary exists for date.
	History(ctx context.Context, date string) (json.RawMessage, error)
	// HistoryRange returns summaries with from <= date <= to, ascending.
	HistoryRange(ctx context.Context, from, to string) ([]HistoryRow, error)
	AllHistory(ctx context.Context) ([]HistoryRow, error)
	DeleteHistory(ctx context.Context, dates ...string) error
	// WriteHistory upserts rows in one transaction. With replace set, every
	// other stored summary is removed in the same transaction.
	WriteHistory(ctx context.Context, rows []HistoryRow, replace bool) error

	Close() error
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func checkDate(date string) error {
	if !ValidDate(date) {
		return fmt.Errorf("invalid history date %q (expected YYYY-MM-DD)", date)
	}
	return nil
}
