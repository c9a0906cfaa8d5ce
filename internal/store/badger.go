package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	userPrefix    = "user/"
	historyPrefix = "history/"
)

type BadgerConfig struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	// Logger receives badger's internal logs. Nil silences them.
	Logger *slog.Logger
}

// Badger stores user keys under "user/<key>" and summaries under
// "history/<date>" so ISO dates sort lexically.
type Badger struct {
	db   *badger.DB
	path string
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for persistent store")
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Badger{db: db, path: cfg.Path}, nil
}

func (b *Badger) Path() string { return b.path }

func (b *Badger) Close() error { return b.db.Close() }

func (b *Badger) GetAll(ctx context.Context) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	err := b.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(userPrefix), nil, func(key, value []byte) error {
			out[strings.TrimPrefix(string(key), userPrefix)] = json.RawMessage(value)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list user data: %w", err)
	}
	return out, nil
}

func (b *Badger) SetMany(ctx context.Context, values map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for key, value := range values {
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("user data key is required")
			}
			if err := txn.Set([]byte(userPrefix+key), []byte(value)); err != nil {
				return fmt.Errorf("set user data %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save user data: %w", err)
	}
	return nil
}

func (b *Badger) DeleteKeys(ctx context.Context, keys ...string) error {
	return b.deleteAll(ctx, userPrefix, keys)
}

func (b *Badger) SaveHistory(ctx context.Context, date string, summary json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkDate(date); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(historyPrefix+date), []byte(summary))
	})
	if err != nil {
		return fmt.Errorf("save history %s: %w", date, err)
	}
	return nil
}

func (b *Badger) History(ctx context.Context, date string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out json.RawMessage
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(historyPrefix + date))
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		out = json.RawMessage(v)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", date, err)
	}
	return out, nil
}

func (b *Badger) HistoryRange(ctx context.Context, from, to string) ([]HistoryRow, error) {
	if err := checkDate(from); err != nil {
		return nil, err
	}
	if err := checkDate(to); err != nil {
		return nil, err
	}
	return b.history(ctx, []byte(historyPrefix+from), []byte(historyPrefix+to))
}

func (b *Badger) AllHistory(ctx context.Context) ([]HistoryRow, error) {
	return b.history(ctx, nil, nil)
}

func (b *Badger) DeleteHistory(ctx context.Context, dates ...string) error {
	return b.deleteAll(ctx, historyPrefix, dates)
}

func (b *Badger) WriteHistory(ctx context.Context, rows []HistoryRow, replace bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, row := range rows {
		if err := checkDate(row.Date); err != nil {
			return err
		}
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		if replace {
			var stale [][]byte
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = []byte(historyPrefix)
			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
			it.Close()
			for _, key := range stale {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
		}
		for _, row := range rows {
			if err := txn.Set([]byte(historyPrefix+row.Date), []byte(row.Summary)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Dump writes a full badger backup stream to w.
func (b *Badger) Dump(w io.Writer) error {
	if _, err := b.db.Backup(w, 0); err != nil {
		return fmt.Errorf("dump badger store: %w", err)
	}
	return nil
}

// BackupTo writes a Dump stream to a new file at path.
func (b *Badger) BackupTo(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create badger backup: %w", err)
	}
	if err := b.Dump(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync badger backup: %w", err)
	}
	return f.Close()
}

// Load replays a stream produced by Dump.
func (b *Badger) Load(r io.Reader) error {
	if err := b.db.Load(r, 256); err != nil {
		return fmt.Errorf("load badger store: %w", err)
	}
	return nil
}

func (b *Badger) history(ctx context.Context, start, end []byte) ([]HistoryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]HistoryRow, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(historyPrefix), start, func(key, value []byte) error {
			if end != nil && bytes.Compare(key, end) > 0 {
				return errStopScan
			}
			out = append(out, HistoryRow{
				Date:    strings.TrimPrefix(string(key), historyPrefix),
				Summary: json.RawMessage(value),
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

func (b *Badger) deleteAll(ctx context.Context, prefix string, names []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, name := range names {
			if err := txn.Delete([]byte(prefix + name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s keys: %w", strings.TrimSuffix(prefix, "/"), err)
	}
	return nil
}

var errStopScan = errors.New("stop scan")

// scanPrefix visits keys under prefix in order, starting at seek when set.
// fn may return errStopScan to end the scan early.
func scanPrefix(txn *badger.Txn, prefix, seek []byte, fn func(key, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	if seek == nil {
		seek = prefix
	}
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			if errors.Is(err, errStopScan) {
				return nil
			}
			return err
		}
	}
	return nil
}
