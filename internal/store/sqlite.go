package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aazoaer/health-manager/internal/db"
)

type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens the database file and applies pending migrations.
func OpenSQLite(path string) (*SQLite, error) {
	sqldb, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return &SQLite{db: sqldb, path: path}, nil
}

func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) GetAll(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM user_data ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list user data: %w", err)
	}
	defer rows.Close()
	out := map[string]json.RawMessage{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan user data: %w", err)
		}
		out[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user data: %w", err)
	}
	return out, nil
}

func (s *SQLite) SetMany(ctx context.Context, values map[string]json.RawMessage) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin user data tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO user_data(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare user data upsert: %w", err)
	}
	defer stmt.Close()
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			_ = tx.Rollback()
			return fmt.Errorf("user data key is required")
		}
		if _, err := stmt.ExecContext(ctx, key, string(value)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("set user data %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user data: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteKeys(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM user_data WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete user data %q: %w", key, err)
		}
	}
	return nil
}

func (s *SQLite) SaveHistory(ctx context.Context, date string, summary json.RawMessage) error {
	if err := checkDate(date); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO history(date, summary, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(date) DO UPDATE SET summary=excluded.summary, updated_at=excluded.updated_at
`, date, string(summary))
	if err != nil {
		return fmt.Errorf("save history %s: %w", date, err)
	}
	return nil
}

func (s *SQLite) History(ctx context.Context, date string) (json.RawMessage, error) {
	var summary string
	err := s.db.QueryRowContext(ctx, `SELECT summary FROM history WHERE date = ?`, date).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", date, err)
	}
	return json.RawMessage(summary), nil
}

func (s *SQLite) HistoryRange(ctx context.Context, from, to string) ([]HistoryRow, error) {
	if err := checkDate(from); err != nil {
		return nil, err
	}
	if err := checkDate(to); err != nil {
		return nil, err
	}
	return s.queryHistory(ctx, `SELECT date, summary FROM history WHERE date >= ? AND date <= ? ORDER BY date ASC`, from, to)
}

func (s *SQLite) AllHistory(ctx context.Context) ([]HistoryRow, error) {
	return s.queryHistory(ctx, `SELECT date, summary FROM history ORDER BY date ASC`)
}

func (s *SQLite) DeleteHistory(ctx context.Context, dates ...string) error {
	for _, date := range dates {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE date = ?`, date); err != nil {
			return fmt.Errorf("delete history %s: %w", date, err)
		}
	}
	return nil
}

func (s *SQLite) WriteHistory(ctx context.Context, rows []HistoryRow, replace bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM history`); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO history(date, summary, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(date) DO UPDATE SET summary=excluded.summary, updated_at=excluded.updated_at
`)
	if err != nil {
		return fmt.Errorf("prepare history upsert: %w", err)
	}
	defer stmt.Close()
	for _, row := range rows {
		if err := checkDate(row.Date); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, row.Date, string(row.Summary)); err != nil {
			return fmt.Errorf("save history %s: %w", row.Date, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

func (s *SQLite) queryHistory(ctx context.Context, query string, args ...any) ([]HistoryRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()
	out := make([]HistoryRow, 0)
	for rows.Next() {
		var row HistoryRow
		var summary string
		if err := rows.Scan(&row.Date, &summary); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		row.Summary = json.RawMessage(summary)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// BackupTo writes a consistent copy of the database to path.
func (s *SQLite) BackupTo(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("backup sqlite store: %w", err)
	}
	return nil
}
