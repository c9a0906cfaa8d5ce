package service_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aazoaer/health-manager/internal/service"
	"github.com/aazoaer/health-manager/internal/store"
)

func TestSQLiteBackupAndRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "health.db")

	s, err := store.OpenSQLite(dbPath)
	require.NoError(t, err)
	clock := &testClock{now: at("2025-03-10", 9, 0)}
	tr := service.NewTracker(s, service.WithClock(clock.Now))
	_, err = tr.AddWater(ctx, 600)
	require.NoError(t, err)

	backupDir := filepath.Join(dir, "backups")
	out := filepath.Join(backupDir, service.BackupName(store.BackendSQLite, clock.Now()))
	assert.Equal(t, "health-20250310-090000.db", filepath.Base(out))

	info, err := service.CreateBackup(ctx, s, out)
	require.NoError(t, err)
	assert.Equal(t, store.BackendSQLite, info.Backend)
	assert.Len(t, info.Checksum, 64)
	require.NoError(t, s.Close())

	_, err = service.CreateBackup(ctx, s, out)
	require.Error(t, err, "existing backup must not be overwritten")

	list, err := service.ListBackups(backupDir)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.Checksum, list[0].Checksum)

	require.Error(t, service.RestoreBackup(out, dbPath, store.BackendSQLite, false))

	restored := filepath.Join(dir, "restored", "health.db")
	require.NoError(t, service.RestoreBackup(out, restored, store.BackendSQLite, false))

	rs, err := store.OpenSQLite(restored)
	require.NoError(t, err)
	defer rs.Close()
	w, err := service.NewTracker(rs, service.WithClock(clock.Now)).Water(ctx)
	require.NoError(t, err)
	assert.Equal(t, 600.0, w.Intake)
}

func TestRestoreBackupDetectsChecksumMismatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.OpenSQLite(filepath.Join(dir, "health.db"))
	require.NoError(t, err)
	defer s.Close()

	out := filepath.Join(dir, "b.db")
	_, err = service.CreateBackup(ctx, s, out)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(out+".sha256", []byte("deadbeef\n"), 0o644))

	err = service.RestoreBackup(out, filepath.Join(dir, "other.db"), store.BackendSQLite, true)
	require.ErrorContains(t, err, "checksum mismatch")
}

func TestBadgerBackupAndRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	b, err := store.OpenBadger(store.BadgerConfig{Path: filepath.Join(dir, "src")})
	require.NoError(t, err)
	require.NoError(t, b.SetMany(ctx, map[string]json.RawMessage{service.KeyGender: json.RawMessage(`"female"`)}))
	require.NoError(t, b.SaveHistory(ctx, "2025-03-01", json.RawMessage(`{"sleep_grade":"B"}`)))

	out := filepath.Join(dir, "health.bak")
	info, err := service.CreateBackup(ctx, b, out)
	require.NoError(t, err)
	assert.Equal(t, store.BackendBadger, info.Backend)
	require.NoError(t, b.Close())

	target := filepath.Join(dir, "dst")
	require.NoError(t, service.RestoreBackup(out, target, store.BackendBadger, false))

	rb, err := store.OpenBadger(store.BadgerConfig{Path: target})
	require.NoError(t, err)
	defer rb.Close()
	values, err := rb.GetAll(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `"female"`, string(values[service.KeyGender]))
	raw, err := rb.History(ctx, "2025-03-01")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sleep_grade":"B"}`, string(raw))
}

func TestRestoreMissingBackupKeepsBadgerStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	target := filepath.Join(dir, "live")

	b, err := store.OpenBadger(store.BadgerConfig{Path: target})
	require.NoError(t, err)
	require.NoError(t, b.SaveHistory(ctx, "2025-03-01", json.RawMessage(`{"sleep_grade":"B"}`)))
	require.NoError(t, b.Close())

	err = service.RestoreBackup(filepath.Join(dir, "typo.bak"), target, store.BackendBadger, true)
	require.ErrorContains(t, err, "stat backup")
	err = service.RestoreBackup(dir, target, store.BackendBadger, true)
	require.ErrorContains(t, err, "not a regular file")

	rb, err := store.OpenBadger(store.BadgerConfig{Path: target})
	require.NoError(t, err)
	defer rb.Close()
	rows, err := rb.AllHistory(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-03-01", rows[0].Date)
}

func TestRestoreBadgerOverExistingStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	src, err := store.OpenBadger(store.BadgerConfig{Path: filepath.Join(dir, "src")})
	require.NoError(t, err)
	require.NoError(t, src.SaveHistory(ctx, "2025-03-02", json.RawMessage(`{"sleep_grade":"A"}`)))
	out := filepath.Join(dir, "health.bak")
	_, err = service.CreateBackup(ctx, src, out)
	require.NoError(t, err)
	require.NoError(t, src.Close())

	target := filepath.Join(dir, "live")
	live, err := store.OpenBadger(store.BadgerConfig{Path: target})
	require.NoError(t, err)
	require.NoError(t, live.SaveHistory(ctx, "2025-03-01", json.RawMessage(`{"sleep_grade":"C"}`)))
	require.NoError(t, live.Close())

	require.Error(t, service.RestoreBackup(out, target, store.BackendBadger, false))
	require.NoError(t, service.RestoreBackup(out, target, store.BackendBadger, true))

	rb, err := store.OpenBadger(store.BadgerConfig{Path: target})
	require.NoError(t, err)
	defer rb.Close()
	rows, err := rb.AllHistory(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-03-02", rows[0].Date)

	leftovers, err := filepath.Glob(filepath.Join(dir, "live.restore-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestListBackupsMissingDir(t *testing.T) {
	t.Parallel()
	list, err := service.ListBackups(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDoctorReportsAndFixes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SetMany(ctx, map[string]json.RawMessage{
		service.KeyGender:     json.RawMessage(`{broken`),
		service.KeyDailyMeals: json.RawMessage(`{"date":"2025-03-09","records":[]}`),
		service.KeyDailySleep: json.RawMessage(`"abc"`),
	}))
	require.NoError(t, s.SaveHistory(ctx, "2025-03-01", json.RawMessage(`{"sleep_grade":"A"}`)))
	require.NoError(t, s.SaveHistory(ctx, "2025-03-02", json.RawMessage(`"not an object"`)))
	clock := &testClock{now: at("2025-03-10", 9, 0)}
	tr := service.NewTracker(s, service.WithClock(clock.Now))

	report, err := tr.Doctor(ctx, false)
	require.NoError(t, err)
	assert.False(t, report.Healthy())
	assert.Equal(t, []string{service.KeyDailySleep, service.KeyGender}, report.InvalidUserData)
	assert.Equal(t, []string{"2025-03-02"}, report.InvalidHistory)
	assert.Equal(t, []string{service.KeyDailyMeals, service.KeyDailySleep, service.KeyDailyExercises}, report.StaleLists)
	assert.True(t, report.MissingToday)
	assert.Zero(t, report.Fixed)

	report, err = tr.Doctor(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 7, report.Fixed)

	report, err = tr.Doctor(ctx, false)
	require.NoError(t, err)
	assert.True(t, report.Healthy(), "%+v", report)

	all, err := tr.LoadAllHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Contains(t, all, "2025-03-10")

	values, err := s.GetAll(ctx)
	require.NoError(t, err)
	var sleep map[string]any
	require.NoError(t, json.Unmarshal(values[service.KeyDailySleep], &sleep))
	assert.Equal(t, "2025-03-10", sleep["date"])
}
