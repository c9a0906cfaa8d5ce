package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aazoaer/health-manager/internal/model"
	"github.com/aazoaer/health-manager/internal/store"
)

const (
	sqliteBackupExt = ".db"
	badgerBackupExt = ".bak"
)

type BackupInfo struct {
	Path      string    `json:"path"`
	Backend   string    `json:"backend"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// Snapshotter is a store that can write a consistent copy of itself.
type Snapshotter interface {
	BackupTo(ctx context.Context, path string) error
}

// BackupName returns the default file name for a backup taken at now.
func BackupName(backend string, now time.Time) string {
	ext := sqliteBackupExt
	if backend == store.BackendBadger {
		ext = badgerBackupExt
	}
	return "health-" + now.Format("20060102-150405") + ext
}

func CreateBackup(ctx context.Context, s Snapshotter, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup output path is required")
	}
	if _, err := os.Stat(outPath); err == nil {
		return BackupInfo{}, fmt.Errorf("backup %s already exists", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if err := s.BackupTo(ctx, outPath); err != nil {
		return BackupInfo{}, err
	}
	checksum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+".sha256", []byte(checksum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum file: %w", err)
	}
	return backupInfo(outPath, checksum)
}

// RestoreBackup replaces the store at target with the backup. For sqlite,
// target is the database file; for badger it is the store directory. The
// backup is checked and staged next to target before anything at target is
// touched. The store must not be open.
func RestoreBackup(backupPath, target, backend string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(target) == "" {
		return fmt.Errorf("backup path and target path are required")
	}
	st, err := os.Stat(backupPath)
	if err != nil {
		return fmt.Errorf("stat backup: %w", err)
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("backup %s is not a regular file", backupPath)
	}
	if err := verifyChecksum(backupPath); err != nil {
		return err
	}
	if !force && targetInUse(target) {
		return fmt.Errorf("target %s already exists; use --force to overwrite", target)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}

	switch backend {
	case store.BackendBadger:
		return restoreBadger(backupPath, target)
	case store.BackendSQLite, "":
		return restoreSQLite(backupPath, target)
	default:
		return fmt.Errorf("unknown backend %q", backend)
	}
}

func restoreSQLite(backupPath, target string) error {
	staged := target + ".restore"
	if err := copyFile(backupPath, staged); err != nil {
		_ = os.Remove(staged)
		return err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(target + suffix)
	}
	if err := os.Rename(staged, target); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}

// restoreBadger loads the dump into a sibling directory and swaps it in
// only once the load has succeeded.
func restoreBadger(backupPath, dir string) error {
	in, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer in.Close()

	staged, err := os.MkdirTemp(filepath.Dir(dir), filepath.Base(dir)+".restore-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	b, err := store.OpenBadger(store.BadgerConfig{Path: staged, SyncWrites: true})
	if err != nil {
		_ = os.RemoveAll(staged)
		return err
	}
	if err := b.Load(in); err != nil {
		_ = b.Close()
		_ = os.RemoveAll(staged)
		return err
	}
	if err := b.Close(); err != nil {
		_ = os.RemoveAll(staged)
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		_ = os.RemoveAll(staged)
		return fmt.Errorf("clear badger directory: %w", err)
	}
	if err := os.Rename(staged, dir); err != nil {
		return fmt.Errorf("move restored badger directory: %w", err)
	}
	return nil
}

func ListBackups(dir string) ([]BackupInfo, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	out := make([]BackupInfo, 0)
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || (!strings.HasSuffix(name, sqliteBackupExt) && !strings.HasSuffix(name, badgerBackupExt)) {
			continue
		}
		full := filepath.Join(dir, name)
		checksum := ""
		if b, err := os.ReadFile(full + ".sha256"); err == nil {
			checksum = strings.TrimSpace(string(b))
		}
		info, err := backupInfo(full, checksum)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func backupInfo(path, checksum string) (BackupInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	backend := store.BackendSQLite
	if strings.HasSuffix(path, badgerBackupExt) {
		backend = store.BackendBadger
	}
	return BackupInfo{Path: path, Backend: backend, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()}, nil
}

func verifyChecksum(backupPath string) error {
	expected, err := os.ReadFile(backupPath + ".sha256")
	if err != nil {
		return nil
	}
	actual, err := fileSHA256(backupPath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(expected)) != actual {
		return fmt.Errorf("backup checksum mismatch")
	}
	return nil
}

func targetInUse(target string) bool {
	st, err := os.Stat(target)
	if err != nil {
		return false
	}
	if !st.IsDir() {
		return true
	}
	entries, err := os.ReadDir(target)
	return err == nil && len(entries) > 0
}

type DoctorReport struct {
	InvalidUserData []string `json:"invalid_user_data"`
	InvalidHistory  []string `json:"invalid_history"`
	StaleLists      []string `json:"stale_lists"`
	MissingToday    bool     `json:"missing_today_summary"`
	Fixed           int      `json:"fixed,omitempty"`
}

func (r DoctorReport) Healthy() bool {
	return len(r.InvalidUserData) == 0 && len(r.InvalidHistory) == 0 && len(r.StaleLists) == 0 && !r.MissingToday
}

// Doctor checks stored data for values that do not decode into their
// field's type, history rows
// with malformed dates or summaries, daily lists left over from an earlier
// day, and a missing summary for today. With fix set, bad rows are deleted,
// stale lists reset and today's summary written.
func (t *Tracker) Doctor(ctx context.Context, fix bool) (DoctorReport, error) {
	report := DoctorReport{InvalidUserData: []string{}, InvalidHistory: []string{}, StaleLists: []string{}}

	values, err := t.store.GetAll(ctx)
	if err != nil {
		return report, fmt.Errorf("doctor user data: %w", err)
	}
	for key, raw := range values {
		scratch := DefaultUserData()
		if err := decodeUserDataKey(&scratch, key, raw); err != nil {
			report.InvalidUserData = append(report.InvalidUserData, key)
		}
	}
	sort.Strings(report.InvalidUserData)

	rows, err := t.store.AllHistory(ctx)
	if err != nil {
		return report, fmt.Errorf("doctor history: %w", err)
	}
	today := t.today()
	report.MissingToday = true
	for _, row := range rows {
		var s model.DailySummary
		if !store.ValidDate(row.Date) || json.Unmarshal(row.Summary, &s) != nil {
			report.InvalidHistory = append(report.InvalidHistory, row.Date)
			continue
		}
		if row.Date == today {
			report.MissingToday = false
		}
	}

	u, err := t.LoadUserData(ctx)
	if err != nil {
		return report, err
	}
	if u.DailyMeals.Date != today {
		report.StaleLists = append(report.StaleLists, KeyDailyMeals)
	}
	if u.DailySleep.Date != today {
		report.StaleLists = append(report.StaleLists, KeyDailySleep)
	}
	if u.DailyExercises.Date != today {
		report.StaleLists = append(report.StaleLists, KeyDailyExercises)
	}
	if waterStale(u, t.now()) {
		report.StaleLists = append(report.StaleLists, KeyWaterRecords)
	}

	if !fix {
		return report, nil
	}
	if len(report.InvalidUserData) > 0 {
		if err := t.store.DeleteKeys(ctx, report.InvalidUserData...); err != nil {
			return report, fmt.Errorf("doctor fix user data: %w", err)
		}
		report.Fixed += len(report.InvalidUserData)
	}
	if len(report.InvalidHistory) > 0 {
		if err := t.store.DeleteHistory(ctx, report.InvalidHistory...); err != nil {
			return report, fmt.Errorf("doctor fix history: %w", err)
		}
		report.Fixed += len(report.InvalidHistory)
	}
	if len(report.StaleLists) > 0 {
		t.mu.Lock()
		u, err := t.loadFresh(ctx, KeyDailyMeals, KeyDailySleep, KeyDailyExercises)
		if err == nil {
			_, _, err = t.currentWater(ctx, u)
		}
		t.mu.Unlock()
		if err != nil {
			return report, fmt.Errorf("doctor fix daily lists: %w", err)
		}
		report.Fixed += len(report.StaleLists)
	}
	if report.MissingToday || report.Fixed > 0 {
		if _, err := t.UpdateTodaySummary(ctx); err != nil {
			return report, fmt.Errorf("doctor fix today summary: %w", err)
		}
		if report.MissingToday {
			report.Fixed++
		}
	}
	t.logger.Info("doctor repaired store", "fixed", report.Fixed)
	return report, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync destination file: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
