package app

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName    = "health-manager"
	dbFileName    = "health.db"
	badgerDirName = "badger"
	backupDirName = "backups"
	configName    = "config.yaml"
)

// DefaultConfigDir is the per-user directory holding the database, the
// badger store, backups and config.yaml.
func DefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

func DefaultDBPath() (string, error) {
	return inConfigDir(dbFileName)
}

func DefaultBadgerDir() (string, error) {
	return inConfigDir(badgerDirName)
}

func DefaultBackupDir() (string, error) {
	return inConfigDir(backupDirName)
}

func DefaultConfigFile() (string, error) {
	return inConfigDir(configName)
}

func inConfigDir(name string) (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func EnsureDBDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}
