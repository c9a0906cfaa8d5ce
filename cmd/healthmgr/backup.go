package healthmgr

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/service"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage store backups",
}

var (
	backupOut    string
	backupDir    string
	restoreFile  string
	restoreForce bool
)

func resolveBackupDir() string {
	if backupDir != "" {
		return backupDir
	}
	return cfg.BackupDir
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a checksummed backup of the active store",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := backupOut
		if out == "" {
			out = filepath.Join(resolveBackupDir(), service.BackupName(cfg.Backend, time.Now()))
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		snap, ok := s.(service.Snapshotter)
		if !ok {
			return fmt.Errorf("%s store does not support backups", cfg.Backend)
		}
		info, err := service.CreateBackup(cmd.Context(), snap, out)
		if err != nil {
			return err
		}
		logger.Info("backup created", "path", info.Path, "bytes", info.SizeBytes)
		fmt.Fprintf(cmd.OutOrStdout(), "Created backup: %s\n", info.Path)
		fmt.Fprintf(cmd.OutOrStdout(), "Checksum: %s\n", info.Checksum)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := service.ListBackups(resolveBackupDir())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "FILE\tBACKEND\tSIZE\tCREATED\tCHECKSUM")
		for _, it := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%s\t%s\n", it.Path, it.Backend, it.SizeBytes, it.CreatedAt.Format(time.RFC3339), it.Checksum)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the active store from a backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		if restoreFile == "" {
			return fmt.Errorf("--file is required")
		}
		target := storePath()
		if err := service.RestoreBackup(restoreFile, target, cfg.Backend, restoreForce); err != nil {
			return err
		}
		logger.Info("backup restored", "from", restoreFile, "to", target)
		fmt.Fprintf(cmd.OutOrStdout(), "Restored backup from %s\n", restoreFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)

	backupCreateCmd.Flags().StringVar(&backupOut, "out", "", "Backup output file path")
	backupCreateCmd.Flags().StringVar(&backupDir, "dir", "", "Backup directory (used when --out is empty; default backup_dir)")
	backupListCmd.Flags().StringVar(&backupDir, "dir", "", "Backup directory (default backup_dir)")
	backupRestoreCmd.Flags().StringVar(&restoreFile, "file", "", "Backup file path")
	backupRestoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Overwrite the existing store if present")
}
