package healthmgr

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/service"
)

var (
	exportFormat      string
	exportOut         string
	importFormat      string
	importIn          string
	importMode        string
	importDryRun      bool
	importWithProfile bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Export or import daily summary history",
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export history with profile and settings (json, yaml or csv)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := strings.TrimSpace(exportOut)
		if out == "" {
			return fmt.Errorf("--out is required (use - for stdout)")
		}
		format := exportFormat
		if format == "" {
			format = service.FormatFromPath(out)
		}
		return withTracker(func(tr *service.Tracker) error {
			data, err := tr.ExportHistory(cmd.Context())
			if err != nil {
				return err
			}
			if out == "-" {
				return service.EncodeExport(cmd.OutOrStdout(), data, format)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := service.EncodeExport(f, data, format); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d days to %s\n", len(data.History), out)
			return nil
		})
	},
}

var historyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import history exported by `history export`",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := strings.TrimSpace(importIn)
		if in == "" {
			return fmt.Errorf("--in is required (use - for stdin)")
		}
		format := importFormat
		if format == "" {
			format = service.FormatFromPath(in)
		}
		var r io.Reader = cmd.InOrStdin()
		if in != "-" {
			f, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()
			r = f
		}
		mode := service.ImportMode(strings.ToLower(strings.TrimSpace(importMode)))
		switch mode {
		case service.ImportModeFail, service.ImportModeSkip, service.ImportModeMerge, service.ImportModeReplace:
		default:
			return fmt.Errorf("unsupported --mode %q (use fail, skip, merge or replace)", importMode)
		}
		data, err := service.DecodeExport(r, format)
		if err != nil {
			return err
		}
		return withTracker(func(tr *service.Tracker) error {
			report, err := tr.ImportHistory(cmd.Context(), data, service.ImportOptions{
				Mode:        mode,
				DryRun:      importDryRun,
				WithProfile: importWithProfile,
			})
			if err != nil {
				return err
			}
			prefix := "Import report"
			if importDryRun {
				prefix = "Dry run"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: inserted=%d updated=%d skipped=%d conflicts=%d\n", prefix, report.Inserted, report.Updated, report.Skipped, report.Conflicts)
			for _, w := range report.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyExportCmd, historyImportCmd)

	historyExportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (- for stdout)")
	historyExportCmd.Flags().StringVar(&exportFormat, "format", "", "json, yaml or csv (default: from file extension)")
	historyImportCmd.Flags().StringVar(&importIn, "in", "", "Input file (- for stdin)")
	historyImportCmd.Flags().StringVar(&importFormat, "format", "", "json, yaml or csv (default: from file extension)")
	historyImportCmd.Flags().StringVar(&importMode, "mode", string(service.ImportModeMerge), "Conflict mode: fail, skip, merge or replace")
	historyImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and report without writing")
	historyImportCmd.Flags().BoolVar(&importWithProfile, "with-profile", false, "Also apply the exported profile and settings")
}
