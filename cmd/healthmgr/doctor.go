package healthmgr

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/service"
)

var (
	doctorFix  bool
	doctorJSON bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			report, err := tr.Doctor(cmd.Context(), doctorFix)
			if err != nil {
				return err
			}
			if doctorFix {
				// Re-check after fixes so exit status reflects final state.
				fixed := report.Fixed
				report, err = tr.Doctor(cmd.Context(), false)
				if err != nil {
					return err
				}
				report.Fixed = fixed
			}
			if doctorJSON {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				printDoctor(cmd.OutOrStdout(), report)
			}
			if !report.Healthy() {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt safe auto-fixes")
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output JSON")
}

func printDoctor(w io.Writer, r service.DoctorReport) {
	fmt.Fprintf(w, "Invalid user data keys: %d %s\n", len(r.InvalidUserData), listOrEmpty(r.InvalidUserData))
	fmt.Fprintf(w, "Invalid history rows: %d %s\n", len(r.InvalidHistory), listOrEmpty(r.InvalidHistory))
	fmt.Fprintf(w, "Stale daily lists: %d %s\n", len(r.StaleLists), listOrEmpty(r.StaleLists))
	fmt.Fprintf(w, "Missing today's summary: %t\n", r.MissingToday)
	if doctorFix {
		fmt.Fprintf(w, "Fixed: %d\n", r.Fixed)
	}
}

func listOrEmpty(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return "(" + strings.Join(items, ", ") + ")"
}
