package healthmgr

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/service"
)

var (
	sleepBed     string
	sleepWake    string
	sleepQuality string
	sleepJSON    bool
)

var sleepCmd = &cobra.Command{
	Use:   "sleep",
	Short: "Log sleep sessions",
}

var sleepAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Log a sleep session ending today",
	Example: "  healthmgr sleep add --bed 23:15 --wake 07:00 --quality good\n  healthmgr sleep add --bed \"2025-03-10 13:00\" --wake \"2025-03-10 13:30\"",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			bed, wake, err := sleepWindow(tr.Now(), sleepBed, sleepWake)
			if err != nil {
				return err
			}
			rec, err := tr.AddSleep(cmd.Context(), service.SleepInput{Bedtime: bed, Wakeup: wake, Quality: sleepQuality})
			if err != nil {
				return err
			}
			if sleepJSON {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged sleep %s -> %s (%s, %s) id=%s\n",
				rec.Bedtime.Format("2006-01-02 15:04"), rec.Wakeup.Format("2006-01-02 15:04"),
				formatMinutes(rec.DurationMinutes), rec.Quality, rec.ID)
			return nil
		})
	},
}

var sleepListCmd = &cobra.Command{
	Use:   "list",
	Short: "List today's sleep sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			log, err := tr.SleepRecords(cmd.Context())
			if err != nil {
				return err
			}
			if sleepJSON {
				return printJSON(cmd.OutOrStdout(), log)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tBEDTIME\tWAKEUP\tDURATION\tQUALITY")
			for _, r := range log.Records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", r.ID,
					r.Bedtime.Format("2006-01-02 15:04"), r.Wakeup.Format("2006-01-02 15:04"),
					formatMinutes(r.DurationMinutes), r.Quality)
			}
			return nil
		})
	},
}

var sleepDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of today's sleep sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			if err := tr.DeleteSleep(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted sleep %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sleepCmd)
	sleepCmd.AddCommand(sleepAddCmd, sleepListCmd, sleepDeleteCmd)
	sleepCmd.PersistentFlags().BoolVar(&sleepJSON, "json", false, "Output JSON")

	sleepAddCmd.Flags().StringVar(&sleepBed, "bed", "", "Bedtime HH:MM (previous evening if after --wake) or YYYY-MM-DD HH:MM")
	sleepAddCmd.Flags().StringVar(&sleepWake, "wake", "", "Wake time HH:MM today or YYYY-MM-DD HH:MM")
	sleepAddCmd.Flags().StringVar(&sleepQuality, "quality", "good", "excellent, good, fair or poor")
	_ = sleepAddCmd.MarkFlagRequired("bed")
	_ = sleepAddCmd.MarkFlagRequired("wake")
}
