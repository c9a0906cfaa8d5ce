package healthmgr

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/events"
	"github.com/aazoaer/health-manager/internal/service"
)

var (
	reminderJSON     bool
	reminderInterval time.Duration
)

var reminderCmd = &cobra.Command{
	Use:   "reminder",
	Short: "Half-hourly water reminders",
}

var reminderStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a water reminder is due",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			st, err := tr.ReminderStatus(cmd.Context())
			if err != nil {
				return err
			}
			if reminderJSON {
				return printJSON(cmd.OutOrStdout(), st)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Due: %t\n", st.Due)
			fmt.Fprintf(out, "Active: %t\n", st.Active)
			if st.LastDrink != nil {
				fmt.Fprintf(out, "Last drink: %s\n", st.LastDrink.Format("2006-01-02 15:04"))
			} else {
				fmt.Fprintln(out, "Last drink: none today")
			}
			fmt.Fprintf(out, "Next check: %s\n", st.Next.Format("15:04"))
			return nil
		})
	},
}

var reminderWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a line whenever a water reminder fires (Ctrl-C to stop)",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval := reminderInterval
		if interval <= 0 {
			interval = cfg.Reminder.Interval
		}
		return withTracker(func(tr *service.Tracker) error {
			ch, unsubscribe := tr.Bus().Subscribe(events.ReminderDue)
			defer unsubscribe()
			done := make(chan error, 1)
			go func() { done <- tr.RunReminders(cmd.Context(), interval) }()
			for {
				select {
				case ev, ok := <-ch:
					if !ok {
						return <-done
					}
					st, _ := ev.Payload.(service.ReminderStatus)
					fmt.Fprintf(cmd.OutOrStdout(), "%s time to drink water (next check %s)\n",
						ev.At.Format("15:04"), st.Next.Format("15:04"))
				case err := <-done:
					return err
				}
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(reminderCmd)
	reminderCmd.AddCommand(reminderStatusCmd, reminderWatchCmd)
	reminderStatusCmd.Flags().BoolVar(&reminderJSON, "json", false, "Output JSON")
	reminderWatchCmd.Flags().DurationVar(&reminderInterval, "interval", 0, "Poll interval (default reminder.interval)")
}
