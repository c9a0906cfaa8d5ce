package healthmgr

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/service"
)

var (
	exerciseMinutes   int
	exerciseIntensity string
	exerciseHourly    float64
	exerciseJSON      bool
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Log exercise sessions",
}

var exerciseAddCmd = &cobra.Command{
	Use:   "add <type>",
	Short: "Log an exercise session (see `exercise types`)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			rec, err := tr.AddExercise(cmd.Context(), service.ExerciseInput{
				Type:            args[0],
				DurationMinutes: exerciseMinutes,
				Intensity:       exerciseIntensity,
				HourlyCalories:  exerciseHourly,
			})
			if err != nil {
				return err
			}
			if exerciseJSON {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (%d min, %s): %d kcal id=%s\n", rec.Type, rec.DurationMinutes, rec.Intensity, rec.Calories, rec.ID)
			return nil
		})
	},
}

var exerciseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List today's exercise sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			log, err := tr.ExerciseRecords(cmd.Context())
			if err != nil {
				return err
			}
			if exerciseJSON {
				return printJSON(cmd.OutOrStdout(), log)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tTIME\tTYPE\tMINUTES\tINTENSITY\tKCAL")
			for _, r := range log.Records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d\t%s\t%d\n", r.ID, r.Timestamp.Format("15:04"), r.Type, r.DurationMinutes, r.Intensity, r.Calories)
			}
			return nil
		})
	},
}

var exerciseDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of today's exercise sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			if err := tr.DeleteExercise(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted exercise %s\n", args[0])
			return nil
		})
	},
}

var exerciseTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List exercise types with kcal/hour at your weight",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			fmt.Fprintln(cmd.OutOrStdout(), "TYPE\tLOW\tMEDIUM\tHIGH")
			for _, typ := range health.ExerciseTypes {
				row := make([]string, 0, 3)
				for _, intensity := range []string{health.IntensityLow, health.IntensityMedium, health.IntensityHigh} {
					kcal, err := tr.HourlyEstimate(cmd.Context(), typ, intensity)
					if err != nil {
						return err
					}
					row = append(row, fmt.Sprintf("%d", kcal))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", typ, strings.Join(row, "\t"))
			}
			return nil
		})
	},
}

var exercisePromptCmd = &cobra.Command{
	Use:   "prompt <name>",
	Short: "Print a question asking a chat assistant for the kcal/hour of an activity",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			p, err := tr.ExercisePrompt(cmd.Context(), strings.Join(args, " "), exerciseIntensity)
			if err != nil {
				return err
			}
			if exerciseJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Text)
			fmt.Fprintf(cmd.OutOrStdout(), "\nAsk at: %s\n", p.URL)
			fmt.Fprintln(cmd.OutOrStdout(), "Then log it with: healthmgr exercise add other --minutes N --hourly KCAL")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exerciseCmd)
	exerciseCmd.AddCommand(exerciseAddCmd, exerciseListCmd, exerciseDeleteCmd, exerciseTypesCmd, exercisePromptCmd)
	exerciseCmd.PersistentFlags().BoolVar(&exerciseJSON, "json", false, "Output JSON")

	exerciseAddCmd.Flags().IntVar(&exerciseMinutes, "minutes", 0, "Duration in minutes")
	exerciseAddCmd.Flags().StringVar(&exerciseIntensity, "intensity", health.IntensityMedium, "low, medium or high")
	exerciseAddCmd.Flags().Float64Var(&exerciseHourly, "hourly", 0, "Known kcal per hour (overrides the MET estimate)")
	_ = exerciseAddCmd.MarkFlagRequired("minutes")
	exercisePromptCmd.Flags().StringVar(&exerciseIntensity, "intensity", health.IntensityMedium, "low, medium or high")
}
