package healthmgr

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/model"
	"github.com/aazoaer/health-manager/internal/service"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show stored daily summaries",
}

var summaryTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Recompute and store today's summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			s, err := tr.UpdateTodaySummary(cmd.Context())
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), []model.DailySummary{s})
		})
	},
}

var summaryShowCmd = &cobra.Command{
	Use:   "show <YYYY-MM-DD>",
	Short: "Show the summary stored for a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := strings.TrimSpace(args[0])
		if _, err := service.ParseDate(date); err != nil {
			return err
		}
		return withTracker(func(tr *service.Tracker) error {
			s, err := tr.LoadDailySummary(cmd.Context(), date)
			if err != nil {
				return err
			}
			s.Date = date
			return printSummaries(cmd.OutOrStdout(), []model.DailySummary{s})
		})
	},
}

var summaryMonthCmd = &cobra.Command{
	Use:   "month [YYYY-MM]",
	Short: "Show every stored summary in a month (default this month)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			month := tr.Now()
			if len(args) == 1 {
				parsed, err := time.ParseInLocation("2006-01", strings.TrimSpace(args[0]), time.Local)
				if err != nil {
					return fmt.Errorf("invalid month %q (expected YYYY-MM)", args[0])
				}
				month = parsed
			}
			days, err := tr.LoadMonthSummaries(cmd.Context(), month.Year(), month.Month())
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), sortedSummaries(days))
		})
	},
}

var summaryHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show every stored summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			days, err := tr.LoadAllHistory(cmd.Context())
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), sortedSummaries(days))
		})
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.AddCommand(summaryTodayCmd, summaryShowCmd, summaryMonthCmd, summaryHistoryCmd)
	summaryCmd.PersistentFlags().BoolVar(&summaryJSON, "json", false, "Output JSON")
}

func sortedSummaries(days map[string]model.DailySummary) []model.DailySummary {
	out := make([]model.DailySummary, 0, len(days))
	for date, s := range days {
		s.Date = date
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func printSummaries(w io.Writer, days []model.DailySummary) error {
	if summaryJSON {
		rows := make([]service.ExportSummary, 0, len(days))
		for _, s := range days {
			rows = append(rows, service.ExportSummary{Date: s.Date, DailySummary: s})
		}
		return printJSON(w, rows)
	}
	fmt.Fprintln(w, "DATE\tWATER\tGOAL\tMET\tNUTRITION\tSLEEP\tGRADE\tEXERCISE\tKCAL\tSCORE")
	for _, s := range days {
		met := "no"
		if s.WaterAchieved {
			met = goodStyle.Render("yes")
		}
		grade := s.SleepGrade
		if grade != "" {
			grade = gradeStyle(grade).Render(grade)
		}
		fmt.Fprintf(w, "%s\t%.0f\t%d\t%s\t%d\t%s\t%s\t%d\t%d\t%d\n",
			s.Date, s.WaterIntake, s.WaterGoal, met, s.NutritionScore,
			formatMinutes(s.SleepDuration), grade, s.ExerciseDuration, s.ExerciseCalories, s.ExerciseScore)
	}
	return nil
}
