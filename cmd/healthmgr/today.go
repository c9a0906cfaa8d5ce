package healthmgr

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/service"
)

var todayJSON bool

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's water, sleep, exercise and nutrition progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			ov, err := tr.TodayOverview(cmd.Context())
			if err != nil {
				return err
			}
			if todayJSON {
				return printJSON(cmd.OutOrStdout(), ov)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderOverview(tr.Now().Format("2006-01-02"), ov))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "Output JSON")
}

func renderOverview(date string, ov service.Overview) string {
	s := ov.Summary
	row := func(label string, p service.Progress, detail string) string {
		return labelStyle.Render(label) + " " + progressBar(p.Ratio()) + " " + detail
	}
	lines := []string{
		titleStyle.Render("Today " + date),
		row("Water", ov.Water, fmt.Sprintf("%.0f / %.0f ml", ov.Water.Current, ov.Water.Goal)),
		row("Sleep", ov.Sleep, fmt.Sprintf("%s / %s  grade %s", formatMinutes(s.SleepDuration), formatMinutes(int(ov.Sleep.Goal)), gradeStyle(s.SleepGrade).Render(s.SleepGrade))),
		row("Exercise", ov.Exercise, fmt.Sprintf("%d / %.0f min  %d kcal  score %d", s.ExerciseDuration, ov.Exercise.Goal, s.ExerciseCalories, s.ExerciseScore)),
		row("Calories", ov.Calories, fmt.Sprintf("%.0f / %.0f kcal  score %d", ov.Calories.Current, ov.Calories.Goal, s.NutritionScore)),
	}
	var flagged []string
	for _, a := range ov.Advice {
		switch a.Status {
		case health.AdviceLow:
			flagged = append(flagged, warnStyle.Render(a.Key+" low"))
		case health.AdviceHigh:
			flagged = append(flagged, badStyle.Render(a.Key+" high"))
		}
	}
	if len(flagged) > 0 && s.NutritionScore > 0 {
		lines = append(lines, mutedStyle.Render("Nutrients: ")+strings.Join(flagged, ", "))
	}
	if !ov.Complete {
		lines = append(lines, mutedStyle.Render("Profile incomplete: goals use defaults (healthmgr profile set)"))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
