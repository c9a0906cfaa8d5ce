package healthmgr

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/service"
)

var goalsJSON bool

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Show daily targets derived from the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			g, err := tr.Goals(cmd.Context())
			if err != nil {
				return err
			}
			if goalsJSON {
				return printJSON(cmd.OutOrStdout(), g)
			}
			out := cmd.OutOrStdout()
			w := g.Water
			fmt.Fprintln(out, titleStyle.Render("Water"))
			if w.Fallback {
				fmt.Fprintf(out, "  %d ml (default, profile incomplete)\n", w.Total)
			} else {
				fmt.Fprintf(out, "  base %d ml (%.0f kg x %d)\n", w.Base, w.Weight, w.Coefficient)
				fmt.Fprintf(out, "  height %+d, exercise %+d, environment %+d\n", w.HeightAdjust, w.ExerciseAdjust, w.EnvironmentAdjust)
				fmt.Fprintf(out, "  total %d ml\n", w.Total)
			}
			fmt.Fprintln(out, titleStyle.Render("Sleep"))
			fmt.Fprintf(out, "  %s\n", formatMinutes(g.SleepMinutes))
			fmt.Fprintln(out, titleStyle.Render("Exercise"))
			fmt.Fprintf(out, "  %d min\n", g.ExerciseMinutes)
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Nutrition (%.0f kcal/day)", g.EnergyKcal)))
			for _, key := range health.NutrientKeys {
				goal, ok := g.Nutrition[key]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "  %-12s %.1f - %.1f %s (target %.1f)\n", key, goal.Range[0], goal.Range[2], goal.Unit, goal.Range[1])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(goalsCmd)
	goalsCmd.Flags().BoolVar(&goalsJSON, "json", false, "Output JSON")
}
