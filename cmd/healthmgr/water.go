package healthmgr

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/service"
)

var waterJSON bool

var waterCmd = &cobra.Command{
	Use:   "water",
	Short: "Track today's water intake",
}

var waterAddCmd = &cobra.Command{
	Use:   "add <ml>",
	Short: "Record a drink",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ml, err := parsePositiveFloat("amount", args[0])
		if err != nil {
			return err
		}
		return withTracker(func(tr *service.Tracker) error {
			w, err := tr.AddWater(cmd.Context(), ml)
			if err != nil {
				return err
			}
			return printWater(cmd.OutOrStdout(), w)
		})
	},
}

var waterSubCmd = &cobra.Command{
	Use:   "sub <ml>",
	Short: "Undo part of today's intake (never below zero)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ml, err := parsePositiveFloat("amount", args[0])
		if err != nil {
			return err
		}
		return withTracker(func(tr *service.Tracker) error {
			w, err := tr.SubtractWater(cmd.Context(), ml)
			if err != nil {
				return err
			}
			return printWater(cmd.OutOrStdout(), w)
		})
	},
}

var waterResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear today's water intake",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			w, err := tr.ResetWater(cmd.Context())
			if err != nil {
				return err
			}
			return printWater(cmd.OutOrStdout(), w)
		})
	},
}

var waterStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's intake, goal and drinks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			w, err := tr.Water(cmd.Context())
			if err != nil {
				return err
			}
			if err := printWater(cmd.OutOrStdout(), w); err != nil {
				return err
			}
			if waterJSON {
				return nil
			}
			for _, r := range w.Records {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\t%.0f ml\n", r.Timestamp.Format("15:04"), r.Amount.Float())
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(waterCmd)
	waterCmd.AddCommand(waterAddCmd, waterSubCmd, waterResetCmd, waterStatusCmd)
	waterCmd.PersistentFlags().BoolVar(&waterJSON, "json", false, "Output JSON")
}

func printWater(out io.Writer, w service.WaterStatus) error {
	if waterJSON {
		return printJSON(out, w)
	}
	fmt.Fprintf(out, "Water: %.0f / %d ml (%.0f%%)\n", w.Intake, w.Goal, w.Progress()*100)
	if w.LastDrink != nil {
		fmt.Fprintf(out, "Last drink: %s\n", w.LastDrink.Format("15:04"))
	}
	return nil
}
