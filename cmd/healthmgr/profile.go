package healthmgr

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/service"
)

var (
	profileAge         float64
	profileHeight      float64
	profileWeight      float64
	profileGender      string
	profileIntensity   string
	profileEnvironment string
	profileJSON        bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the body profile used for goals",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the body profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			u, err := tr.LoadUserData(cmd.Context())
			if err != nil {
				return err
			}
			p := service.ProfileFromUser(u)
			if profileJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Age: %s\n", orUnset(p.Age, ""))
			fmt.Fprintf(out, "Height: %s\n", orUnset(p.Height, "cm"))
			fmt.Fprintf(out, "Weight: %s\n", orUnset(p.Weight, "kg"))
			fmt.Fprintf(out, "Gender: %s\n", textOrUnset(p.Gender))
			fmt.Fprintf(out, "Exercise intensity: %s\n", textOrUnset(p.ExerciseIntensity))
			fmt.Fprintf(out, "Environment: %s\n", textOrUnset(p.Environment))
			return nil
		})
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields (unset flags keep their stored values)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			u, err := tr.LoadUserData(cmd.Context())
			if err != nil {
				return err
			}
			p := service.ProfileFromUser(u)
			flags := cmd.Flags()
			if flags.Changed("age") {
				p.Age = profileAge
			}
			if flags.Changed("height") {
				p.Height = profileHeight
			}
			if flags.Changed("weight") {
				p.Weight = profileWeight
			}
			if flags.Changed("gender") {
				p.Gender = strings.ToLower(strings.TrimSpace(profileGender))
			}
			if flags.Changed("intensity") {
				p.ExerciseIntensity = strings.ToLower(strings.TrimSpace(profileIntensity))
			}
			if flags.Changed("environment") {
				p.Environment = strings.ToLower(strings.TrimSpace(profileEnvironment))
			}
			if err := tr.SaveProfile(cmd.Context(), p); err != nil {
				return err
			}
			goals, err := tr.Goals(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Updated profile")
			fmt.Fprintf(cmd.OutOrStdout(), "Water goal: %d ml\n", goals.Water.Total)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)

	profileShowCmd.Flags().BoolVar(&profileJSON, "json", false, "Output JSON")
	profileSetCmd.Flags().Float64Var(&profileAge, "age", 0, "Age in years (3-100)")
	profileSetCmd.Flags().Float64Var(&profileHeight, "height", 0, "Height in cm (50-230)")
	profileSetCmd.Flags().Float64Var(&profileWeight, "weight", 0, "Weight in kg (10-200)")
	profileSetCmd.Flags().StringVar(&profileGender, "gender", "", "male or female")
	profileSetCmd.Flags().StringVar(&profileIntensity, "intensity", "", "sedentary, light_active, moderately_active, very_active or extra_active")
	profileSetCmd.Flags().StringVar(&profileEnvironment, "environment", "", "ac_env, cold_env or hot_env")
}

func orUnset(v float64, unit string) string {
	if v <= 0 {
		return "not set"
	}
	return strings.TrimSpace(fmt.Sprintf("%g %s", v, unit))
}

func textOrUnset(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return v
}
