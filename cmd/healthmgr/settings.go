package healthmgr

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/service"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change app preferences",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show all settings or one key",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			s, err := tr.Settings(cmd.Context())
			if err != nil {
				return err
			}
			values := map[string]string{
				service.KeyThemeMode:   s.ThemeMode,
				service.KeyLanguage:    s.Language,
				service.KeyCloseMode:   s.CloseMode,
				service.KeyChinaAIMode: fmt.Sprintf("%t", s.ChinaAIMode),
			}
			if len(args) == 1 {
				key := strings.TrimSpace(args[0])
				v, ok := values[key]
				if !ok {
					return fmt.Errorf("unknown setting %q (use %s)", key, strings.Join(service.SettingKeys(), ", "))
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}
			for _, key := range service.SettingKeys() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, values[key])
			}
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			if err := tr.SetSetting(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s=%s\n", args[0], args[1])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
}
