package healthmgr

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aazoaer/health-manager/internal/service"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the local health store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(func(tr *service.Tracker) error {
			if _, err := tr.LoadUserData(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s store at %s\n", cfg.Backend, storePath())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
