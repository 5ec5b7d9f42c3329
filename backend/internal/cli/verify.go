package cli

import (
	"github.com/spf13/cobra"

	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/livekit"
)

func newVerifyCmd(a *app) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a participant token against the secret of --env and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.resolver().Require(env)
			if err != nil {
				return err
			}
			claims, err := livekit.Verify(args[0], profile.APISecret)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), claims)
		},
	}
	cmd.Flags().StringVarP(&env, "env", "e", string(config.DefaultEnvironment), "environment tag")
	return cmd
}
