package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jacky-htg/call-console/libs/config"
)

func newEnvCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Inspect environment configuration",
	}

	var env string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the masked configuration of one environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := a.resolver().Describe(env)
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Setting", "Value"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.Append([]string{"Environment", string(info.Environment)})
			table.Append([]string{"LiveKit URL", info.LivekitURL})
			table.Append([]string{"API Key", info.MaskedLivekitAPIKey})
			table.Append([]string{"Agent", info.AgentName})
			table.Render()
			return nil
		},
	}
	show.Flags().StringVarP(&env, "env", "e", string(config.DefaultEnvironment), "environment tag")

	list := &cobra.Command{
		Use:   "list",
		Short: "List every environment and whether it can issue credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := a.resolver()
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Environment", "LiveKit URL", "API Key", "Agent", "Status"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, e := range config.Environments {
				info := resolver.Describe(string(e))
				status := color.GreenString("Ready")
				if _, err := resolver.Require(string(e)); err != nil {
					status = color.RedString(err.Error())
				}
				table.Append([]string{
					string(e),
					info.LivekitURL,
					info.MaskedLivekitAPIKey,
					info.AgentName,
					status,
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.AddCommand(show, list)
	return cmd
}

func newTrunksCmd(a *app) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "trunks",
		Short: "List the outbound trunks of an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			trunks, err := a.resolver().Trunks(env)
			if err != nil {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			if len(trunks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No trunks configured")
				return nil
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Name"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, t := range trunks {
				table.Append([]string{t.ID, t.Name})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&env, "env", "e", string(config.DefaultEnvironment), "environment tag")
	return cmd
}
