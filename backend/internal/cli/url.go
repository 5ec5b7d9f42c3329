package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/roomname"
	"github.com/jacky-htg/call-console/libs/shareurl"
)

const defaultConsoleURL = "http://localhost:3000/"

func newURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Build and read shareable console links",
	}

	var (
		base  string
		env   string
		tab   string
		typ   string
		state = shareurl.Defaults()
	)
	build := &cobra.Command{
		Use:   "build",
		Short: "Build a link that reopens the console with the given form",
		RunE: func(cmd *cobra.Command, args []string) error {
			state.Environment = config.Environment(env)
			state.Tab = shareurl.Tab(tab)
			state.Type = call.ParseParticipantType(typ)
			link, err := shareurl.Build(base, state)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), link)
			return err
		},
	}
	f := build.Flags()
	f.StringVar(&base, "base", defaultConsoleURL, "console origin and path")
	f.StringVarP(&env, "env", "e", string(config.DefaultEnvironment), "environment tag")
	f.StringVar(&tab, "tab", string(shareurl.TabInbound), "inbound, outbound or advance")
	f.StringVar(&state.From, "from", "", "inbound from number")
	f.StringVar(&state.To, "to", "", "inbound destination number")
	f.StringVar(&state.Suffix, "suffix", "", "inbound suffix")
	f.StringVarP(&typ, "type", "t", string(call.User), "participant type")
	f.StringVar(&state.Room, "room", "", "static (inbound) or advanced room name")
	f.StringVar(&state.SIPFrom, "sip-from", "", "outbound from number")
	f.StringVar(&state.SIPTo, "sip-to", "", "outbound destination number")
	f.StringVar(&state.SIPTrunk, "sip-trunk", "", "outbound trunk id")
	f.StringToStringVar(&state.Attributes, "attr", nil, "advanced attribute key=value (repeatable)")

	parse := &cobra.Command{
		Use:   "parse <link>",
		Short: "Show the form state and room name a link restores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse link: %w", err)
			}
			s := shareurl.Parse(u.Query())
			d := s.Descriptor()
			if d.Direction != call.Advanced {
				d.RoomName = roomname.Encode(d)
			}
			return printJSON(cmd.OutOrStdout(), struct {
				Environment config.Environment `json:"environment"`
				Tab         shareurl.Tab       `json:"tab"`
				Call        call.Descriptor    `json:"call"`
			}{s.Environment, s.Tab, d})
		},
	}

	cmd.AddCommand(build, parse)
	return cmd
}
