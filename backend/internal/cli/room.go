package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/roomname"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Encode and decode room names",
	}

	var d call.Descriptor
	var direction string
	encode := &cobra.Command{
		Use:   "encode",
		Short: "Build the room name of a call",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Direction = call.Direction(direction)
			name := roomname.Encode(d)
			if roomname.IsIncomplete(name) {
				return fmt.Errorf("room name %q is incomplete: from and to numbers are required", name)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), name)
			return err
		},
	}
	encode.Flags().StringVarP(&direction, "direction", "d", string(call.Inbound), "inbound or outbound")
	encode.Flags().StringVar(&d.FromNumber, "from", "", "from phone number")
	encode.Flags().StringVar(&d.ToNumber, "to", "", "destination phone number")
	encode.Flags().StringVar(&d.Suffix, "suffix", "", "inbound suffix")

	var (
		participantType string
		strict          bool
	)
	decode := &cobra.Command{
		Use:   "decode <room-name>",
		Short: "Read the call fields back from a room name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strict {
				parts, err := roomname.Parse(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), parts)
			}
			return printJSON(cmd.OutOrStdout(), roomname.Decode(args[0], call.ParseParticipantType(participantType)))
		},
	}
	decode.Flags().StringVarP(&participantType, "type", "t", string(call.User), "participant type (user or human_agent)")
	decode.Flags().BoolVar(&strict, "strict", false, "reject incomplete names instead of filling defaults")

	cmd.AddCommand(encode, decode)
	return cmd
}
