package cli

import (
	"github.com/spf13/cobra"

	"github.com/jacky-htg/call-console/backend/internal/credential"
	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/config"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		req             call.CredentialRequest
		participantType string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a participant credential",
		Long: `Issue a participant credential with the configuration of --env.

Passing any --attr switches to advanced mode: the attributes are embedded
as given and the phone numbers are ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ParticipantType = call.ParseParticipantType(participantType)
			req.Advanced = len(req.Attributes) > 0
			cred, err := credential.New(a.resolver(), a.log).Issue(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cred)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Environment, "env", "e", string(config.DefaultEnvironment), "environment tag")
	f.StringVarP(&req.RoomName, "room", "r", "", "room name")
	f.StringVar(&req.FromNumber, "from", "", "from phone number")
	f.StringVar(&req.ToNumber, "to", "", "destination phone number")
	f.StringVarP(&req.ParticipantName, "name", "n", "", "display name (random when empty)")
	f.StringVarP(&participantType, "type", "t", string(call.User), "participant type (user or human_agent)")
	f.StringVar(&req.AgentName, "agent", "", "agent to dispatch (default {ENV}_AGENT_NAME)")
	f.StringToStringVar(&req.Attributes, "attr", nil, "participant attribute key=value (repeatable)")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}
