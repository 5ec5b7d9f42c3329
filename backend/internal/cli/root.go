// Package cli implements the server binary's command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/logging"
)

type app struct {
	envFile string
	v       *viper.Viper
	server  config.ServerConfig
	log     *logrus.Logger
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	v, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	a.v = v
	a.server = config.LoadServer(v)

	log, err := logging.NewWithOutput(a.server.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func (a *app) resolver() *config.Resolver {
	return config.NewResolver(config.NewViperSource(a.v))
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "call-console",
		Short: "Call simulation console server",
		Long: `call-console issues LiveKit room credentials, places outbound SIP calls
and serves the operator console API.

Per-environment settings are read from {ENV}_LIVEKIT_URL, {ENV}_LIVEKIT_API_KEY,
{ENV}_LIVEKIT_API_SECRET, {ENV}_AGENT_NAME and {ENV}_OUTBOUND_TRUNK_LIST, where
ENV is one of PRD, DEV, DEV_BP, PRD_BP or LOCAL.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file read when present; process environment wins")

	root.AddCommand(
		newServeCmd(a),
		newEnvCmd(a),
		newTrunksCmd(a),
		newRoomCmd(),
		newTokenCmd(a),
		newVerifyCmd(a),
		newURLCmd(),
	)
	return root
}

// Execute runs the command tree.
func Execute() error {
	return NewRootCmd().Execute()
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
