package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jacky-htg/call-console/console/internal/runner"
	"github.com/jacky-htg/call-console/libs/call"
	"github.com/jacky-htg/call-console/libs/client"
	"github.com/jacky-htg/call-console/libs/config"
	"github.com/jacky-htg/call-console/libs/livekit"
	"github.com/jacky-htg/call-console/libs/logging"
	"github.com/jacky-htg/call-console/libs/roomname"
)

type options struct {
	server   string
	env      string
	logLevel string
	dial     bool
	hold     time.Duration
	settle   time.Duration
	timeout  time.Duration
}

func main() {
	o := &options{}
	root := &cobra.Command{
		Use:           "console",
		Short:         "Simulate calls against a call-console server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.server, "server", "http://localhost:8080", "console server base URL")
	pf.StringVarP(&o.env, "env", "e", string(config.DefaultEnvironment), "environment tag")
	pf.StringVar(&o.logLevel, "log-level", "warn", "log level")
	pf.BoolVar(&o.dial, "dial", false, "open the LiveKit signaling websocket with the credential")
	pf.DurationVar(&o.hold, "hold", 20*time.Second, "how long to keep the signaling connection open")
	pf.DurationVar(&o.timeout, "timeout", 30*time.Second, "HTTP timeout (not applied while an outbound call rings)")

	root.AddCommand(inboundCmd(o), advancedCmd(o), outboundCmd(o), trunksCmd(o), envCmd(o))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		color.Red("Error: %v", err)
		stop()
		os.Exit(1)
	}
}

func (o *options) client() *client.Client {
	return client.New(o.server, client.WithHTTPClient(&http.Client{Timeout: o.timeout}))
}

func (o *options) runner() (*runner.Runner, error) {
	log, err := logging.NewWithOutput(logging.Config{Level: o.logLevel}, os.Stderr)
	if err != nil {
		return nil, err
	}
	return runner.New(o.client(), log,
		runner.WithOutput(os.Stdout),
		runner.WithSettleDelay(o.settle),
	), nil
}

func inboundCmd(o *options) *cobra.Command {
	var (
		d          call.Descriptor
		typ        string
		randSuffix bool
	)
	cmd := &cobra.Command{
		Use:   "inbound",
		Short: "Start an inbound call session",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := o.runner()
			if err != nil {
				return err
			}
			d.Direction = call.Inbound
			d.ParticipantType = call.ParseParticipantType(typ)
			if randSuffix {
				d.Suffix = call.RandomSuffix()
			}
			cred, err := r.Start(cmd.Context(), o.env, d)
			if err != nil {
				return err
			}
			return o.finish(cmd.Context(), r, cred)
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.FromNumber, "from", "", "from phone number")
	f.StringVar(&d.ToNumber, "to", "", "destination phone number")
	f.StringVar(&d.Suffix, "suffix", "", "room suffix")
	f.BoolVar(&randSuffix, "random-suffix", false, "use a random 6 character suffix")
	f.StringVar(&d.RoomName, "room", "", "static room name (ignores the numbers)")
	f.StringVarP(&typ, "type", "t", string(call.User), "participant type (user or human_agent)")
	f.StringVarP(&d.ParticipantName, "name", "n", "", "display name")
	return cmd
}

func advancedCmd(o *options) *cobra.Command {
	var (
		d          call.Descriptor
		randomRoom bool
	)
	cmd := &cobra.Command{
		Use:   "advanced",
		Short: "Start a session with free-form participant attributes",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := o.runner()
			if err != nil {
				return err
			}
			d.Direction = call.Advanced
			if randomRoom {
				d.RoomName = call.RandomAdvancedRoomName()
			}
			cred, err := r.Start(cmd.Context(), o.env, d)
			if err != nil {
				return err
			}
			return o.finish(cmd.Context(), r, cred)
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.RoomName, "room", "", "room name")
	f.BoolVar(&randomRoom, "random-room", false, "use a random adv_ room name")
	f.StringVarP(&d.ParticipantName, "name", "n", "", "display name")
	f.StringToStringVar(&d.Attributes, "attr", nil, "participant attribute key=value (repeatable)")
	return cmd
}

func outboundCmd(o *options) *cobra.Command {
	var (
		d    call.Descriptor
		join bool
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "outbound",
		Short: "Place an outbound SIP call and optionally join as a human agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := o.runner()
			if err != nil {
				return err
			}
			cred, err := r.Outbound(cmd.Context(), o.env, d, join, wait)
			if errors.Is(err, runner.ErrNotJoining) {
				return nil
			}
			if err != nil {
				return err
			}
			return o.finish(cmd.Context(), r, cred)
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.FromNumber, "from", roomname.DefaultOutboundFrom, "from (trunk) number")
	f.StringVar(&d.ToNumber, "to", "", "number to call")
	f.StringVar(&d.TrunkID, "trunk", roomname.DefaultTrunkID, "outbound trunk id")
	f.BoolVar(&join, "join", true, "join the room as a human agent after the settle delay")
	f.BoolVar(&wait, "wait-until-answered", true, "return from provisioning only once the call is answered")
	f.DurationVar(&o.settle, "settle", config.DefaultSettleTime, "delay between dispatch and join")
	return cmd
}

func trunksCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trunks",
		Short: "List the server's outbound trunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			trunks, err := o.client().Trunks(cmd.Context(), o.env)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name"})
			for _, t := range trunks {
				table.Append([]string{t.ID, t.Name})
			}
			table.Render()
			return nil
		},
	}
}

func envCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the server's masked configuration for --env",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := o.client().EnvConfig(cmd.Context(), o.env)
			if err != nil {
				return err
			}
			return printJSON(info)
		},
	}
}

// finish prints the credential and, with --dial, holds the signaling socket open.
func (o *options) finish(ctx context.Context, r *runner.Runner, cred *call.Credential) error {
	if err := printJSON(cred); err != nil {
		return err
	}
	if !o.dial {
		return nil
	}

	cred, err := r.Credential(ctx)
	if err != nil {
		return err
	}
	conn, err := livekit.DialSignal(ctx, cred.ServerURL, cred.ParticipantToken)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fmt.Printf("signal message (type=%d, %d bytes)\n", mt, len(msg))
		}
	}()

	color.Green("Connected to LiveKit signaling; holding for %s", o.hold)
	select {
	case <-time.After(o.hold):
	case <-ctx.Done():
	}
	return nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
