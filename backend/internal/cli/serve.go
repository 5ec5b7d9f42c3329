package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacky-htg/call-console/backend/internal/api"
	"github.com/jacky-htg/call-console/backend/internal/bridge"
	"github.com/jacky-htg/call-console/backend/internal/credential"
	"github.com/jacky-htg/call-console/backend/internal/factory"
	"github.com/jacky-htg/call-console/backend/internal/sessionview"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the console API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.server.HTTPAddr
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default CONSOLE_HTTP_ADDR)")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	resolver := a.resolver()
	issuer := credential.New(resolver, a.log)
	orch := bridge.New(resolver, factory.New(),
		bridge.WithSettleDelay(a.server.SettleDelay),
		bridge.WithLogger(a.log),
	)
	views := sessionview.New(issuer, orch, a.log)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.New(resolver, issuer, orch, views, a.log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", addr).Info("console server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
