package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/memorychain/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Run the engine and serve the HTTP API until interrupted.

Mutating requests need a bearer token signed with EdDSA by the signer's
key; see the server package for the claims.

Examples:
  memorychain serve
  memorychain serve --listen :8080 --db postgres://memorychain@localhost/ledger`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config and MEMORYCHAIN_LISTEN)")
	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command, listen string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := opts.openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if listen == "" {
		listen = s.cfg.Listen
	}

	srvOpts := []server.Option{server.WithLogger(s.logger)}
	if mint, ok, err := s.cfg.MintAddress(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	} else if ok {
		srvOpts = append(srvOpts, server.WithRewardMint(mint))
	}

	engineCtx, cancelEngine := context.WithCancel(ctx)
	engineDone := make(chan error, 1)
	go func() {
		engineDone <- s.engine.Run(engineCtx)
	}()

	serveErr := server.New(s.engine, srvOpts...).ListenAndServe(ctx, listen)

	cancelEngine()
	if err := <-engineDone; err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("engine stopped with error", "error", err)
	}
	if serveErr != nil {
		return WrapExitError(ExitCommandError, "server failed", serveErr)
	}
	return nil
}
