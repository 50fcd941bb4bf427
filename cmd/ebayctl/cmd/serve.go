package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sburl/ebay-oauth-go/internal/daemon"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the background token refresh daemon",
		Long: "Periodically validates and refreshes the tokens of every configured\n" +
			"account, and serves /healthz and Prometheus /metrics.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			d, err := daemon.New(
				a.registry,
				a.cfg.Accounts,
				a.cfg.Schedule.RefreshInterval,
				a.log,
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(
				cmd.Context(), syscall.SIGINT, syscall.SIGTERM,
			)
			defer stop()

			addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
			return d.Run(ctx, addr)
		},
	}
}
