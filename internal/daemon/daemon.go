// Package daemon keeps tokens fresh in the background: a cron-scheduled
// EnsureValid sweep over all configured accounts, plus an HTTP listener
// exposing health and Prometheus metrics.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/sburl/ebay-oauth-go/internal/auth"
)

// Daemon runs the periodic token refresh sweep.
type Daemon struct {
	registry *auth.Registry
	accounts []string
	cron     *cron.Cron
	echo     *echo.Echo
	log      *slog.Logger
}

// New creates a Daemon that sweeps every interval.
func New(
	registry *auth.Registry,
	accounts []string,
	interval time.Duration,
	log *slog.Logger,
) (*Daemon, error) {
	d := &Daemon{
		registry: registry,
		accounts: accounts,
		cron:     cron.New(),
		echo:     echo.New(),
		log:      log,
	}

	if _, err := d.cron.AddFunc("@every "+interval.String(), d.sweep); err != nil {
		return nil, fmt.Errorf("scheduling refresh sweep: %w", err)
	}

	d.echo.HideBanner = true
	d.echo.HidePort = true
	d.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	d.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return d, nil
}

// Run sweeps once immediately, starts the schedule and the HTTP listener,
// and blocks until ctx is canceled.
func (d *Daemon) Run(ctx context.Context, addr string) error {
	d.sweep()
	d.cron.Start()
	d.log.Info("refresh daemon started", "addr", addr, "accounts", len(d.accounts))

	errCh := make(chan error, 1)
	go func() {
		if err := d.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http listener: %w", err)
	case <-ctx.Done():
	}

	// Wait for any in-flight sweep to finish.
	<-d.cron.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http listener: %w", err)
	}
	d.log.Info("refresh daemon stopped")
	return nil
}

// sweep runs EnsureValid for every configured account. Failures are
// logged, never fatal: a refresh that fails now is retried next cycle.
func (d *Daemon) sweep() {
	ctx := context.Background()
	for _, suffix := range d.accounts {
		mgr, err := d.registry.ForAccount(suffix)
		if err != nil {
			d.log.Error("account unavailable", "account", suffix, "error", err)
			continue
		}
		if !mgr.EnsureValid(ctx) {
			d.log.Warn("token not valid after sweep", "account", suffix)
		}
	}
}
