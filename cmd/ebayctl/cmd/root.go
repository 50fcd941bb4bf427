// Package cmd implements the ebayctl CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sburl/ebay-oauth-go/internal/auth"
	"github.com/sburl/ebay-oauth-go/internal/config"
	"github.com/sburl/ebay-oauth-go/internal/credstore"
	"github.com/sburl/ebay-oauth-go/pkg/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "ebayctl",
		Short: "Manage eBay OAuth tokens and fetch normalized listings",
		Long: "ebayctl keeps eBay OAuth user tokens valid (refreshing them when the\n" +
			"API rejects them), runs the one-time authorization bootstrap, and\n" +
			"fetches listing details normalized into a stable record.",
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "ebayctl.yaml", "config file path")
	rootCmd.PersistentFlags().
		String("account", "", "account suffix (empty = default account)")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("account", rootCmd.PersistentFlags().Lookup("account")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
}

func initViper() {
	viper.SetEnvPrefix("EBAYCTL")
	viper.AutomaticEnv()
}

func accountSuffix() string {
	return viper.GetString("account")
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}

// app bundles the pieces every command needs.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	store    credstore.Store
	registry *auth.Registry
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	store, err := credstore.Open(cfg.Credentials.Backend, cfg.Credentials.Path)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	registry := auth.NewRegistry(func(suffix string) (*auth.Manager, error) {
		return auth.NewManager(store, suffix,
			auth.WithTokenURL(cfg.Ebay.TokenURL),
			auth.WithLogger(log),
		)
	})

	return &app{cfg: cfg, log: log, store: store, registry: registry}, nil
}
