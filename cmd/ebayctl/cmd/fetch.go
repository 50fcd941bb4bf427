package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sburl/ebay-oauth-go/internal/browse"
	"github.com/sburl/ebay-oauth-go/internal/credstore"
)

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <listing-url>",
		Short: "Fetch a listing by URL and print its normalized record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			mgr, err := a.registry.ForAccount(accountSuffix())
			if err != nil {
				return err
			}

			opts := []browse.ClientOption{
				browse.WithBaseURL(a.cfg.Ebay.BrowseURL),
				browse.WithMarketplace(a.cfg.Ebay.Marketplace),
				browse.WithMaxRetries(a.cfg.Ebay.MaxRetries),
				browse.WithSalesTaxRate(credstore.SalesTaxRate(a.store, a.log)),
				browse.WithLogger(a.log),
			}
			if a.cfg.Ebay.RateLimit.Enabled {
				opts = append(opts, browse.WithRateLimiter(browse.NewRateLimiter(
					a.cfg.Ebay.RateLimit.PerSecond,
					a.cfg.Ebay.RateLimit.Burst,
					a.cfg.Ebay.RateLimit.DailyLimit,
				)))
			}
			client := browse.NewClient(mgr, opts...)

			record, err := client.FetchListing(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(record)
			}
			return printListingDetail(record)
		},
	}
}
