package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and refresh the stored access token",
	}
	cmd.AddCommand(tokenStatusCmd())
	cmd.AddCommand(tokenRefreshCmd())
	return cmd
}

func tokenStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe whether the stored access token is accepted by the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			mgr, err := a.registry.ForAccount(accountSuffix())
			if err != nil {
				return err
			}

			token, ok := mgr.AccessToken()
			if !ok {
				return fmt.Errorf("no access token stored for account %q", accountSuffix())
			}

			if mgr.Probe(cmd.Context(), token) {
				fmt.Println("token is valid")
				return nil
			}
			fmt.Println("token is invalid or expired")
			return nil
		},
	}
}

func tokenRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ensure the stored access token is valid, refreshing if needed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			mgr, err := a.registry.ForAccount(accountSuffix())
			if err != nil {
				return err
			}

			if !mgr.EnsureValid(cmd.Context()) {
				return fmt.Errorf("could not obtain a valid token for account %q", accountSuffix())
			}
			fmt.Println("token is valid")
			return nil
		},
	}
}
