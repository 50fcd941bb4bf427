package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sburl/ebay-oauth-go/internal/bootstrap"
	"github.com/sburl/ebay-oauth-go/internal/credstore"
)

func loginCmd() *cobra.Command {
	var listen bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Run the one-time authorization flow to obtain tokens",
		Long: "Opens the eBay consent page in a browser and exchanges the resulting\n" +
			"authorization code for an access/refresh token pair, stored through the\n" +
			"credential store. By default the code (or the full redirect URL) is\n" +
			"pasted manually; with --listen a loopback callback server captures it.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			suffix := accountSuffix()
			mgr, err := a.registry.ForAccount(suffix)
			if err != nil {
				return err
			}

			appID, _ := a.store.Get(credstore.Key(credstore.KeyAppID, suffix))
			redirectURI := a.cfg.Ebay.RedirectURI

			var server *bootstrap.CallbackServer
			if listen {
				server, err = bootstrap.NewCallbackServer("127.0.0.1:0")
				if err != nil {
					return err
				}
				defer server.Close(cmd.Context())
				redirectURI = server.URL()
			}

			flow := bootstrap.NewFlow(mgr, appID, a.cfg.Ebay.AuthURL, redirectURI)
			authURL := flow.AuthorizationURL()

			fmt.Println("Opening the authorization page in your browser...")
			if err := bootstrap.OpenBrowser(cmd.Context(), authURL); err != nil {
				fmt.Println("Could not open a browser; visit this URL manually:")
				fmt.Println(authURL)
			}

			var code string
			if listen {
				code, err = server.Wait(cmd.Context(), flow.State(), 5*time.Minute)
				if err != nil {
					return err
				}
			} else {
				fmt.Print("Paste the authorization code (or the full redirect URL): ")
				reader := bufio.NewReader(os.Stdin)
				input, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading input: %w", err)
				}
				code, err = flow.ParseCode(strings.TrimSpace(input))
				if err != nil {
					return err
				}
			}

			pair, err := flow.Exchange(cmd.Context(), code)
			if err != nil {
				return err
			}

			fmt.Printf("Tokens saved. Access token expires in %ds", pair.ExpiresIn)
			if pair.RefreshTokenExpiresIn > 0 {
				days := pair.RefreshTokenExpiresIn / 86400
				fmt.Printf("; refresh token expires in ~%d days", days)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&listen, "listen", false,
		"capture the redirect on a loopback callback server instead of pasting the code")
	return cmd
}
