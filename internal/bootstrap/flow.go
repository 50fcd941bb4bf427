// Package bootstrap implements the one-time interactive authorization-code
// flow that seeds the credential store with the initial access and refresh
// tokens. It is an I/O wrapper around auth.Manager.ExchangeCode; everything
// recurring lives in the auth package.
package bootstrap

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/sburl/ebay-oauth-go/internal/auth"
)

// DefaultAuthURL is eBay's user consent endpoint.
const DefaultAuthURL = "https://auth.ebay.com/oauth2/authorize"

// ConsentScopes is the scope set requested on the authorization URL. It is
// broader than the refresh scope set: consent is granted once, refreshes
// can only narrow it.
var ConsentScopes = []string{
	"https://api.ebay.com/oauth/api_scope",
	"https://api.ebay.com/oauth/api_scope/buy.order",
	"https://api.ebay.com/oauth/api_scope/sell.marketing.readonly",
	"https://api.ebay.com/oauth/api_scope/sell.inventory.readonly",
	"https://api.ebay.com/oauth/api_scope/sell.account.readonly",
	"https://api.ebay.com/oauth/api_scope/sell.fulfillment.readonly",
	"https://api.ebay.com/oauth/api_scope/sell.analytics.readonly",
	"https://api.ebay.com/oauth/api_scope/commerce.identity.readonly",
}

// Flow drives the authorization-code bootstrap for one account.
type Flow struct {
	manager     *auth.Manager
	appID       string
	authURL     string
	redirectURI string
	scopes      []string
	state       string
}

// NewFlow creates a bootstrap flow. redirectURI is the RuName registered
// in the eBay developer account; when empty, the consent page will land on
// an error page whose URL still carries the code for manual pasting.
func NewFlow(manager *auth.Manager, appID, authURL, redirectURI string) *Flow {
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	return &Flow{
		manager:     manager,
		appID:       appID,
		authURL:     authURL,
		redirectURI: redirectURI,
		scopes:      ConsentScopes,
		state:       uuid.NewString(),
	}
}

// State returns the nonce embedded in the authorization URL.
func (f *Flow) State() string { return f.state }

// AuthorizationURL builds the consent URL to open in a browser.
func (f *Flow) AuthorizationURL() string {
	params := url.Values{}
	params.Set("client_id", f.appID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", f.redirectURI)
	params.Set("scope", strings.Join(f.scopes, " "))
	params.Set("state", f.state)
	return f.authURL + "?" + params.Encode()
}

// ParseCode accepts either a bare authorization code or the full redirect
// URL the browser landed on, and returns the URL-decoded code.
func (f *Flow) ParseCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty authorization code")
	}

	if strings.Contains(input, "://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("parsing redirect URL: %w", err)
		}
		code := u.Query().Get("code")
		if code == "" {
			return "", fmt.Errorf("redirect URL has no code parameter")
		}
		return code, nil
	}

	// Pasted codes are often still percent-encoded.
	decoded, err := url.QueryUnescape(input)
	if err != nil {
		return input, nil //nolint:nilerr // keep the raw paste when decoding fails
	}
	return decoded, nil
}

// Exchange swaps the authorization code for tokens and persists them.
func (f *Flow) Exchange(ctx context.Context, code string) (*auth.TokenPair, error) {
	pair, err := f.manager.ExchangeCode(ctx, code, f.redirectURI)
	if err != nil {
		return nil, err
	}
	if err := f.manager.SaveTokens(pair); err != nil {
		return nil, fmt.Errorf("persisting tokens: %w", err)
	}
	return pair, nil
}

// OpenBrowser opens targetURL in the platform browser.
func OpenBrowser(ctx context.Context, targetURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", targetURL)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", targetURL)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", targetURL)
	}
	return cmd.Start()
}
