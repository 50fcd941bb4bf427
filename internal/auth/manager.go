// Package auth manages eBay OAuth user tokens: probing validity against
// the live API, refreshing via the long-lived refresh token, and
// persisting results through a credential store.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sburl/ebay-oauth-go/internal/credstore"
	"github.com/sburl/ebay-oauth-go/internal/metrics"
	"github.com/sburl/ebay-oauth-go/pkg/logger"
)

const (
	// DefaultTokenURL is eBay's OAuth2 token endpoint.
	DefaultTokenURL = "https://api.ebay.com/identity/v1/oauth2/token" //nolint:gosec // not a credential
	// DefaultProbeURL is the cheap authenticated read used to test token
	// validity.
	DefaultProbeURL = "https://api.ebay.com/buy/browse/v1/item/get_item_by_legacy_id"

	defaultMarketplace = "EBAY_US"

	// probeItemID is a known-dummy legacy item id; the probe only cares
	// whether the response is a 401, not whether the item exists.
	probeItemID = "123456789"
)

// RefreshScopes is the fixed scope set requested on every token refresh.
var RefreshScopes = []string{
	"https://api.ebay.com/oauth/api_scope",
	"https://api.ebay.com/oauth/api_scope/buy.order",
	"https://api.ebay.com/oauth/api_scope/sell.marketing.readonly",
	"https://api.ebay.com/oauth/api_scope/sell.inventory.readonly",
	"https://api.ebay.com/oauth/api_scope/sell.account.readonly",
}

// ErrRefreshFailed reports that the vendor declined or failed the refresh
// exchange. It is expected and recoverable (retry later), not fatal.
var ErrRefreshFailed = errors.New("token refresh failed")

// TokenPair is the vendor token endpoint response.
type TokenPair struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int    `json:"expires_in"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in"`
}

// Manager handles token validity and refresh for a single account suffix.
// Probe/refresh for one Manager is serialized by a mutex; concurrent
// processes sharing the same credential store remain last-write-wins.
type Manager struct {
	store       credstore.Store
	suffix      string
	appID       string
	secret      string
	tokenURL    string
	probeURL    string
	marketplace string
	scopes      []string
	client      *http.Client
	probeClient *http.Client
	log         *slog.Logger

	mu sync.Mutex
}

// Option configures the Manager.
type Option func(*Manager)

// WithTokenURL overrides the default token endpoint.
func WithTokenURL(u string) Option {
	return func(m *Manager) { m.tokenURL = u }
}

// WithProbeURL overrides the default validity-probe endpoint.
func WithProbeURL(u string) Option {
	return func(m *Manager) { m.probeURL = u }
}

// WithHTTPClient overrides the HTTP client used for token calls.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithProbeHTTPClient overrides the HTTP client used for validity probes.
func WithProbeHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.probeClient = c }
}

// WithLogger overrides the default (discarding) logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithScopes overrides the refresh scope list.
func WithScopes(scopes []string) Option {
	return func(m *Manager) { m.scopes = scopes }
}

// NewManager creates a Manager for the given account suffix. It fails fast
// with credstore.ErrMissingCredential when the app id or client secret is
// absent from the store.
func NewManager(store credstore.Store, suffix string, opts ...Option) (*Manager, error) {
	creds, err := credstore.Load(store, suffix)
	if err != nil {
		return nil, fmt.Errorf("configuring account %q: %w", suffix, err)
	}

	m := &Manager{
		store:       store,
		suffix:      suffix,
		appID:       creds.AppID,
		secret:      creds.ClientSecret,
		tokenURL:    DefaultTokenURL,
		probeURL:    DefaultProbeURL,
		marketplace: defaultMarketplace,
		scopes:      RefreshScopes,
		client:      &http.Client{Timeout: 30 * time.Second},
		probeClient: &http.Client{Timeout: 10 * time.Second},
		log:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Suffix returns the account suffix this Manager serves.
func (m *Manager) Suffix() string { return m.suffix }

// AccessToken returns the stored access token for this account.
func (m *Manager) AccessToken() (string, bool) {
	return m.store.Get(credstore.Key(credstore.KeyUserToken, m.suffix))
}

func (m *Manager) refreshToken() (string, bool) {
	return m.store.Get(credstore.Key(credstore.KeyRefreshToken, m.suffix))
}

// Probe reports whether token is accepted by the API. Only a 401 marks the
// token invalid. Any transport failure (timeout, connection error) is
// treated as valid: a flaky network must not trigger a refresh storm, at
// the cost of masking an actually-expired token until a real call fails.
func (m *Manager) Probe(ctx context.Context, token string) bool {
	reqURL := m.probeURL + "?" + url.Values{"legacy_item_id": {probeItemID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return true
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", m.marketplace)
	req.Header.Set("Accept", "application/json")

	resp, err := m.probeClient.Do(req)
	if err != nil {
		m.log.Debug("token probe network error, assuming valid", "error", err)
		metrics.TokenProbesTotal.WithLabelValues("network_error").Inc()
		return true
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		metrics.TokenProbesTotal.WithLabelValues("invalid").Inc()
		return false
	}
	metrics.TokenProbesTotal.WithLabelValues("valid").Inc()
	return true
}

// Refresh exchanges refreshToken for a new token pair. Any non-2xx status
// or transport failure yields an error wrapping ErrRefreshFailed.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("scope", strings.Join(m.scopes, " "))

	pair, err := m.requestToken(ctx, form)
	if err != nil {
		metrics.TokenRefreshFailuresTotal.Inc()
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	metrics.TokenRefreshesTotal.Inc()
	return pair, nil
}

// ExchangeCode swaps an authorization code for the initial token pair
// (one-time bootstrap). redirectURI must match the one used on the
// authorization URL.
func (m *Manager) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	pair, err := m.requestToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return pair, nil
}

// SaveTokens persists the pair through the credential store. The access
// token is always written; the stored refresh token is overwritten only
// when the vendor actually returned a new one (rotation is possible but
// not guaranteed).
func (m *Manager) SaveTokens(pair *TokenPair) error {
	if pair.AccessToken != "" {
		key := credstore.Key(credstore.KeyUserToken, m.suffix)
		if err := m.store.Set(key, pair.AccessToken); err != nil {
			return fmt.Errorf("saving access token: %w", err)
		}
	}
	if pair.RefreshToken != "" {
		key := credstore.Key(credstore.KeyRefreshToken, m.suffix)
		if err := m.store.Set(key, pair.RefreshToken); err != nil {
			return fmt.Errorf("saving refresh token: %w", err)
		}
	}
	return nil
}

// EnsureValid makes sure the stored access token is usable, refreshing it
// through the stored refresh token when the API rejects it. It returns
// false when no token exists, no refresh token exists, or the refresh
// exchange fails — all expected, recoverable conditions.
func (m *Manager) EnsureValid(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.AccessToken()
	if !ok {
		m.log.Warn("no access token stored", "account", m.suffix)
		return false
	}

	if m.Probe(ctx, token) {
		return true
	}

	m.log.Info("access token rejected, refreshing", "account", m.suffix)

	refreshToken, ok := m.refreshToken()
	if !ok {
		m.log.Warn("no refresh token stored", "account", m.suffix)
		return false
	}

	pair, err := m.Refresh(ctx, refreshToken)
	if err != nil {
		m.log.Warn("token refresh failed", "account", m.suffix, "error", err)
		return false
	}

	if err := m.SaveTokens(pair); err != nil {
		m.log.Error("persisting refreshed tokens failed", "account", m.suffix, "error", err)
		return false
	}

	m.log.Info("token refreshed", "account", m.suffix, "expires_in", pair.ExpiresIn)
	return true
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (m *Manager) requestToken(ctx context.Context, form url.Values) (*TokenPair, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	creds := base64.StdEncoding.EncodeToString([]byte(m.appID + ":" + m.secret))
	req.Header.Set("Authorization", "Basic "+creds)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp tokenErrorResponse
		_ = json.Unmarshal(body, &errResp) //nolint:errcheck // best-effort error parsing
		return nil, fmt.Errorf(
			"token request failed (status %d): %s - %s",
			resp.StatusCode,
			errResp.Error,
			errResp.ErrorDescription,
		)
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	if pair.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &pair, nil
}
