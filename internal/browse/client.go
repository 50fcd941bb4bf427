// Package browse fetches eBay listing details through the Browse API and
// exposes them as normalized listing records. It owns item-id extraction
// from listing URLs, HTTP outcome classification with retry/backoff, and
// item-group resolution.
package browse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sburl/ebay-oauth-go/internal/metrics"
	"github.com/sburl/ebay-oauth-go/internal/normalize"
	"github.com/sburl/ebay-oauth-go/pkg/logger"
	"github.com/sburl/ebay-oauth-go/pkg/types"
)

const (
	defaultBaseURL     = "https://api.ebay.com/buy/browse/v1"
	defaultMarketplace = "EBAY_US"
	defaultFieldgroups = "PRODUCT,ADDITIONAL_SELLER_DETAILS"

	// Access tokens live ~7200s; refresh proactively after 5400s.
	defaultRefreshThreshold = 5400 * time.Second

	defaultMaxRetries = 3

	// groupErrorID is eBay's "this is an item group" error id on a 400
	// response: the listing has variations and must be resolved to a
	// concrete member item.
	groupErrorID = 11006
)

// TokenProvider supplies a valid bearer token for API calls.
type TokenProvider interface {
	// EnsureValid makes the stored token usable, refreshing if needed.
	EnsureValid(ctx context.Context) bool
	// AccessToken returns the stored token.
	AccessToken() (string, bool)
}

// Client fetches item details from the eBay Browse API.
type Client struct {
	tokens      TokenProvider
	baseURL     string
	marketplace string
	client      *http.Client
	limiter     *RateLimiter
	maxRetries  int
	taxRate     float64
	log         *slog.Logger

	sleep   func(time.Duration)
	nowFunc func() time.Time

	// tokenFreshAt is when the token was last validated; calls past the
	// refresh threshold re-run EnsureValid first.
	tokenFreshAt time.Time
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the default Browse API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithMarketplace overrides the default marketplace header.
func WithMarketplace(m string) ClientOption {
	return func(c *Client) { c.marketplace = m }
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// WithRateLimiter injects a limiter consulted before every API call.
func WithRateLimiter(r *RateLimiter) ClientOption {
	return func(c *Client) { c.limiter = r }
}

// WithMaxRetries overrides the retry ceiling for 429/5xx/transport errors.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithSalesTaxRate sets the tax rate applied during normalization.
func WithSalesTaxRate(rate float64) ClientOption {
	return func(c *Client) { c.taxRate = rate }
}

// WithLogger overrides the default (discarding) logger.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithSleepFunc overrides the backoff sleep for testing.
func WithSleepFunc(f func(time.Duration)) ClientOption {
	return func(c *Client) { c.sleep = f }
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) ClientOption {
	return func(c *Client) { c.nowFunc = f }
}

// NewClient creates a Browse API client authenticated by tokens.
func NewClient(tokens TokenProvider, opts ...ClientOption) *Client {
	c := &Client{
		tokens:      tokens,
		baseURL:     defaultBaseURL,
		marketplace: defaultMarketplace,
		client:      &http.Client{Timeout: 30 * time.Second},
		maxRetries:  defaultMaxRetries,
		log:         logger.Discard(),
		sleep:       time.Sleep,
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchListing resolves a listing URL to its normalized record: extract
// the item id, fetch details (following any item-group redirect), and
// normalize. The returned record is owned by the caller and never cached.
func (c *Client) FetchListing(ctx context.Context, listingURL string) (*types.ListingRecord, error) {
	start := c.nowFunc()

	itemID := ExtractItemID(listingURL)
	if itemID == "" {
		return nil, fmt.Errorf("no item id in url %q", listingURL)
	}

	payload, err := c.GetItemDetails(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("no data for item %s", itemID)
	}

	record := normalize.Normalize(payload, listingURL, c.taxRate)
	if record.ItemID == "" {
		record.ItemID = itemID
	}

	metrics.FetchDuration.Observe(c.nowFunc().Sub(start).Seconds())
	return record, nil
}

// GetItemDetails fetches the raw item-detail payload for a legacy item id.
//
// Outcome policy: 200 returns the payload; 401 and 404 fail immediately
// (Unauthorized / ItemNotFound); 429 retries with 2^attempt*2s backoff then
// fails RateLimited; a 400 carrying vendor error id 11006 redirects to
// item-group resolution; other 4xx fail Generic with the status and a
// truncated body; 5xx and transport errors retry with 2^attempt backoff
// then fail Generic. A (nil, nil) return means an item group with no
// resolvable member: no data, but not an API error.
func (c *Client) GetItemDetails(ctx context.Context, itemID string) (map[string]any, error) {
	if err := c.ensureToken(ctx, itemID); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + "/item/get_item_by_legacy_id?" + url.Values{
		"legacy_item_id": {itemID},
		"fieldgroups":    {defaultFieldgroups},
	}.Encode()

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		status, body, err := c.doGet(ctx, reqURL)
		if err != nil {
			if errors.Is(err, ErrDailyLimitReached) || ctx.Err() != nil {
				return nil, &APIError{
					Kind:    KindGeneric,
					ItemID:  itemID,
					Message: "request aborted",
					cause:   err,
				}
			}
			if !c.backoff(attempt, time.Duration(1<<attempt)*time.Second, "transport") {
				return nil, &APIError{
					Kind:    KindGeneric,
					ItemID:  itemID,
					Message: "request failed after retries",
					cause:   err,
				}
			}
			continue
		}

		switch {
		case status == http.StatusOK:
			var payload map[string]any
			if err := json.Unmarshal(body, &payload); err != nil {
				return nil, &APIError{
					Kind:    KindGeneric,
					ItemID:  itemID,
					Status:  status,
					Message: "parsing item response",
					cause:   err,
				}
			}
			return payload, nil

		case status == http.StatusUnauthorized:
			return nil, &APIError{
				Kind:    KindUnauthorized,
				ItemID:  itemID,
				Status:  status,
				Message: truncateBody(body),
			}

		case status == http.StatusNotFound:
			return nil, &APIError{
				Kind:    KindItemNotFound,
				ItemID:  itemID,
				Status:  status,
				Message: truncateBody(body),
			}

		case status == http.StatusTooManyRequests:
			if !c.backoff(attempt, time.Duration(1<<attempt)*2*time.Second, "rate_limited") {
				return nil, &APIError{
					Kind:    KindRateLimited,
					ItemID:  itemID,
					Status:  status,
					Message: truncateBody(body),
				}
			}

		case status == http.StatusBadRequest && hasVendorError(body, groupErrorID):
			c.log.Debug("item is a group listing, resolving", "item_id", itemID)
			return c.ResolveItemGroup(ctx, itemID)

		case status >= 400 && status < 500:
			return nil, &APIError{
				Kind:    KindGeneric,
				ItemID:  itemID,
				Status:  status,
				Message: truncateBody(body),
			}

		default: // 5xx
			if !c.backoff(attempt, time.Duration(1<<attempt)*time.Second, "server_error") {
				return nil, &APIError{
					Kind:    KindGeneric,
					ItemID:  itemID,
					Status:  status,
					Message: truncateBody(body),
				}
			}
		}
	}

	// Unreachable: the final attempt always returns above.
	return nil, &APIError{Kind: KindGeneric, ItemID: itemID, Message: "retries exhausted"}
}

// ResolveItemGroup resolves an item-group id to the payload of its first
// concrete member. A group with no members, or a failed search call,
// returns (nil, nil): that is "no data", not an API error. When the first
// summary carries its own legacy item id, the full details are fetched for
// it (with this call's own retry budget).
func (c *Client) ResolveItemGroup(ctx context.Context, groupID string) (map[string]any, error) {
	reqURL := c.baseURL + "/item_summary/search?" + url.Values{
		"item_group_id": {groupID},
		"fieldgroups":   {defaultFieldgroups},
	}.Encode()

	status, body, err := c.doGet(ctx, reqURL)
	if err != nil || status != http.StatusOK {
		c.log.Warn("item group search failed", "group_id", groupID,
			"status", status, "error", err)
		return nil, nil
	}

	var result struct {
		ItemSummaries []map[string]any `json:"itemSummaries"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		c.log.Warn("parsing item group response failed", "group_id", groupID, "error", err)
		return nil, nil
	}
	if len(result.ItemSummaries) == 0 {
		return nil, nil
	}

	first := result.ItemSummaries[0]
	if legacyID, ok := first["legacyItemId"].(string); ok && legacyID != "" {
		return c.GetItemDetails(ctx, legacyID)
	}
	return first, nil
}

// backoff sleeps before the next retry and reports whether another
// attempt remains.
func (c *Client) backoff(attempt int, delay time.Duration, reason string) bool {
	if attempt >= c.maxRetries-1 {
		return false
	}
	metrics.APIRetriesTotal.WithLabelValues(reason).Inc()
	c.log.Debug("retrying request", "reason", reason, "delay", delay, "attempt", attempt)
	c.sleep(delay)
	return true
}

func (c *Client) ensureToken(ctx context.Context, itemID string) error {
	if c.tokenFreshAt.IsZero() || c.nowFunc().Sub(c.tokenFreshAt) > defaultRefreshThreshold {
		if !c.tokens.EnsureValid(ctx) {
			return &APIError{
				Kind:    KindUnauthorized,
				ItemID:  itemID,
				Message: "unable to obtain a valid access token",
			}
		}
		c.tokenFreshAt = c.nowFunc()
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, reqURL string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.RateLimitHitsTotal.Inc()
			return 0, nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	metrics.APICallsTotal.Inc()

	token, ok := c.tokens.AccessToken()
	if !ok {
		return 0, nil, fmt.Errorf("no access token available")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplace)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// hasVendorError reports whether the error body carries the given eBay
// error id.
func hasVendorError(body []byte, errorID int) bool {
	var resp struct {
		Errors []struct {
			ErrorID int `json:"errorId"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return false
	}
	for _, e := range resp.Errors {
		if e.ErrorID == errorID {
			return true
		}
	}
	return false
}
