// Package credstore persists named credential key-value pairs (app id,
// client secret, access and refresh tokens) with optional per-account
// suffixing, backed by either a dotenv file or a SQLite database.
package credstore

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Credential key bases. For a non-empty account suffix the stored key is
// "{BASE}_{SUFFIX}"; the empty suffix addresses the default account.
const (
	KeyAppID        = "EBAY_APP_ID"
	KeyClientSecret = "EBAY_CLIENT_SECRET"
	KeyUserToken    = "EBAY_USER_TOKEN"
	KeyRefreshToken = "EBAY_REFRESH_TOKEN"

	// KeySalesTaxRate is an optional numeric config key, never suffixed.
	KeySalesTaxRate = "SALES_TAX_RATE"
)

// ErrMissingCredential reports required credentials absent from the store.
// It is a configuration failure, distinct from runtime API errors.
var ErrMissingCredential = errors.New("missing credential")

// Store is the key-value persistence contract. Implementations are not
// safe against concurrent external writers; last write wins.
type Store interface {
	// Get returns the value for key and whether it was present and non-empty.
	Get(key string) (string, bool)
	// Set writes key=value, creating the key if needed.
	Set(key, value string) error
}

// Key derives the stored key name for a base and account suffix.
func Key(base, suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return base
	}
	return base + "_" + suffix
}

// Credentials is one account's credential set.
type Credentials struct {
	AppID        string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// Load reads the credential set for the given account suffix. AppID and
// ClientSecret are required; tokens may be empty (e.g. before the first
// authorization).
func Load(s Store, suffix string) (Credentials, error) {
	var c Credentials
	var ok bool

	if c.AppID, ok = s.Get(Key(KeyAppID, suffix)); !ok {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredential, Key(KeyAppID, suffix))
	}
	if c.ClientSecret, ok = s.Get(Key(KeyClientSecret, suffix)); !ok {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredential, Key(KeyClientSecret, suffix))
	}

	c.AccessToken, _ = s.Get(Key(KeyUserToken, suffix))
	c.RefreshToken, _ = s.Get(Key(KeyRefreshToken, suffix))
	return c, nil
}

// SalesTaxRate returns the configured sales tax rate, defaulting to 0.0
// when the key is absent or unparseable (logged at warn).
func SalesTaxRate(s Store, log *slog.Logger) float64 {
	raw, ok := s.Get(KeySalesTaxRate)
	if !ok {
		return 0.0
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		log.Warn("invalid sales tax rate, using 0.0", "value", raw, "error", err)
		return 0.0
	}
	return rate
}

// Open constructs a Store for the configured backend ("env" or "sqlite").
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "env":
		return NewEnvStore(path), nil
	case "sqlite":
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown credential backend %q", backend)
	}
}
