package browse

import "fmt"

// ErrorKind classifies API failures. The retry loop operates on these
// tags rather than on raw HTTP statuses.
type ErrorKind int

// API failure classifications.
const (
	// KindGeneric covers other 4xx statuses, exhausted 5xx/transport
	// retries, and unexpected failures.
	KindGeneric ErrorKind = iota
	// KindUnauthorized is a 401: the token is bad, refresh is the remedy,
	// never retried.
	KindUnauthorized
	// KindItemNotFound is a 404: terminal for this item id.
	KindItemNotFound
	// KindRateLimited is a 429 that survived backoff retries.
	KindRateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindItemNotFound:
		return "item_not_found"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "generic"
	}
}

// APIError is a classified eBay API failure carrying the item id and HTTP
// context. It is returned, never swallowed, once classification completes.
type APIError struct {
	Kind    ErrorKind
	ItemID  string
	Status  int
	Message string
	// cause is the wrapped transport error, if any.
	cause error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ebay api %s: item %s: status %d: %s",
			e.Kind, e.ItemID, e.Status, e.Message)
	}
	return fmt.Sprintf("ebay api %s: item %s: %s", e.Kind, e.ItemID, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// maxBodyInError bounds how much response body ends up in error messages.
const maxBodyInError = 100

func truncateBody(body []byte) string {
	if len(body) <= maxBodyInError {
		return string(body)
	}
	return string(body[:maxBodyInError]) + "..."
}
