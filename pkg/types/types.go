// Package types defines the domain types shared across ebay-oauth-go.
package types

// ShippingType classifies how a listing's shipping cost was determined.
type ShippingType string

// Shipping cost classifications.
const (
	ShippingFree       ShippingType = "FREE"
	ShippingCalculated ShippingType = "CALCULATED"
	ShippingFixed      ShippingType = "FIXED"
	ShippingUnknown    ShippingType = "Unknown"
)

// MaxImages caps the number of image URLs retained per listing,
// primary image first.
const MaxImages = 24

// ListingRecord is the canonical normalized view of a single eBay listing.
// It is constructed once per fetch, is never persisted, and satisfies
// Price == ItemPrice + ShippingCost + ImportCharges + SalesTax.
type ListingRecord struct {
	URL           string `json:"url"`
	ItemID        string `json:"itemId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Condition     string `json:"condition"`
	Brand         string `json:"brand,omitempty"`
	CategoryID    string `json:"categoryId"`
	ListingType   string `json:"listingType"`
	AcceptsOffers bool   `json:"acceptsOffers"`

	ItemPrice     float64 `json:"itemPrice"`
	ShippingCost  float64 `json:"shippingCost"`
	ImportCharges float64 `json:"importCharges"`
	SalesTax      float64 `json:"salesTax"`
	// Price is the all-in total: item + shipping + import charges + tax.
	Price    float64      `json:"price"`
	Currency string       `json:"currency"`
	Shipping ShippingType `json:"shippingType"`

	// ShipFromCountry is an ISO-ish country code, "US" when unknown.
	ShipFromCountry string `json:"shipFromCountry"`

	SellerName   string   `json:"sellerName"`
	SellerRating *float64 `json:"sellerRating,omitempty"`

	Images []string `json:"images"`

	ReturnsAccepted  bool   `json:"returnsAccepted"`
	ReturnPeriod     string `json:"returnPeriod,omitempty"`
	ReturnPolicyText string `json:"returnPolicyText"`
}
