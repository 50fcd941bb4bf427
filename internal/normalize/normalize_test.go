package normalize_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sburl/ebay-oauth-go/internal/normalize"
	"github.com/sburl/ebay-oauth-go/pkg/types"
)

const testURL = "https://www.ebay.com/itm/123456789012"

func TestNormalize_PricingScenarios(t *testing.T) {
	t.Parallel()

	t.Run("international with explicit import duty and tax", func(t *testing.T) {
		t.Parallel()

		payload := map[string]any{
			"title": "Camera lens",
			"price": map[string]any{"value": "100.00", "currency": "USD"},
			"shippingOptions": []any{
				map[string]any{
					"shippingCost":     map[string]any{"value": "10.00"},
					"shippingCostType": "FIXED",
				},
			},
			"itemLocation": map[string]any{"country": "JP"},
			"importDuty": map[string]any{
				"amount": map[string]any{"value": "11.00"},
			},
		}

		r := normalize.Normalize(payload, testURL, 0.08)

		assert.InDelta(t, 100.0, r.ItemPrice, 1e-9)
		assert.InDelta(t, 10.0, r.ShippingCost, 1e-9)
		assert.InDelta(t, 11.0, r.ImportCharges, 1e-9)
		assert.InDelta(t, 9.68, r.SalesTax, 1e-9)
		assert.InDelta(t, 130.68, r.Price, 1e-9)
		assert.Equal(t, "JP", r.ShipFromCountry)
	})

	t.Run("international without explicit duty estimates ten percent", func(t *testing.T) {
		t.Parallel()

		payload := map[string]any{
			"price": map[string]any{"value": "100.00"},
			"shippingOptions": []any{
				map[string]any{
					"shippingCost":     map[string]any{"value": "20.00"},
					"shippingCostType": "FIXED",
				},
			},
			"itemLocation": map[string]any{"country": "JP"},
		}

		r := normalize.Normalize(payload, testURL, 0.0)

		assert.InDelta(t, 12.0, r.ImportCharges, 1e-9) // 10% of 120
		assert.InDelta(t, 132.0, r.Price, 1e-9)
	})

	t.Run("domestic has no import charges", func(t *testing.T) {
		t.Parallel()

		payload := map[string]any{
			"price":        map[string]any{"value": "50.00"},
			"itemLocation": map[string]any{"country": "US"},
		}

		r := normalize.Normalize(payload, testURL, 0.0)
		assert.Zero(t, r.ImportCharges)
	})
}

// TestNormalize_PriceInvariant checks price == item + shipping + import + tax
// over a spread of payload shapes.
func TestNormalize_PriceInvariant(t *testing.T) {
	t.Parallel()

	payloads := []map[string]any{
		{},
		{"price": map[string]any{"value": "19.99"}},
		{
			"price":        map[string]any{"value": 250.0},
			"itemLocation": map[string]any{"country": "DE"},
		},
		{
			"title": "thing, $7.50 shipping included",
			"price": map[string]any{"value": "42.00"},
		},
		{
			"price": map[string]any{"value": "1.00"},
			"shippingOptions": []any{
				map[string]any{"shippingCost": map[string]any{"value": "99.99"}, "shippingCostType": "FIXED"},
			},
			"importDuty": map[string]any{"amount": map[string]any{"value": 3.5}},
		},
	}

	for i, payload := range payloads {
		t.Run(fmt.Sprintf("payload_%d", i), func(t *testing.T) {
			t.Parallel()
			for _, rate := range []float64{0.0, 0.08, 0.0975} {
				r := normalize.Normalize(payload, testURL, rate)
				assert.InDelta(t,
					r.ItemPrice+r.ShippingCost+r.ImportCharges+r.SalesTax,
					r.Price, 1e-9)
				assert.GreaterOrEqual(t, r.ItemPrice, 0.0)
				assert.GreaterOrEqual(t, r.ShippingCost, 0.0)
				assert.GreaterOrEqual(t, r.ImportCharges, 0.0)
				assert.GreaterOrEqual(t, r.SalesTax, 0.0)
			}
		})
	}
}

func TestNormalize_Images(t *testing.T) {
	t.Parallel()

	t.Run("primary first then additional capped at 24", func(t *testing.T) {
		t.Parallel()

		additional := make([]any, 30)
		for i := range additional {
			additional[i] = map[string]any{"imageUrl": fmt.Sprintf("https://i.ebayimg.com/%d.jpg", i)}
		}
		payload := map[string]any{
			"image":            map[string]any{"imageUrl": "https://i.ebayimg.com/primary.jpg"},
			"additionalImages": additional,
		}

		r := normalize.Normalize(payload, testURL, 0)

		require.Len(t, r.Images, types.MaxImages)
		assert.Equal(t, "https://i.ebayimg.com/primary.jpg", r.Images[0])
		assert.Equal(t, "https://i.ebayimg.com/0.jpg", r.Images[1])
		assert.Equal(t, "https://i.ebayimg.com/22.jpg", r.Images[23])
	})

	t.Run("no images", func(t *testing.T) {
		t.Parallel()
		r := normalize.Normalize(map[string]any{}, testURL, 0)
		assert.Empty(t, r.Images)
	})
}

func TestNormalize_Fields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload map[string]any
		check   func(t *testing.T, r *types.ListingRecord)
	}{
		{
			name:    "condition flat string",
			payload: map[string]any{"condition": "Used"},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "Used", r.Condition)
			},
		},
		{
			name: "condition object unwrapped",
			payload: map[string]any{
				"condition": map[string]any{"conditionDisplayName": "New other"},
			},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "New other", r.Condition)
			},
		},
		{
			name:    "brand top level",
			payload: map[string]any{"brand": "Samsung"},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "Samsung", r.Brand)
			},
		},
		{
			name: "brand from localized aspects",
			payload: map[string]any{
				"localizedAspects": []any{
					map[string]any{"name": "Capacity", "value": "32GB"},
					map[string]any{"name": "Brand", "value": "Hynix"},
				},
			},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "Hynix", r.Brand)
			},
		},
		{
			name: "description falls back to shortDescription",
			payload: map[string]any{
				"shortDescription": "short text",
			},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "short text", r.Description)
			},
		},
		{
			name: "seller defaults",
			payload: map[string]any{
				"seller": map[string]any{},
			},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "Unknown", r.SellerName)
				assert.Nil(t, r.SellerRating)
			},
		},
		{
			name: "seller with feedback score",
			payload: map[string]any{
				"seller": map[string]any{"username": "deals4u", "feedbackScore": 1523.0},
			},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "deals4u", r.SellerName)
				require.NotNil(t, r.SellerRating)
				assert.InDelta(t, 1523.0, *r.SellerRating, 1e-9)
			},
		},
		{
			name:    "category path preferred",
			payload: map[string]any{"categoryPath": "Computers/Memory", "categoryId": "170083"},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "Computers/Memory", r.CategoryID)
			},
		},
		{
			name:    "numeric category id stringified",
			payload: map[string]any{"categoryId": 170083.0},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "170083", r.CategoryID)
			},
		},
		{
			name:    "buying options drive type and offers",
			payload: map[string]any{"buyingOptions": []any{"AUCTION", "BEST_OFFER"}},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "AUCTION", r.ListingType)
				assert.True(t, r.AcceptsOffers)
			},
		},
		{
			name:    "default listing type",
			payload: map[string]any{},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "FIXED_PRICE", r.ListingType)
				assert.False(t, r.AcceptsOffers)
			},
		},
		{
			name:    "default currency",
			payload: map[string]any{"price": map[string]any{"value": "5.00"}},
			check: func(t *testing.T, r *types.ListingRecord) {
				assert.Equal(t, "USD", r.Currency)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.check(t, normalize.Normalize(tt.payload, testURL, 0))
		})
	}
}

func TestNormalize_ReturnPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		terms      any
		wantText   string
		wantPeriod string
		accepted   bool
	}{
		{
			name: "accepted with period",
			terms: map[string]any{
				"returnsAccepted": true,
				"returnPeriod":    map[string]any{"value": 30.0, "unit": "DAY"},
			},
			accepted:   true,
			wantPeriod: "30 DAY",
			wantText:   "Returns accepted (30 DAY)",
		},
		{
			name:     "accepted without period",
			terms:    map[string]any{"returnsAccepted": true},
			accepted: true,
			wantText: "Returns accepted",
		},
		{
			name:     "not accepted",
			terms:    map[string]any{"returnsAccepted": false},
			wantText: "No returns",
		},
		{
			name:     "missing terms",
			terms:    nil,
			wantText: "No returns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload := map[string]any{}
			if tt.terms != nil {
				payload["returnTerms"] = tt.terms
			}

			r := normalize.Normalize(payload, testURL, 0)
			assert.Equal(t, tt.accepted, r.ReturnsAccepted)
			assert.Equal(t, tt.wantText, r.ReturnPolicyText)
			assert.Equal(t, tt.wantPeriod, r.ReturnPeriod)
		})
	}
}
