// Package normalize transforms raw eBay item-detail payloads into
// canonical listing records. Every field derivation tolerates missing or
// alternate JSON shapes and defaults locally rather than aborting the
// record.
package normalize

import (
	"fmt"
	"strings"

	"github.com/sburl/ebay-oauth-go/pkg/types"
)

// importDutyEstimateRate estimates import charges for non-US shipments
// when the payload has no explicit duty: 10% of item + shipping.
const importDutyEstimateRate = 0.10

// Normalize builds the canonical record for a raw item-detail payload.
// taxRate is the configured sales tax rate (0.0 when unconfigured); tax is
// applied to the subtotal of item + shipping + import charges, and the
// final Price is subtotal + tax.
func Normalize(payload map[string]any, sourceURL string, taxRate float64) *types.ListingRecord {
	r := &types.ListingRecord{
		URL:    sourceURL,
		ItemID: getString(payload, "legacyItemId"),
	}

	r.Title = getString(payload, "title")
	r.Description = getString(payload, "description")
	if r.Description == "" {
		r.Description = getString(payload, "shortDescription")
	}

	// Price.
	price := getMap(payload, "price")
	r.ItemPrice, _ = getFloat(price, "value")
	r.Currency = "USD"
	if c := getString(price, "currency"); price != nil && c != "" {
		r.Currency = c
	}

	// Shipping, via the strategy chain.
	shipping := extractShipping(payload)
	r.Shipping = shipping.Type
	r.ShippingCost = shipping.Cost

	// Ship-from country.
	r.ShipFromCountry = "US"
	if c := getString(getMapOrEmpty(payload, "itemLocation"), "country"); c != "" {
		r.ShipFromCountry = c
	}

	// Import charges: explicit duty wins; otherwise estimate for
	// international shipments.
	if duty, ok := getFloat(getMap(getMapOrEmpty(payload, "importDuty"), "amount"), "value"); ok {
		r.ImportCharges = duty
	} else if r.ShipFromCountry != "US" {
		r.ImportCharges = importDutyEstimateRate * (r.ItemPrice + r.ShippingCost)
	}

	subtotal := r.ItemPrice + r.ShippingCost + r.ImportCharges
	r.SalesTax = subtotal * taxRate
	r.Price = subtotal + r.SalesTax

	r.Condition = extractCondition(payload)
	r.Brand = extractBrand(payload)
	r.Images = extractImages(payload)
	r.CategoryID = extractCategory(payload)

	// Seller.
	seller := getMapOrEmpty(payload, "seller")
	r.SellerName = "Unknown"
	if name := getString(seller, "username"); name != "" {
		r.SellerName = name
	}
	if score, ok := getFloat(seller, "feedbackScore"); ok {
		r.SellerRating = &score
	}

	// Listing type and offers.
	r.ListingType = "FIXED_PRICE"
	buyingOptions := getSlice(payload, "buyingOptions")
	for i, opt := range buyingOptions {
		s, ok := opt.(string)
		if !ok {
			continue
		}
		if i == 0 {
			r.ListingType = s
		}
		if s == "BEST_OFFER" {
			r.AcceptsOffers = true
		}
	}

	extractReturnPolicy(payload, r)

	return r
}

func getMapOrEmpty(m map[string]any, key string) map[string]any {
	if v := getMap(m, key); v != nil {
		return v
	}
	return map[string]any{}
}

// extractCondition handles both the flat string shape and the object
// wrapper {conditionDisplayName: ...}.
func extractCondition(payload map[string]any) string {
	switch v := payload["condition"].(type) {
	case string:
		return v
	case map[string]any:
		return getString(v, "conditionDisplayName")
	default:
		return ""
	}
}

// extractBrand prefers the top-level field, then scans localizedAspects
// for an aspect named "brand".
func extractBrand(payload map[string]any) string {
	if b := getString(payload, "brand"); b != "" {
		return b
	}
	for _, raw := range getSlice(payload, "localizedAspects") {
		aspect, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if strings.EqualFold(getString(aspect, "name"), "brand") {
			return getString(aspect, "value")
		}
	}
	return ""
}

// extractImages returns the primary image followed by additional images in
// source order, capped at types.MaxImages.
func extractImages(payload map[string]any) []string {
	var images []string
	if u := getString(getMapOrEmpty(payload, "image"), "imageUrl"); u != "" {
		images = append(images, u)
	}
	for _, raw := range getSlice(payload, "additionalImages") {
		img, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if u := getString(img, "imageUrl"); u != "" {
			images = append(images, u)
		}
	}
	if len(images) > types.MaxImages {
		images = images[:types.MaxImages]
	}
	return images
}

// extractCategory prefers categoryPath over categoryId; both stringified.
func extractCategory(payload map[string]any) string {
	if p := getString(payload, "categoryPath"); p != "" {
		return p
	}
	return getString(payload, "categoryId")
}

func extractReturnPolicy(payload map[string]any, r *types.ListingRecord) {
	terms := getMap(payload, "returnTerms")
	accepted, _ := terms["returnsAccepted"].(bool)
	if !accepted {
		r.ReturnPolicyText = "No returns"
		return
	}

	r.ReturnsAccepted = true
	r.ReturnPolicyText = "Returns accepted"

	period := getMap(terms, "returnPeriod")
	value := getString(period, "value")
	unit := getString(period, "unit")
	if period != nil && value != "" && unit != "" {
		r.ReturnPeriod = fmt.Sprintf("%s %s", value, unit)
		r.ReturnPolicyText += fmt.Sprintf(" (%s)", r.ReturnPeriod)
	}
}
