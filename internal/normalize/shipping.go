package normalize

import (
	"regexp"
	"strings"

	"github.com/sburl/ebay-oauth-go/pkg/types"
)

// shippingResult is one strategy's verdict.
type shippingResult struct {
	Type types.ShippingType
	Cost float64
}

// shippingStrategy inspects the payload and reports whether it could
// determine the shipping cost. Strategies run in a fixed priority order;
// the first match wins, keeping the fallback chain auditable and
// independently testable.
type shippingStrategy func(payload map[string]any) (shippingResult, bool)

var shippingStrategies = []shippingStrategy{
	shippingFromOptions,
	shippingFromFreeText,
	shippingFromAlternateFields,
	shippingFromTextPatterns,
}

// extractShipping runs the strategy chain; when nothing matches the cost
// is unknown and treated as zero.
func extractShipping(payload map[string]any) shippingResult {
	for _, strategy := range shippingStrategies {
		if res, ok := strategy(payload); ok {
			return res
		}
	}
	return shippingResult{Type: types.ShippingUnknown, Cost: 0.0}
}

// shippingFromOptions uses the first shippingOptions entry: the
// structured, preferred source.
func shippingFromOptions(payload map[string]any) (shippingResult, bool) {
	opts := getSlice(payload, "shippingOptions")
	if len(opts) == 0 {
		return shippingResult{}, false
	}
	first, ok := opts[0].(map[string]any)
	if !ok {
		return shippingResult{}, false
	}

	cost, _ := getFloat(getMap(first, "shippingCost"), "value")
	costType := getString(first, "shippingCostType")

	if strings.EqualFold(costType, "FREE") || cost == 0 {
		return shippingResult{Type: types.ShippingFree, Cost: 0.0}, true
	}
	return shippingResult{Type: normalizeShippingType(costType), Cost: cost}, true
}

// shippingFromFreeText looks for "free shipping" / "free delivery" in the
// title and description.
func shippingFromFreeText(payload map[string]any) (shippingResult, bool) {
	text := strings.ToLower(getString(payload, "title") + " " + getString(payload, "description"))
	if strings.Contains(text, "free shipping") || strings.Contains(text, "free delivery") {
		return shippingResult{Type: types.ShippingFree, Cost: 0.0}, true
	}
	return shippingResult{}, false
}

// Sellers (and older API shapes) stash the cost under several alternate
// field names, flat or nested one level under a cost-like key, which may
// itself hold a money object.
var altShippingFields = []string{"shippingCost", "shipping", "delivery", "shippingInfo", "shippingDetails"}
var altCostKeys = []string{"cost", "value", "amount", "price"}

func shippingFromAlternateFields(payload map[string]any) (shippingResult, bool) {
	for _, field := range altShippingFields {
		v, present := payload[field]
		if !present {
			continue
		}
		if cost, ok := asFloat(v); ok && cost > 0 {
			return shippingResult{Type: types.ShippingCalculated, Cost: cost}, true
		}
		nested, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range altCostKeys {
			inner, present := nested[key]
			if !present {
				continue
			}
			if cost, ok := asFloat(inner); ok && cost > 0 {
				return shippingResult{Type: types.ShippingCalculated, Cost: cost}, true
			}
			if innerMap, ok := inner.(map[string]any); ok {
				if cost, ok := getFloat(innerMap, "value"); ok && cost > 0 {
					return shippingResult{Type: types.ShippingCalculated, Cost: cost}, true
				}
			}
		}
	}
	return shippingResult{}, false
}

// Dollar-amount-near-"shipping" patterns mined from listing text, tried in
// order: "$X shipping", "shipping: $X", "US $X shipping",
// "ground advantage: $X".
var shippingTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$\s*(\d+(?:\.\d{1,2})?)\s+shipping`),
	regexp.MustCompile(`(?i)shipping[:\s]\s*\$\s*(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)us\s+\$\s*(\d+(?:\.\d{1,2})?)\s+shipping`),
	regexp.MustCompile(`(?i)ground\s+advantage[:\s]\s*\$\s*(\d+(?:\.\d{1,2})?)`),
}

func shippingFromTextPatterns(payload map[string]any) (shippingResult, bool) {
	text := getString(payload, "title") + " " +
		getString(payload, "description") + " " +
		getString(payload, "subtitle")

	for _, pattern := range shippingTextPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if cost, ok := asFloat(match[1]); ok {
			return shippingResult{Type: types.ShippingCalculated, Cost: cost}, true
		}
	}
	return shippingResult{}, false
}

func normalizeShippingType(raw string) types.ShippingType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "FREE":
		return types.ShippingFree
	case "FIXED":
		return types.ShippingFixed
	case "CALCULATED", "":
		return types.ShippingCalculated
	default:
		return types.ShippingCalculated
	}
}
