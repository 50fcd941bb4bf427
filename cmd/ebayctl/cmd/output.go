package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sburl/ebay-oauth-go/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printListingDetail(r *types.ListingRecord) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Item:\t%s\n", r.ItemID)
	tw.writef("Title:\t%s\n", truncate(r.Title, 70))
	tw.writef("Condition:\t%s\n", r.Condition)
	if r.Brand != "" {
		tw.writef("Brand:\t%s\n", r.Brand)
	}
	tw.writef("Item price:\t%.2f %s\n", r.ItemPrice, r.Currency)
	tw.writef("Shipping:\t%.2f (%s)\n", r.ShippingCost, r.Shipping)
	tw.writef("Import charges:\t%.2f\n", r.ImportCharges)
	tw.writef("Sales tax:\t%.2f\n", r.SalesTax)
	tw.writef("Total:\t%.2f %s\n", r.Price, r.Currency)
	tw.writef("Ships from:\t%s\n", r.ShipFromCountry)
	seller := r.SellerName
	if r.SellerRating != nil {
		seller = fmt.Sprintf("%s (%.0f)", seller, *r.SellerRating)
	}
	tw.writef("Seller:\t%s\n", seller)
	tw.writef("Type:\t%s\n", r.ListingType)
	tw.writef("Accepts offers:\t%v\n", r.AcceptsOffers)
	tw.writef("Returns:\t%s\n", r.ReturnPolicyText)
	tw.writef("Images:\t%d\n", len(r.Images))
	tw.writef("URL:\t%s\n", r.URL)
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return strings.TrimSpace(s[:maxLen-3]) + "..."
}
