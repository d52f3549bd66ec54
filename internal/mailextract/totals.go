package mailextract

import (
	"regexp"
	"strconv"
)

// totalsRe matches the labeled totals block contiguously: four amounts, the
// dashed separator, the amount due, and the currency. If any piece is
// absent the whole block fails to match.
var totalsRe = regexp.MustCompile(
	`Subtotal:\s*([\d.]+)\s*` +
		`Discount:\s*([\d.]+)\s*` +
		`Total Tax Amount:\s*([\d.]+)\s*` +
		`Shipping/Handling:\s*([\d.]+)\s*` +
		`-{10,}\s*` +
		`Total Amount Due:\s*([\d.]+)\s*` +
		`Currency:\s*(\w+)`)

// totals carries the six parsed totals fields.
type totals struct {
	Subtotal         float64
	Discount         float64
	TotalTaxAmount   float64
	ShippingHandling float64
	TotalAmountDue   float64
	Currency         string
}

// extractTotals parses the totals block. It is all-or-nothing: a partial
// or non-matching block, or any failed numeric parse, populates none of
// the six fields.
func extractTotals(body string) (totals, bool) {
	m := totalsRe.FindStringSubmatch(body)
	if m == nil {
		return totals{}, false
	}

	nums := make([]float64, 5)
	for i, g := range m[1:6] {
		n, err := strconv.ParseFloat(g, 64)
		if err != nil {
			return totals{}, false
		}
		nums[i] = n
	}

	return totals{
		Subtotal:         nums[0],
		Discount:         nums[1],
		TotalTaxAmount:   nums[2],
		ShippingHandling: nums[3],
		TotalAmountDue:   nums[4],
		Currency:         m[6],
	}, true
}
