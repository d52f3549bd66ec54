package mailextract

import (
	"regexp"
	"strings"
	"time"

	"github.com/invoflow/invoflow/internal/invoice"
)

var (
	invoiceNumberRe = regexp.MustCompile(`Invoice Number:\s*(.+)`)
	invoiceDateRe   = regexp.MustCompile(`Invoice Date:\s*(.+)`)

	sellerBlockRe = regexp.MustCompile(`Seller/Vendor:\s*Name:\s*(.+)\s*Address:\s*(.+)\s*Tax ID:\s*(.+)`)
	buyerBlockRe  = regexp.MustCompile(`Buyer/Customer:\s*Name:\s*(.+)\s*Address:\s*(.+)\s*Tax ID:\s*(.+)`)
)

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
}

// extractDate finds the labeled invoice date and normalizes it to
// YYYY-MM-DD. An absent label or unparseable value yields nil.
func extractDate(body string) *string {
	m := invoiceDateRe.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	return NormalizeDate(strings.TrimSpace(m[1]))
}

// NormalizeDate parses a date string against the fixed layout list and
// reformats it as an ISO 8601 calendar date. Unparseable input yields nil.
func NormalizeDate(s string) *string {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			out := d.Format("2006-01-02")
			return &out
		}
	}
	return nil
}

// extractParty matches a three-line labeled block (Name, Address, Tax ID)
// under a party header, across line breaks. Absence yields an empty Party,
// never a nil.
func extractParty(body string, re *regexp.Regexp) invoice.Party {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return invoice.Party{}
	}
	return invoice.Party{
		Name:    strings.TrimSpace(m[1]),
		Address: strings.TrimSpace(m[2]),
		TaxID:   strings.TrimSpace(m[3]),
	}
}
