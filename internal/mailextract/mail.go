// Package mailextract pulls invoice data out of raw email text: headers
// (sender, subject) and an embedded tabular invoice in the body (party
// blocks, line-item table, totals block). Extraction never fails; each
// stage degrades independently to null/empty with a diagnostic.
package mailextract

import (
	"regexp"
	"strings"
	"time"

	"github.com/invoflow/invoflow/internal/invoice"
	"github.com/invoflow/invoflow/internal/logger"
)

var (
	senderRe  = regexp.MustCompile(`(?i)(From:|Sender:)\s*([^\n<>]+(?:<[^>]+>)?[^\n]*)`)
	addressRe = regexp.MustCompile(`<([^>]+)>`)
	subjectRe = regexp.MustCompile(`(?i)Subject:\s*(.+)`)
)

// Result is the full email extraction outcome.
type Result struct {
	Sender         *string        `json:"sender"`
	Subject        *string        `json:"subject"`
	InvoiceDetails invoice.Record `json:"invoice_details"`
	CRM            CRMRecord      `json:"crm_record"`
	Diagnostics    []string       `json:"diagnostics,omitempty"`
}

// Extractor parses invoice emails. The zero value is not usable; call New.
type Extractor struct {
	now func() time.Time
}

// Option configures the extractor.
type Option func(*Extractor)

// WithClock overrides the timestamp source used for the CRM
// email_received_at field.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// New creates an email extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the full pipeline over raw email content. It never returns
// an error: missing sections yield nulls and diagnostics.
func (e *Extractor) Extract(emailText string) *Result {
	res := &Result{}

	res.Sender = extractSender(emailText)
	res.Subject = extractSubject(emailText)

	body := splitBody(emailText)
	if looksLikeHTML(body) {
		body = htmlToText(body)
	}

	res.InvoiceDetails, res.Diagnostics = extractInvoiceDetails(body)
	for _, d := range res.Diagnostics {
		logger.Warn("email extraction degraded", "detail", d)
	}

	res.CRM = formatForCRM(res, e.now())
	return res
}

// splitBody returns everything after the first blank line. Input without a
// blank line is treated as all body.
func splitBody(emailText string) string {
	if _, body, ok := strings.Cut(emailText, "\n\n"); ok {
		return body
	}
	return emailText
}

// extractSender matches a From: or Sender: line. An angle-bracketed address
// wins verbatim; otherwise the first whitespace-delimited token of the
// matched text is returned.
func extractSender(emailText string) *string {
	m := senderRe.FindStringSubmatch(emailText)
	if m == nil {
		return nil
	}
	info := strings.TrimSpace(m[2])
	if am := addressRe.FindStringSubmatch(info); am != nil {
		return &am[1]
	}
	if fields := strings.Fields(info); len(fields) > 0 {
		return &fields[0]
	}
	return &info
}

func extractSubject(emailText string) *string {
	m := subjectRe.FindStringSubmatch(emailText)
	if m == nil {
		return nil
	}
	s := strings.TrimSpace(m[1])
	return &s
}

// extractInvoiceDetails runs the independent body stages and collects
// diagnostics for sections that are entirely absent or partially skipped.
func extractInvoiceDetails(body string) (invoice.Record, []string) {
	var rec invoice.Record
	var diags []string

	rec.InvoiceNumber = matchLabeledLine(body, invoiceNumberRe)
	rec.InvoiceDate = extractDate(body)

	rec.Vendor = extractParty(body, sellerBlockRe)
	rec.Customer = extractParty(body, buyerBlockRe)

	items, itemDiags := extractLineItems(body)
	rec.LineItems = items
	diags = append(diags, itemDiags...)

	if totals, ok := extractTotals(body); ok {
		rec.Subtotal = &totals.Subtotal
		rec.Discount = &totals.Discount
		rec.TotalTaxAmount = &totals.TotalTaxAmount
		rec.ShippingHandling = &totals.ShippingHandling
		rec.TotalAmountDue = &totals.TotalAmountDue
		rec.Currency = &totals.Currency
	} else {
		diags = append(diags, "totals block not found or incomplete")
	}

	return rec, diags
}

func matchLabeledLine(body string, re *regexp.Regexp) *string {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	s := strings.TrimSpace(m[1])
	return &s
}
