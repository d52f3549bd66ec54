// Package invoice defines the normalized invoice record shared by all
// extractors, mandatory-field validation, and the canonical downstream
// remap.
package invoice

// Party is a vendor or customer block. All fields are optional and default
// to empty; an absent block is represented by the zero value, never nil.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id"`
}

// LineItem is a single itemized charge. A row is only constructed when all
// four numeric tokens parse; partially populated items are never produced.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
	Tax         float64 `json:"tax"`
}

// Record is the normalized invoice extraction result. Pointer fields are
// tri-state: nil means the source document did not carry the field.
type Record struct {
	InvoiceNumber    *string    `json:"invoice_number"`
	InvoiceDate      *string    `json:"invoice_date"`
	Vendor           Party      `json:"vendor"`
	Customer         Party      `json:"customer"`
	LineItems        []LineItem `json:"line_items"`
	Subtotal         *float64   `json:"subtotal"`
	Discount         *float64   `json:"discount"`
	TotalTaxAmount   *float64   `json:"total_tax_amount"`
	ShippingHandling *float64   `json:"shipping_handling"`
	TotalAmountDue   *float64   `json:"total_amount_due"`
	Currency         *string    `json:"currency"`
}

// Canonical is the fixed downstream schema. Fields are any-typed so absent
// sources serialize as JSON null rather than a zero value.
type Canonical struct {
	InvoiceID any `json:"invoice_id"`
	IssueDate any `json:"issue_date"`
	Vendor    any `json:"vendor"`
	Customer  any `json:"customer"`
	Items     any `json:"items"`
	Total     any `json:"total"`
	Currency  any `json:"currency"`
}
