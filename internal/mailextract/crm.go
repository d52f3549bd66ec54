package mailextract

import (
	"time"

	"github.com/invoflow/invoflow/internal/invoice"
)

const crmNotes = "Invoice details extracted from email body."

// CRMRecord is the flat CRM-style remap of an email extraction. Pointer
// fields serialize as null when the source was absent.
type CRMRecord struct {
	EmailSender      *string            `json:"email_sender"`
	EmailSubject     *string            `json:"email_subject"`
	InvoiceNumber    *string            `json:"invoice_number"`
	InvoiceDate      *string            `json:"invoice_date"`
	VendorName       *string            `json:"vendor_name"`
	VendorAddress    *string            `json:"vendor_address"`
	VendorTaxID      *string            `json:"vendor_tax_id"`
	CustomerName     *string            `json:"customer_name"`
	CustomerAddress  *string            `json:"customer_address"`
	CustomerTaxID    *string            `json:"customer_tax_id"`
	LineItems        []invoice.LineItem `json:"line_items"`
	Subtotal         *float64           `json:"subtotal"`
	Discount         *float64           `json:"discount"`
	TotalTaxAmount   *float64           `json:"total_tax_amount"`
	ShippingHandling *float64           `json:"shipping_handling"`
	TotalAmountDue   *float64           `json:"total_amount_due"`
	Currency         *string            `json:"currency"`
	EmailReceivedAt  string             `json:"email_received_at"`
	Status           string             `json:"status"`
	AssignedTo       *string            `json:"assigned_to"`
	Notes            string             `json:"notes"`
}

// formatForCRM flattens the nested extraction into the fixed CRM shape,
// stamping the receive time and the constant status/notes fields.
func formatForCRM(res *Result, receivedAt time.Time) CRMRecord {
	det := res.InvoiceDetails
	return CRMRecord{
		EmailSender:      res.Sender,
		EmailSubject:     res.Subject,
		InvoiceNumber:    det.InvoiceNumber,
		InvoiceDate:      det.InvoiceDate,
		VendorName:       nonEmpty(det.Vendor.Name),
		VendorAddress:    nonEmpty(det.Vendor.Address),
		VendorTaxID:      nonEmpty(det.Vendor.TaxID),
		CustomerName:     nonEmpty(det.Customer.Name),
		CustomerAddress:  nonEmpty(det.Customer.Address),
		CustomerTaxID:    nonEmpty(det.Customer.TaxID),
		LineItems:        det.LineItems,
		Subtotal:         det.Subtotal,
		Discount:         det.Discount,
		TotalTaxAmount:   det.TotalTaxAmount,
		ShippingHandling: det.ShippingHandling,
		TotalAmountDue:   det.TotalAmountDue,
		Currency:         det.Currency,
		EmailReceivedAt:  receivedAt.Format(time.RFC3339),
		Status:           "New",
		AssignedTo:       nil,
		Notes:            crmNotes,
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
