package invoice

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// mandatory carries the four fields every extraction must populate. The
// validate tags drive the presence checks; string/number zero values and
// empty item lists count as missing.
type mandatory struct {
	InvoiceNumber string  `validate:"required"`
	InvoiceDate   string  `validate:"required"`
	TotalAmount   float64 `validate:"required"`
	LineItems     []any   `validate:"required,min=1"`
}

var mandatoryMessages = map[string]string{
	"InvoiceNumber": "invoice number is missing",
	"InvoiceDate":   "invoice date is missing",
	"TotalAmount":   "total amount is missing",
	"LineItems":     "line items are missing",
}

// Validate checks the mandatory fields on an extracted record and returns
// one diagnostic per missing field. It never fails; a fully populated
// record yields an empty list.
func Validate(rec map[string]any) []string {
	m := mandatory{
		InvoiceNumber: asString(rec["invoice_number"]),
		InvoiceDate:   asString(rec["invoice_date"]),
		TotalAmount:   asNumber(rec["total_amount"]),
		LineItems:     asList(rec["line_items"]),
	}

	err := validate.Struct(m)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	diags := make([]string, 0, len(verrs))
	seen := make(map[string]bool)
	for _, e := range verrs {
		msg, known := mandatoryMessages[e.StructField()]
		if !known || seen[e.StructField()] {
			continue
		}
		seen[e.StructField()] = true
		diags = append(diags, msg)
	}
	return diags
}

// ForDownstream remaps an extracted record into the canonical downstream
// schema. It is total: missing source fields become null targets.
func ForDownstream(rec map[string]any) Canonical {
	return Canonical{
		InvoiceID: rec["invoice_number"],
		IssueDate: rec["invoice_date"],
		Vendor:    rec["seller"],
		Customer:  rec["buyer"],
		Items:     rec["line_items"],
		Total:     rec["total_amount"],
		Currency:  rec["currency"],
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asList(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case []LineItem:
		out := make([]any, len(l))
		for i, item := range l {
			out[i] = item
		}
		return out
	case []map[string]any:
		out := make([]any, len(l))
		for i, item := range l {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}
