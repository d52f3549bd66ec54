// Package jsonextract maps arbitrary JSON invoice payloads onto a fixed
// target schema via case-insensitive dotted-path lookup, flagging targets
// that cannot be resolved.
package jsonextract

// FieldMapping binds one target field to its source. Scalar targets carry a
// dotted Source path; the item-list target carries a nested per-item schema
// instead.
type FieldMapping struct {
	Target string
	Source string
	Items  []FieldMapping
}

// itemListKeys are the candidate input keys that may hold the line-item
// list, tried in this order and matched case-insensitively.
var itemListKeys = []string{"lineItems", "items", "products", "details"}

// InvoiceSchema is the fixed target schema for invoice payloads.
func InvoiceSchema() []FieldMapping {
	return []FieldMapping{
		{Target: "id", Source: "invoiceNumber"},
		{Target: "date", Source: "invoiceDate"},
		{Target: "vendor_name", Source: "seller.Name"},
		{Target: "vendor_address", Source: "seller.Address"},
		{Target: "customer_name", Source: "buyer.Name"},
		{Target: "customer_address", Source: "buyer.Address"},
		{Target: "items", Items: []FieldMapping{
			{Target: "product", Source: "description"},
			{Target: "qty", Source: "quantity"},
			{Target: "unit_price", Source: "unitPrice"},
			{Target: "line_total", Source: "amount"},
			{Target: "tax_amount", Source: "tax"},
		}},
		{Target: "total_amount", Source: "totalAmount"},
		{Target: "currency", Source: "currency"},
	}
}
