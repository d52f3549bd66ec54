package textextract

import (
	"fmt"
	"strings"
)

// extractionPrompt is the single fixed-shape prompt used for every
// plain-text invoice. It names each target field with the label hints the
// oracle should look for and demands a JSON object with null for unknowns.
const extractionPrompt = `You are an expert at extracting information from invoices. Extract the following details from the text below and return them as a JSON object. If a piece of information is not found, use null.

Invoice Number: Look for a phrase like "Invoice Number:", "Invoice #:", or "Bill Number:".
Invoice Date: Look for a date associated with the invoice, often near the invoice number or header. Use YYYY-MM-DD format if possible.
Seller Name: Identify the name of the company issuing the invoice. (It can also be labelled as Seller or Vendor.)
Buyer Name: Identify the name of the company or person being billed. (It can also be labelled as Buyer or Customer.)
Subtotal: Find the amount before taxes and discounts.
Total Tax Amount: Find the total amount of tax.
Discount: Find any discount applied.
Shipping Handling: Find any shipping or handling fees.
Total Amount Due: Find the final amount the buyer owes, often labeled "Total", "Amount Due", etc.
Currency: Identify the currency used (e.g., USD, EUR).

Line Items: Extract the details of each itemized charge. For each item, identify the "description", "quantity", "unit price", "amount", and "tax" (if applicable). Return these as a JSON array of objects.

Invoice Text:
` + "```" + `
%s
` + "```" + `
JSON Output:
`

// Prompt renders the extraction prompt for one invoice text.
func Prompt(invoiceText string) string {
	return fmt.Sprintf(extractionPrompt, invoiceText)
}

// stripFences removes a leading code-fence marker (with or without a json
// language tag) and a trailing fence from an oracle reply.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
