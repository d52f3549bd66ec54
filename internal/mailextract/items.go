package mailextract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/invoflow/invoflow/internal/invoice"
)

const (
	itemsStartMarker = "-------------------- LINE ITEMS -------------------"
	itemsEndMarker   = "--------------------------------------------------"
)

// itemRowRe anchors a row on its four trailing numeric tokens; the
// description is greedy but may contain internal spaces.
var itemRowRe = regexp.MustCompile(`(?m)^\s*(.+?)\s+(\d+)\s+([\d.]+)\s+([\d.]+)\s+([\d.]+)\s*$`)

// extractLineItems locates the item table between the section markers and
// parses each row. The column header and its underline separator are not
// rows, so the first separator-delimited segment containing row-shaped
// lines is the table. Rows that match the shape but fail numeric parsing
// are skipped with a diagnostic; lines that do not match at all (headers,
// separators) are ignored. An absent section yields no items and one
// diagnostic.
func extractLineItems(body string) ([]invoice.LineItem, []string) {
	_, after, ok := strings.Cut(body, itemsStartMarker)
	if !ok {
		return nil, []string{"line items section not found"}
	}
	if !strings.Contains(after, itemsEndMarker) {
		return nil, []string{"line items section has no closing separator"}
	}

	segments := strings.Split(after, itemsEndMarker)
	for _, seg := range segments[:len(segments)-1] {
		rows := itemRowRe.FindAllStringSubmatch(seg, -1)
		if len(rows) == 0 {
			continue
		}

		var items []invoice.LineItem
		var diags []string
		for _, row := range rows {
			item, err := parseItemRow(row)
			if err != nil {
				diags = append(diags, fmt.Sprintf("skipping line item %q: %v", strings.TrimSpace(row[1]), err))
				continue
			}
			items = append(items, item)
		}
		return items, diags
	}
	return nil, nil
}

// parseItemRow converts one matched row into a LineItem. All four numeric
// parses must succeed or the row is rejected whole.
func parseItemRow(row []string) (invoice.LineItem, error) {
	qty, err := strconv.Atoi(row[2])
	if err != nil {
		return invoice.LineItem{}, fmt.Errorf("quantity: %w", err)
	}
	unitPrice, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return invoice.LineItem{}, fmt.Errorf("unit price: %w", err)
	}
	amount, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return invoice.LineItem{}, fmt.Errorf("amount: %w", err)
	}
	tax, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return invoice.LineItem{}, fmt.Errorf("tax: %w", err)
	}

	return invoice.LineItem{
		Description: strings.TrimSpace(row[1]),
		Quantity:    qty,
		UnitPrice:   unitPrice,
		Amount:      amount,
		Tax:         tax,
	}, nil
}
