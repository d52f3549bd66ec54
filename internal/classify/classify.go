// Package classify assigns a surface format to raw invoice input and maps
// formats to the extractor that handles them.
package classify

import (
	"encoding/json"
	"strings"
)

// Format is the detected surface format of a raw document.
type Format string

const (
	FormatJSON    Format = "json"
	FormatEmail   Format = "email"
	FormatPlain   Format = "plain_invoice"
	FormatUnknown Format = "unknown"
)

// ExtractorID identifies the extractor a format routes to.
type ExtractorID string

const (
	ExtractorJSON  ExtractorID = "json_extractor"
	ExtractorEmail ExtractorID = "email_extractor"
	ExtractorText  ExtractorID = "text_extractor"
	ExtractorNone  ExtractorID = ""
)

const (
	senderMarker  = "From:"
	invoiceMarker = "Invoice Number:"
)

// Detect classifies raw input. The checks are ordered and first match wins:
// a brace-wrapped valid JSON document, then an email (sender and invoice
// markers), then a plain invoice (invoice marker only), then unknown.
// Brace-wrapped input that fails to parse is not forced to unknown; it
// still gets the email and plain checks.
func Detect(raw string) Format {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") && json.Valid([]byte(trimmed)) {
		return FormatJSON
	}
	if strings.Contains(raw, senderMarker) && strings.Contains(raw, invoiceMarker) {
		return FormatEmail
	}
	if strings.Contains(raw, invoiceMarker) {
		return FormatPlain
	}
	return FormatUnknown
}

// Route maps a format to its extractor. Unknown formats route to
// ExtractorNone and ok=false; the caller reports "no suitable agent".
func Route(f Format) (ExtractorID, bool) {
	switch f {
	case FormatJSON:
		return ExtractorJSON, true
	case FormatEmail:
		return ExtractorEmail, true
	case FormatPlain:
		return ExtractorText, true
	default:
		return ExtractorNone, false
	}
}

// ParseFormat converts a user-declared format name into a Format. It
// accepts the short names used by the CLI ("plain" and "text" both mean
// plain_invoice) and returns ok=false for anything unrecognized.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, true
	case "email":
		return FormatEmail, true
	case "plain", "plain_invoice", "text":
		return FormatPlain, true
	default:
		return FormatUnknown, false
	}
}
