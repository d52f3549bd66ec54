// Package textextract processes invoices that arrive as unstructured text
// or as already-structured JSON. The text path builds one extraction
// prompt, delegates to a completion oracle, and parses its reply; the JSON
// path is a direct lookup of fixed keys with no oracle call. Both paths
// feed validation and the canonical downstream record.
package textextract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invoflow/invoflow/internal/invoice"
	"github.com/invoflow/invoflow/internal/logger"
	"github.com/invoflow/invoflow/internal/oracle"
)

// Keys of the degraded record produced when an oracle reply cannot be
// parsed as JSON.
const (
	KeyParsingError    = "parsing_error"
	KeyRawOracleOutput = "raw_oracle_output"
)

// ErrUnsupportedFormat reports a format Process cannot handle.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Outcome is the result of processing one invoice document.
type Outcome struct {
	// Extracted holds the raw field map before downstream renaming.
	Extracted map[string]any `json:"extracted"`
	// ValidationErrors lists missing mandatory fields; empty when the
	// record is complete.
	ValidationErrors []string `json:"validation_errors,omitempty"`
	// Formatted is the canonical record handed to downstream systems.
	Formatted invoice.Canonical `json:"formatted"`
}

// Extractor drives oracle-assisted extraction.
type Extractor struct {
	provider    oracle.Provider
	maxTokens   int
	temperature float64
}

// New creates an extractor backed by the given oracle provider.
func New(provider oracle.Provider) *Extractor {
	return &Extractor{
		provider:    provider,
		maxTokens:   4096,
		temperature: 0,
	}
}

// ExtractText runs one oracle call over unstructured invoice text and
// parses the reply. It never returns an error: an oracle failure degrades
// to an empty reply, and an unparseable reply yields a record holding only
// a parsing_error diagnostic and the verbatim raw output.
func (e *Extractor) ExtractText(ctx context.Context, invoiceText string) map[string]any {
	reply := e.complete(ctx, Prompt(invoiceText))

	extracted := make(map[string]any)
	if err := json.Unmarshal([]byte(stripFences(reply)), &extracted); err != nil {
		logger.Warn("oracle reply is not valid JSON", "error", err)
		return map[string]any{
			KeyParsingError:    err.Error(),
			KeyRawOracleOutput: reply,
		}
	}
	return extracted
}

// complete sends the prompt to the oracle. Failures are logged and degrade
// to an empty reply; they never propagate.
func (e *Extractor) complete(ctx context.Context, prompt string) string {
	resp, err := e.provider.Complete(ctx, oracle.CompletionRequest{
		Messages:    []oracle.Message{{Role: oracle.RoleUser, Content: prompt}},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		logger.Warn("oracle call failed", "provider", e.provider.Name(), "error", err)
		return ""
	}
	return resp.Content
}

// FieldsFromJSON is the direct path for invoices that are already JSON:
// a fixed-key lookup with no oracle involvement. Absent keys surface as
// nil values so validation can flag them.
func FieldsFromJSON(payload map[string]any) map[string]any {
	return map[string]any{
		"invoice_number": payload["invoiceNumber"],
		"invoice_date":   payload["invoiceDate"],
		"seller":         payload["seller"],
		"buyer":          payload["buyer"],
		"line_items":     payload["lineItems"],
		"total_amount":   payload["totalAmount"],
	}
}

// Process is the entry point for one document: extract by format, validate
// the mandatory fields, and shape the canonical downstream record.
// Validation problems do not abort processing; they ride along in the
// outcome.
func (e *Extractor) Process(ctx context.Context, input, format string) (*Outcome, error) {
	var extracted map[string]any

	switch format {
	case "json":
		var payload map[string]any
		if err := json.Unmarshal([]byte(input), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON invoice: %w", err)
		}
		extracted = FieldsFromJSON(payload)
	case "text", "plain_invoice":
		extracted = e.ExtractText(ctx, input)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	out := &Outcome{
		Extracted:        extracted,
		ValidationErrors: invoice.Validate(extracted),
		Formatted:        invoice.ForDownstream(extracted),
	}
	if len(out.ValidationErrors) > 0 {
		logger.Warn("extracted invoice failed validation", "errors", out.ValidationErrors)
	}
	return out, nil
}
