package textextract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/invoflow/invoflow/internal/oracle"
)

// stubProvider returns a canned reply or error for every completion.
type stubProvider struct {
	reply string
	err   error

	lastPrompt string
}

func (s *stubProvider) Complete(_ context.Context, req oracle.CompletionRequest) (oracle.CompletionResponse, error) {
	if len(req.Messages) > 0 {
		s.lastPrompt = req.Messages[len(req.Messages)-1].Content
	}
	if s.err != nil {
		return oracle.CompletionResponse{}, s.err
	}
	return oracle.CompletionResponse{Content: s.reply, FinishReason: "stop"}, nil
}

func (s *stubProvider) Name() string { return "stub" }

func TestExtractText_ValidJSON(t *testing.T) {
	stub := &stubProvider{reply: `{"invoice_number": "INV-42", "total_amount": 99.5}`}
	got := New(stub).ExtractText(context.Background(), "some invoice text")

	if got["invoice_number"] != "INV-42" {
		t.Errorf("invoice_number = %v", got["invoice_number"])
	}
	if got["total_amount"] != 99.5 {
		t.Errorf("total_amount = %v", got["total_amount"])
	}
	if _, ok := got[KeyParsingError]; ok {
		t.Error("unexpected parsing_error on valid reply")
	}
}

func TestExtractText_FencedJSON(t *testing.T) {
	stub := &stubProvider{reply: "```json\n{\"invoice_number\": \"INV-7\"}\n```"}
	got := New(stub).ExtractText(context.Background(), "text")

	if got["invoice_number"] != "INV-7" {
		t.Errorf("invoice_number = %v, want INV-7", got["invoice_number"])
	}
}

func TestExtractText_NonJSONReply(t *testing.T) {
	const reply = "Sorry, I could not find an invoice in that text."
	stub := &stubProvider{reply: reply}
	got := New(stub).ExtractText(context.Background(), "text")

	if got[KeyParsingError] == nil || got[KeyParsingError] == "" {
		t.Error("expected parsing_error diagnostic")
	}
	if got[KeyRawOracleOutput] != reply {
		t.Errorf("raw output = %v, want verbatim reply", got[KeyRawOracleOutput])
	}
	if len(got) != 2 {
		t.Errorf("degraded record has %d keys, want only the two diagnostics", len(got))
	}
}

func TestExtractText_OracleFailure(t *testing.T) {
	stub := &stubProvider{err: errors.New("connection refused")}
	got := New(stub).ExtractText(context.Background(), "text")

	// A failed call degrades to an empty reply, which cannot parse.
	if got[KeyParsingError] == nil {
		t.Error("expected parsing_error after oracle failure")
	}
	if got[KeyRawOracleOutput] != "" {
		t.Errorf("raw output = %v, want empty string", got[KeyRawOracleOutput])
	}
}

func TestExtractText_PromptNamesTargetFields(t *testing.T) {
	stub := &stubProvider{reply: "{}"}
	New(stub).ExtractText(context.Background(), "INVOICE BODY HERE")

	for _, want := range []string{
		"Invoice Number", "Invoice Date", "Seller Name", "Buyer Name",
		"Subtotal", "Total Tax Amount", "Discount", "Shipping Handling",
		"Total Amount Due", "Currency", "Line Items", "INVOICE BODY HERE",
	} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{`{"a": 1}`, `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFieldsFromJSON(t *testing.T) {
	payload := map[string]any{
		"invoiceNumber": "INV-1",
		"invoiceDate":   "2025-05-29",
		"seller":        "Acme Corp",
		"buyer":         "Beta Industries",
		"lineItems":     []any{map[string]any{"description": "Widget A"}},
		"totalAmount":   333.0,
		"extraField":    "ignored",
	}

	got := FieldsFromJSON(payload)
	if got["invoice_number"] != "INV-1" || got["total_amount"] != 333.0 {
		t.Errorf("got %v", got)
	}
	if _, ok := got["extraField"]; ok {
		t.Error("unmapped key should not survive")
	}
	// Absent source keys still appear, as nil, so validation can see them.
	empty := FieldsFromJSON(map[string]any{})
	if v, ok := empty["invoice_number"]; !ok || v != nil {
		t.Errorf("missing key should map to nil, got %v (present=%v)", v, ok)
	}
}

func TestProcess_JSON(t *testing.T) {
	stub := &stubProvider{}
	out, err := New(stub).Process(context.Background(),
		`{"invoiceNumber": "INV-1", "invoiceDate": "2025-05-29", "totalAmount": 10.0, "lineItems": [{"description": "x"}]}`,
		"json")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.ValidationErrors) != 0 {
		t.Errorf("ValidationErrors = %v", out.ValidationErrors)
	}
	if out.Formatted.InvoiceID != "INV-1" {
		t.Errorf("Formatted.InvoiceID = %v", out.Formatted.InvoiceID)
	}
	if stub.lastPrompt != "" {
		t.Error("JSON path must not call the oracle")
	}
}

func TestProcess_JSONInvalid(t *testing.T) {
	if _, err := New(&stubProvider{}).Process(context.Background(), "{not json", "json"); err == nil {
		t.Fatal("expected error for malformed JSON input")
	}
}

func TestProcess_Text(t *testing.T) {
	stub := &stubProvider{reply: `{"invoice_number": "INV-9", "invoice_date": "2025-01-01", "total_amount": 5.0, "line_items": [{"description": "x"}], "currency": "EUR"}`}
	out, err := New(stub).Process(context.Background(), "freeform invoice", "text")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.ValidationErrors) != 0 {
		t.Errorf("ValidationErrors = %v", out.ValidationErrors)
	}
	if out.Formatted.Currency != "EUR" {
		t.Errorf("Formatted.Currency = %v", out.Formatted.Currency)
	}
}

func TestProcess_TextDegraded(t *testing.T) {
	stub := &stubProvider{reply: "not json at all"}
	out, err := New(stub).Process(context.Background(), "freeform invoice", "text")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// All four mandatory fields are absent in the degraded record.
	if len(out.ValidationErrors) != 4 {
		t.Errorf("ValidationErrors = %v, want 4", out.ValidationErrors)
	}
	if out.Extracted[KeyParsingError] == nil {
		t.Error("expected parsing_error in extracted record")
	}
}

func TestProcess_UnsupportedFormat(t *testing.T) {
	_, err := New(&stubProvider{}).Process(context.Background(), "x", "pdf")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}
