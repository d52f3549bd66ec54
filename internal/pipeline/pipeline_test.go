package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invoflow/invoflow/internal/classify"
	"github.com/invoflow/invoflow/internal/jsonextract"
	"github.com/invoflow/invoflow/internal/mailextract"
	"github.com/invoflow/invoflow/internal/oracle"
	"github.com/invoflow/invoflow/internal/store"
	"github.com/invoflow/invoflow/internal/textextract"
)

type stubProvider struct {
	reply string
	err   error
	calls int
}

func (s *stubProvider) Complete(context.Context, oracle.CompletionRequest) (oracle.CompletionResponse, error) {
	s.calls++
	if s.err != nil {
		return oracle.CompletionResponse{}, s.err
	}
	return oracle.CompletionResponse{Content: s.reply, FinishReason: "stop"}, nil
}

func (s *stubProvider) Name() string { return "stub" }

func newTestPipeline(reply string) (*Pipeline, *store.MemoryStore, *stubProvider) {
	st := store.NewMemory()
	stub := &stubProvider{reply: reply}
	clock := func() time.Time { return time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC) }
	p := New(st, stub, WithMailExtractor(mailextract.New(mailextract.WithClock(clock))))
	return p, st, stub
}

func TestProcess_JSONInvoice(t *testing.T) {
	p, st, stub := newTestPipeline("")
	ctx := context.Background()

	out, err := p.Process(ctx, `{"invoiceNumber": "INV-1", "totalAmount": 10.5}`, "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Format != classify.FormatJSON || out.Extractor != classify.ExtractorJSON {
		t.Errorf("routed as %s/%s", out.Format, out.Extractor)
	}
	if stub.calls != 0 {
		t.Error("JSON path must not call the oracle")
	}

	res, ok := out.Result.(*jsonextract.Result)
	if !ok {
		t.Fatalf("Result is %T", out.Result)
	}
	if res.Extracted["id"] != "INV-1" {
		t.Errorf("extracted id = %v", res.Extracted["id"])
	}

	if v, _ := st.Get(ctx, out.InteractionID, "invoice_format"); v != "json" {
		t.Errorf("stored format = %v", v)
	}
	if v, _ := st.Get(ctx, out.InteractionID, "json_processing_results"); v == nil {
		t.Error("json_processing_results not stored")
	}
}

func TestProcess_MalformedDeclaredJSON(t *testing.T) {
	p, st, _ := newTestPipeline("")
	ctx := context.Background()

	out, err := p.Process(ctx, "{definitely not json", classify.FormatJSON)
	var perr *jsonextract.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if v, _ := st.Get(ctx, out.InteractionID, "json_processing_error"); v == nil {
		t.Error("json_processing_error not stored")
	}
}

func TestProcess_Email(t *testing.T) {
	p, st, _ := newTestPipeline("")
	ctx := context.Background()

	raw := "From: billing@acme.com\nSubject: Invoice\n\nInvoice Number: INV-3\nInvoice Date: 2025-05-29\n"
	out, err := p.Process(ctx, raw, "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Extractor != classify.ExtractorEmail {
		t.Errorf("extractor = %s", out.Extractor)
	}

	res, ok := out.Result.(*mailextract.Result)
	if !ok {
		t.Fatalf("Result is %T", out.Result)
	}
	if res.InvoiceDetails.InvoiceNumber == nil || *res.InvoiceDetails.InvoiceNumber != "INV-3" {
		t.Errorf("InvoiceNumber = %v", res.InvoiceDetails.InvoiceNumber)
	}
	if res.CRM.EmailReceivedAt != "2025-05-30T12:00:00Z" {
		t.Errorf("EmailReceivedAt = %q", res.CRM.EmailReceivedAt)
	}
	if v, _ := st.Get(ctx, out.InteractionID, "invoice_email_processing_results"); v == nil {
		t.Error("email results not stored")
	}
}

func TestProcess_PlainText(t *testing.T) {
	p, st, stub := newTestPipeline(
		`{"invoice_number": "INV-9", "invoice_date": "2025-01-01", "total_amount": 5.0, "line_items": [{"description": "x"}]}`)
	ctx := context.Background()

	out, err := p.Process(ctx, "Invoice Number: INV-9\nsome freeform text", "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Format != classify.FormatPlain || out.Extractor != classify.ExtractorText {
		t.Errorf("routed as %s/%s", out.Format, out.Extractor)
	}
	if stub.calls != 1 {
		t.Errorf("oracle called %d times, want 1", stub.calls)
	}

	res, ok := out.Result.(*textextract.Outcome)
	if !ok {
		t.Fatalf("Result is %T", out.Result)
	}
	if len(res.ValidationErrors) != 0 {
		t.Errorf("ValidationErrors = %v", res.ValidationErrors)
	}

	if v, _ := st.Get(ctx, out.InteractionID, "extracted_invoice_data_text"); v == nil {
		t.Error("extracted data not stored")
	}
	if v, _ := st.Get(ctx, out.InteractionID, "formatted_invoice_data"); v == nil {
		t.Error("formatted data not stored")
	}
	if v, _ := st.Get(ctx, out.InteractionID, "invoice_validation_errors"); v != nil {
		t.Errorf("validation errors stored for a complete record: %v", v)
	}
}

func TestProcess_PlainTextDegraded(t *testing.T) {
	p, st, _ := newTestPipeline("no JSON here")
	ctx := context.Background()

	out, err := p.Process(ctx, "Invoice Number: INV-9", "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	res := out.Result.(*textextract.Outcome)
	if res.Extracted[textextract.KeyParsingError] == nil {
		t.Error("expected parsing_error in degraded record")
	}
	if v, _ := st.Get(ctx, out.InteractionID, "invoice_validation_errors"); v == nil {
		t.Error("validation errors should be stored for the degraded record")
	}
}

func TestProcess_Unknown(t *testing.T) {
	p, st, _ := newTestPipeline("")
	ctx := context.Background()

	out, err := p.Process(ctx, "nothing invoice-like here", "")
	if !errors.Is(err, ErrNoAgent) {
		t.Fatalf("err = %v, want ErrNoAgent", err)
	}
	if out.InteractionID == "" {
		t.Error("outcome should carry the interaction ID even on failure")
	}
	if v, _ := st.Get(ctx, out.InteractionID, "invoice_format"); v != "unknown" {
		t.Errorf("stored format = %v", v)
	}
}

func TestProcess_DeclaredFormatSkipsDetection(t *testing.T) {
	p, _, stub := newTestPipeline(`{}`)
	ctx := context.Background()

	// Content that would classify as plain is processed as declared.
	out, err := p.Process(ctx, "Invoice Number: INV-1 freeform", classify.FormatPlain)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Format != classify.FormatPlain {
		t.Errorf("format = %s", out.Format)
	}
	if stub.calls != 1 {
		t.Errorf("oracle calls = %d", stub.calls)
	}
}

func TestProcess_FreshInteractionIDs(t *testing.T) {
	p, _, _ := newTestPipeline(`{}`)
	ctx := context.Background()

	a, _ := p.Process(ctx, `{"invoiceNumber": "1"}`, "")
	b, _ := p.Process(ctx, `{"invoiceNumber": "2"}`, "")
	if a.InteractionID == b.InteractionID {
		t.Error("interaction IDs must be unique per call")
	}
}
