// Package pipeline wires the classifier, the three extractors, and the
// interaction store into a single-document processing flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/invoflow/invoflow/internal/classify"
	"github.com/invoflow/invoflow/internal/jsonextract"
	"github.com/invoflow/invoflow/internal/logger"
	"github.com/invoflow/invoflow/internal/mailextract"
	"github.com/invoflow/invoflow/internal/oracle"
	"github.com/invoflow/invoflow/internal/store"
	"github.com/invoflow/invoflow/internal/textextract"
)

// ErrNoAgent reports input whose format routes to no extractor.
var ErrNoAgent = errors.New("no suitable agent")

// Artifact keys written into the interaction store.
const (
	keyFormat        = "invoice_format"
	keyJSONError     = "json_processing_error"
	keyJSONResults   = "json_processing_results"
	keyEmailResults  = "invoice_email_processing_results"
	keyTextExtracted = "extracted_invoice_data_text"
	keyValidation    = "invoice_validation_errors"
	keyFormatted     = "formatted_invoice_data"
)

// Outcome is the result of processing one document.
type Outcome struct {
	InteractionID string               `json:"interaction_id"`
	Format        classify.Format      `json:"format"`
	Extractor     classify.ExtractorID `json:"extractor,omitempty"`
	Result        any                  `json:"result,omitempty"`
}

// Pipeline processes one document per call. Each call runs under a fresh
// interaction ID; calls never share mutable state.
type Pipeline struct {
	store store.Store
	json  *jsonextract.Extractor
	mail  *mailextract.Extractor
	text  *textextract.Extractor
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMailExtractor replaces the default email extractor, mainly so tests
// can pin its clock.
func WithMailExtractor(m *mailextract.Extractor) Option {
	return func(p *Pipeline) {
		p.mail = m
	}
}

// New builds a pipeline over the given store and oracle provider.
func New(st store.Store, provider oracle.Provider, opts ...Option) *Pipeline {
	p := &Pipeline{
		store: st,
		json:  jsonextract.NewInvoice(),
		mail:  mailextract.New(),
		text:  textextract.New(provider),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process classifies one raw document (unless a format was declared),
// dispatches it to the matching extractor, and records every artifact in
// the interaction store. The returned outcome always carries the
// interaction ID, even on failure, so callers can inspect the store.
func (p *Pipeline) Process(ctx context.Context, raw string, declared classify.Format) (*Outcome, error) {
	out := &Outcome{InteractionID: uuid.NewString()}

	if err := p.store.Init(ctx, out.InteractionID); err != nil {
		return out, fmt.Errorf("failed to initialize interaction: %w", err)
	}

	out.Format = declared
	if out.Format == "" {
		out.Format = classify.Detect(raw)
	}
	p.put(ctx, out.InteractionID, keyFormat, string(out.Format))
	logger.Info("classified input",
		"interaction_id", out.InteractionID, "format", out.Format)

	extractor, ok := classify.Route(out.Format)
	if !ok {
		return out, fmt.Errorf("%w for format %q", ErrNoAgent, out.Format)
	}
	out.Extractor = extractor

	switch extractor {
	case classify.ExtractorJSON:
		res, err := p.json.Extract(raw)
		if err != nil {
			p.put(ctx, out.InteractionID, keyJSONError, err.Error())
			return out, err
		}
		p.put(ctx, out.InteractionID, keyJSONResults, res)
		out.Result = res

	case classify.ExtractorEmail:
		res := p.mail.Extract(raw)
		p.put(ctx, out.InteractionID, keyEmailResults, res)
		out.Result = res

	case classify.ExtractorText:
		res, err := p.text.Process(ctx, raw, "text")
		if err != nil {
			return out, err
		}
		p.put(ctx, out.InteractionID, keyTextExtracted, res.Extracted)
		if len(res.ValidationErrors) > 0 {
			p.put(ctx, out.InteractionID, keyValidation, res.ValidationErrors)
		}
		p.put(ctx, out.InteractionID, keyFormatted, res.Formatted)
		out.Result = res
	}

	return out, nil
}

// put records one artifact; store failures are logged, never fatal to the
// extraction itself.
func (p *Pipeline) put(ctx context.Context, id, key string, value any) {
	if err := p.store.Put(ctx, id, key, value); err != nil {
		logger.Error("failed to store artifact",
			"interaction_id", id, "key", key, "error", err)
	}
}
