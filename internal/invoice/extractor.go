package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/AVoss84/invoice-agent-app/internal/llm"
)

// Extractor pulls structured entities out of invoice text using a
// type-specific prompt/schema pair
type Extractor struct {
	log *slog.Logger
	llm llm.Client
	cfg *Config
}

// NewExtractor creates an Extractor over the given model client and
// type registry
func NewExtractor(log *slog.Logger, client llm.Client, cfg *Config) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{log: log, llm: client, cfg: cfg}
}

// Extract returns the structured entity for one invoice. The prompt and
// output schema are resolved from the type registry; unrecognized types
// fall back to the default entry's generic schema.
func (e *Extractor) Extract(ctx context.Context, invoiceType string, text string) (Entity, error) {
	tc := e.cfg.Lookup(invoiceType)

	e.log.Info("Extracting entities", "invoice_type", invoiceType, "schema", tc.Schema)

	prompt := renderExtractPrompt(tc.Schema, text)
	raw, err := e.llm.GenerateText(ctx, prompt)
	if err != nil {
		return Entity{}, &ExtractionError{InvoiceType: invoiceType, Err: fmt.Errorf("invoking extraction model: %w", err)}
	}

	jsonText, err := llm.ExtractJSON(raw)
	if err != nil {
		return Entity{}, &ExtractionError{InvoiceType: invoiceType, Err: err}
	}

	var entity Entity
	if err := json.Unmarshal([]byte(jsonText), &entity); err != nil {
		return Entity{}, &ExtractionError{InvoiceType: invoiceType, Err: fmt.Errorf("unmarshaling entity: %w", err)}
	}

	if err := entity.validate(tc.Schema); err != nil {
		return Entity{}, &ExtractionError{InvoiceType: invoiceType, Err: err}
	}

	if entity.Description == "" {
		entity.Description = "No description provided"
	}

	return entity, nil
}
