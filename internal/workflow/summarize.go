package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/AVoss84/invoice-agent-app/internal/invoice"
	"github.com/AVoss84/invoice-agent-app/internal/llm"
)

// LLMSummarizer implements Summarizer over a language model client
type LLMSummarizer struct {
	log *slog.Logger
	llm llm.Client
}

// NewLLMSummarizer creates a model-backed Summarizer
func NewLLMSummarizer(log *slog.Logger, client llm.Client) *LLMSummarizer {
	if log == nil {
		log = slog.Default()
	}
	return &LLMSummarizer{log: log, llm: client}
}

// Summarize renders the accumulated entities into the summary prompt
// and returns the model's markdown summary
func (s *LLMSummarizer) Summarize(ctx context.Context, entities []invoice.Entity, rateInfo string) (string, error) {
	entityContext, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing entities: %w", err)
	}

	prompt := invoice.RenderSummaryPrompt(string(entityContext), rateInfo)

	summary, err := s.llm.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("invoking summary model: %w", err)
	}

	s.log.Info("Summary generated")
	return summary, nil
}
