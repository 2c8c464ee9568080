package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/AVoss84/invoice-agent-app/internal/llm"
)

// defaultLabelWeight is assigned when the model omits its own label
// from the confidence distribution
const defaultLabelWeight = 0.5

// Classifier detects the invoice type of a document text
type Classifier struct {
	log *slog.Logger
	llm llm.Client
	cfg *Config
}

// NewClassifier creates a Classifier over the given model client and
// type registry
func NewClassifier(log *slog.Logger, client llm.Client, cfg *Config) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{log: log, llm: client, cfg: cfg}
}

// classifierResponse mirrors the JSON shape the model is asked for
type classifierResponse struct {
	InvoiceType string             `json:"invoice_type"`
	ClassProbs  map[string]float64 `json:"class_probs"`
	Reasoning   string             `json:"reasoning"`
}

// Classify returns the invoice type label for the given text along with
// the model's confidence distribution. Errors are returned only for
// transport or parse failures; label and distribution defects are
// repaired in place so callers always receive a usable result.
func (c *Classifier) Classify(ctx context.Context, text string) (Classification, error) {
	prompt := renderClassifyPrompt(c.cfg.TypeKeys(), text)

	raw, err := c.llm.GenerateText(ctx, prompt)
	if err != nil {
		return Classification{}, fmt.Errorf("invoking classification model: %w", err)
	}

	jsonText, err := llm.ExtractJSON(raw)
	if err != nil {
		return Classification{}, fmt.Errorf("reading classification response: %w", err)
	}

	var resp classifierResponse
	if err := json.Unmarshal([]byte(jsonText), &resp); err != nil {
		return Classification{}, fmt.Errorf("unmarshaling classification response: %w", err)
	}

	result := Classification{
		Label:       resp.InvoiceType,
		Confidences: resp.ClassProbs,
		Rationale:   resp.Reasoning,
	}

	if !c.cfg.IsKnownType(result.Label) {
		c.log.Warn("Classifier returned unknown invoice type", "label", result.Label)
		result.Label = UnknownType
	}

	result.Confidences = normalizeConfidences(result.Confidences, result.Label)

	c.log.Info("Classification complete", "invoice_type", result.Label)
	return result, nil
}

// normalizeConfidences repairs defective confidence distributions: an
// empty or invalid distribution collapses to certainty on "unknown",
// and the chosen label is injected if the model left it out.
func normalizeConfidences(probs map[string]float64, label string) map[string]float64 {
	if !validDistribution(probs) {
		return map[string]float64{UnknownType: 1.0}
	}
	if _, ok := probs[label]; !ok {
		probs[label] = defaultLabelWeight
	}
	return probs
}

func validDistribution(probs map[string]float64) bool {
	if len(probs) == 0 {
		return false
	}
	var sum float64
	for _, p := range probs {
		if p < 0 || p > 1 {
			return false
		}
		sum += p
	}
	return math.Abs(sum-1.0) <= 0.05
}
