package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/AVoss84/invoice-agent-app/internal/currency"
	"github.com/AVoss84/invoice-agent-app/internal/invoice"
)

// step identifies one state of the processing state machine
type step int

const (
	stepLoad step = iota
	stepProcess
	stepClassify
	stepExtract
	stepSummarize
	stepUpdateReport
	stepDone
)

func (s step) String() string {
	switch s {
	case stepLoad:
		return "load"
	case stepProcess:
		return "process"
	case stepClassify:
		return "classify"
	case stepExtract:
		return "extract"
	case stepSummarize:
		return "summarize"
	case stepUpdateReport:
		return "update_report"
	case stepDone:
		return "done"
	}
	return "invalid"
}

// Converter turns a file into document text
type Converter interface {
	Convert(ctx context.Context, path string) (string, error)
}

// Classifier labels document text with an invoice type
type Classifier interface {
	Classify(ctx context.Context, text string) (invoice.Classification, error)
}

// Extractor pulls a structured entity out of document text
type Extractor interface {
	Extract(ctx context.Context, invoiceType string, text string) (invoice.Entity, error)
}

// Rates converts amounts into EUR and describes the rate used
type Rates interface {
	Convert(ctx context.Context, amount float64, fromCurrency string) (currency.Conversion, error)
	RateInfo(ctx context.Context, currencies []string) (string, error)
}

// Summarizer produces the batch summary from the accumulated entities
type Summarizer interface {
	Summarize(ctx context.Context, entities []invoice.Entity, rateInfo string) (string, error)
}

// Reporter writes the finished batch into the expense report
type Reporter interface {
	Write(state *BatchState) error
}

// StepBudgetError indicates the engine exceeded its transition budget,
// which points at a routing defect rather than bad input
type StepBudgetError struct {
	Steps  int
	Budget int
}

func (e *StepBudgetError) Error() string {
	return fmt.Sprintf("step budget exceeded: %d transitions taken, budget was %d", e.Steps, e.Budget)
}

const (
	noEntitiesRateInfo = "No entities found."
	noEntitiesSummary  = "No invoice entities were extracted from this batch; there is nothing to summarize."
)

// stepBudget bounds the total number of transitions for a batch. Five
// covers one full load/process/classify/extract cycle per file with
// room to spare for the terminal steps.
func stepBudget(fileCount int) int {
	return 5*fileCount + 10
}

// Engine drives a batch of invoice files through the processing state
// machine: load -> process -> classify -> extract -> load ... ->
// summarize -> update_report. Per-file failures degrade the affected
// file instead of aborting the batch.
type Engine struct {
	log        *slog.Logger
	converter  Converter
	classifier Classifier
	extractor  Extractor
	rates      Rates
	summarizer Summarizer
	reporter   Reporter
}

// NewEngine creates an Engine over the given collaborators. reporter
// may be nil, in which case the update_report step is a no-op.
func NewEngine(
	log *slog.Logger,
	converter Converter,
	classifier Classifier,
	extractor Extractor,
	rates Rates,
	summarizer Summarizer,
	reporter Reporter,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		log:        log,
		converter:  converter,
		classifier: classifier,
		extractor:  extractor,
		rates:      rates,
		summarizer: summarizer,
		reporter:   reporter,
	}
}

// Run processes the batch and returns the final state. Per-file errors
// are absorbed into the state (unknown types, sentinel entities);
// document conversion failures, report failures and budget overruns
// abort the batch.
func (e *Engine) Run(ctx context.Context, files []string) (*BatchState, error) {
	state := NewBatchState(files)
	budget := stepBudget(len(files))
	current := stepLoad

	e.log.Info("Batch started", "files", len(files), "step_budget", budget)

	for steps := 0; current != stepDone; steps++ {
		if steps >= budget {
			return nil, &StepBudgetError{Steps: steps, Budget: budget}
		}

		next, err := e.advance(ctx, current, state)
		if err != nil {
			return nil, err
		}
		current = next
	}

	e.log.Info("Batch complete", "entities", len(state.Records))
	return state, nil
}

// advance executes one step and returns the next one
func (e *Engine) advance(ctx context.Context, current step, state *BatchState) (step, error) {
	if err := ctx.Err(); err != nil {
		return stepDone, err
	}

	switch current {
	case stepLoad:
		return e.loadNextFile(state), nil
	case stepProcess:
		return e.processDocument(ctx, state)
	case stepClassify:
		return e.classifyInvoice(ctx, state), nil
	case stepExtract:
		return e.extractAndConvert(ctx, state), nil
	case stepSummarize:
		return e.summarize(ctx, state)
	case stepUpdateReport:
		return e.updateReport(state)
	}

	return stepDone, fmt.Errorf("engine reached invalid step %d", current)
}

// loadNextFile selects the next file, or routes to summarization once
// the list is exhausted. The index is deliberately NOT advanced here;
// extractAndConvert increments it once the file's outcome has been
// committed, otherwise a failing file would be retried forever.
func (e *Engine) loadNextFile(state *BatchState) step {
	index := state.CurrentFileIndex

	e.log.Info("Loading next file", "index", index, "total", len(state.FileNames))

	if index >= len(state.FileNames) {
		e.log.Info("All files processed, moving to summarization")
		return stepSummarize
	}

	state.FileName = state.FileNames[index]
	e.log.Info("Loading file", "file", filepath.Base(state.FileName))
	return stepProcess
}

// processDocument converts the active file to text. Conversion failure
// is fatal for the batch: with no text there is nothing to classify.
func (e *Engine) processDocument(ctx context.Context, state *BatchState) (step, error) {
	e.log.Info("Processing file", "file", filepath.Base(state.FileName))

	text, err := e.converter.Convert(ctx, state.FileName)
	if err != nil {
		return stepDone, fmt.Errorf("processing %s: %w", state.FileName, err)
	}

	state.ProcessedDoc = text
	return stepClassify, nil
}

// classifyInvoice labels the document text. Failures are non-fatal and
// degrade to the unknown type; extraction still proceeds with the
// default schema.
func (e *Engine) classifyInvoice(ctx context.Context, state *BatchState) step {
	e.log.Info("Classifying invoice", "file", filepath.Base(state.FileName))

	result, err := e.classifier.Classify(ctx, state.ProcessedDoc)
	if err != nil {
		e.log.Error("Classification failed, falling back to unknown type",
			"file", state.FileName,
			"error", err,
		)
		state.InvoiceType = invoice.UnknownType
		return stepExtract
	}

	state.InvoiceType = result.Label
	return stepExtract
}

// extractAndConvert extracts the entity from the active file and
// converts its amount to EUR. On any failure a sentinel entity is
// appended instead so the batch size invariants hold, and the file
// index advances either way — exactly once per file, at the point
// where the file's outcome is committed.
func (e *Engine) extractAndConvert(ctx context.Context, state *BatchState) step {
	entity, sourceCurrency, err := e.tryExtract(ctx, state)
	if err != nil {
		e.log.Error("Entity extraction failed",
			"file", state.FileName,
			"error", err,
		)
		entity = sentinelEntity(state.FileName, state.InvoiceType)
		sourceCurrency = "EUR"
	}

	entity.InvoiceType = state.InvoiceType
	state.Records = append(state.Records, Record{
		Entity:         entity,
		InferredType:   state.InvoiceType,
		SourceCurrency: sourceCurrency,
	})
	state.CurrentFileIndex++

	return stepLoad
}

func (e *Engine) tryExtract(ctx context.Context, state *BatchState) (invoice.Entity, string, error) {
	entity, err := e.extractor.Extract(ctx, state.InvoiceType, state.ProcessedDoc)
	if err != nil {
		return invoice.Entity{}, "", err
	}

	amount, err := strconv.ParseFloat(entity.TotalAmount, 64)
	if err != nil {
		return invoice.Entity{}, "", fmt.Errorf("parsing amount %q: %w", entity.TotalAmount, err)
	}

	e.log.Info("Converting amount to EUR", "amount", entity.TotalAmount, "currency", entity.Currency)

	conv, err := e.rates.Convert(ctx, amount, entity.Currency)
	if err != nil {
		return invoice.Entity{}, "", err
	}

	sourceCurrency := entity.Currency
	if sourceCurrency != "EUR" {
		entity.TotalAmount = strconv.FormatFloat(conv.EURAmount, 'f', -1, 64)
	}
	entity.Currency = "EUR"

	e.log.Info("Converted amount", "eur_amount", entity.TotalAmount, "rate_date", conv.RateDate)
	return entity, sourceCurrency, nil
}

// sentinelEntity marks a file whose extraction failed. It carries a
// zero amount and a discoverable description so the failure shows up
// in the final report instead of being silently dropped.
func sentinelEntity(fileName string, invoiceType string) invoice.Entity {
	return invoice.Entity{
		TotalAmount: "0.00",
		Currency:    "EUR",
		IssueDate:   "N/A",
		Description: fmt.Sprintf("Failed to extract from: %s", fileName),
		InvoiceType: invoiceType,
	}
}

// summarize builds the exchange-rate note and the model summary over
// all accumulated entities. An empty batch produces a fixed explanation
// without invoking the model.
func (e *Engine) summarize(ctx context.Context, state *BatchState) (step, error) {
	e.log.Info("Summarizing entities", "count", len(state.Records))

	if len(state.Records) == 0 {
		state.RateInfo = noEntitiesRateInfo
		state.Summary = noEntitiesSummary
		return stepUpdateReport, nil
	}

	rateInfo, err := e.rates.RateInfo(ctx, state.Currencies())
	if err != nil {
		return stepDone, fmt.Errorf("building exchange rate info: %w", err)
	}

	summary, err := e.summarizer.Summarize(ctx, state.Entities(), rateInfo)
	if err != nil {
		return stepDone, fmt.Errorf("summarizing entities: %w", err)
	}

	state.RateInfo = rateInfo
	state.Summary = summary
	return stepUpdateReport, nil
}

// updateReport hands the finished state to the report writer
func (e *Engine) updateReport(state *BatchState) (step, error) {
	if e.reporter == nil {
		return stepDone, nil
	}

	e.log.Info("Updating expense report")
	if err := e.reporter.Write(state); err != nil {
		return stepDone, fmt.Errorf("updating report: %w", err)
	}

	return stepDone, nil
}
