package workflow

import "github.com/AVoss84/invoice-agent-app/internal/invoice"

// Record holds everything accumulated for one processed file: the
// extracted (EUR-converted) entity, the classifier's label and the
// currency the invoice was originally issued in.
type Record struct {
	Entity         invoice.Entity
	InferredType   string
	SourceCurrency string
}

// BatchState is the mutable state threaded through every workflow step.
// One BatchState is owned exclusively by one in-flight batch run; it is
// never shared across runs.
type BatchState struct {
	// FileNames is the ordered list of files to process, fixed at run start
	FileNames []string
	// CurrentFileIndex is the cursor into FileNames; it only ever advances
	CurrentFileIndex int

	// Scratch fields, valid for the current iteration only
	FileName     string
	ProcessedDoc string
	InvoiceType  string

	// Records accumulates one entry per consumed file, in file order
	Records []Record

	// Terminal fields, produced once after all files are consumed
	Summary  string
	RateInfo string
}

// NewBatchState creates the initial state for a batch over files
func NewBatchState(files []string) *BatchState {
	return &BatchState{
		FileNames: files,
		Records:   make([]Record, 0, len(files)),
	}
}

// Entities returns the extracted entities in file order
func (s *BatchState) Entities() []invoice.Entity {
	entities := make([]invoice.Entity, 0, len(s.Records))
	for _, r := range s.Records {
		entities = append(entities, r.Entity)
	}
	return entities
}

// InferredTypes returns the classifier labels in file order
func (s *BatchState) InferredTypes() []string {
	types := make([]string, 0, len(s.Records))
	for _, r := range s.Records {
		types = append(types, r.InferredType)
	}
	return types
}

// Currencies returns the original (pre-conversion) invoice currencies
// in file order
func (s *BatchState) Currencies() []string {
	currencies := make([]string, 0, len(s.Records))
	for _, r := range s.Records {
		currencies = append(currencies, r.SourceCurrency)
	}
	return currencies
}

// Descriptions returns the invoice descriptions in file order
func (s *BatchState) Descriptions() []string {
	descriptions := make([]string, 0, len(s.Records))
	for _, r := range s.Records {
		descriptions = append(descriptions, r.Entity.Description)
	}
	return descriptions
}
