package report

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/AVoss84/invoice-agent-app/internal/workflow"
)

// MissingTemplateError indicates the expense report template workbook
// does not exist. It is surfaced before any cell is written.
type MissingTemplateError struct {
	Path string
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("report template %s does not exist", e.Path)
}

// TripMetadata holds the header fields of the expense report
type TripMetadata struct {
	TravelerName string
	Location     string
	Destination  string
	CostCenter   string
	Reason       string
}

// Fixed layout of the expense report template: lodging entries fill one
// row block keyed by check-in date, everything else a second block
// keyed by issue date.
const (
	defaultSheetName = "RKA Seite 1"
	lodgingStartRow  = 19
	otherStartRow    = 29
)

// Writer fills the expense report template with extracted entities and
// saves the result as a new workbook
type Writer struct {
	log          *slog.Logger
	templatePath string
	outputPath   string
	sheetName    string
	metadata     TripMetadata
}

// NewWriter creates a Writer for the given template and output paths.
// An empty sheetName selects the template's standard sheet.
func NewWriter(log *slog.Logger, templatePath string, outputPath string, sheetName string, metadata TripMetadata) *Writer {
	if log == nil {
		log = slog.Default()
	}
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	return &Writer{
		log:          log,
		templatePath: templatePath,
		outputPath:   outputPath,
		sheetName:    sheetName,
		metadata:     metadata,
	}
}

// Write fills the template with the batch result and saves it to the
// output path. The saved workbook forces a full recalculation on next
// open so the template's formulas pick up the new values.
func (w *Writer) Write(state *workflow.BatchState) error {
	if _, err := os.Stat(w.templatePath); err != nil {
		return &MissingTemplateError{Path: w.templatePath}
	}

	w.log.Info("Updating travel expense report", "template", w.templatePath)

	wb, err := excelize.OpenFile(w.templatePath)
	if err != nil {
		return fmt.Errorf("opening template: %w", err)
	}
	defer wb.Close()

	index, err := wb.GetSheetIndex(w.sheetName)
	if err != nil || index == -1 {
		return fmt.Errorf("sheet %q not found in template", w.sheetName)
	}

	// Overwrite the cells that feed into the template's formulas
	header := map[string]string{
		"C2": w.metadata.TravelerName,
		"E2": w.metadata.CostCenter,
		"E3": w.metadata.Location,
		"C6": w.metadata.Destination,
		"C7": w.metadata.Reason,
	}
	for cell, value := range header {
		if err := wb.SetCellValue(w.sheetName, cell, value); err != nil {
			return fmt.Errorf("writing header cell %s: %w", cell, err)
		}
	}

	lodgingRow := lodgingStartRow
	otherRow := otherStartRow
	entry := 1
	for _, record := range state.Records {
		e := record.Entity

		var row int
		var date string
		if e.CheckinDate != "" {
			row = lodgingRow
			date = e.CheckinDate
			lodgingRow++
		} else {
			row = otherRow
			date = e.IssueDate
			otherRow++
		}

		if err := w.writeEntry(wb, row, date, entry, e.Description, e.TotalAmount); err != nil {
			return err
		}
		entry++
	}

	// Exchange rate note below the last written row
	noteCell := fmt.Sprintf("C%d", otherRow+2)
	if err := wb.SetCellValue(w.sheetName, noteCell, state.RateInfo); err != nil {
		return fmt.Errorf("writing rate info: %w", err)
	}

	fullCalc := true
	if err := wb.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &fullCalc}); err != nil {
		return fmt.Errorf("setting calc properties: %w", err)
	}

	if err := wb.SaveAs(w.outputPath); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	w.log.Info("Travel expense report saved", "output", w.outputPath, "entries", entry-1)
	return nil
}

func (w *Writer) writeEntry(wb *excelize.File, row int, date string, entry int, description string, amount string) error {
	cells := map[string]interface{}{
		fmt.Sprintf("A%d", row): date,
		fmt.Sprintf("B%d", row): entry,
		fmt.Sprintf("C%d", row): description,
		fmt.Sprintf("E%d", row): amountValue(amount),
	}
	for cell, value := range cells {
		if err := wb.SetCellValue(w.sheetName, cell, value); err != nil {
			return fmt.Errorf("writing cell %s: %w", cell, err)
		}
	}
	return nil
}

// amountValue writes amounts as numbers when possible so the template's
// sum formulas keep working
func amountValue(amount string) interface{} {
	if v, err := strconv.ParseFloat(amount, 64); err == nil {
		return v
	}
	return amount
}
