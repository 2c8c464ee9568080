package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Converter turns an invoice file into plain text for classification
// and extraction
type Converter interface {
	// Convert reads the file at path and returns its text content
	Convert(ctx context.Context, path string) (string, error)
}

// ConversionError indicates a document could not be converted to text.
// There is no fallback text to classify, so callers treat it as fatal
// for the whole batch.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting document %s: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// FileConverter implements Converter for PDF and image files.
// PDFs are read through go-fitz; pages without embedded text (scans) are
// rendered and run through OCR. Images are normalized to PNG and OCR'd.
type FileConverter struct {
	log *slog.Logger
	ocr OCR
}

// NewFileConverter creates a FileConverter with the default Tesseract OCR engine
func NewFileConverter(log *slog.Logger) *FileConverter {
	return NewFileConverterWithOCR(log, &TesseractOCR{})
}

// NewFileConverterWithOCR creates a FileConverter with a custom OCR engine for testing
func NewFileConverterWithOCR(log *slog.Logger, ocr OCR) *FileConverter {
	if log == nil {
		log = slog.Default()
	}
	return &FileConverter{log: log, ocr: ocr}
}

// Convert reads the file at path and returns its text content
func (c *FileConverter) Convert(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ConversionError{Path: path, Err: err}
	}

	ext := strings.ToLower(filepath.Ext(path))
	var text string
	switch ext {
	case ".pdf":
		text, err = c.pdfText(ctx, data)
	case ".png", ".jpg", ".jpeg", ".gif", ".heic", ".heif":
		text, err = c.imageText(ctx, data)
	default:
		err = fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return "", &ConversionError{Path: path, Err: err}
	}

	if strings.TrimSpace(text) == "" {
		return "", &ConversionError{Path: path, Err: fmt.Errorf("no text could be recovered")}
	}

	c.log.Debug("Converted document", "path", path, "chars", len(text))
	return text, nil
}

// pdfText extracts embedded text page by page, falling back to rendering
// and OCR for pages that carry none (scanned documents).
func (c *FileConverter) pdfText(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i, err)
		}

		if strings.TrimSpace(text) == "" {
			img, err := doc.Image(i)
			if err != nil {
				return "", fmt.Errorf("rendering page %d: %w", i, err)
			}
			pngData, err := encodePNG(img)
			if err != nil {
				return "", fmt.Errorf("encoding page %d: %w", i, err)
			}
			text, err = c.ocr.Recognize(ctx, pngData)
			if err != nil {
				return "", fmt.Errorf("ocr on page %d: %w", i, err)
			}
		}

		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

// imageText normalizes the image to PNG and runs it through OCR
func (c *FileConverter) imageText(ctx context.Context, data []byte) (string, error) {
	pngData, err := imageToPNG(data)
	if err != nil {
		return "", err
	}
	return c.ocr.Recognize(ctx, pngData)
}
