package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// OCR recognizes text in a PNG-encoded image
type OCR interface {
	Recognize(ctx context.Context, pngData []byte) (string, error)
}

// TesseractOCR implements OCR using the gosseract client.
// A fresh client is created per call; gosseract clients are cheap and
// not safe for reuse across recognitions with different images.
type TesseractOCR struct {
	// Languages holds optional language hints, e.g. "eng", "deu"
	Languages []string
}

// Recognize runs Tesseract over the image and returns the recognized text
func (t *TesseractOCR) Recognize(ctx context.Context, pngData []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(pngData); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(t.Languages) > 0 {
		if err := client.SetLanguage(t.Languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}

	return strings.TrimSpace(text), nil
}
