/**
 * Tesseract OCR - text-line recognition for preprocessed problem images
 *
 * One gosseract client lives for the whole process. The client is not safe
 * for concurrent use; callers go through queue.OCRQueue.
 */

package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// tesseractClient is the subset of *gosseract.Client used here
type tesseractClient interface {
	SetImageFromBytes(data []byte) error
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
	Close() error
}

// TesseractOCR handles text-line OCR using Tesseract
type TesseractOCR struct {
	client tesseractClient
}

// TesseractConfig holds Tesseract configuration
type TesseractConfig struct {
	Languages []string
}

// NewTesseractOCR creates the process-wide Tesseract engine
func NewTesseractOCR(cfg *TesseractConfig) (*TesseractOCR, error) {
	client := gosseract.NewClient()

	if len(cfg.Languages) > 0 {
		if err := client.SetLanguage(cfg.Languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set languages %v: %w", cfg.Languages, err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &TesseractOCR{client: client}, nil
}

func (t *TesseractOCR) Name() string { return "tesseract" }

// Recognize returns one OCRLine per non-blank text line
func (t *TesseractOCR) Recognize(ctx context.Context, img *image.Gray) ([]OCRLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	return linesFromBoxes(boxes), nil
}

// Close releases the underlying Tesseract API handle
func (t *TesseractOCR) Close() error {
	return t.client.Close()
}

func linesFromBoxes(boxes []gosseract.BoundingBox) []OCRLine {
	lines := make([]OCRLine, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		lines = append(lines, OCRLine{
			Text:       text,
			Polygon:    PolygonFromRect(b.Box),
			Confidence: b.Confidence / 100.0,
		})
	}
	return lines
}
