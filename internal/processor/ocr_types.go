/**
 * OCR Types - Shared data structures for OCR operations
 *
 * Common types used by the Tesseract adapter, the OCR queue and the line assembler
 */

package processor

import (
	"context"
	"image"
)

// Point is a single polygon vertex in image pixel coordinates
type Point struct {
	X float64
	Y float64
}

// OCRLine represents one recognized text region
type OCRLine struct {
	Text string
	// Polygon lists the region corners clockwise starting at the top-left
	Polygon    []Point
	Confidence float64
}

// TopLeft returns the first polygon vertex, or the origin for an empty polygon
func (l OCRLine) TopLeft() Point {
	if len(l.Polygon) == 0 {
		return Point{}
	}
	return l.Polygon[0]
}

// PolygonFromRect builds a TL, TR, BR, BL polygon from a rectangle
func PolygonFromRect(r image.Rectangle) []Point {
	return []Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}

// OCREngine recognizes text lines in a preprocessed image.
// Implementations need not be safe for concurrent use.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, img *image.Gray) ([]OCRLine, error)
}
