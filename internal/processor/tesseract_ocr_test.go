package processor

import (
	"context"
	stderrors "errors"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type stubTesseract struct {
	boxes  []gosseract.BoundingBox
	err    error
	images int
	level  gosseract.PageIteratorLevel
}

func (s *stubTesseract) SetImageFromBytes(data []byte) error {
	if len(data) == 0 {
		return stderrors.New("empty image")
	}
	s.images++
	return nil
}

func (s *stubTesseract) GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error) {
	s.level = level
	return s.boxes, s.err
}

func (s *stubTesseract) Close() error { return nil }

func TestTesseractRecognizeBuildsLines(t *testing.T) {
	stub := &stubTesseract{boxes: []gosseract.BoundingBox{
		{Box: image.Rect(4, 30, 80, 50), Word: "2x = 6\n", Confidence: 91},
		{Box: image.Rect(0, 0, 10, 10), Word: "   ", Confidence: 10},
		{Box: image.Rect(4, 2, 60, 20), Word: "Solve:", Confidence: 88},
	}}
	engine := &TesseractOCR{client: stub}

	lines, err := engine.Recognize(context.Background(), uniformGray(100, 60, 255))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if stub.level != gosseract.RIL_TEXTLINE {
		t.Fatalf("expected text-line level, got %v", stub.level)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 non-blank lines, got %d", len(lines))
	}
	if lines[0].Text != "2x = 6" || lines[0].TopLeft() != (Point{X: 4, Y: 30}) {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if len(lines[1].Polygon) != 4 || lines[1].Polygon[2] != (Point{X: 60, Y: 20}) {
		t.Fatalf("unexpected polygon %+v", lines[1].Polygon)
	}
	if lines[1].Confidence != 0.88 {
		t.Fatalf("unexpected confidence %v", lines[1].Confidence)
	}

	text, err := AssembleLines(lines)
	if err != nil || text != "Solve: 2x = 6" {
		t.Fatalf("assembled %q, %v", text, err)
	}
}

func TestTesseractRecognizeErrors(t *testing.T) {
	engine := &TesseractOCR{client: &stubTesseract{err: stderrors.New("boom")}}
	if _, err := engine.Recognize(context.Background(), uniformGray(4, 4, 0)); err == nil {
		t.Fatalf("expected error from bounding boxes")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stub := &stubTesseract{}
	engine = &TesseractOCR{client: stub}
	if _, err := engine.Recognize(ctx, uniformGray(4, 4, 0)); !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if stub.images != 0 {
		t.Fatalf("canceled request must not reach tesseract")
	}
}

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestTesseractEngineRecognizesRenderedText(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString("Hello Math")

	engine, err := NewTesseractOCR(&TesseractConfig{Languages: []string{"eng"}})
	if err != nil {
		t.Fatalf("NewTesseractOCR() error = %v", err)
	}
	defer engine.Close()

	lines, err := engine.Recognize(context.Background(), Preprocess(RawImage{Image: img}))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	text, err := AssembleLines(lines)
	if err != nil {
		t.Fatalf("AssembleLines() error = %v", err)
	}
	if got := strings.ToLower(text); !strings.Contains(got, "hello") {
		t.Fatalf("unexpected OCR output: %q", text)
	}
}
