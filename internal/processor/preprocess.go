/**
 * Image Preprocessor - normalizes uploads for OCR
 *
 * grayscale -> contrast x1.5 -> sharpen -> binarize at 150
 */

package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/adverant/nexus/mathsolver/internal/errors"
)

const (
	ContrastFactor   = 1.5
	BinaryThreshold  = 150
	sharpenKernelSum = 16

	// DefaultMaxImagePixels caps width*height of a decoded upload
	DefaultMaxImagePixels = 89478485
)

// PIL-compatible SHARPEN kernel, row-major
var sharpenKernel = [9]int{
	-2, -2, -2,
	-2, 32, -2,
	-2, -2, -2,
}

// RawImage is a decoded upload
type RawImage struct {
	Image  image.Image
	Format string
}

// DecodeImage decodes an uploaded file into a RawImage. Images whose header
// declares more than maxPixels pixels are rejected before any pixel data is
// decoded; maxPixels <= 0 selects DefaultMaxImagePixels.
func DecodeImage(data []byte, maxPixels int) (RawImage, error) {
	if len(data) == 0 {
		return RawImage{}, errors.NewInvalidImageError(nil)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return RawImage{}, errors.NewInvalidImageError(err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > int64(maxPixels) {
		return RawImage{}, errors.NewInvalidImageError(
			fmt.Errorf("image size %dx%d exceeds limit of %d pixels", cfg.Width, cfg.Height, maxPixels))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return RawImage{}, errors.NewInvalidImageError(err)
	}
	return RawImage{Image: img, Format: format}, nil
}

// Preprocess derives the OCR-ready bilevel image. The input is never modified.
func Preprocess(raw RawImage) *image.Gray {
	gray := Grayscale(raw.Image)
	gray = EnhanceContrast(gray, ContrastFactor)
	gray = Sharpen(gray)
	return Binarize(gray, BinaryThreshold)
}

// Grayscale converts to 8-bit luminance with L = R*299/1000 + G*587/1000 + B*114/1000
func Grayscale(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	if g, ok := src.(*image.Gray); ok {
		draw.Draw(dst, dst.Bounds(), g, b.Min, draw.Src)
		return dst
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r8, g8, b8 := straightRGB(src.At(b.Min.X+x, b.Min.Y+y))
			dst.Pix[y*dst.Stride+x] = uint8((19595*r8 + 38470*g8 + 7471*b8 + 0x8000) >> 16)
		}
	}
	return dst
}

// straightRGB returns the stored 8-bit RGB of c with alpha ignored, so a
// transparent white background stays white.
func straightRGB(c color.Color) (r, g, b uint32) {
	switch v := c.(type) {
	case color.NRGBA:
		return uint32(v.R), uint32(v.G), uint32(v.B)
	case color.NRGBA64:
		return uint32(v.R >> 8), uint32(v.G >> 8), uint32(v.B >> 8)
	case color.NYCbCrA:
		r, g, b, _ := v.YCbCr.RGBA()
		return r >> 8, g >> 8, b >> 8
	}

	r, g, b, a := c.RGBA()
	if a == 0 || a == 0xffff {
		return r >> 8, g >> 8, b >> 8
	}
	// Un-premultiply partially transparent colors
	return (r * 0xffff / a) >> 8, (g * 0xffff / a) >> 8, (b * 0xffff / a) >> 8
}

// EnhanceContrast blends the image away from its mean gray level by factor
func EnhanceContrast(src *image.Gray, factor float64) *image.Gray {
	src = compact(src)
	dst := image.NewGray(src.Rect)
	n := src.Rect.Dx() * src.Rect.Dy()
	if n == 0 {
		return dst
	}

	var sum float64
	forEachPixel(src, func(_ int, p uint8) { sum += float64(p) })
	mean := math.Floor(sum/float64(n) + 0.5)

	forEachPixel(src, func(i int, p uint8) {
		dst.Pix[i] = clip8(int(mean + factor*(float64(p)-mean)))
	})
	return dst
}

// Sharpen applies the 3x3 sharpen kernel; the one-pixel border is copied as is
func Sharpen(src *image.Gray) *image.Gray {
	src = compact(src)
	dst := image.NewGray(src.Rect)
	copy(dst.Pix, src.Pix)

	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w < 3 || h < 3 {
		return dst
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			acc := 0
			k := 0
			for dy := -1; dy <= 1; dy++ {
				row := (y + dy) * src.Stride
				for dx := -1; dx <= 1; dx++ {
					acc += sharpenKernel[k] * int(src.Pix[row+x+dx])
					k++
				}
			}
			dst.Pix[y*dst.Stride+x] = clip8(roundDiv(acc, sharpenKernelSum))
		}
	}
	return dst
}

// Binarize maps pixels above threshold to white and the rest to black
func Binarize(src *image.Gray, threshold uint8) *image.Gray {
	src = compact(src)
	dst := image.NewGray(src.Rect)
	forEachPixel(src, func(i int, p uint8) {
		if p > threshold {
			dst.Pix[i] = 255
		} else {
			dst.Pix[i] = 0
		}
	})
	return dst
}

// compact returns an origin-anchored image whose stride equals its width
func compact(img *image.Gray) *image.Gray {
	if img.Rect.Min == (image.Point{}) && img.Stride == img.Rect.Dx() {
		return img
	}
	return Grayscale(img)
}

// forEachPixel visits every in-bounds pixel by its Pix offset
func forEachPixel(img *image.Gray, fn func(i int, p uint8)) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			fn(row+x, img.Pix[row+x])
		}
	}
}

// roundDiv divides rounding half away from zero
func roundDiv(n, d int) int {
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}

func clip8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
