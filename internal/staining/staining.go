// Package staining applies the digital gram-staining effect to uploaded
// images. The transform is purely cosmetic: it recolors regions whose
// hue matches typical gram-positive (blue/purple) or gram-negative
// (red/pink) staining so bacteria-like structures stand out.
package staining

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	// Extended decoders for formats on the upload allow-list.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/microscan/microscan-go/internal/errors"
	"github.com/microscan/microscan-go/internal/logging"
)

// Processor applies the staining transform to image files.
type Processor struct {
	log *slog.Logger
}

// New returns a Processor with its own service logger.
func New() *Processor {
	return &Processor{log: logging.ForService("staining")}
}

// Dimensions returns the pixel width and height of an image file without
// decoding the full image.
func Dimensions(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.New(err).Component("staining").Category(errors.CategoryFileIO).Build()
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.Newf("decoding image config: %w", err).
			Component("staining").Category(errors.CategoryImageProcessing).Build()
	}
	return cfg.Width, cfg.Height, nil
}

// Apply runs the staining pipeline on the image at path and writes the
// result as PNG into outputDir as processed_<base>.png. Returns the path
// of the processed image.
func (p *Processor) Apply(path, outputDir string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.New(err).Component("staining").Category(errors.CategoryFileIO).Build()
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return "", errors.Newf("decoding image: %w", err).
			Component("staining").Category(errors.CategoryImageProcessing).
			Context("format", format).Build()
	}

	img := toRGBA(src)

	denoised := boxBlur(img)
	equalized := equalizeLuminance(denoised)
	stained := stainByHue(equalized, denoised)
	enhanced := adjust(stained, 1.2, 1.3, 1.1)
	final := sharpen(enhanced)

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outputDir, fmt.Sprintf("processed_%s.png", base))

	out, err := os.Create(outPath)
	if err != nil {
		return "", errors.New(err).Component("staining").Category(errors.CategoryFileIO).Build()
	}
	defer out.Close()

	if err := png.Encode(out, final); err != nil {
		return "", errors.Newf("encoding processed image: %w", err).
			Component("staining").Category(errors.CategoryImageProcessing).Build()
	}

	p.log.Debug("gram staining applied", "input", path, "output", outPath)
	return outPath, nil
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
	return dst
}

// boxBlur applies a 3x3 mean filter as a cheap denoising pass.
func boxBlur(img *image.RGBA) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var rSum, gSum, bSum, n int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < bounds.Min.X || nx >= bounds.Max.X || ny < bounds.Min.Y || ny >= bounds.Max.Y {
						continue
					}
					c := img.RGBAAt(nx, ny)
					rSum += int(c.R)
					gSum += int(c.G)
					bSum += int(c.B)
					n++
				}
			}
			dst.SetRGBA(x, y, color.RGBA{
				R: uint8(rSum / n),
				G: uint8(gSum / n),
				B: uint8(bSum / n),
				A: img.RGBAAt(x, y).A,
			})
		}
	}
	return dst
}

// equalizeLuminance spreads the luminance histogram over the full range,
// standing in for the original CLAHE contrast enhancement.
func equalizeLuminance(img *image.RGBA) *image.RGBA {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return img
	}

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[luminance(img.RGBAAt(x, y))]++
		}
	}

	var lut [256]uint8
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = uint8(cum * 255 / total)
	}

	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			l := luminance(c)
			if l == 0 {
				dst.SetRGBA(x, y, c)
				continue
			}
			scale := float64(lut[l]) / float64(l)
			dst.SetRGBA(x, y, color.RGBA{
				R: clamp8(float64(c.R) * scale),
				G: clamp8(float64(c.G) * scale),
				B: clamp8(float64(c.B) * scale),
				A: c.A,
			})
		}
	}
	return dst
}

// stainByHue recolors gram-positive hue regions purple and gram-negative
// regions red. Masking uses the pre-equalization image so the hue test
// matches the source colors.
func stainByHue(img, maskSource *image.RGBA) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)

	purple := color.RGBA{R: 200, G: 50, B: 180, A: 255}
	red := color.RGBA{R: 255, G: 50, B: 50, A: 255}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			h, s, v := rgbToHSV(maskSource.RGBAAt(x, y))
			switch {
			case h >= 200 && h <= 260 && s >= 0.2 && v >= 0.2:
				dst.SetRGBA(x, y, purple)
			case (h <= 40 || h >= 320) && s >= 0.2 && v >= 0.2:
				dst.SetRGBA(x, y, red)
			default:
				dst.SetRGBA(x, y, img.RGBAAt(x, y))
			}
		}
	}
	return dst
}

// adjust applies brightness, contrast and saturation multipliers.
func adjust(img *image.RGBA, brightness, contrast, saturation float64) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			r := float64(c.R) * brightness
			g := float64(c.G) * brightness
			b := float64(c.B) * brightness

			r = (r-128)*contrast + 128
			g = (g-128)*contrast + 128
			b = (b-128)*contrast + 128

			gray := 0.299*r + 0.587*g + 0.114*b
			r = gray + (r-gray)*saturation
			g = gray + (g-gray)*saturation
			b = gray + (b-gray)*saturation

			dst.SetRGBA(x, y, color.RGBA{R: clamp8(r), G: clamp8(g), B: clamp8(b), A: c.A})
		}
	}
	return dst
}

// sharpen applies the classic 3x3 sharpening kernel.
func sharpen(img *image.RGBA) *image.RGBA {
	kernel := [3][3]float64{
		{-1, -1, -1},
		{-1, 9, -1},
		{-1, -1, -1},
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var rSum, gSum, bSum float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < bounds.Min.X {
						nx = bounds.Min.X
					}
					if nx >= bounds.Max.X {
						nx = bounds.Max.X - 1
					}
					if ny < bounds.Min.Y {
						ny = bounds.Min.Y
					}
					if ny >= bounds.Max.Y {
						ny = bounds.Max.Y - 1
					}
					c := img.RGBAAt(nx, ny)
					w := kernel[dy+1][dx+1]
					rSum += float64(c.R) * w
					gSum += float64(c.G) * w
					bSum += float64(c.B) * w
				}
			}
			dst.SetRGBA(x, y, color.RGBA{
				R: clamp8(rSum),
				G: clamp8(gSum),
				B: clamp8(bSum),
				A: img.RGBAAt(x, y).A,
			})
		}
	}
	return dst
}

func luminance(c color.RGBA) int {
	return int(0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B))
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// rgbToHSV converts to hue in degrees [0,360), saturation and value in
// [0,1].
func rgbToHSV(c color.RGBA) (h, s, v float64) {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	v = maxC
	if maxC > 0 {
		s = delta / maxC
	}

	if delta == 0 {
		return 0, s, v
	}
	switch maxC {
	case r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}
