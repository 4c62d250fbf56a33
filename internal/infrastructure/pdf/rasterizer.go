package pdf

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoders for embedded image extraction
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/image/draw"
)

// Rasterizer renders one page of a PDF file to a raster image. The scale
// factor multiplies the page's natural size at 72 DPI.
//
// Implementations are the swappable rendering backend: the extractor and
// composer fail with an environment error when none is configured.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, page int, scale float64) (image.Image, error)
}

// EmbeddedImageRasterizer rasterizes a page by extracting its embedded
// raster image, which covers scanned documents. Pages without an
// embedded image produce a blank page-sized raster.
type EmbeddedImageRasterizer struct{}

// NewEmbeddedImageRasterizer creates an EmbeddedImageRasterizer
func NewEmbeddedImageRasterizer() *EmbeddedImageRasterizer {
	return &EmbeddedImageRasterizer{}
}

// Rasterize implements the Rasterizer interface
func (r *EmbeddedImageRasterizer) Rasterize(ctx context.Context, pdfPath string, page int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		return nil, fmt.Errorf("rasterize: scale must be positive, got %v", scale)
	}

	w, h, err := pageSizePoints(pdfPath, page)
	if err != nil {
		return nil, err
	}
	bounds := image.Rect(0, 0, int(w*scale), int(h*scale))

	src, err := extractPageImage(pdfPath, page)
	if err != nil {
		return nil, err
	}
	if src == nil {
		// no embedded raster on this page
		return blankPage(bounds), nil
	}

	dst := image.NewRGBA(bounds)
	draw.CatmullRom.Scale(dst, bounds, src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// extractPageImage extracts the largest embedded image of the given page,
// or nil if the page has none.
func extractPageImage(pdfPath string, page int) (image.Image, error) {
	outDir, err := os.MkdirTemp("", "smartprint-raster-*")
	if err != nil {
		return nil, fmt.Errorf("rasterize: failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	pages := []string{strconv.Itoa(page)}
	if err := api.ExtractImagesFile(pdfPath, outDir, pages, nil); err != nil {
		return nil, fmt.Errorf("rasterize: image extraction failed: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("rasterize: failed to read temp dir: %w", err)
	}

	var best image.Image
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		f, err := os.Open(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			continue
		}
		if best == nil || area(img) > area(best) {
			best = img
		}
	}
	return best, nil
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

// pageSizePoints returns the media box dimensions of the 1-based page
func pageSizePoints(pdfPath string, page int) (float64, float64, error) {
	dims, err := api.PageDimsFile(pdfPath)
	if err != nil {
		return 0, 0, fmt.Errorf("rasterize: failed to read page dimensions: %w", err)
	}
	if page < 1 || page > len(dims) {
		return 0, 0, fmt.Errorf("rasterize: page %d out of range (1..%d)", page, len(dims))
	}
	d := dims[page-1]
	return d.Width, d.Height, nil
}

func blankPage(bounds image.Rectangle) image.Image {
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// FixtureRasterizer renders deterministic fixtures: a solid page whose
// color is derived from the page number. Used in development setups and
// tests where no real rendering backend is available.
type FixtureRasterizer struct {
	// PageWidth and PageHeight are the unscaled page size in points;
	// zero values default to A4.
	PageWidth  float64
	PageHeight float64
}

// Rasterize implements the Rasterizer interface
func (r *FixtureRasterizer) Rasterize(ctx context.Context, pdfPath string, page int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		return nil, fmt.Errorf("rasterize: scale must be positive, got %v", scale)
	}

	w, h := r.PageWidth, r.PageHeight
	if w <= 0 || h <= 0 {
		w, h = 595, 842 // A4 at 72 DPI
	}

	bounds := image.Rect(0, 0, int(w*scale), int(h*scale))
	img := image.NewRGBA(bounds)
	shade := color.RGBA{R: uint8(40 * page % 256), G: uint8(80 * page % 256), B: uint8(120 * page % 256), A: 255}
	draw.Draw(img, bounds, image.NewUniform(shade), image.Point{}, draw.Src)
	return img, nil
}
