package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smartprint/backend/internal/domain/document"
	"github.com/smartprint/backend/internal/domain/shared"
)

const (
	// DefaultCompositionScale is the output render fidelity; strictly
	// higher than the preview scale.
	DefaultCompositionScale = 1.5

	jpegQuality = 95

	// importDesc places each raster on an A4 output page, scaled to fit
	// and centered, preserving aspect ratio.
	importDesc = "form:A4, pos:c"
)

// Composer rebuilds the selected pages of a loaded document into a new
// output PDF. It implements document.Composer.
type Composer struct {
	scale  float64
	logger *zap.Logger
}

// NewComposer creates a Composer rendering at the given scale. Output
// fidelity must exceed preview fidelity, so scales at or below the
// preview scale fall back to the default.
func NewComposer(scale float64, logger *zap.Logger) *Composer {
	if scale <= DefaultPreviewScale {
		scale = DefaultCompositionScale
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{scale: scale, logger: logger}
}

// Compose renders every selected page at composition fidelity and
// assembles the output: for each copy, each selected page in ascending
// order, as contiguous blocks. All-or-nothing: if any page render
// fails, no artifact is returned. The source document is not touched.
func (c *Composer) Compose(ctx context.Context, doc document.SourceDocument, sel *document.PageSelection) (*document.ComposedArtifact, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	pages := sel.Pages()
	dir, err := os.MkdirTemp("", "smartprint-compose-*")
	if err != nil {
		return nil, fmt.Errorf("composer: failed to create workspace: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	// Each distinct page renders once at output fidelity; copies reuse
	// the rendered raster, never the preview one.
	pageFiles := make(map[int]string, len(pages))
	rendered := make([]image.Image, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, page := range pages {
		g.Go(func() error {
			img, err := doc.RenderPage(gctx, page, c.scale)
			if err != nil {
				return err
			}
			rendered[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, domainErr
		}
		c.logger.Warn("page render failed during composition", zap.Error(err))
		return nil, shared.ErrComposition
	}

	for i, page := range pages {
		path := filepath.Join(dir, fmt.Sprintf("page-%04d.jpg", page))
		if err := writeJPEG(path, rendered[i]); err != nil {
			c.logger.Warn("failed to encode composed page", zap.Int("page", page), zap.Error(err))
			return nil, shared.ErrComposition
		}
		pageFiles[page] = path
	}

	sequence := OutputSequence(pages, sel.Copies())
	imgFiles := make([]string, len(sequence))
	for i, page := range sequence {
		imgFiles[i] = pageFiles[page]
	}

	imp, err := api.Import(importDesc, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("composer: invalid import description: %w", err)
	}

	outPath := filepath.Join(dir, "composed.pdf")
	if err := api.ImportImagesFile(imgFiles, outPath, imp, nil); err != nil {
		c.logger.Warn("output assembly failed", zap.Error(err))
		return nil, shared.ErrComposition
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, shared.ErrComposition
	}

	name := "composed.pdf"
	if named, ok := doc.(interface{ Name() string }); ok && named.Name() != "" {
		name = "edited-" + named.Name()
	}

	c.logger.Debug("composition finished",
		zap.Int("selected", len(pages)),
		zap.Int("copies", sel.Copies()),
		zap.Int("total_pages", len(sequence)),
	)

	return &document.ComposedArtifact{
		Name:       name,
		Data:       data,
		TotalPages: len(sequence),
	}, nil
}

// OutputSequence flattens a selection into the output page order:
// the ascending selected pages repeated once per copy, copies as
// contiguous blocks, never interleaved.
func OutputSequence(pages []int, copies int) []int {
	out := make([]int, 0, len(pages)*copies)
	for c := 0; c < copies; c++ {
		out = append(out, pages...)
	}
	return out
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
