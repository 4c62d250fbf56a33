package pdf

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/domain/document"
	"github.com/smartprint/backend/internal/domain/shared"
)

// DefaultPreviewScale matches the selection-thumbnail fidelity; the
// composer renders at a strictly higher scale.
const DefaultPreviewScale = 0.3

// Extractor loads PDF binaries into editing sessions. It implements
// document.Loader.
type Extractor struct {
	rasterizer   Rasterizer
	previewScale float64
	logger       *zap.Logger
}

// NewExtractor creates an Extractor backed by the given rasterizer.
// A nil rasterizer is allowed; rendering then fails with an
// environment error while page counting still works.
func NewExtractor(rasterizer Rasterizer, previewScale float64, logger *zap.Logger) *Extractor {
	if previewScale <= 0 {
		previewScale = DefaultPreviewScale
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		rasterizer:   rasterizer,
		previewScale: previewScale,
		logger:       logger,
	}
}

// Load validates the binary as a PDF and opens an editing session over
// it. The session holds a temp workspace released by Close on every
// exit path, including validation failure.
func (e *Extractor) Load(ctx context.Context, r io.Reader, name string) (document.SourceDocument, error) {
	dir, err := os.MkdirTemp("", "smartprint-doc-*")
	if err != nil {
		return nil, fmt.Errorf("extractor: failed to create workspace: %w", err)
	}

	path := filepath.Join(dir, "source.pdf")
	if err := writeFile(path, r); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("extractor: failed to store document: %w", err)
	}

	if err := api.ValidateFile(path, nil); err != nil {
		_ = os.RemoveAll(dir)
		e.logger.Warn("document failed PDF validation",
			zap.String("name", name),
			zap.Error(err),
		)
		return nil, shared.ErrDocumentFormat
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, shared.ErrDocumentFormat
	}

	e.logger.Debug("document loaded",
		zap.String("name", name),
		zap.Int("pages", pageCount),
	)

	return &session{
		name:         name,
		dir:          dir,
		path:         path,
		pageCount:    pageCount,
		rasterizer:   e.rasterizer,
		previewScale: e.previewScale,
	}, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// session is one loaded document. It implements document.SourceDocument.
type session struct {
	name         string
	dir          string
	path         string
	pageCount    int
	rasterizer   Rasterizer
	previewScale float64

	closeOnce sync.Once
	closeErr  error
}

// Name returns the file name the document was loaded under
func (s *session) Name() string {
	return s.name
}

// Path returns the workspace path of the stored source document
func (s *session) Path() string {
	return s.path
}

// PageCount implements document.SourceDocument
func (s *session) PageCount() int {
	return s.pageCount
}

// RenderPage implements document.SourceDocument
func (s *session) RenderPage(ctx context.Context, page int, scale float64) (image.Image, error) {
	if s.rasterizer == nil {
		return nil, shared.ErrEnvironment
	}
	if page < 1 || page > s.pageCount {
		return nil, shared.NewDomainError("INVALID_INPUT", "Page index out of range")
	}
	img, err := s.rasterizer.Rasterize(ctx, s.path, page, scale)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	return img, nil
}

// EachPreview implements document.SourceDocument
func (s *session) EachPreview(ctx context.Context, fn func(page int, img image.Image) error) error {
	for page := 1; page <= s.pageCount; page++ {
		img, err := s.RenderPage(ctx, page, s.previewScale)
		if err != nil {
			return err
		}
		if err := fn(page, img); err != nil {
			return err
		}
	}
	return nil
}

// Close implements document.SourceDocument. Safe to call repeatedly.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = os.RemoveAll(s.dir)
	})
	return s.closeErr
}
