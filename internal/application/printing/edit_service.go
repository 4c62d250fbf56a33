package printing

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/domain/document"
	"github.com/smartprint/backend/internal/domain/printjob"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// EditSession is one user's in-progress editing of a loaded document:
// the immutable source plus the mutable page selection. A session owns
// its document handle and must be closed when abandoned or replaced.
type EditSession struct {
	mu  sync.Mutex
	doc document.SourceDocument
	sel *document.PageSelection
}

// PageCount returns the page count of the loaded document
func (es *EditSession) PageCount() int {
	return es.doc.PageCount()
}

// Close releases the session's document resources. Safe to call more
// than once.
func (es *EditSession) Close() error {
	return es.doc.Close()
}

// EditService drives the upload-and-edit use case: load a document,
// mutate the page selection, watch the live cost, and finally compose
// the output artifact.
type EditService struct {
	loader       document.Loader
	composer     document.Composer
	pricePerPage valueobject.Money
	logger       *zap.Logger
}

// NewEditService creates an edit service
func NewEditService(
	loader document.Loader,
	composer document.Composer,
	pricePerPage valueobject.Money,
	logger *zap.Logger,
) *EditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditService{
		loader:       loader,
		composer:     composer,
		pricePerPage: pricePerPage,
		logger:       logger,
	}
}

// Open loads a document stream into a fresh editing session. If prev is
// non-nil it is closed first: a session holds at most one document.
func (s *EditService) Open(ctx context.Context, r io.Reader, name string, prev *EditSession) (*EditSession, error) {
	if prev != nil {
		if err := prev.Close(); err != nil {
			s.logger.Warn("failed to close previous edit session", zap.Error(err))
		}
	}

	doc, err := s.loader.Load(ctx, r, name)
	if err != nil {
		return nil, err
	}
	sel, err := document.NewPageSelection(doc.PageCount())
	if err != nil {
		_ = doc.Close()
		return nil, err
	}

	s.logger.Info("document loaded for editing",
		zap.String("name", name),
		zap.Int("pages", doc.PageCount()),
	)
	return &EditSession{doc: doc, sel: sel}, nil
}

// Toggle flips membership of the given page in the selection
func (s *EditService) Toggle(es *EditSession, page int) error {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.sel.Toggle(page)
}

// SelectAll includes every page of the document
func (s *EditService) SelectAll(es *EditSession) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.sel.SelectAll()
}

// Clear empties the selection
func (s *EditService) Clear(es *EditSession) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.sel.Clear()
}

// SetCopies sets the copy count. Transient non-positive values are
// allowed while editing; Apply rejects them.
func (s *EditService) SetCopies(es *EditSession, n int) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.sel.SetCopies(n)
}

// SelectedPages returns the selected page indices in ascending order
func (s *EditService) SelectedPages(es *EditSession) []int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.sel.Pages()
}

// LiveCost returns the cost of the current selection at the configured
// price per page. An empty selection or an invalid copy count costs
// zero; the figure tracks every selection mutation.
func (s *EditService) LiveCost(es *EditSession) (valueobject.Money, error) {
	es.mu.Lock()
	defer es.mu.Unlock()
	return printjob.Quote(es.sel.EffectivePageCount(), s.pricePerPage)
}

// Previews renders every page of the document in order at preview scale
// and passes each raster to fn. Rendering stops on the first error fn
// returns.
func (s *EditService) Previews(ctx context.Context, es *EditSession, fn func(page int, img image.Image) error) error {
	return es.doc.EachPreview(ctx, fn)
}

// Apply validates the selection and composes the output artifact. The
// source document is left untouched and the session stays open, so the
// user can keep editing after a failed or discarded composition.
func (s *EditService) Apply(ctx context.Context, es *EditSession) (*document.ComposedArtifact, error) {
	es.mu.Lock()
	defer es.mu.Unlock()

	if err := es.sel.Validate(); err != nil {
		return nil, err
	}
	artifact, err := s.composer.Compose(ctx, es.doc, es.sel)
	if err != nil {
		return nil, err
	}
	if artifact == nil || len(artifact.Data) == 0 {
		return nil, shared.ErrComposition
	}

	s.logger.Info("composed output document",
		zap.String("name", artifact.Name),
		zap.Int("total_pages", artifact.TotalPages),
	)
	return artifact, nil
}

// Describe returns a one-line summary of the current selection, used in
// request logs.
func (s *EditService) Describe(es *EditSession) string {
	es.mu.Lock()
	defer es.mu.Unlock()
	return fmt.Sprintf("%d/%d pages x%d copies", es.sel.Size(), es.doc.PageCount(), es.sel.Copies())
}
