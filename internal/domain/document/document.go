package document

import (
	"context"
	"image"
	"io"
)

// SourceDocument is a handle to a loaded, immutable paginated document.
// It is owned by one editing session: loading a new document or ending
// the session must Close it, releasing all decode and render resources.
type SourceDocument interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// RenderPage renders the 1-based page to a raster at the given scale.
	RenderPage(ctx context.Context, page int, scale float64) (image.Image, error)

	// EachPreview renders every page in order at preview scale and passes
	// it to fn. The sequence is lazy: rendering stops on the first error
	// returned by fn. It can be restarted by calling EachPreview again.
	EachPreview(ctx context.Context, fn func(page int, img image.Image) error) error

	// Close releases the resources held for the session. It is safe to
	// call more than once.
	Close() error
}

// Loader loads a binary stream into a SourceDocument.
type Loader interface {
	Load(ctx context.Context, r io.Reader, name string) (SourceDocument, error)
}

// Composer rebuilds the selected pages of a source document into a new
// output document: for each copy, every selected page in ascending order,
// re-rendered at composition fidelity. Copies are contiguous blocks.
type Composer interface {
	Compose(ctx context.Context, doc SourceDocument, sel *PageSelection) (*ComposedArtifact, error)
}

// ComposedArtifact is the rebuilt output document. It is a new,
// independently addressable document: the source is never mutated.
type ComposedArtifact struct {
	Name       string
	Data       []byte
	TotalPages int // |selection| x copies, the billable page count
}
