package printing

import (
	"bytes"
	"context"
	"image"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartprint/backend/internal/domain/document"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// fakeDocument is an in-memory SourceDocument
type fakeDocument struct {
	pages  int
	closed int
}

func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) RenderPage(ctx context.Context, page int, scale float64) (image.Image, error) {
	if page < 1 || page > d.pages {
		return nil, shared.NewDomainError("INVALID_INPUT", "Page index out of range")
	}
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}

func (d *fakeDocument) EachPreview(ctx context.Context, fn func(page int, img image.Image) error) error {
	for p := 1; p <= d.pages; p++ {
		img, err := d.RenderPage(ctx, p, 0.3)
		if err != nil {
			return err
		}
		if err := fn(p, img); err != nil {
			return err
		}
	}
	return nil
}

func (d *fakeDocument) Close() error {
	d.closed++
	return nil
}

// fakeLoader hands out fakeDocuments with a fixed page count
type fakeLoader struct {
	pages   int
	loadErr error
	last    *fakeDocument
}

func (l *fakeLoader) Load(ctx context.Context, r io.Reader, name string) (document.SourceDocument, error) {
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	l.last = &fakeDocument{pages: l.pages}
	return l.last, nil
}

// fakeComposer records the selection it was asked to compose
type fakeComposer struct {
	composeErr error
	gotPages   []int
	gotCopies  int
}

func (c *fakeComposer) Compose(ctx context.Context, doc document.SourceDocument, sel *document.PageSelection) (*document.ComposedArtifact, error) {
	if c.composeErr != nil {
		return nil, c.composeErr
	}
	c.gotPages = sel.Pages()
	c.gotCopies = sel.Copies()
	return &document.ComposedArtifact{
		Name:       "edited-out.pdf",
		Data:       []byte("composed"),
		TotalPages: sel.EffectivePageCount(),
	}, nil
}

func newService(loader *fakeLoader, composer *fakeComposer) *EditService {
	return NewEditService(loader, composer, valueobject.NewMoneyINRFromFloat(0.50), nil)
}

func openSession(t *testing.T, svc *EditService) *EditSession {
	t.Helper()
	es, err := svc.Open(context.Background(), strings.NewReader("pdf bytes"), "doc.pdf", nil)
	require.NoError(t, err)
	return es
}

func TestEditServiceOpen(t *testing.T) {
	t.Run("loads a document and starts with an empty selection", func(t *testing.T) {
		svc := newService(&fakeLoader{pages: 4}, &fakeComposer{})
		es := openSession(t, svc)
		defer func() { _ = es.Close() }()

		assert.Equal(t, 4, es.PageCount())
		assert.Empty(t, svc.SelectedPages(es))

		cost, err := svc.LiveCost(es)
		require.NoError(t, err)
		assert.True(t, cost.IsZero())
	})

	t.Run("replacing a session closes the previous document", func(t *testing.T) {
		loader := &fakeLoader{pages: 4}
		svc := newService(loader, &fakeComposer{})
		first := openSession(t, svc)
		firstDoc := loader.last

		second, err := svc.Open(context.Background(), strings.NewReader("other"), "other.pdf", first)
		require.NoError(t, err)
		defer func() { _ = second.Close() }()

		assert.Equal(t, 1, firstDoc.closed)
	})

	t.Run("load failure propagates", func(t *testing.T) {
		svc := newService(&fakeLoader{loadErr: shared.ErrDocumentFormat}, &fakeComposer{})
		_, err := svc.Open(context.Background(), bytes.NewReader([]byte("junk")), "junk.bin", nil)
		assert.ErrorIs(t, err, shared.ErrDocumentFormat)
	})
}

func TestEditServiceLiveCost(t *testing.T) {
	svc := newService(&fakeLoader{pages: 4}, &fakeComposer{})
	es := openSession(t, svc)
	defer func() { _ = es.Close() }()

	require.NoError(t, svc.Toggle(es, 2))
	require.NoError(t, svc.Toggle(es, 4))
	svc.SetCopies(es, 2)

	cost, err := svc.LiveCost(es)
	require.NoError(t, err)
	assert.Equal(t, "2.00", cost.StringFixed())

	t.Run("invalid copy count contributes zero", func(t *testing.T) {
		svc.SetCopies(es, 0)
		cost, err := svc.LiveCost(es)
		require.NoError(t, err)
		assert.True(t, cost.IsZero())
	})

	t.Run("deselecting updates the figure", func(t *testing.T) {
		svc.SetCopies(es, 1)
		require.NoError(t, svc.Toggle(es, 2))
		cost, err := svc.LiveCost(es)
		require.NoError(t, err)
		assert.Equal(t, "0.50", cost.StringFixed())
	})

	t.Run("out of range page rejected", func(t *testing.T) {
		err := svc.Toggle(es, 5)
		assert.Equal(t, "INVALID_INPUT", shared.CodeOf(err))
	})
}

func TestEditServicePreviews(t *testing.T) {
	svc := newService(&fakeLoader{pages: 3}, &fakeComposer{})
	es := openSession(t, svc)
	defer func() { _ = es.Close() }()

	var order []int
	err := svc.Previews(context.Background(), es, func(page int, img image.Image) error {
		order = append(order, page)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEditServiceApply(t *testing.T) {
	t.Run("composes the validated selection", func(t *testing.T) {
		composer := &fakeComposer{}
		svc := newService(&fakeLoader{pages: 4}, composer)
		es := openSession(t, svc)
		defer func() { _ = es.Close() }()

		require.NoError(t, svc.Toggle(es, 4))
		require.NoError(t, svc.Toggle(es, 2))
		svc.SetCopies(es, 2)

		artifact, err := svc.Apply(context.Background(), es)
		require.NoError(t, err)
		assert.Equal(t, 4, artifact.TotalPages)
		assert.Equal(t, []int{2, 4}, composer.gotPages)
		assert.Equal(t, 2, composer.gotCopies)

		// the session survives a composition
		assert.Equal(t, 4, es.PageCount())
	})

	t.Run("empty selection rejected before composing", func(t *testing.T) {
		composer := &fakeComposer{}
		svc := newService(&fakeLoader{pages: 4}, composer)
		es := openSession(t, svc)
		defer func() { _ = es.Close() }()

		_, err := svc.Apply(context.Background(), es)
		assert.Equal(t, "INVALID_INPUT", shared.CodeOf(err))
		assert.Nil(t, composer.gotPages)
	})

	t.Run("invalid copy count rejected before composing", func(t *testing.T) {
		composer := &fakeComposer{}
		svc := newService(&fakeLoader{pages: 4}, composer)
		es := openSession(t, svc)
		defer func() { _ = es.Close() }()

		require.NoError(t, svc.Toggle(es, 1))
		svc.SetCopies(es, -1)

		_, err := svc.Apply(context.Background(), es)
		assert.Equal(t, "INVALID_INPUT", shared.CodeOf(err))
	})

	t.Run("composition failure propagates", func(t *testing.T) {
		svc := newService(&fakeLoader{pages: 4}, &fakeComposer{composeErr: shared.ErrComposition})
		es := openSession(t, svc)
		defer func() { _ = es.Close() }()

		require.NoError(t, svc.Toggle(es, 1))
		_, err := svc.Apply(context.Background(), es)
		assert.ErrorIs(t, err, shared.ErrComposition)
	})
}
