package document

import (
	"sort"

	"github.com/smartprint/backend/internal/domain/shared"
)

// PageSelection tracks which pages of a source document are included and
// how many copies to produce. Page indices are 1-based, unique and kept
// in ascending numeric order regardless of insertion order.
//
// The copy count may hold a transient non-positive value while the user
// is editing; Validate rejects it at commit time.
type PageSelection struct {
	pages  map[int]struct{}
	total  int // page count of the source document
	copies int
}

// NewPageSelection creates an empty selection over a document with
// totalPages pages and a copy count of 1.
func NewPageSelection(totalPages int) (*PageSelection, error) {
	if totalPages < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Page count cannot be negative")
	}
	return &PageSelection{
		pages:  make(map[int]struct{}),
		total:  totalPages,
		copies: 1,
	}, nil
}

// Toggle flips membership of the given 1-based page index.
func (s *PageSelection) Toggle(page int) error {
	if page < 1 || page > s.total {
		return shared.NewDomainError("INVALID_INPUT", "Page index out of range")
	}
	if _, ok := s.pages[page]; ok {
		delete(s.pages, page)
	} else {
		s.pages[page] = struct{}{}
	}
	return nil
}

// SelectAll includes every page of the document.
func (s *PageSelection) SelectAll() {
	for i := 1; i <= s.total; i++ {
		s.pages[i] = struct{}{}
	}
}

// Clear empties the selection.
func (s *PageSelection) Clear() {
	s.pages = make(map[int]struct{})
}

// SetCopies sets the copy count. Non-positive values are accepted here
// (the UI may hold a transient invalid value) and rejected by Validate.
func (s *PageSelection) SetCopies(n int) {
	s.copies = n
}

// Copies returns the current copy count.
func (s *PageSelection) Copies() int {
	return s.copies
}

// Contains reports whether the given page is selected.
func (s *PageSelection) Contains(page int) bool {
	_, ok := s.pages[page]
	return ok
}

// Pages returns the selected page indices in ascending order.
func (s *PageSelection) Pages() []int {
	out := make([]int, 0, len(s.pages))
	for p := range s.pages {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Size returns the number of selected pages.
func (s *PageSelection) Size() int {
	return len(s.pages)
}

// EffectivePageCount returns |selection| x copies. A non-positive copy
// count contributes zero; this derived value is the sole input to the
// live cost display.
func (s *PageSelection) EffectivePageCount() int {
	if s.copies < 1 {
		return 0
	}
	return len(s.pages) * s.copies
}

// Validate checks the selection is usable for composition: at least one
// selected page and a positive copy count.
func (s *PageSelection) Validate() error {
	if len(s.pages) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Please select at least one page")
	}
	if s.copies < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Number of copies must be at least 1")
	}
	return nil
}
