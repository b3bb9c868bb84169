// Package document defines the capability contract between the viewport
// engine and format backends. A backend exposes an ordered index space of
// locations over its content and resolves navigation, geometry, text and
// pixmap requests against it; everything else about the format stays behind
// this interface.
package document

import (
	"image"

	"github.com/wudi/readkit/geo"
)

// LocationKind discriminates navigation requests.
type LocationKind int

const (
	KindExact LocationKind = iota
	KindNext
	KindPrevious
)

// Location is a navigation request over the document's index space. The
// backend resolves it to a concrete index; next/previous are backend-defined
// because pagination can depend on content.
type Location struct {
	Kind  LocationKind
	Index int
}

// Exact requests the location containing index i.
func Exact(i int) Location { return Location{KindExact, i} }

// Next requests the location following the one containing i.
func Next(i int) Location { return Location{KindNext, i} }

// Previous requests the location preceding the one containing i.
func Previous(i int) Location { return Location{KindPrevious, i} }

// TextLocation addresses a word inside a location: the owning location plus
// a finer offset. For reflowable content the offset is a byte offset into
// the source, so ranges survive re-layout; for fixed layouts it is a word
// index within the page.
type TextLocation struct {
	Location int
	Offset   int
}

// Less orders text locations by (location, offset).
func (t TextLocation) Less(o TextLocation) bool {
	if t.Location != o.Location {
		return t.Location < o.Location
	}
	return t.Offset < o.Offset
}

// LessEq reports t <= o.
func (t TextLocation) LessEq(o TextLocation) bool { return !o.Less(t) }

// MinMax returns the two text locations in ascending order.
func MinMax(a, b TextLocation) (TextLocation, TextLocation) {
	if b.Less(a) {
		return b, a
	}
	return a, b
}

// BoundedText is a positioned span of text: a word, a line, or a link label,
// with its boundary in unscaled document units.
type BoundedText struct {
	Text     string
	Rect     geo.Boundary
	Location TextLocation
}

// TocEntry is a node of the table of contents. Entries hold resolved
// locations; the tree is a pure value and is never stored back into the
// engine by reference.
type TocEntry struct {
	Title    string
	Location int
	Children []TocEntry
}

// TextAlign selects the paragraph justification of reflowable backends.
type TextAlign int

const (
	AlignJustify TextAlign = iota
	AlignLeft
	AlignRight
	AlignCenter
)

// Document is the capability the viewport engine consumes. Boundary
// exhaustion is reported through false ok values, never through errors.
// Implementations need not be safe for concurrent use; callers serialize
// access through Shared.
type Document interface {
	// ResolveLocation resolves a navigation request to a concrete location.
	// It reports false at document boundaries.
	ResolveLocation(loc Location) (int, bool)
	// PagesCount returns the total number of locations under the current
	// layout.
	PagesCount() int
	// Dims returns the natural page size of a location in document units.
	Dims(index int) (width, height float64, ok bool)
	// Pixmap rasterizes a location at the given scale. It returns the
	// bitmap and the resolved location, and may fail for corrupt or
	// unsupported content.
	Pixmap(loc Location, scale float64, samples int) (*image.NRGBA, int, bool)
	// Words returns the positioned words of a location.
	Words(loc Location) ([]BoundedText, bool)
	// Lines returns the text-line boundaries of a location, ordered by
	// increasing vertical position.
	Lines(loc Location) ([]BoundedText, bool)
	// Links returns the positioned link targets of a location.
	Links(loc Location) ([]BoundedText, bool)
	// Images returns the boundaries of images on a location.
	Images(loc Location) ([]geo.Boundary, bool)
	// Toc returns the table of contents, if the document has one.
	Toc() ([]TocEntry, bool)
	// Chapter returns the TOC entry covering index, with the progress made
	// into it and the fraction remaining.
	Chapter(index int, toc []TocEntry) (*TocEntry, float64, float64, bool)
	// IsReflowable reports whether locations are byte-offset based and can
	// change when layout parameters change.
	IsReflowable() bool

	// Layout re-flows the document for a new surface and font size. It may
	// change PagesCount; cached locations become invalid.
	Layout(width, height int, fontSize float64, dpi int)
	SetFontFamily(family, path string)
	SetLineHeight(lineHeight float64)
	SetMarginWidth(width int)
	SetTextAlign(align TextAlign)
	SetExtraCSS(css string)
}
