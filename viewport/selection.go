package viewport

import (
	"sort"
	"strings"
	"time"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/metadata"
	"github.com/wudi/readkit/search"
)

type selectionState int

const (
	stateIdle selectionState = iota
	stateSelecting
	stateAdjust
)

// Selection is a half-inclusive word range [Start, End] in fine locations.
// Anchor is the word the gesture started on; extending past it in either
// direction swaps which bound moves.
type Selection struct {
	Start  document.TextLocation
	End    document.TextLocation
	Anchor document.TextLocation
}

// Selection returns the active selection, if any.
func (e *Engine) Selection() (Selection, bool) {
	if e.selection == nil {
		return Selection{}, false
	}
	return *e.selection, true
}

// wordScreenRect maps a word boundary from page space to screen space through
// the chunk that displays it.
func wordScreenRect(rect geo.Boundary, chunk RenderChunk) geo.Rectangle {
	return rect.Scaled(chunk.Scale).ToRect().Sub(chunk.Frame.Min).Add(chunk.Position)
}

// nearestWord finds the visible word nearest to a screen point, within a
// density-scaled jitter tolerance. Points inside a word match at distance
// zero.
func (e *Engine) nearestWord(pt geo.Point) (document.BoundedText, geo.Rectangle, bool) {
	dmax := e.scaleByDPI(rectDistJitter)
	dmax *= dmax
	dmin := dmax

	var best document.BoundedText
	var bestRect geo.Rectangle
	found := false

	for _, chunk := range e.chunks {
		for _, word := range e.text[chunk.Location] {
			rect := wordScreenRect(word.Rect, chunk)
			if rect.Empty() {
				continue
			}
			if d := rect.Dist2(pt); d < dmin {
				dmin = d
				best = word
				bestRect = rect
				found = true
			}
		}
	}
	return best, bestRect, found
}

// BeginSelection starts a selection at the word nearest to pt. pointer ties
// the gesture to one contact so stray touches cannot move the selection.
func (e *Engine) BeginSelection(pt geo.Point, pointer int) (Region, bool) {
	word, rect, ok := e.nearestWord(pt)
	if !ok {
		return Region{}, false
	}
	e.selection = &Selection{Start: word.Location, End: word.Location, Anchor: word.Location}
	e.selState = stateSelecting
	e.pointer = pointer

	var region Region
	region.Add(rect)
	return region, true
}

// ExtendSelection grows or shrinks the selection toward the word nearest to
// pt. Crossing the anchor swaps the moving bound.
func (e *Engine) ExtendSelection(pt geo.Point, pointer int) Region {
	if e.selState != stateSelecting || pointer != e.pointer || e.selection == nil {
		return Region{}
	}
	word, _, ok := e.nearestWord(pt)
	if !ok {
		return Region{}
	}

	sel := *e.selection
	if word.Location.Less(sel.Anchor) {
		sel.Start, sel.End = word.Location, sel.Anchor
	} else {
		sel.Start, sel.End = sel.Anchor, word.Location
	}
	if sel == *e.selection {
		return Region{}
	}

	// Only the words between the previously moved bound and the new one
	// changed state; the anchor-side lines keep their highlight as is.
	oldMoved := e.selection.End
	if e.selection.Start != e.selection.Anchor {
		oldMoved = e.selection.Start
	}
	lo, hi := document.MinMax(oldMoved, word.Location)
	*e.selection = sel

	var region Region
	for _, rect := range e.mergedRects(lo, hi) {
		region.Add(rect)
	}
	return region
}

// EndSelection finishes the drag and leaves the selection in the adjustable
// state, returning the selected range.
func (e *Engine) EndSelection(pointer int) ([2]document.TextLocation, bool) {
	if e.selState != stateSelecting || pointer != e.pointer || e.selection == nil {
		return [2]document.TextLocation{}, false
	}
	e.selState = stateAdjust
	return [2]document.TextLocation{e.selection.Start, e.selection.End}, true
}

// AdjustSelection moves the selection bound nearest to a tapped word: taps
// before the start move the start, taps past the end move the end, and taps
// inside move whichever bound is closer in words.
func (e *Engine) AdjustSelection(pt geo.Point) Region {
	if e.selState != stateAdjust || e.selection == nil {
		return Region{}
	}
	word, _, ok := e.nearestWord(pt)
	if !ok {
		return Region{}
	}

	sel := *e.selection
	switch {
	case word.Location.LessEq(sel.Start):
		sel.Start = word.Location
	case sel.End.LessEq(word.Location):
		sel.End = word.Location
	default:
		s, m, n := e.wordIndices(sel.Start, word.Location, sel.End)
		if m-s > n-m {
			sel.End = word.Location
		} else {
			sel.Start = word.Location
		}
	}
	if sel == *e.selection {
		return Region{}
	}

	var lo, hi document.TextLocation
	if sel.Start != e.selection.Start {
		lo, hi = document.MinMax(e.selection.Start, sel.Start)
	} else {
		lo, hi = document.MinMax(e.selection.End, sel.End)
	}
	*e.selection = sel

	var region Region
	for _, rect := range e.mergedRects(lo, hi) {
		region.Add(rect)
	}
	return region
}

// ClearSelection drops the selection and returns the region it covered.
func (e *Engine) ClearSelection() Region {
	if e.selection == nil {
		return Region{}
	}
	var region Region
	for _, rect := range e.mergedRects(e.selection.Start, e.selection.End) {
		region.Add(rect)
	}
	e.selection = nil
	e.selState = stateIdle
	return region
}

// wordIndices returns the rank of three fine locations within the visible
// word sequence, for tap proximity decisions.
func (e *Engine) wordIndices(a, b, c document.TextLocation) (int, int, int) {
	ia, ib, ic := 0, 0, 0
	i := 0
	for _, word := range e.visibleWords() {
		if word.Location.LessEq(a) {
			ia = i
		}
		if word.Location.LessEq(b) {
			ib = i
		}
		if word.Location.LessEq(c) {
			ic = i
		}
		i++
	}
	return ia, ib, ic
}

// visibleWords returns the words of all chunks in reading order.
func (e *Engine) visibleWords() []document.BoundedText {
	var words []document.BoundedText
	for _, chunk := range e.chunks {
		words = append(words, e.text[chunk.Location]...)
	}
	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Location.Less(words[j].Location)
	})
	return words
}

// sameLine reports whether two screen rectangles sit on the same text line:
// their vertical overlap exceeds half the smaller height.
func sameLine(a, b geo.Rectangle) bool {
	overlap := min(a.Max.Y, b.Max.Y) - max(a.Min.Y, b.Min.Y)
	return overlap > min(a.Height(), b.Height())/2
}

// mergedRects produces the screen rectangles covering a word range, one per
// text line per chunk: consecutive words on the same line are absorbed into a
// single rectangle, including the inter-word gaps.
func (e *Engine) mergedRects(start, end document.TextLocation) []geo.Rectangle {
	var rects []geo.Rectangle
	for _, chunk := range e.chunks {
		var current geo.Rectangle
		haveCurrent := false
		for _, word := range e.text[chunk.Location] {
			if word.Location.Less(start) || end.Less(word.Location) {
				continue
			}
			rect := wordScreenRect(word.Rect, chunk)
			if rect.Empty() {
				continue
			}
			if haveCurrent && sameLine(current, rect) {
				current = current.Absorb(rect)
				continue
			}
			if haveCurrent {
				rects = append(rects, current)
			}
			current = rect
			haveCurrent = true
		}
		if haveCurrent {
			rects = append(rects, current)
		}
	}
	return rects
}

// SelectionRects returns the highlight rectangles of the active selection.
func (e *Engine) SelectionRects() []geo.Rectangle {
	if e.selection == nil {
		return nil
	}
	return e.mergedRects(e.selection.Start, e.selection.End)
}

// SelectionRect returns the bounding rectangle of the active selection.
func (e *Engine) SelectionRect() (geo.Rectangle, bool) {
	rects := e.SelectionRects()
	if len(rects) == 0 {
		return geo.Rectangle{}, false
	}
	bound := rects[0]
	for _, rect := range rects[1:] {
		bound = bound.Absorb(rect)
	}
	return bound, true
}

// AnnotationRects returns the highlight rectangles of every annotation
// overlapping the visible chunks.
func (e *Engine) AnnotationRects() map[*metadata.Annotation][]geo.Rectangle {
	out := make(map[*metadata.Annotation][]geo.Rectangle)
	seen := make(map[[2]document.TextLocation]bool)
	for _, annots := range e.annotations {
		for i := range annots {
			annot := &annots[i]
			key := annot.Selection
			if seen[key] {
				continue
			}
			seen[key] = true
			if rects := e.mergedRects(key[0], key[1]); len(rects) > 0 {
				out[annot] = rects
			}
		}
	}
	return out
}

// AnnotationAt returns the annotation covering the word nearest to a screen
// point, for long-press lookups.
func (e *Engine) AnnotationAt(pt geo.Point) (*metadata.Annotation, bool) {
	word, _, ok := e.nearestWord(pt)
	if !ok {
		return nil, false
	}
	for i := range e.info.Annotations {
		annot := &e.info.Annotations[i]
		if annot.Selection[0].LessEq(word.Location) && word.Location.LessEq(annot.Selection[1]) {
			return annot, true
		}
	}
	return nil, false
}

// TextExcerpt flattens the words of a fine-location range into prose, eliding
// soft hyphens and rejoining words split across line breaks.
func (e *Engine) TextExcerpt(start, end document.TextLocation) string {
	var words []document.BoundedText
	for _, word := range e.visibleWords() {
		if word.Location.Less(start) || end.Less(word.Location) {
			continue
		}
		words = append(words, word)
	}
	text, _ := search.Flatten(words, e.reflowable)
	return strings.TrimSpace(text)
}

// AddAnnotation records an annotation over the active selection and clears
// the selection.
func (e *Engine) AddAnnotation(note string) (Region, bool) {
	if e.selection == nil {
		return Region{}, false
	}
	sel := [2]document.TextLocation{e.selection.Start, e.selection.End}
	text := e.TextExcerpt(sel[0], sel[1])
	e.info.Annotations = append(e.info.Annotations, metadata.Annotation{
		Selection: sel,
		Note:      note,
		Text:      text,
		Modified:  time.Now(),
	})
	region := e.ClearSelection()
	e.updateAnnotations()
	region.Full = true
	return region, true
}
