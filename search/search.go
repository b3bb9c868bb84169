// Package search implements background full-document text search. A worker
// scans locations monotonically in one direction, reconstructs a normalized
// text string per location, runs a compiled query over it and maps matches
// back to the word rectangles that cover them. Results stream to the caller
// through callbacks; the worker never touches engine state.
package search

import (
	"bytes"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
)

// MaxResults caps a single search. Reaching the cap cancels the scan.
const MaxResults = 200

var (
	softHyphen  = []byte("\u00ad")
	hyphenMinus = []byte("-")
)

// Span records the byte offset at which a word starts in the flattened text
// of a location, together with the word's boundary.
type Span struct {
	Offset int
	Rect   geo.Boundary
}

// Flatten joins the words of one location into a single searchable string.
// Soft hyphens at a break are elided so hyphenated words match whole; a
// plain hyphen-minus at a word end is kept without inserting a space; any
// other word boundary becomes a single space. For reflowable content two
// words are only separated when their byte offsets are discontiguous, which
// glues words the layout split.
func Flatten(words []document.BoundedText, reflow bool) (string, []Span) {
	var buf []byte
	spans := make([]Span, 0, len(words))
	endOffset := 0
	for _, w := range words {
		offset := w.Location.Offset
		if bytes.HasSuffix(buf, softHyphen) {
			buf = buf[:len(buf)-len(softHyphen)]
		} else if len(buf) > 0 && !bytes.HasSuffix(buf, hyphenMinus) && (!reflow || offset > endOffset) {
			buf = append(buf, ' ')
		}
		spans = append(spans, Span{Offset: len(buf), Rect: w.Rect})
		buf = append(buf, w.Text...)
		if reflow {
			endOffset = offset + len(w.Text)
		}
	}
	return string(buf), spans
}

// SpanRects returns the boundaries of the words covering the match span
// [start, end) of a flattened string.
func SpanRects(spans []Span, start, end int) []geo.Boundary {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].Offset > start }) - 1
	if i < 0 {
		return nil
	}
	var rects []geo.Boundary
	for ; i < len(spans) && spans[i].Offset < end; i++ {
		rects = append(rects, spans[i].Rect)
	}
	return rects
}

// MakeQuery compiles a search pattern. Patterns without an uppercase letter
// match case-insensitively.
func MakeQuery(text string) (*regexp.Regexp, error) {
	if strings.ToLower(text) == text {
		text = "(?i)" + text
	}
	return regexp.Compile(text)
}

// Run scans the whole document in one direction, emitting one onResult call
// per match in discovery order and exactly one onEnd call when the scan
// terminates: document exhausted, running cleared, or MaxResults reached (in
// which case running is cleared too). Run blocks; callers start it on its
// own goroutine. The document lock is held only while extracting words,
// never across a callback.
func Run(doc *document.Shared, query *regexp.Regexp, dir geo.LinearDir, pagesCount int,
	running *atomic.Bool, onResult func(location int, rects []geo.Boundary), onEnd func()) {

	doc.Retain()
	defer doc.Release()
	defer onEnd()
	defer running.Store(false)

	loc := document.Exact(0)
	if dir == geo.Backward {
		loc = document.Exact(pagesCount - 1)
	}
	count := 0

	for running.Load() {
		d := doc.Lock()
		location, ok := d.ResolveLocation(loc)
		var words []document.BoundedText
		reflow := false
		if ok {
			words, _ = d.Words(document.Exact(location))
			reflow = d.IsReflowable()
		}
		doc.Unlock()
		if !ok {
			return
		}

		text, spans := Flatten(words, reflow)
		for _, m := range query.FindAllStringIndex(text, -1) {
			if !running.Load() {
				return
			}
			rects := SpanRects(spans, m[0], m[1])
			if len(rects) == 0 {
				continue
			}
			count++
			onResult(location, rects)
			if count >= MaxResults {
				running.Store(false)
				return
			}
		}

		if dir == geo.Forward {
			loc = document.Next(location)
		} else {
			loc = document.Previous(location)
		}
	}
}
