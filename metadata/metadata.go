// Package metadata holds the per-document reader state that outlives a
// viewing session: zoom and scroll preferences, cropping margins, bookmarks
// and annotations. The viewport engine reads and mutates this state; how it
// is persisted is up to the application.
package metadata

import (
	"sort"
	"time"

	"github.com/wudi/readkit/document"
)

// ZoomMode governs the page-to-screen scaling rule.
type ZoomMode int

const (
	FitToPage ZoomMode = iota
	FitToWidth
	CustomZoom
)

// ScrollMode selects continuous or discrete scrolling. Only meaningful when
// the zoom mode is FitToWidth.
type ScrollMode int

const (
	ScreenScroll ScrollMode = iota
	PageScroll
)

// Margin is a cropping margin, as fractions of each page edge to discard.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// CroppingMargins stores cropping per page, with a shared default. A nil
// map means every page uses Any.
type CroppingMargins struct {
	Any    Margin
	ByPage map[int]Margin
}

// Margin returns the cropping margin for a page.
func (c *CroppingMargins) Margin(page int) Margin {
	if c == nil {
		return Margin{}
	}
	if m, ok := c.ByPage[page]; ok {
		return m
	}
	return c.Any
}

// SetMargin overrides the cropping margin of one page.
func (c *CroppingMargins) SetMargin(page int, m Margin) {
	if c.ByPage == nil {
		c.ByPage = make(map[int]Margin)
	}
	c.ByPage[page] = m
}

// Annotation is a highlighted range with an optional note. The text is the
// excerpt captured when the annotation was made, so it stays readable even
// if the document later fails to open.
type Annotation struct {
	Selection [2]document.TextLocation
	Note      string
	Text      string
	Modified  time.Time
}

// ReaderInfo is the persistent state of one document.
type ReaderInfo struct {
	CurrentPage     int
	PagesCount      int
	ZoomMode        ZoomMode
	ZoomFactor      float64
	ScrollMode      ScrollMode
	FontSize        float64
	FontFamily      string
	LineHeight      float64
	MarginWidth     int
	TextAlign       document.TextAlign
	CroppingMargins *CroppingMargins
	Bookmarks       map[int]bool
	Annotations     []Annotation
}

// ToggleBookmark flips the bookmark at a location and reports the new state.
func (r *ReaderInfo) ToggleBookmark(location int) bool {
	if r.Bookmarks == nil {
		r.Bookmarks = make(map[int]bool)
	}
	if r.Bookmarks[location] {
		delete(r.Bookmarks, location)
		return false
	}
	r.Bookmarks[location] = true
	return true
}

// BookmarkAfter returns the first bookmark strictly after location.
func (r *ReaderInfo) BookmarkAfter(location int) (int, bool) {
	return r.bookmarkNeighbor(location, true)
}

// BookmarkBefore returns the last bookmark strictly before location.
func (r *ReaderInfo) BookmarkBefore(location int) (int, bool) {
	return r.bookmarkNeighbor(location, false)
}

func (r *ReaderInfo) bookmarkNeighbor(location int, after bool) (int, bool) {
	if r == nil || len(r.Bookmarks) == 0 {
		return 0, false
	}
	keys := make([]int, 0, len(r.Bookmarks))
	for k := range r.Bookmarks {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if after {
		for _, k := range keys {
			if k > location {
				return k, true
			}
		}
		return 0, false
	}
	for i := len(keys) - 1; i >= 0; i-- {
		if keys[i] < location {
			return keys[i], true
		}
	}
	return 0, false
}
