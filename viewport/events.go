package viewport

import "github.com/wudi/readkit/geo"

// EventType discriminates asynchronous engine events.
type EventType int

const (
	EventSearchResult EventType = iota
	EventSearchEnd
	EventLoadPixmap
	EventNotify
)

// Event is a message produced by background work (search, prefetch) and
// delivered through the engine's event channel. The UI loop drains the
// channel and feeds each event back through Engine.Apply on the foreground
// goroutine; background goroutines never mutate engine state directly.
type Event interface {
	Type() EventType
}

// SearchResultEvent carries one match: the location it was found at and the
// word boundaries covering the matched span.
type SearchResultEvent struct {
	Location int
	Rects    []geo.Boundary
}

func (SearchResultEvent) Type() EventType { return EventSearchResult }

// SearchEndEvent signals that a search terminated, whether by exhaustion,
// cancellation or the result cap.
type SearchEndEvent struct{}

func (SearchEndEvent) Type() EventType { return EventSearchEnd }

// LoadPixmapEvent asks the foreground to warm the cache for a location; the
// prefetch scheduler emits it after resolving a neighbor.
type LoadPixmapEvent struct {
	Location int
}

func (LoadPixmapEvent) Type() EventType { return EventLoadPixmap }

// NotifyEvent carries a user-facing message, such as the result cap being
// reached.
type NotifyEvent struct {
	Message string
}

func (NotifyEvent) Type() EventType { return EventNotify }

// Region is the render invalidation produced by an engine call: either a
// full redraw or a list of dirty rectangles.
type Region struct {
	Full  bool
	Rects []geo.Rectangle
}

// FullRegion requests a full redraw.
func FullRegion() Region { return Region{Full: true} }

// Add appends a dirty rectangle.
func (r *Region) Add(rect geo.Rectangle) {
	if !rect.Empty() {
		r.Rects = append(r.Rects, rect)
	}
}

// Empty reports whether the region invalidates nothing.
func (r Region) Empty() bool { return !r.Full && len(r.Rects) == 0 }
