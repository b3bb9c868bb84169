// Package viewport turns an abstract paginated or reflowable document into
// the bounded set of rendered regions visible on screen. It owns a small
// pixmap cache kept warm under navigation, builds per-frame render chunks
// for the supported zoom and scroll modes, computes selection and search
// highlight geometry across page boundaries, and runs cancellable background
// search and prefetch that report back through an event channel.
//
// One foreground goroutine owns all engine state. The only resource shared
// with background work is the document handle, which serializes access
// internally; background goroutines communicate exclusively through events.
package viewport

import (
	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/metadata"
	"github.com/wudi/readkit/observability"
)

const (
	historySize    = 32
	rectDistJitter = 24
	eventBuffer    = 256

	defaultCacheBound = 3
	defaultDPI        = 160
	defaultFontSize   = 11.0
)

// ViewPort is the current zoom/scroll configuration. PageOffset is the pan
// vector relative to the current resource's frame origin. ScrollMode is only
// meaningful under FitToWidth.
type ViewPort struct {
	ZoomMode    metadata.ZoomMode
	ZoomFactor  float64
	ScrollMode  metadata.ScrollMode
	PageOffset  geo.Point
	MarginWidth int
}

type chapterInfo struct {
	page     int
	title    string
	progress float64
	remain   float64
}

// Engine is the viewport engine for one open document.
type Engine struct {
	doc  *document.Shared
	rect geo.Rectangle

	cache       map[int]*Resource
	chunks      []RenderChunk
	text        map[int][]document.BoundedText
	annotations map[int][]metadata.Annotation
	noninverted map[int][]geo.Boundary

	viewPort    ViewPort
	currentPage int
	pagesCount  int
	reflowable  bool
	inverted    bool

	info    *metadata.ReaderInfo
	chapter chapterInfo

	selection *Selection
	selState  selectionState
	pointer   int

	search    *searchState
	searchDir geo.LinearDir

	history []int

	events chan Event
	log    observability.Logger

	cacheBound int
	dpi        int
	samples    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes engine logs to l.
func WithLogger(l observability.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithCacheBound overrides the resource cache bound.
func WithCacheBound(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cacheBound = n
		}
	}
}

// WithDPI sets the display density used to scale hit-test tolerances.
func WithDPI(dpi int) Option {
	return func(e *Engine) {
		if dpi > 0 {
			e.dpi = dpi
		}
	}
}

// WithReaderInfo attaches persistent reader state: the engine restores the
// current page and view port from it and keeps it updated as the user reads.
func WithReaderInfo(info *metadata.ReaderInfo) Option {
	return func(e *Engine) { e.info = info }
}

// WithSearchDirection sets the scan direction of subsequent searches.
func WithSearchDirection(dir geo.LinearDir) Option {
	return func(e *Engine) { e.searchDir = dir }
}

// WithColorSamples sets the color depth requested from the document.
func WithColorSamples(n int) Option {
	return func(e *Engine) { e.samples = n }
}

// New creates an engine over doc rendering into rect, lays the document out
// for that surface and builds the initial chunk set.
func New(doc *document.Shared, rect geo.Rectangle, opts ...Option) *Engine {
	e := &Engine{
		doc:         doc,
		rect:        rect,
		cache:       make(map[int]*Resource),
		text:        make(map[int][]document.BoundedText),
		annotations: make(map[int][]metadata.Annotation),
		noninverted: make(map[int][]geo.Boundary),
		events:      make(chan Event, eventBuffer),
		log:         observability.NopLogger{},
		cacheBound:  defaultCacheBound,
		dpi:         defaultDPI,
		samples:     1,
		chapter:     chapterInfo{page: -1},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.info == nil {
		e.info = &metadata.ReaderInfo{FontSize: defaultFontSize, LineHeight: 1.2}
	}
	if e.info.FontSize == 0 {
		e.info.FontSize = defaultFontSize
	}
	e.viewPort = ViewPort{
		ZoomMode:    e.info.ZoomMode,
		ZoomFactor:  e.info.ZoomFactor,
		ScrollMode:  e.info.ScrollMode,
		MarginWidth: e.info.MarginWidth,
	}
	if e.viewPort.ZoomMode == metadata.CustomZoom && e.viewPort.ZoomFactor == 0 {
		e.viewPort.ZoomFactor = 1
	}

	d := e.doc.Lock()
	d.Layout(rect.Width(), rect.Height(), e.info.FontSize, e.dpi)
	e.pagesCount = d.PagesCount()
	e.reflowable = d.IsReflowable()
	currentPage, ok := d.ResolveLocation(document.Exact(e.info.CurrentPage))
	e.doc.Unlock()
	if ok {
		e.currentPage = currentPage
	}
	e.info.PagesCount = e.pagesCount

	e.update()
	return e
}

// Events returns the channel background work reports through. The UI loop
// must drain it and pass each event to Apply.
func (e *Engine) Events() <-chan Event { return e.events }

// Apply handles an event on the foreground goroutine and returns the region
// it invalidated.
func (e *Engine) Apply(ev Event) Region {
	switch ev := ev.(type) {
	case LoadPixmapEvent:
		e.loadPixmap(ev.Location)
		return Region{}
	case SearchResultEvent:
		return e.applySearchResult(ev)
	case SearchEndEvent:
		return e.applySearchEnd()
	}
	return Region{}
}

// CurrentLocation returns the authoritative current location.
func (e *Engine) CurrentLocation() int { return e.currentPage }

// PagesCount returns the location count under the current layout.
func (e *Engine) PagesCount() int { return e.pagesCount }

// ViewPort returns the current zoom/scroll configuration.
func (e *Engine) ViewPort() ViewPort { return e.viewPort }

// Chunks returns the chunk list describing the current screen content. The
// slice is owned by the engine and valid until the next engine call.
func (e *Engine) Chunks() []RenderChunk { return e.chunks }

// Resource returns the cached resource for a location, if resident. The
// resource stays owned by the cache; callers must not retain it across
// engine calls.
func (e *Engine) Resource(location int) (*Resource, bool) {
	res, ok := e.cache[location]
	return res, ok
}

// Info returns the persistent reader state the engine maintains.
func (e *Engine) Info() *metadata.ReaderInfo { return e.info }

// Resize re-targets the engine at a new surface rectangle.
func (e *Engine) Resize(rect geo.Rectangle) Region {
	if e.reflowable && !e.doc.Idle() {
		e.log.Warn("resize skipped: document busy")
		return Region{}
	}
	e.rect = rect
	if e.reflowable {
		d := e.doc.Lock()
		d.Layout(rect.Width(), rect.Height(), e.info.FontSize, e.dpi)
		e.pagesCount = d.PagesCount()
		current, ok := d.ResolveLocation(document.Exact(e.firstVisibleOffset()))
		e.doc.Unlock()
		if ok {
			e.currentPage = current
		}
		e.text = make(map[int][]document.BoundedText)
	}
	e.cache = make(map[int]*Resource)
	e.viewPort.PageOffset = geo.Point{}
	e.update()
	return FullRegion()
}

// firstVisibleOffset returns a re-layout anchor: the fine offset of the
// first word of the current chunk set, falling back to the current page.
func (e *Engine) firstVisibleOffset() int {
	for _, chunk := range e.chunks {
		if words := e.text[chunk.Location]; len(words) > 0 {
			return words[0].Location.Offset
		}
	}
	return e.currentPage
}

func (e *Engine) emit(ev Event) {
	e.events <- ev
}

func (e *Engine) scaleByDPI(v int) int {
	return v * e.dpi / defaultDPI
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
