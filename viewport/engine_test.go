package viewport

import (
	"testing"
	"time"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/document/documenttest"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/metadata"
	"github.com/wudi/readkit/observability"
)

// pagesOf builds n identical pages with one row of words and its line.
func pagesOf(n int, width, height float64, texts ...string) []documenttest.Page {
	pages := make([]documenttest.Page, n)
	for i := range pages {
		words, line := documenttest.WordRow(i, 0, 10, 12, texts...)
		pages[i] = documenttest.Page{
			Width: width, Height: height,
			Words: words, Lines: []document.BoundedText{line},
		}
	}
	return pages
}

func newScriptedDoc(n int, width, height float64) *documenttest.Doc {
	return documenttest.New(pagesOf(n, width, height, "alpha", "beta")...)
}

func fitPageEngine(t *testing.T, n int) (*Engine, *documenttest.Doc) {
	t.Helper()
	doc := documenttest.New(pagesOf(n, 100, 100, "alpha", "beta")...)
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100))
	return e, doc
}

func fitWidthEngine(t *testing.T, n int) (*Engine, *documenttest.Doc) {
	t.Helper()
	doc := documenttest.New(pagesOf(n, 100, 40, "alpha", "beta")...)
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100),
		WithReaderInfo(&metadata.ReaderInfo{ZoomMode: metadata.FitToWidth}))
	return e, doc
}

// waitIdle waits out the short-lived borrows prefetch goroutines take.
func waitIdle(t *testing.T, shared *document.Shared) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !shared.Idle() {
		if time.Now().After(deadline) {
			t.Fatal("document never became idle")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestScaleFitToPage(t *testing.T) {
	doc := documenttest.New(documenttest.Page{Width: 50, Height: 100})
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100))
	res, ok := e.Resource(0)
	if !ok {
		t.Fatal("page 0 not resident after New")
	}
	// Width would allow 2x, height only 1x.
	if res.Scale != 1.0 {
		t.Fatalf("scale = %v, want 1", res.Scale)
	}
}

func TestScaleFitToWidthIgnoresHeight(t *testing.T) {
	doc := documenttest.New(documenttest.Page{Width: 50, Height: 1000})
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100),
		WithReaderInfo(&metadata.ReaderInfo{ZoomMode: metadata.FitToWidth}))
	res, _ := e.Resource(0)
	if res.Scale != 2.0 {
		t.Fatalf("scale = %v, want 2", res.Scale)
	}
}

func TestScaleCustomZoomIsFactor(t *testing.T) {
	doc := documenttest.New(pagesOf(1, 100, 100, "x")...)
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100),
		WithReaderInfo(&metadata.ReaderInfo{ZoomMode: metadata.CustomZoom, ZoomFactor: 1.5}))
	res, _ := e.Resource(0)
	if res.Scale != 1.5 {
		t.Fatalf("scale = %v, want the custom factor", res.Scale)
	}
}

func TestScaleAppliesCropping(t *testing.T) {
	info := &metadata.ReaderInfo{
		ZoomMode:        metadata.FitToWidth,
		CroppingMargins: &metadata.CroppingMargins{Any: metadata.Margin{Left: 0.25, Right: 0.25}},
	}
	doc := documenttest.New(documenttest.Page{Width: 100, Height: 100})
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100), WithReaderInfo(info))
	res, _ := e.Resource(0)
	// Only half the page width survives cropping.
	if res.Scale != 2.0 {
		t.Fatalf("scale = %v, want 2", res.Scale)
	}
	// Pixmap is 200px wide at 2x; the frame keeps the middle half.
	if res.Frame != geo.Rect(50, 0, 150, 200) {
		t.Fatalf("frame = %v", res.Frame)
	}
}

func TestCacheNeverExceedsBound(t *testing.T) {
	e, _ := fitPageEngine(t, 10)
	for loc := 0; loc < 10; loc++ {
		e.GoTo(loc, false)
		if len(e.cache) > e.cacheBound {
			t.Fatalf("cache holds %d entries at page %d, bound %d",
				len(e.cache), loc, e.cacheBound)
		}
	}
}

func TestEvictPrefersTrailingSide(t *testing.T) {
	e := &Engine{cache: map[int]*Resource{}, cacheBound: 3, log: observability.NopLogger{}}
	for _, loc := range []int{2, 3, 4, 5, 6} {
		e.cache[loc] = &Resource{}
	}
	e.evict(4, 4)

	if len(e.cache) != 3 {
		t.Fatalf("cache size = %d", len(e.cache))
	}
	// Two entries on each side: the tie evicts the minimum, then the right
	// side is larger and loses its maximum.
	for _, loc := range []int{3, 4, 5} {
		if _, ok := e.cache[loc]; !ok {
			t.Errorf("location %d missing, cache = %v", loc, keysOf(e.cache))
		}
	}
}

func TestEvictKeepsVisibleChunksResident(t *testing.T) {
	// Pages a fraction of the screen height: the chunk run outgrows the
	// cache bound, which must stretch rather than drop visible locations.
	doc := documenttest.New(pagesOf(10, 100, 15, "alpha", "beta")...)
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100),
		WithReaderInfo(&metadata.ReaderInfo{ZoomMode: metadata.FitToWidth}))

	chunks := e.Chunks()
	if len(chunks) <= e.cacheBound {
		t.Fatalf("chunks = %d, want more than the bound %d", len(chunks), e.cacheBound)
	}
	for _, chunk := range chunks {
		if _, ok := e.cache[chunk.Location]; !ok {
			t.Errorf("visible location %d evicted, cache = %v",
				chunk.Location, keysOf(e.cache))
		}
	}
}

func keysOf(m map[int]*Resource) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRasterFailureInsertsPlaceholder(t *testing.T) {
	doc := documenttest.New(documenttest.Page{Width: 50, Height: 80, RasterFails: true})
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100))
	res, ok := e.Resource(0)
	if !ok {
		t.Fatal("placeholder not inserted")
	}
	// FitToPage scale is min(2, 1.25) = 1.25.
	if res.Frame != geo.Rect(0, 0, 62, 100) {
		t.Fatalf("placeholder frame = %v", res.Frame)
	}
	if res.Pixmap.Rect.Dx() != 62 || res.Pixmap.Rect.Dy() != 100 {
		t.Fatalf("placeholder pixmap = %v", res.Pixmap.Rect)
	}
}

func TestResizeSkippedWhileBusy(t *testing.T) {
	doc := documenttest.New(pagesOf(3, 100, 100, "x")...)
	doc.Reflow = true
	shared := document.NewShared(doc)
	e := New(shared, geo.Rect(0, 0, 100, 100))
	layouts := doc.Relayouts

	waitIdle(t, shared)
	shared.Retain()
	if region := e.Resize(geo.Rect(0, 0, 200, 200)); !region.Empty() {
		t.Fatal("resize should be dropped while the document is borrowed")
	}
	if doc.Relayouts != layouts {
		t.Fatal("layout ran despite outstanding borrow")
	}
	shared.Release()
	waitIdle(t, shared)

	if region := e.Resize(geo.Rect(0, 0, 200, 200)); region.Empty() {
		t.Fatal("resize should apply once idle")
	}
	if doc.Relayouts != layouts+1 {
		t.Fatalf("relayouts = %d, want %d", doc.Relayouts, layouts+1)
	}
}

func TestResizeClearsCacheForFixedLayout(t *testing.T) {
	e, doc := fitPageEngine(t, 3)
	layouts := doc.Relayouts
	e.Resize(geo.Rect(0, 0, 300, 300))
	if doc.Relayouts != layouts {
		t.Fatal("fixed layout should not re-flow on resize")
	}
	res, ok := e.Resource(0)
	if !ok {
		t.Fatal("current page not re-rendered")
	}
	if res.Scale != 3.0 {
		t.Fatalf("scale after resize = %v, want 3", res.Scale)
	}
}
