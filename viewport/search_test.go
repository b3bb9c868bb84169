package viewport

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/document/documenttest"
	"github.com/wudi/readkit/geo"
)

// searchableDoc scripts pages where only some contain the word "fox".
func searchableDoc(matches ...int) *documenttest.Doc {
	isMatch := map[int]bool{}
	for _, m := range matches {
		isMatch[m] = true
	}
	pages := make([]documenttest.Page, 6)
	for i := range pages {
		text := "plain"
		if isMatch[i] {
			text = "fox"
		}
		words, line := documenttest.WordRow(i, 0, 10, 12, "some", text, "words")
		pages[i] = documenttest.Page{Width: 100, Height: 100,
			Words: words, Lines: []document.BoundedText{line}}
	}
	return documenttest.New(pages...)
}

// drainSearch applies events until the search ends.
func drainSearch(t *testing.T, e *Engine) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-e.Events():
			e.Apply(ev)
			if _, ok := ev.(SearchEndEvent); ok {
				return
			}
		case <-timeout:
			t.Fatal("search did not finish")
		}
	}
}

func TestSearchJumpsToFirstResult(t *testing.T) {
	e := New(document.NewShared(searchableDoc(2, 4)), geo.Rect(0, 0, 100, 100))
	if !e.StartSearch("fox") {
		t.Fatal("StartSearch refused")
	}
	drainSearch(t, e)

	if e.CurrentLocation() != 2 {
		t.Fatalf("current = %d, want the first match", e.CurrentLocation())
	}
	_, results, running, ok := e.SearchInfo()
	if !ok || results != 2 || running {
		t.Fatalf("info = %d results, running %v, ok %v", results, running, ok)
	}
	pages, counts := e.ResultPages()
	if len(pages) != 2 || pages[0] != 2 || pages[1] != 4 || counts[2] != 1 {
		t.Fatalf("pages = %v counts = %v", pages, counts)
	}
	if len(e.SearchRects()) == 0 {
		t.Fatal("visible match should have highlight rects")
	}
}

func TestSearchResultNavigation(t *testing.T) {
	e := New(document.NewShared(searchableDoc(1, 3, 5)), geo.Rect(0, 0, 100, 100))
	e.StartSearch("fox")
	drainSearch(t, e)

	if _, ok := e.GoToResultsNeighbor(geo.CycleNext); !ok || e.CurrentLocation() != 3 {
		t.Fatalf("next result = %d", e.CurrentLocation())
	}
	if _, ok := e.GoToResultsNeighbor(geo.CycleNext); !ok || e.CurrentLocation() != 5 {
		t.Fatalf("second next = %d", e.CurrentLocation())
	}
	if _, ok := e.GoToResultsNeighbor(geo.CycleNext); ok {
		t.Fatal("no result past the last")
	}
	if _, ok := e.GoToResultsNeighbor(geo.CyclePrevious); !ok || e.CurrentLocation() != 3 {
		t.Fatalf("previous result = %d", e.CurrentLocation())
	}

	// Plain navigation re-syncs the cursor.
	e.GoTo(0, false)
	if _, ok := e.GoToResultsNeighbor(geo.CycleNext); !ok || e.CurrentLocation() != 3 {
		t.Fatalf("after resync = %d", e.CurrentLocation())
	}
}

func TestSearchNoMatches(t *testing.T) {
	e := New(document.NewShared(searchableDoc()), geo.Rect(0, 0, 100, 100))
	e.StartSearch("fox")
	drainSearch(t, e)

	if _, _, _, ok := e.SearchInfo(); ok {
		t.Fatal("empty search should tear down")
	}
	// The teardown queues a user notification.
	notified := false
	for len(e.Events()) > 0 {
		if _, ok := (<-e.Events()).(NotifyEvent); ok {
			notified = true
		}
	}
	if !notified {
		t.Fatal("no-match notification missing")
	}
}

func TestSearchInvalidPattern(t *testing.T) {
	e := New(document.NewShared(searchableDoc()), geo.Rect(0, 0, 100, 100))
	if e.StartSearch("(") {
		t.Fatal("invalid pattern should be refused")
	}
}

func TestStopSearchKeepsMultiPageHighlights(t *testing.T) {
	e := New(document.NewShared(searchableDoc(1, 3)), geo.Rect(0, 0, 100, 100))
	e.StartSearch("fox")
	drainSearch(t, e)

	// The scan already ended, so running is false: stop tears down.
	e.search.running.Store(true) // pretend the worker is still going
	e.StopSearch()
	if e.search == nil {
		t.Fatal("highlights on two pages should survive a stop")
	}

	// A second stop finds running already cleared and tears down.
	e.StopSearch()
	if e.search != nil {
		t.Fatal("second stop should tear down")
	}
	if region := e.StopSearch(); !region.Empty() {
		t.Fatal("stop without a session is a no-op")
	}
}

func TestStopSearchSinglePageTearsDown(t *testing.T) {
	e := New(document.NewShared(searchableDoc(2)), geo.Rect(0, 0, 100, 100))
	e.StartSearch("fox")
	drainSearch(t, e)

	e.search.running.Store(true)
	e.StopSearch()
	if e.search != nil {
		t.Fatal("results on a single page should not survive a stop")
	}
}

func TestCursorFollowsEarlierInsertions(t *testing.T) {
	e := New(document.NewShared(searchableDoc()), geo.Rect(0, 0, 100, 100))
	e.GoTo(4, false)
	e.search = &searchState{
		highlights: map[int][][]geo.Boundary{},
		running:    &atomic.Bool{},
	}

	// First result on the page being viewed.
	e.applySearchResult(SearchResultEvent{Location: 4,
		Rects: []geo.Boundary{{MaxX: 1, MaxY: 1}}})
	if e.search.cursor != 0 {
		t.Fatalf("cursor = %d", e.search.cursor)
	}

	// A later result on an earlier page shifts the keys; the cursor must
	// keep naming page 4.
	e.applySearchResult(SearchResultEvent{Location: 1,
		Rects: []geo.Boundary{{MaxX: 1, MaxY: 1}}})
	if e.search.cursor != 1 || e.search.keys[e.search.cursor] != 4 {
		t.Fatalf("cursor = %d keys = %v", e.search.cursor, e.search.keys)
	}

	// A second match on a known page inserts no key and moves nothing.
	e.applySearchResult(SearchResultEvent{Location: 1,
		Rects: []geo.Boundary{{MaxX: 1, MaxY: 1}}})
	if e.search.cursor != 1 || e.search.resultsCount != 3 {
		t.Fatalf("cursor = %d results = %d", e.search.cursor, e.search.resultsCount)
	}
}

func TestNewSearchCancelsPrevious(t *testing.T) {
	e := New(document.NewShared(searchableDoc(1)), geo.Rect(0, 0, 100, 100))
	e.StartSearch("fox")
	first := e.search.running
	e.StartSearch("plain")
	if first.Load() {
		t.Fatal("starting a search must cancel the previous one")
	}
	drainSearch(t, e)
}
