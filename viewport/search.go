package viewport

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/observability"
	"github.com/wudi/readkit/search"
)

// searchState tracks one search session. highlights accumulates matches per
// location, one boundary group per match; keys holds the matched locations in
// reading order; cursor indexes keys at the result page being viewed.
type searchState struct {
	query        string
	highlights   map[int][][]geo.Boundary
	keys         []int
	running      *atomic.Bool
	cursor       int
	resultsCount int
	started      time.Time
}

// StartSearch begins a background search for text, cancelling any search in
// progress. Results arrive as SearchResultEvent on the event channel.
func (e *Engine) StartSearch(text string) bool {
	if e.search != nil {
		e.search.running.Store(false)
		e.search = nil
	}

	query, err := search.MakeQuery(text)
	if err != nil {
		e.log.Warn("invalid search query", observability.String("query", text),
			observability.Error("err", err))
		e.emit(NotifyEvent{Message: "Invalid search query."})
		return false
	}

	running := &atomic.Bool{}
	running.Store(true)
	e.search = &searchState{
		query:      text,
		highlights: make(map[int][][]geo.Boundary),
		running:    running,
		started:    time.Now(),
	}

	go search.Run(e.doc, query, e.searchDir, e.pagesCount, running,
		func(location int, rects []geo.Boundary) {
			e.emit(SearchResultEvent{Location: location, Rects: rects})
		},
		func() {
			e.emit(SearchEndEvent{})
		})
	return true
}

// StopSearch cancels a running search. Stopping an already finished search
// tears the session down, as does stopping with results on at most one page;
// otherwise the accumulated highlights stay visible for result navigation.
func (e *Engine) StopSearch() Region {
	if e.search == nil {
		return Region{}
	}
	wasRunning := e.search.running.Swap(false)
	if !wasRunning || len(e.search.keys) <= 1 {
		e.search = nil
		return FullRegion()
	}
	return FullRegion()
}

// ResultPages returns the matched locations in reading order, with the
// number of matches on each.
func (e *Engine) ResultPages() ([]int, map[int]int) {
	if e.search == nil {
		return nil, nil
	}
	counts := make(map[int]int, len(e.search.keys))
	for loc, groups := range e.search.highlights {
		counts[loc] = len(groups)
	}
	return e.search.keys, counts
}

// SearchInfo reports the state of the current search session.
func (e *Engine) SearchInfo() (query string, results int, running bool, ok bool) {
	if e.search == nil {
		return "", 0, false, false
	}
	return e.search.query, e.search.resultsCount, e.search.running.Load(), true
}

func (e *Engine) applySearchResult(ev SearchResultEvent) Region {
	s := e.search
	if s == nil {
		return Region{}
	}

	pagesBefore := len(s.keys)
	if _, ok := s.highlights[ev.Location]; !ok {
		s.keys = append(s.keys, ev.Location)
		sort.Ints(s.keys)
	}
	s.highlights[ev.Location] = append(s.highlights[ev.Location], ev.Rects)
	s.resultsCount++

	// A new matched page inserted before the cursor shifts every later key
	// up by one; follow it so the cursor keeps naming the same page.
	if s.resultsCount > 1 && ev.Location <= e.currentPage && len(s.keys) > pagesBefore {
		s.cursor++
	}

	if s.resultsCount == 1 {
		return e.GoTo(ev.Location, true)
	}
	for _, chunk := range e.chunks {
		if chunk.Location == ev.Location {
			return FullRegion()
		}
	}
	return Region{}
}

func (e *Engine) applySearchEnd() Region {
	s := e.search
	if s == nil {
		return Region{}
	}
	s.running.Store(false)
	if s.resultsCount == 0 {
		e.search = nil
		e.emit(NotifyEvent{Message: "No matches found."})
		return FullRegion()
	}
	if s.resultsCount >= search.MaxResults {
		e.emit(NotifyEvent{Message: "Too many results."})
	}
	e.log.Info("search finished",
		observability.String("query", s.query),
		observability.Int(observability.MetricSearchResults, s.resultsCount),
		observability.Float64(observability.MetricSearchTime, time.Since(s.started).Seconds()))
	return FullRegion()
}

// syncResultsCursor repoints the result cursor at the last matched page at or
// before a location, so result navigation resumes from wherever the reader
// moved to.
func (e *Engine) syncResultsCursor(location int) {
	s := e.search
	if s == nil || len(s.keys) == 0 {
		return
	}
	n := sort.SearchInts(s.keys, location+1)
	s.cursor = max(n-1, 0)
}

// GoToResultsPage jumps to the index-th matched page.
func (e *Engine) GoToResultsPage(index int) (Region, bool) {
	s := e.search
	if s == nil || index < 0 || index >= len(s.keys) {
		return Region{}, false
	}
	return e.GoTo(s.keys[index], true), true
}

// GoToResultsNeighbor moves the result cursor to the adjacent matched page.
func (e *Engine) GoToResultsNeighbor(dir geo.CycleDir) (Region, bool) {
	s := e.search
	if s == nil || len(s.keys) == 0 {
		return Region{}, false
	}
	index := s.cursor
	if dir == geo.CycleNext {
		index++
	} else {
		index--
	}
	return e.GoToResultsPage(index)
}

// SearchRects returns the highlight rectangles of every visible match, one
// merged rectangle per matched line.
func (e *Engine) SearchRects() []geo.Rectangle {
	s := e.search
	if s == nil {
		return nil
	}
	var rects []geo.Rectangle
	for _, chunk := range e.chunks {
		for _, group := range s.highlights[chunk.Location] {
			var current geo.Rectangle
			haveCurrent := false
			for _, bound := range group {
				rect := wordScreenRect(bound, chunk)
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
	}
	return rects
}
