package viewport

import (
	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/metadata"
)

// GoTo jumps to a location. record controls whether the jump is pushed on
// the navigation history; incremental movement never records.
func (e *Engine) GoTo(location int, record bool) Region {
	d := e.doc.Lock()
	loc, ok := d.ResolveLocation(document.Exact(location))
	e.doc.Unlock()
	if !ok {
		return Region{}
	}

	if record {
		e.history = append(e.history, e.currentPage)
		if len(e.history) > historySize {
			e.history = e.history[1:]
		}
	}

	e.syncResultsCursor(loc)
	e.currentPage = loc
	e.viewPort.PageOffset = geo.Point{}
	e.info.CurrentPage = loc
	e.update()
	return FullRegion()
}

// Back pops the navigation history.
func (e *Engine) Back() Region {
	if len(e.history) == 0 {
		return Region{}
	}
	location := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	return e.GoTo(location, false)
}

// HistoryLen returns the number of poppable history entries.
func (e *Engine) HistoryLen() int { return len(e.history) }

// GoToNeighbor turns to the next or previous screenful. It reports false at
// a document boundary, leaving the caller to notify or close.
func (e *Engine) GoToNeighbor(dir geo.CycleDir) (Region, bool) {
	if len(e.chunks) == 0 {
		return Region{}, false
	}

	currentPage := e.currentPage
	pageOffset := e.viewPort.PageOffset

	var neighloc document.Location
	switch dir {
	case geo.CyclePrevious:
		neighloc = e.previousNeighbor(currentPage)
	case geo.CycleNext:
		neighloc = e.nextNeighbor(currentPage)
	}

	d := e.doc.Lock()
	loc, ok := d.ResolveLocation(neighloc)
	e.doc.Unlock()

	if !ok || (loc == currentPage && e.viewPort.PageOffset == pageOffset) {
		return Region{}, false
	}

	e.syncResultsCursor(loc)
	e.currentPage = loc
	e.info.CurrentPage = loc
	e.update()
	return FullRegion(), true
}

func (e *Engine) previousNeighbor(currentPage int) document.Location {
	switch e.viewPort.ZoomMode {
	case metadata.FitToPage:
		return document.Previous(currentPage)
	case metadata.CustomZoom:
		e.viewPort.PageOffset = geo.Point{}
		return document.Previous(currentPage)
	}

	// FitToWidth.
	if e.viewPort.ScrollMode == metadata.PageScroll {
		availableHeight := e.rect.Height() - 2*e.viewPort.MarginWidth
		if e.viewPort.PageOffset.Y > 0 {
			e.viewPort.PageOffset.Y = max(e.viewPort.PageOffset.Y-availableHeight, 0)
			return document.Exact(currentPage)
		}
		d := e.doc.Lock()
		previous, ok := d.ResolveLocation(document.Previous(currentPage))
		e.doc.Unlock()
		if ok {
			e.loadPixmap(previous)
			frame := e.cache[previous].Frame
			e.viewPort.PageOffset.Y = max(frame.Height()-availableHeight, 0)
		}
		return document.Previous(currentPage)
	}

	// Continuous scroll: walk backward accumulating one screenful above the
	// first visible chunk, then snap the top to a line boundary.
	firstChunk := e.chunks[0]
	location := firstChunk.Location
	availableHeight := e.rect.Height() - 2*e.viewPort.MarginWidth
	height := 0

	for {
		e.loadPixmap(location)
		e.loadText(location)
		frame := e.cache[location].Frame
		if location == firstChunk.Location {
			frame.Max.Y = firstChunk.Frame.Min.Y
		}
		height += frame.Height()
		if height >= availableHeight {
			break
		}
		d := e.doc.Lock()
		previous, ok := d.ResolveLocation(document.Previous(location))
		e.doc.Unlock()
		if !ok {
			break
		}
		location = previous
	}

	nextTopOffset := max(height-availableHeight, 0)
	if height > availableHeight {
		res := e.cache[location]
		d := e.doc.Lock()
		lines, ok := d.Lines(document.Exact(location))
		e.doc.Unlock()
		if ok {
			if y, found := findCut(res.Frame, res.Frame.Min.Y+nextTopOffset, res.Scale, geo.Forward, lines); found {
				y = clamp(y, res.Frame.Min.Y, res.Frame.Max.Y-1)
				nextTopOffset = y - res.Frame.Min.Y
			}
		}
	}

	e.viewPort.PageOffset.Y = nextTopOffset
	return document.Exact(location)
}

func (e *Engine) nextNeighbor(currentPage int) document.Location {
	switch e.viewPort.ZoomMode {
	case metadata.FitToPage:
		return document.Next(currentPage)
	case metadata.CustomZoom:
		e.viewPort.PageOffset = geo.Point{}
		return document.Next(currentPage)
	}

	if e.viewPort.ScrollMode == metadata.PageScroll {
		availableHeight := e.rect.Height() - 2*e.viewPort.MarginWidth
		frameHeight := e.cache[currentPage].Frame.Height()
		nextTopOffset := e.viewPort.PageOffset.Y + availableHeight
		if frameHeight < availableHeight || nextTopOffset == frameHeight {
			e.viewPort.PageOffset.Y = 0
			return document.Next(currentPage)
		}
		e.viewPort.PageOffset.Y = min(nextTopOffset, frameHeight-availableHeight)
		return document.Exact(currentPage)
	}

	lastChunk := e.chunks[len(e.chunks)-1]
	e.loadPixmap(lastChunk.Location)
	e.loadText(lastChunk.Location)
	pixmapFrame := e.cache[lastChunk.Location].Frame
	nextTopOffset := lastChunk.Frame.Max.Y - pixmapFrame.Min.Y
	if nextTopOffset == pixmapFrame.Height() {
		e.viewPort.PageOffset.Y = 0
		return document.Next(lastChunk.Location)
	}
	e.viewPort.PageOffset.Y = nextTopOffset
	return document.Exact(lastChunk.Location)
}

// Scroll pans the viewport by delta: two-dimensional panning under custom
// zoom, vertical scrolling under fit-to-width.
func (e *Engine) Scroll(delta geo.Point) Region {
	if e.viewPort.ZoomMode == metadata.CustomZoom {
		return e.directionalScroll(delta)
	}
	return e.verticalScroll(delta.Y)
}

func (e *Engine) verticalScroll(deltaY int) Region {
	if deltaY == 0 || e.viewPort.ZoomMode == metadata.FitToPage || len(e.cache) == 0 {
		return Region{}
	}

	nextTopOffset := e.viewPort.PageOffset.Y + deltaY
	location := e.currentPage

	switch e.viewPort.ScrollMode {
	case metadata.ScreenScroll:
		maxTopOffset := max(e.cache[location].Frame.Height()-1, 0)

		if nextTopOffset < 0 {
			d := e.doc.Lock()
			previous, ok := d.ResolveLocation(document.Previous(location))
			e.doc.Unlock()
			if ok {
				if _, cached := e.cache[previous]; !cached {
					return Region{}
				}
				location = previous
				frame := e.cache[location].Frame
				nextTopOffset = max(frame.Height()+nextTopOffset, 0)
			} else {
				nextTopOffset = 0
			}
		} else if nextTopOffset > maxTopOffset {
			d := e.doc.Lock()
			next, ok := d.ResolveLocation(document.Next(location))
			e.doc.Unlock()
			if ok {
				if _, cached := e.cache[next]; !cached {
					return Region{}
				}
				location = next
				frame := e.cache[location].Frame
				mto := max(frame.Height()-1, 0)
				nextTopOffset = min(nextTopOffset-maxTopOffset-1, mto)
			} else {
				nextTopOffset = maxTopOffset
			}
		}

		res := e.cache[location]
		d := e.doc.Lock()
		lines, ok := d.Lines(document.Exact(location))
		e.doc.Unlock()
		if ok {
			if y, found := findCut(res.Frame, res.Frame.Min.Y+nextTopOffset, res.Scale, geo.Forward, lines); found {
				y = clamp(y, res.Frame.Min.Y, res.Frame.Max.Y-1)
				nextTopOffset = y - res.Frame.Min.Y
			}
		}

	case metadata.PageScroll:
		frameHeight := e.cache[location].Frame.Height()
		availableHeight := e.rect.Height() - 2*e.viewPort.MarginWidth
		if frameHeight > availableHeight {
			nextTopOffset = clamp(nextTopOffset, 0, frameHeight-availableHeight)
		} else {
			nextTopOffset = e.viewPort.PageOffset.Y
		}
	}

	locationChanged := location != e.currentPage
	if !locationChanged && nextTopOffset == e.viewPort.PageOffset.Y {
		return Region{}
	}

	e.viewPort.PageOffset.Y = nextTopOffset
	e.currentPage = location
	e.info.CurrentPage = location
	if locationChanged {
		e.syncResultsCursor(location)
	}
	e.update()
	return FullRegion()
}

func (e *Engine) directionalScroll(delta geo.Point) Region {
	if delta == (geo.Point{}) || len(e.cache) == 0 {
		return Region{}
	}
	res, ok := e.cache[e.currentPage]
	if !ok {
		return Region{}
	}
	nextPageOffset := e.viewPort.PageOffset.Add(delta)
	vpw := e.rect.Width() - 2*e.viewPort.MarginWidth
	vph := e.rect.Height() - 2*e.viewPort.MarginWidth
	vprect := geo.Rect(0, 0, vpw, vph).Add(nextPageOffset).Add(res.Frame.Min)
	if !vprect.Overlaps(res.Frame) {
		return Region{}
	}
	e.viewPort.PageOffset = nextPageOffset
	e.update()
	return FullRegion()
}

// GoToChapter jumps to the start of the previous or next chapter. Going
// backward from the middle of a chapter first returns to its start.
func (e *Engine) GoToChapter(dir geo.CycleDir) Region {
	toc, ok := e.toc()
	if !ok {
		return Region{}
	}

	target := -1
	if dir == geo.CyclePrevious {
		d := e.doc.Lock()
		entry, _, _, found := d.Chapter(e.currentPage, toc)
		e.doc.Unlock()
		if found && entry.Location < e.currentPage {
			target = entry.Location
		}
	}
	if target < 0 {
		if entry, found := document.ChapterRelative(e.currentPage, dir, toc); found {
			target = entry.Location
		}
	}
	if target < 0 {
		return Region{}
	}
	return e.GoTo(target, true)
}

// ChapterInfo returns the title and progress of the chapter covering the
// current location. The answer is cached and recomputed only when the
// current location changes.
func (e *Engine) ChapterInfo() (title string, progress, remain float64) {
	if e.chapter.page != e.currentPage {
		e.chapter = chapterInfo{page: e.currentPage}
		if toc, ok := e.toc(); ok {
			d := e.doc.Lock()
			entry, progress, remain, found := d.Chapter(e.currentPage, toc)
			e.doc.Unlock()
			if found {
				e.chapter.title = entry.Title
				e.chapter.progress = progress
				e.chapter.remain = remain
			}
		}
	}
	return e.chapter.title, e.chapter.progress, e.chapter.remain
}

func (e *Engine) toc() ([]document.TocEntry, bool) {
	d := e.doc.Lock()
	toc, ok := d.Toc()
	e.doc.Unlock()
	return toc, ok
}

// ToggleBookmark flips the bookmark at the current location.
func (e *Engine) ToggleBookmark() Region {
	e.info.ToggleBookmark(e.currentPage)
	return FullRegion()
}

// GoToBookmark jumps to the nearest bookmark in the given direction.
func (e *Engine) GoToBookmark(dir geo.CycleDir) Region {
	var location int
	var ok bool
	if dir == geo.CycleNext {
		location, ok = e.info.BookmarkAfter(e.currentPage)
	} else {
		location, ok = e.info.BookmarkBefore(e.currentPage)
	}
	if !ok {
		return Region{}
	}
	return e.GoTo(location, true)
}
