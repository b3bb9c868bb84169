package viewport

import (
	"math"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/metadata"
	"github.com/wudi/readkit/observability"
)

// RenderChunk places a sub-rectangle of one location's resource on screen.
// Chunks are ephemeral and rebuilt on every viewport update; the full chunk
// list describes the current screen content.
type RenderChunk struct {
	Location int
	Frame    geo.Rectangle
	Position geo.Point
	Scale    float64
}

// findCut snaps a vertical cut position to a text-line boundary: down to the
// end of the containing line when walking forward, up to its start when
// walking backward. Lines taller than a tenth of the frame are skipped as
// misdetected full-page images. When no line contains the position the
// original position stands, so content without extractable text degrades to
// pixel-granular cuts.
func findCut(frame geo.Rectangle, yPos int, scale float64, dir geo.LinearDir, lines []document.BoundedText) (int, bool) {
	yPosU := float64(yPos) / scale
	frameU := frame.Boundary().Scaled(1 / scale)
	maxLineHeight := frameU.Height() / 10

	for _, line := range lines {
		r := line.Rect
		if frameU.Contains(r) && r.Height() <= maxLineHeight &&
			yPosU >= r.MinY && yPosU < r.MaxY {
			if dir == geo.Backward {
				return int(math.Floor(scale * r.MinY)), true
			}
			return int(math.Ceil(scale * r.MaxY)), true
		}
	}
	return yPos, false
}

// update rebuilds the chunk list for the current location and view port,
// evicts surplus cache entries, refreshes the annotation and non-inverted
// region caches, and kicks off neighbor prefetch.
func (e *Engine) update() {
	e.chunks = e.chunks[:0]
	location := e.currentPage
	smw := e.viewPort.MarginWidth

	switch e.viewPort.ZoomMode {
	case metadata.FitToPage:
		e.loadPixmap(location)
		e.loadText(location)
		res := e.cache[location]
		dx := smw + (e.rect.Width()-res.Frame.Width()-2*smw)/2
		dy := smw + (e.rect.Height()-res.Frame.Height()-2*smw)/2
		e.chunks = append(e.chunks, RenderChunk{
			Location: location,
			Frame:    res.Frame,
			Position: geo.Pt(dx, dy),
			Scale:    res.Scale,
		})

	case metadata.FitToWidth:
		switch e.viewPort.ScrollMode {
		case metadata.ScreenScroll:
			availableHeight := e.rect.Height() - 2*smw
			height := 0
			for height < availableHeight {
				e.loadPixmap(location)
				e.loadText(location)
				res := e.cache[location]
				frame := res.Frame
				if location == e.currentPage {
					frame.Min.Y += e.viewPort.PageOffset.Y
				}
				e.chunks = append(e.chunks, RenderChunk{
					Location: location,
					Frame:    frame,
					Position: geo.Pt(smw, smw+height),
					Scale:    res.Scale,
				})
				height += frame.Height()
				d := e.doc.Lock()
				next, ok := d.ResolveLocation(document.Next(location))
				e.doc.Unlock()
				if !ok {
					break
				}
				location = next
			}
			if height > availableHeight {
				last := &e.chunks[len(e.chunks)-1]
				last.Frame.Max.Y -= height - availableHeight
				d := e.doc.Lock()
				lines, ok := d.Lines(document.Exact(last.Location))
				e.doc.Unlock()
				if ok {
					pixmapFrame := e.cache[last.Location].Frame
					if y, found := findCut(pixmapFrame, last.Frame.Max.Y, last.Scale, geo.Backward, lines); found {
						last.Frame.Max.Y = clamp(y, pixmapFrame.Min.Y, pixmapFrame.Max.Y-1)
					}
				}
			}
			actualHeight := 0
			for _, chunk := range e.chunks {
				actualHeight += chunk.Frame.Height()
			}
			if dy := (availableHeight - actualHeight) / 2; dy > 0 {
				for i := range e.chunks {
					e.chunks[i].Position.Y += dy
				}
			}

		case metadata.PageScroll:
			e.loadPixmap(location)
			e.loadText(location)
			availableHeight := e.rect.Height() - 2*smw
			res := e.cache[location]
			frame := res.Frame
			frame.Min.Y += e.viewPort.PageOffset.Y
			if maxY := frame.Min.Y + availableHeight; maxY < frame.Max.Y {
				frame.Max.Y = maxY
			}
			e.chunks = append(e.chunks, RenderChunk{
				Location: location,
				Frame:    frame,
				Position: geo.Pt(smw, smw+(availableHeight-frame.Height())/2),
				Scale:    res.Scale,
			})
		}

	case metadata.CustomZoom:
		e.loadPixmap(location)
		e.loadText(location)
		res := e.cache[location]
		vpw := e.rect.Width() - 2*smw
		vph := e.rect.Height() - 2*smw
		vpr := geo.Rect(0, 0, vpw, vph).Add(e.viewPort.PageOffset).Add(res.Frame.Min)
		if r, ok := res.Frame.Intersection(vpr); ok {
			e.chunks = append(e.chunks, RenderChunk{
				Location: location,
				Frame:    r,
				Position: geo.Pt(smw, smw).Add(r.Min.Sub(vpr.Min)),
				Scale:    res.Scale,
			})
		}
	}

	first, last := e.currentPage, e.currentPage
	if len(e.chunks) > 0 {
		first = e.chunks[0].Location
		last = e.chunks[len(e.chunks)-1].Location
	}

	e.evict(first, last)
	e.updateAnnotations()
	e.updateNonInvertedRegions(e.inverted)
	e.log.Debug("viewport updated",
		observability.Int("location", e.currentPage),
		observability.Int(observability.MetricChunkCount, len(e.chunks)))

	if e.viewPort.ZoomMode != metadata.CustomZoom {
		e.prefetch(first, last)
	}
}

// updateAnnotations rebuilds the per-chunk annotation cache from the
// persistent reader state.
func (e *Engine) updateAnnotations() {
	e.annotations = make(map[int][]metadata.Annotation)
	if e.info == nil || len(e.info.Annotations) == 0 {
		return
	}
	for _, chunk := range e.chunks {
		words := e.text[chunk.Location]
		if len(words) == 0 {
			continue
		}
		lo := words[0].Location
		hi := words[len(words)-1].Location
		for _, annot := range e.info.Annotations {
			start, end := annot.Selection[0], annot.Selection[1]
			if (lo.LessEq(start) && start.LessEq(hi)) || (lo.LessEq(end) && end.LessEq(hi)) {
				e.annotations[chunk.Location] = append(e.annotations[chunk.Location], annot)
			}
		}
	}
}

// updateNonInvertedRegions records large image boundaries per chunk so that
// an inverted display can leave photographs alone.
func (e *Engine) updateNonInvertedRegions(inverted bool) {
	e.noninverted = make(map[int][]geo.Boundary)
	if !inverted {
		return
	}
	for _, chunk := range e.chunks {
		d := e.doc.Lock()
		images, ok := d.Images(document.Exact(chunk.Location))
		e.doc.Unlock()
		if !ok {
			continue
		}
		var large []geo.Boundary
		for _, img := range images {
			if img.Width() > 50 && img.Height() > 50 {
				large = append(large, img)
			}
		}
		e.noninverted[chunk.Location] = large
	}
}

// SetInverted tells the engine whether the display is color-inverted, which
// controls the non-inverted region cache.
func (e *Engine) SetInverted(inverted bool) Region {
	if e.inverted == inverted {
		return Region{}
	}
	e.inverted = inverted
	e.updateNonInvertedRegions(inverted)
	return FullRegion()
}

// NonInvertedRegions returns, per resident chunk location, the image
// boundaries to exempt from display inversion.
func (e *Engine) NonInvertedRegions() map[int][]geo.Boundary { return e.noninverted }

// prefetch starts two independent best-effort background tasks warming the
// locations flanking the visible range. Failures are dropped silently.
func (e *Engine) prefetch(first, last int) {
	doc := e.doc
	doc.Retain()
	go func() {
		defer doc.Release()
		d := doc.Lock()
		next, ok := d.ResolveLocation(document.Next(last))
		doc.Unlock()
		if ok {
			e.emit(LoadPixmapEvent{Location: next})
		}
	}()
	doc.Retain()
	go func() {
		defer doc.Release()
		d := doc.Lock()
		previous, ok := d.ResolveLocation(document.Previous(first))
		doc.Unlock()
		if ok {
			e.emit(LoadPixmapEvent{Location: previous})
		}
	}()
}
