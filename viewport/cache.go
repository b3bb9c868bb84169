package viewport

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/metadata"
	"github.com/wudi/readkit/observability"
)

// Resource is a cached rasterized page: the pixmap, the sub-rectangle left
// after cropping margins, and the scale it was produced at. Resources are
// owned by the cache; chunks only borrow frame and scale.
type Resource struct {
	Pixmap *image.NRGBA
	Frame  geo.Rectangle
	Scale  float64
}

// scalingFactor is the single place page-to-screen scale is computed, shared
// by the cache and the chunk builder so the two always agree. FitToPage fits
// the cropped page inside the surface on both axes, FitToWidth on the width
// only, CustomZoom uses the factor directly.
func scalingFactor(rect geo.Rectangle, cropping metadata.Margin, screenMarginWidth int,
	width, height float64, zoom metadata.ZoomMode, factor float64) float64 {

	if zoom == metadata.CustomZoom {
		return factor
	}
	surfaceWidth := float64(rect.Width() - 2*screenMarginWidth)
	frameWidth := (1.0 - (cropping.Left + cropping.Right)) * width
	widthRatio := surfaceWidth / frameWidth
	if zoom == metadata.FitToPage {
		surfaceHeight := float64(rect.Height() - 2*screenMarginWidth)
		frameHeight := (1.0 - (cropping.Top + cropping.Bottom)) * height
		heightRatio := surfaceHeight / frameHeight
		return math.Min(widthRatio, heightRatio)
	}
	return widthRatio
}

func (e *Engine) croppingMargin(location int) metadata.Margin {
	if e.info == nil {
		return metadata.Margin{}
	}
	return e.info.CroppingMargins.Margin(location)
}

// loadPixmap makes a location resident. Rasterization failure inserts a
// blank placeholder of the expected aspect ratio instead of failing the
// session.
func (e *Engine) loadPixmap(location int) {
	if _, ok := e.cache[location]; ok {
		return
	}

	cropping := e.croppingMargin(location)
	d := e.doc.Lock()
	width, height, ok := d.Dims(location)
	if !ok {
		width, height = 3.0, 4.0
	}
	scale := scalingFactor(e.rect, cropping, e.viewPort.MarginWidth,
		width, height, e.viewPort.ZoomMode, e.viewPort.ZoomFactor)
	start := time.Now()
	pixmap, _, ok := d.Pixmap(document.Exact(location), scale, e.samples)
	e.doc.Unlock()

	if ok {
		pw := float64(pixmap.Rect.Dx())
		ph := float64(pixmap.Rect.Dy())
		frame := geo.Rect(
			int(math.Ceil(cropping.Left*pw)),
			int(math.Ceil(cropping.Top*ph)),
			int(math.Floor((1.0-cropping.Right)*pw)),
			int(math.Floor((1.0-cropping.Bottom)*ph)),
		)
		e.cache[location] = &Resource{Pixmap: pixmap, Frame: frame, Scale: scale}
		e.log.Debug("rasterized page",
			observability.Int("location", location),
			observability.Float64(observability.MetricRasterTime, time.Since(start).Seconds()))
		return
	}

	w := int(width * scale)
	h := int(height * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	blank := imaging.New(w, h, color.White)
	e.cache[location] = &Resource{Pixmap: blank, Frame: geo.Rect(0, 0, w, h), Scale: scale}
	e.log.Warn("rasterization failed, inserted placeholder",
		observability.Int("location", location))
}

// loadText makes a location's word list resident. Text entries are small
// and survive cache eviction; they are dropped wholesale on re-layout.
func (e *Engine) loadText(location int) {
	if _, ok := e.text[location]; ok {
		return
	}
	d := e.doc.Lock()
	words, _ := d.Words(document.Exact(location))
	e.doc.Unlock()
	e.text[location] = words
}

// evict shrinks the cache to its bound after a chunk rebuild. Whichever side
// of the visible range holds more cached locations loses its extreme entry;
// ties evict from the before side, keeping the cache centered on the reading
// direction. A chunk run longer than the bound raises the floor so visible
// locations are never evicted.
func (e *Engine) evict(first, last int) {
	bound := max(e.cacheBound, len(e.chunks))
	evicted := 0
	for len(e.cache) > bound {
		left, right := 0, 0
		minLoc, maxLoc := math.MaxInt, math.MinInt
		for loc := range e.cache {
			if loc < first {
				left++
			}
			if loc > last {
				right++
			}
			if loc < minLoc {
				minLoc = loc
			}
			if loc > maxLoc {
				maxLoc = loc
			}
		}
		extremum := maxLoc
		if left >= right {
			extremum = minLoc
		}
		delete(e.cache, extremum)
		evicted++
		e.log.Debug("evicted resource", observability.Int("location", extremum))
	}
	if evicted > 0 {
		e.log.Debug("cache trimmed",
			observability.Int(observability.MetricCacheEvictions, evicted))
	}
}
