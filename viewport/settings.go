package viewport

import (
	"time"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/metadata"
	"github.com/wudi/readkit/observability"
)

// SetZoomMode switches the zoom mode. Cached resources were rasterized at the
// old scale, so the cache is cleared wholesale. resetPageOffset discards the
// pan vector; keeping it lets a fit-to-width toggle preserve the vertical
// reading position.
func (e *Engine) SetZoomMode(mode metadata.ZoomMode, factor float64, resetPageOffset bool) Region {
	if mode == e.viewPort.ZoomMode && (mode != metadata.CustomZoom || factor == e.viewPort.ZoomFactor) {
		return Region{}
	}
	e.viewPort.ZoomMode = mode
	if mode == metadata.CustomZoom {
		if factor <= 0 {
			factor = 1
		}
		e.viewPort.ZoomFactor = factor
	}
	if resetPageOffset {
		e.viewPort.PageOffset = geo.Point{}
	}
	e.info.ZoomMode = mode
	e.info.ZoomFactor = e.viewPort.ZoomFactor
	e.cache = make(map[int]*Resource)
	e.update()
	return FullRegion()
}

// SetScrollMode switches between continuous and paged scrolling. The mode is
// recorded regardless, but takes effect only under fit-to-width.
func (e *Engine) SetScrollMode(mode metadata.ScrollMode) Region {
	if mode == e.viewPort.ScrollMode {
		return Region{}
	}
	e.viewPort.ScrollMode = mode
	e.info.ScrollMode = mode
	if e.viewPort.ZoomMode != metadata.FitToWidth {
		return Region{}
	}
	e.viewPort.PageOffset = geo.Point{}
	e.update()
	return FullRegion()
}

// SetMarginWidth changes the blank border between the surface edge and the
// rendered content.
func (e *Engine) SetMarginWidth(width int) Region {
	if width == e.viewPort.MarginWidth {
		return Region{}
	}
	e.viewPort.MarginWidth = width
	e.info.MarginWidth = width
	e.cache = make(map[int]*Resource)
	e.update()
	return FullRegion()
}

// CropMargins sets the cropping margin for one location, or for all
// locations when applyToAll is set.
func (e *Engine) CropMargins(location int, margin metadata.Margin, applyToAll bool) Region {
	if e.info.CroppingMargins == nil {
		e.info.CroppingMargins = &metadata.CroppingMargins{}
	}
	if applyToAll {
		*e.info.CroppingMargins = metadata.CroppingMargins{Any: margin}
	} else {
		e.info.CroppingMargins.SetMargin(location, margin)
	}
	e.cache = make(map[int]*Resource)
	e.update()
	return FullRegion()
}

// SetFontSize relays out a reflowable document at a new font size. A layout
// invalidates every location-dependent structure, so the request is silently
// dropped while background work still holds the document.
func (e *Engine) SetFontSize(size float64) Region {
	if !e.reflowable || size == e.info.FontSize {
		return Region{}
	}
	return e.relayout(func(d document.Document) {
		e.info.FontSize = size
		d.Layout(e.rect.Width(), e.rect.Height(), size, e.dpi)
	})
}

// SetFontFamily switches the text font of a reflowable document.
func (e *Engine) SetFontFamily(family, path string) Region {
	if !e.reflowable {
		return Region{}
	}
	return e.relayout(func(d document.Document) {
		e.info.FontFamily = family
		d.SetFontFamily(family, path)
		d.Layout(e.rect.Width(), e.rect.Height(), e.info.FontSize, e.dpi)
	})
}

// SetLineHeight changes the line spacing of a reflowable document.
func (e *Engine) SetLineHeight(lineHeight float64) Region {
	if !e.reflowable || lineHeight == e.info.LineHeight {
		return Region{}
	}
	return e.relayout(func(d document.Document) {
		e.info.LineHeight = lineHeight
		d.SetLineHeight(lineHeight)
		d.Layout(e.rect.Width(), e.rect.Height(), e.info.FontSize, e.dpi)
	})
}

// SetTextAlign changes the paragraph alignment of a reflowable document.
func (e *Engine) SetTextAlign(align document.TextAlign) Region {
	if !e.reflowable || align == e.info.TextAlign {
		return Region{}
	}
	return e.relayout(func(d document.Document) {
		e.info.TextAlign = align
		d.SetTextAlign(align)
		d.Layout(e.rect.Width(), e.rect.Height(), e.info.FontSize, e.dpi)
	})
}

// SetExtraCSS injects a user stylesheet into a reflowable document.
func (e *Engine) SetExtraCSS(css string) Region {
	if !e.reflowable {
		return Region{}
	}
	return e.relayout(func(d document.Document) {
		d.SetExtraCSS(css)
		d.Layout(e.rect.Width(), e.rect.Height(), e.info.FontSize, e.dpi)
	})
}

// relayout applies a layout mutation, then re-anchors the current location at
// the fine offset that was visible before locations were renumbered.
func (e *Engine) relayout(mutate func(document.Document)) Region {
	if !e.doc.Idle() {
		e.log.Warn("layout change skipped: document busy",
			observability.Int("location", e.currentPage))
		return Region{}
	}
	anchor := e.firstVisibleOffset()

	start := time.Now()
	d := e.doc.Lock()
	mutate(d)
	e.pagesCount = d.PagesCount()
	current, ok := d.ResolveLocation(document.Exact(anchor))
	e.doc.Unlock()
	e.log.Debug("document laid out",
		observability.Int("pages", e.pagesCount),
		observability.Float64(observability.MetricLayoutTime, time.Since(start).Seconds()))

	if ok {
		e.currentPage = current
	} else if e.currentPage >= e.pagesCount {
		e.currentPage = max(e.pagesCount-1, 0)
	}
	e.info.CurrentPage = e.currentPage
	e.info.PagesCount = e.pagesCount

	e.cache = make(map[int]*Resource)
	e.text = make(map[int][]document.BoundedText)
	e.viewPort.PageOffset = geo.Point{}
	e.update()
	return FullRegion()
}
