// Package documenttest provides a scripted Document backend for tests.
// Pages are declared up front with their geometry, text and failure modes;
// the backend records which pixmaps were requested so tests can assert on
// cache and prefetch behavior.
package documenttest

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
)

// Page describes one scripted location.
type Page struct {
	Width, Height float64
	Words         []document.BoundedText
	Lines         []document.BoundedText
	Links         []document.BoundedText
	Images        []geo.Boundary
	RasterFails   bool
}

// Doc is a scripted fixed-layout document.
type Doc struct {
	Pages     []Page
	TocTree   []document.TocEntry
	Reflow    bool
	Rastered  []int // locations passed to Pixmap, in call order
	Relayouts int
}

var _ document.Document = (*Doc)(nil)

// New returns a document over the given pages.
func New(pages ...Page) *Doc {
	return &Doc{Pages: pages}
}

func (d *Doc) ResolveLocation(loc document.Location) (int, bool) {
	n := len(d.Pages)
	switch loc.Kind {
	case document.KindExact:
		if loc.Index < 0 || loc.Index >= n {
			return 0, false
		}
		return loc.Index, true
	case document.KindNext:
		if loc.Index+1 >= n {
			return 0, false
		}
		return loc.Index + 1, true
	case document.KindPrevious:
		if loc.Index <= 0 || loc.Index > n-1 {
			return 0, false
		}
		return loc.Index - 1, true
	}
	return 0, false
}

func (d *Doc) PagesCount() int { return len(d.Pages) }

func (d *Doc) Dims(index int) (float64, float64, bool) {
	if index < 0 || index >= len(d.Pages) {
		return 0, 0, false
	}
	return d.Pages[index].Width, d.Pages[index].Height, true
}

func (d *Doc) Pixmap(loc document.Location, scale float64, samples int) (*image.NRGBA, int, bool) {
	index, ok := d.ResolveLocation(loc)
	if !ok {
		return nil, 0, false
	}
	d.Rastered = append(d.Rastered, index)
	page := d.Pages[index]
	if page.RasterFails {
		return nil, 0, false
	}
	w := int(page.Width * scale)
	h := int(page.Height * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img, index, true
}

func (d *Doc) Words(loc document.Location) ([]document.BoundedText, bool) {
	index, ok := d.ResolveLocation(loc)
	if !ok {
		return nil, false
	}
	return d.Pages[index].Words, true
}

func (d *Doc) Lines(loc document.Location) ([]document.BoundedText, bool) {
	index, ok := d.ResolveLocation(loc)
	if !ok {
		return nil, false
	}
	return d.Pages[index].Lines, true
}

func (d *Doc) Links(loc document.Location) ([]document.BoundedText, bool) {
	index, ok := d.ResolveLocation(loc)
	if !ok {
		return nil, false
	}
	return d.Pages[index].Links, true
}

func (d *Doc) Images(loc document.Location) ([]geo.Boundary, bool) {
	index, ok := d.ResolveLocation(loc)
	if !ok {
		return nil, false
	}
	return d.Pages[index].Images, true
}

func (d *Doc) Toc() ([]document.TocEntry, bool) {
	if len(d.TocTree) == 0 {
		return nil, false
	}
	return d.TocTree, true
}

func (d *Doc) Chapter(index int, toc []document.TocEntry) (*document.TocEntry, float64, float64, bool) {
	return document.ChapterAt(index, toc, len(d.Pages))
}

func (d *Doc) IsReflowable() bool { return d.Reflow }

func (d *Doc) Layout(width, height int, fontSize float64, dpi int) { d.Relayouts++ }
func (d *Doc) SetFontFamily(family, path string)                   {}
func (d *Doc) SetLineHeight(lineHeight float64)                    {}
func (d *Doc) SetMarginWidth(width int)                            {}
func (d *Doc) SetTextAlign(align document.TextAlign)               {}
func (d *Doc) SetExtraCSS(css string)                              {}

// WordRow lays out words on one text line, returning the words and the line
// boundary. Convenient for scripting pages with a regular grid.
func WordRow(page, firstIndex int, y, lineHeight float64, texts ...string) ([]document.BoundedText, document.BoundedText) {
	var words []document.BoundedText
	x := 10.0
	for i, txt := range texts {
		w := float64(len(txt)) * 6
		words = append(words, document.BoundedText{
			Text:     txt,
			Rect:     geo.Boundary{MinX: x, MinY: y, MaxX: x + w, MaxY: y + lineHeight},
			Location: document.TextLocation{Location: page, Offset: firstIndex + i},
		})
		x += w + 4
	}
	line := document.BoundedText{
		Rect: geo.Boundary{MinX: 10, MinY: y, MaxX: x - 4, MaxY: y + lineHeight},
	}
	return words, line
}
