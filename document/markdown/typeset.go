package markdown

import (
	"bytes"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
)

// measurer shapes words to pixel metrics through harfbuzz. One measurer is
// built per font and reused across layouts; shaping dominates layout cost.
type measurer struct {
	face   *gofont.Face
	shaper shaping.HarfbuzzShaper
}

func newMeasurer(ttf []byte) (*measurer, error) {
	face, err := gofont.ParseTTF(bytes.NewReader(ttf))
	if err != nil {
		return nil, err
	}
	return &measurer{face: face}, nil
}

func defaultMeasurer() *measurer {
	m, err := newMeasurer(goregular.TTF)
	if err != nil {
		panic("bundled font failed to parse: " + err.Error())
	}
	return m
}

func (m *measurer) shape(text string, pxSize float64) shaping.Output {
	runes := []rune(text)
	return m.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      m.face,
		Size:      fixed.Int26_6(pxSize * 64),
		Script:    language.Latin,
		Language:  language.DefaultLanguage(),
	})
}

// width returns the advance width of text in pixels at the given pixel size.
func (m *measurer) width(text string, pxSize float64) float64 {
	out := m.shape(text, pxSize)
	return float64(out.Advance) / 64.0
}

func (m *measurer) lineBounds(pxSize float64) (ascent, descent float64) {
	out := m.shape("Mg", pxSize)
	return float64(out.LineBounds.Ascent) / 64.0, float64(-out.LineBounds.Descent) / 64.0
}

// page is one screenful of typeset content. start is the byte offset of its
// first word, which doubles as the page's location.
type page struct {
	start  int
	words  []document.BoundedText
	lines  []document.BoundedText
	links  []document.BoundedText
	styled []styledWord
}

// styledWord keeps the pixel size a word was measured at, for rasterization.
type styledWord struct {
	index  int
	pxSize float64
	baseY  float64
}

type layoutParams struct {
	width      int
	height     int
	fontSize   float64
	dpi        int
	lineHeight float64
	margin     int
	align      document.TextAlign
}

func (p layoutParams) pxSize() float64 {
	return p.fontSize * float64(p.dpi) / 72.0
}

func blockPxSize(b block, base float64) float64 {
	if b.kind != blockHeading {
		return base
	}
	switch {
	case b.level <= 1:
		return base * 2.0
	case b.level == 2:
		return base * 1.5
	default:
		return base * 1.25
	}
}

// paginate lays the block list into pages using greedy line filling. Word
// rectangles are in page pixels at scale 1; the rasterizer multiplies them
// by the requested scale.
func paginate(blocks []block, m *measurer, p layoutParams) []*page {
	maxWidth := float64(p.width - 2*p.margin)
	if maxWidth < 1 {
		maxWidth = 1
	}
	maxY := float64(p.height - p.margin)

	var pages []*page
	var cur *page
	var curLine []int
	var lineY, lineSize float64
	spaceCache := map[float64]float64{}

	space := func(size float64) float64 {
		if w, ok := spaceCache[size]; ok {
			return w
		}
		w := m.width("n", size) * 0.6
		spaceCache[size] = w
		return w
	}

	openPage := func(start int) {
		cur = &page{start: start}
		pages = append(pages, cur)
		lineY = float64(p.margin)
		curLine = nil
	}

	closeLine := func() {
		if cur == nil || len(curLine) == 0 {
			return
		}
		ascent, descent := m.lineBounds(lineSize)
		baseline := lineY + ascent
		bound := geo.Boundary{MinX: maxWidth, MinY: baseline - ascent,
			MaxX: 0, MaxY: baseline + descent}
		for _, i := range curLine {
			w := &cur.words[i]
			w.Rect.MinY = baseline - ascent
			w.Rect.MaxY = baseline + descent
			if w.Rect.MinX < bound.MinX {
				bound.MinX = w.Rect.MinX
			}
			if w.Rect.MaxX > bound.MaxX {
				bound.MaxX = w.Rect.MaxX
			}
			cur.styled = append(cur.styled, styledWord{index: i, pxSize: lineSize, baseY: baseline})
		}
		cur.lines = append(cur.lines, document.BoundedText{Rect: bound,
			Location: cur.words[curLine[0]].Location})
		lineY += lineSize * p.lineHeight
		curLine = nil
	}

	indent := func(b block) float64 {
		if b.kind == blockListItem {
			return p.pxSize()
		}
		return 0
	}

	for _, b := range blocks {
		size := blockPxSize(b, p.pxSize())
		advance := size * p.lineHeight
		x := float64(p.margin) + indent(b)

		closeLine()
		if cur != nil && lineY+advance > maxY {
			cur = nil
		}

		for _, sp := range b.spans {
			w := m.width(sp.text, size)
			if cur == nil {
				openPage(sp.offset)
				x = float64(p.margin) + indent(b)
			}
			if len(curLine) > 0 && x+w > float64(p.margin)+maxWidth {
				lineSize = size
				closeLine()
				x = float64(p.margin) + indent(b)
				if lineY+advance > maxY {
					cur = nil
					openPage(sp.offset)
					x = float64(p.margin) + indent(b)
				}
			}
			word := document.BoundedText{
				Text: sp.text,
				Rect: geo.Boundary{MinX: x, MaxX: x + w},
				Location: document.TextLocation{
					Location: cur.start,
					Offset:   sp.offset,
				},
			}
			cur.words = append(cur.words, word)
			curLine = append(curLine, len(cur.words)-1)
			lineSize = size
			if sp.link != "" {
				link := word
				link.Text = sp.link
				cur.links = append(cur.links, link)
			}
			x += w + space(size)
		}
		lineSize = size
		closeLine()
		lineY += size * p.lineHeight * 0.5
	}
	closeLine()

	if p.align == document.AlignCenter || p.align == document.AlignRight {
		alignPages(pages, maxWidth, float64(p.margin), p.align)
	}
	return pages
}

// alignPages shifts each line right for right or centered alignment. Justify
// is treated as left; the offsets in word identities are unaffected either
// way.
func alignPages(pages []*page, maxWidth, margin float64, align document.TextAlign) {
	for _, pg := range pages {
		for li := range pg.lines {
			line := &pg.lines[li]
			slack := margin + maxWidth - line.Rect.MaxX
			if slack <= 0 {
				continue
			}
			if align == document.AlignCenter {
				slack /= 2
			}
			lo, hi := line.Rect.MinY, line.Rect.MaxY
			for wi := range pg.words {
				w := &pg.words[wi]
				if w.Rect.MinY >= lo && w.Rect.MaxY <= hi {
					w.Rect.MinX += slack
					w.Rect.MaxX += slack
				}
			}
			line.Rect.MinX += slack
			line.Rect.MaxX += slack
		}
	}
}
