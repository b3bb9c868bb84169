// Package markdown is a reflowable backend for markdown and plain HTML
// files. Locations are byte offsets into the source: each page is addressed
// by the offset of its first word, so a location survives re-layout as "the
// page that now contains this text".
package markdown

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"sort"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
)

func init() {
	document.RegisterFormat(".md", openFile)
	document.RegisterFormat(".markdown", openFile)
	document.RegisterFormat(".html", openFile)
	document.RegisterFormat(".htm", openFile)
}

func openFile(path string) (document.Document, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	ext := strings.ToLower(path)
	html := strings.HasSuffix(ext, ".html") || strings.HasSuffix(ext, ".htm")
	return New(source, html)
}

// Doc is a parsed markdown or HTML document. It is not safe for concurrent
// use; callers serialize through document.Shared.
type Doc struct {
	source []byte
	blocks []block
	pages  []*page
	toc    []document.TocEntry

	measure *measurer
	sfnt    *opentype.Font
	faces   map[int]font.Face

	params   layoutParams
	extraCSS string
}

// New builds a document from source. html selects the HTML parser; otherwise
// the source is treated as markdown.
func New(source []byte, html bool) (*Doc, error) {
	var blocks []block
	if html {
		blocks = parseHTML(source)
	} else {
		blocks = parseMarkdown(source)
	}
	sf, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bundled font: %w", err)
	}
	d := &Doc{
		source:  source,
		blocks:  blocks,
		measure: defaultMeasurer(),
		sfnt:    sf,
		faces:   map[int]font.Face{},
		params: layoutParams{
			width: 600, height: 800,
			fontSize: 11, dpi: 160, lineHeight: 1.2, margin: 10,
		},
	}
	d.relayout()
	return d, nil
}

func (d *Doc) relayout() {
	d.pages = paginate(d.blocks, d.measure, d.params)
	d.toc = d.buildToc()
}

// buildToc derives the table of contents from headings, nesting each level
// under the nearest shallower one.
func (d *Doc) buildToc() []document.TocEntry {
	type frame struct {
		level int
		entry *document.TocEntry
	}
	var root []document.TocEntry
	var stack []frame

	for _, b := range d.blocks {
		if b.kind != blockHeading || len(b.spans) == 0 {
			continue
		}
		var texts []string
		for _, sp := range b.spans {
			texts = append(texts, sp.text)
		}
		loc, ok := d.pageStartFor(b.spans[0].offset)
		if !ok {
			continue
		}
		entry := document.TocEntry{Title: strings.Join(texts, " "), Location: loc}

		for len(stack) > 0 && stack[len(stack)-1].level >= b.level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			root = append(root, entry)
			stack = append(stack, frame{b.level, &root[len(root)-1]})
		} else {
			parent := stack[len(stack)-1].entry
			parent.Children = append(parent.Children, entry)
			stack = append(stack, frame{b.level, &parent.Children[len(parent.Children)-1]})
		}
	}
	return root
}

// pageIndexFor returns the index of the page containing a byte offset.
func (d *Doc) pageIndexFor(offset int) (int, bool) {
	if len(d.pages) == 0 {
		return 0, false
	}
	n := sort.Search(len(d.pages), func(i int) bool {
		return d.pages[i].start > offset
	})
	if n == 0 {
		return 0, true
	}
	return n - 1, true
}

func (d *Doc) pageStartFor(offset int) (int, bool) {
	i, ok := d.pageIndexFor(offset)
	if !ok {
		return 0, false
	}
	return d.pages[i].start, true
}

func (d *Doc) pageFor(loc document.Location) (*page, bool) {
	i, ok := d.pageIndexFor(loc.Index)
	if !ok {
		return nil, false
	}
	switch loc.Kind {
	case document.KindNext:
		i++
	case document.KindPrevious:
		i--
	}
	if i < 0 || i >= len(d.pages) {
		return nil, false
	}
	return d.pages[i], true
}

// ResolveLocation maps an offset to the start offset of the page holding it.
func (d *Doc) ResolveLocation(loc document.Location) (int, bool) {
	pg, ok := d.pageFor(loc)
	if !ok {
		return 0, false
	}
	return pg.start, true
}

// PagesCount returns the page count under the current layout.
func (d *Doc) PagesCount() int { return len(d.pages) }

// Dims returns the layout surface size; every page shares it.
func (d *Doc) Dims(index int) (float64, float64, bool) {
	if _, ok := d.pageIndexFor(index); !ok {
		return 0, 0, false
	}
	return float64(d.params.width), float64(d.params.height), true
}

// Pixmap rasterizes a page at the given scale onto a white bitmap. samples is
// accepted for interface symmetry; output is always full color.
func (d *Doc) Pixmap(loc document.Location, scale float64, samples int) (*image.NRGBA, int, bool) {
	pg, ok := d.pageFor(loc)
	if !ok || scale <= 0 {
		return nil, 0, false
	}
	w := int(math.Ceil(float64(d.params.width) * scale))
	h := int(math.Ceil(float64(d.params.height) * scale))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	for _, sw := range pg.styled {
		word := pg.words[sw.index]
		face, err := d.faceAt(sw.pxSize * scale)
		if err != nil {
			continue
		}
		drawer := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.Black),
			Face: face,
			Dot: fixed.Point26_6{
				X: fixed.Int26_6(word.Rect.MinX * scale * 64),
				Y: fixed.Int26_6(sw.baseY * scale * 64),
			},
		}
		drawer.DrawString(word.Text)
	}
	return img, pg.start, true
}

// faceAt returns a rasterization face for a pixel size, cached at millipixel
// granularity.
func (d *Doc) faceAt(pxSize float64) (font.Face, error) {
	key := int(pxSize * 1000)
	if face, ok := d.faces[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(d.sfnt, &opentype.FaceOptions{
		Size:    pxSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	d.faces[key] = face
	return face, nil
}

// Words returns the positioned words of a page.
func (d *Doc) Words(loc document.Location) ([]document.BoundedText, bool) {
	pg, ok := d.pageFor(loc)
	if !ok {
		return nil, false
	}
	return pg.words, true
}

// Lines returns the line boundaries of a page.
func (d *Doc) Lines(loc document.Location) ([]document.BoundedText, bool) {
	pg, ok := d.pageFor(loc)
	if !ok {
		return nil, false
	}
	return pg.lines, true
}

// Links returns the link targets of a page; the text of each entry is the
// destination URL.
func (d *Doc) Links(loc document.Location) ([]document.BoundedText, bool) {
	pg, ok := d.pageFor(loc)
	if !ok {
		return nil, false
	}
	return pg.links, true
}

// Images reports no image regions: pictures are not laid out, only their alt
// text is.
func (d *Doc) Images(loc document.Location) ([]geo.Boundary, bool) {
	if _, ok := d.pageFor(loc); !ok {
		return nil, false
	}
	return nil, true
}

// Toc returns the heading tree.
func (d *Doc) Toc() ([]document.TocEntry, bool) {
	if len(d.toc) == 0 {
		return nil, false
	}
	return d.toc, true
}

// Chapter returns the heading covering an offset. Progress is measured in
// source bytes, which tracks text read more honestly than page counts.
func (d *Doc) Chapter(index int, toc []document.TocEntry) (*document.TocEntry, float64, float64, bool) {
	return document.ChapterAt(index, toc, len(d.source))
}

// IsReflowable reports true: locations are byte offsets and layout changes
// repaginate.
func (d *Doc) IsReflowable() bool { return true }

// Layout repaginates for a new surface and font size.
func (d *Doc) Layout(width, height int, fontSize float64, dpi int) {
	if width > 0 {
		d.params.width = width
	}
	if height > 0 {
		d.params.height = height
	}
	if fontSize > 0 {
		d.params.fontSize = fontSize
	}
	if dpi > 0 {
		d.params.dpi = dpi
	}
	d.relayout()
}

// SetFontFamily loads a replacement font from path. An unreadable or
// unparsable font keeps the current one.
func (d *Doc) SetFontFamily(family, path string) {
	ttf, err := os.ReadFile(path)
	if err != nil {
		return
	}
	m, err := newMeasurer(ttf)
	if err != nil {
		return
	}
	sf, err := opentype.Parse(ttf)
	if err != nil {
		return
	}
	d.measure = m
	d.sfnt = sf
	d.faces = map[int]font.Face{}
}

// SetLineHeight changes the line spacing multiplier.
func (d *Doc) SetLineHeight(lineHeight float64) {
	if lineHeight > 0 {
		d.params.lineHeight = lineHeight
	}
}

// SetMarginWidth changes the inner page margin in pixels.
func (d *Doc) SetMarginWidth(width int) {
	if width >= 0 {
		d.params.margin = width
	}
}

// SetTextAlign changes the paragraph alignment.
func (d *Doc) SetTextAlign(align document.TextAlign) {
	d.params.align = align
}

// SetExtraCSS records a user stylesheet. The typesetter understands no CSS;
// the sheet is kept so a richer renderer can pick it up.
func (d *Doc) SetExtraCSS(css string) {
	d.extraCSS = css
}
