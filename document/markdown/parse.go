package markdown

import (
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockListItem
	blockCode
)

// span is one word with its byte offset into the source. The offset is the
// word's identity: it survives re-layout, so selections and annotations
// keep pointing at the same words after a font change.
type span struct {
	text   string
	offset int
	link   string
}

type block struct {
	kind  blockKind
	level int
	spans []span
}

// parseMarkdown builds the block list from markdown source using the goldmark
// AST. Text node segments carry source positions, which become word offsets.
func parseMarkdown(source []byte) []block {
	md := goldmark.New()
	doc := md.Parser().Parse(gtext.NewReader(source))

	var blocks []block
	walkMarkdown(doc, source, &blocks)
	return blocks
}

func walkMarkdown(node ast.Node, source []byte, blocks *[]block) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			b := block{kind: blockHeading, level: n.Level}
			collectInline(n, source, &b, "")
			if len(b.spans) > 0 {
				*blocks = append(*blocks, b)
			}
		case *ast.Paragraph, *ast.TextBlock:
			b := block{kind: blockParagraph}
			collectInline(child, source, &b, "")
			if len(b.spans) > 0 {
				*blocks = append(*blocks, b)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			b := block{kind: blockCode}
			lines := child.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				appendWords(&b, string(seg.Value(source)), seg.Start, "")
			}
			if len(b.spans) > 0 {
				*blocks = append(*blocks, b)
			}
		case *ast.List:
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				b := block{kind: blockListItem}
				collectInline(item, source, &b, "")
				if len(b.spans) > 0 {
					*blocks = append(*blocks, b)
				}
			}
		case *ast.Blockquote:
			walkMarkdown(n, source, blocks)
		case *ast.ThematicBreak:
			// No text content.
		default:
			if child.Type() == ast.TypeBlock {
				walkMarkdown(child, source, blocks)
			}
		}
	}
}

// collectInline flattens the inline children of a block node into word spans,
// carrying link destinations down to the words inside them.
func collectInline(node ast.Node, source []byte, b *block, link string) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			appendWords(b, string(n.Segment.Value(source)), n.Segment.Start, link)
		case *ast.Link:
			collectInline(n, source, b, string(n.Destination))
		case *ast.AutoLink:
			url := string(n.URL(source))
			appendWords(b, url, offsetOf(n, source), url)
		case *ast.CodeSpan, *ast.Emphasis:
			collectInline(child, source, b, link)
		case *ast.Image:
			// Alt text only; the image itself is not laid out.
			collectInline(n, source, b, link)
		default:
			collectInline(child, source, b, link)
		}
	}
}

func offsetOf(node ast.Node, source []byte) int {
	if child := node.FirstChild(); child != nil {
		if t, ok := child.(*ast.Text); ok {
			return t.Segment.Start
		}
	}
	return 0
}

// appendWords splits text on whitespace, assigning each word the byte offset
// of its first rune relative to base.
func appendWords(b *block, text string, base int, link string) {
	i := 0
	for i < len(text) {
		for i < len(text) && unicode.IsSpace(rune(text[i])) {
			i++
		}
		start := i
		for i < len(text) && !unicode.IsSpace(rune(text[i])) {
			i++
		}
		if i > start {
			b.spans = append(b.spans, span{
				text:   text[start:i],
				offset: base + start,
				link:   link,
			})
		}
	}
}

// parseHTML builds the block list from an HTML document. The parse tree
// carries no source positions, so offsets are synthesized from the running
// length of the text content; they are stable for a given source, which is
// all the offset contract requires.
func parseHTML(source []byte) []block {
	doc, err := html.Parse(strings.NewReader(string(source)))
	if err != nil {
		return nil
	}
	p := &htmlParser{}
	p.walk(doc, "")
	p.flush()
	return p.blocks
}

type htmlParser struct {
	blocks  []block
	current block
	open    bool
	offset  int
}

func (p *htmlParser) walk(n *html.Node, link string) {
	if n.Type == html.TextNode {
		if p.open {
			appendWords(&p.current, n.Data, p.offset, link)
		}
		p.offset += len(n.Data)
		return
	}
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			p.flush()
			p.current = block{kind: blockHeading, level: headingLevel(n.DataAtom)}
			p.open = true
		case atom.P, atom.Div, atom.Blockquote:
			p.flush()
			p.current = block{kind: blockParagraph}
			p.open = true
		case atom.Li:
			p.flush()
			p.current = block{kind: blockListItem}
			p.open = true
		case atom.Pre:
			p.flush()
			p.current = block{kind: blockCode}
			p.open = true
		case atom.A:
			if href := attr(n, "href"); href != "" {
				link = href
			}
		case atom.Script, atom.Style, atom.Head:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, link)
	}
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
			atom.P, atom.Div, atom.Blockquote, atom.Li, atom.Pre:
			p.flush()
		}
	}
}

func (p *htmlParser) flush() {
	if p.open && len(p.current.spans) > 0 {
		p.blocks = append(p.blocks, p.current)
	}
	p.current = block{}
	p.open = false
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	}
	return 6
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
