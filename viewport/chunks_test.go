package viewport

import (
	"testing"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/metadata"
)

func TestFindCutSnapsToLine(t *testing.T) {
	frame := geo.Rect(0, 0, 100, 200)
	lines := []document.BoundedText{
		{Rect: geo.Boundary{MinX: 0, MinY: 10, MaxX: 40, MaxY: 15}},
		{Rect: geo.Boundary{MinX: 0, MinY: 20, MaxX: 40, MaxY: 25}},
	}

	// 25px at scale 2 is 12.5 unscaled, inside the first line.
	y, found := findCut(frame, 25, 2, geo.Forward, lines)
	if !found || y != 30 {
		t.Fatalf("forward cut = %d, %v, want 30", y, found)
	}
	y, found = findCut(frame, 25, 2, geo.Backward, lines)
	if !found || y != 20 {
		t.Fatalf("backward cut = %d, %v, want 20", y, found)
	}
}

func TestFindCutIdempotent(t *testing.T) {
	frame := geo.Rect(0, 0, 100, 200)
	lines := []document.BoundedText{
		{Rect: geo.Boundary{MinX: 0, MinY: 10, MaxX: 40, MaxY: 15}},
	}
	y1, _ := findCut(frame, 25, 2, geo.Forward, lines)
	y2, _ := findCut(frame, y1, 2, geo.Forward, lines)
	if y2 != y1 {
		t.Fatalf("second cut moved: %d then %d", y1, y2)
	}
}

func TestFindCutFallsBackWithoutLines(t *testing.T) {
	frame := geo.Rect(0, 0, 100, 200)
	if y, found := findCut(frame, 37, 1, geo.Forward, nil); found || y != 37 {
		t.Fatalf("cut = %d, %v, want untouched position", y, found)
	}
}

func TestFindCutSkipsOversizedLines(t *testing.T) {
	frame := geo.Rect(0, 0, 100, 100)
	// Taller than a tenth of the frame: treated as an image, not a line.
	lines := []document.BoundedText{
		{Rect: geo.Boundary{MinX: 0, MinY: 10, MaxX: 90, MaxY: 60}},
	}
	if y, found := findCut(frame, 30, 1, geo.Forward, lines); found || y != 30 {
		t.Fatalf("cut = %d, %v, want untouched position", y, found)
	}
}

func TestFitToPageCentersSingleChunk(t *testing.T) {
	e, _ := fitPageEngine(t, 3)
	chunks := e.Chunks()
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	c := chunks[0]
	if c.Location != 0 || c.Position != geo.Pt(0, 0) || c.Frame != geo.Rect(0, 0, 100, 100) {
		t.Fatalf("chunk = %+v", c)
	}
}

func TestFitToWidthScreenFillsWithNeighbors(t *testing.T) {
	e, _ := fitWidthEngine(t, 5)
	chunks := e.Chunks()
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	wantLoc := []int{0, 1, 2}
	wantPos := []geo.Point{geo.Pt(0, 0), geo.Pt(0, 40), geo.Pt(0, 80)}
	total := 0
	for i, c := range chunks {
		if c.Location != wantLoc[i] || c.Position != wantPos[i] {
			t.Fatalf("chunk %d = %+v", i, c)
		}
		total += c.Frame.Height()
	}
	// The last chunk is trimmed so the stack exactly fills the screen.
	if total != 100 {
		t.Fatalf("stacked height = %d", total)
	}
	if chunks[2].Frame.Height() != 20 {
		t.Fatalf("trimmed chunk height = %d", chunks[2].Frame.Height())
	}
}

func TestScreenScrollMidDocumentAdvance(t *testing.T) {
	e, _ := fitWidthEngine(t, 8)
	e.GoTo(3, false)

	chunks := e.Chunks()
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	for i, want := range []int{3, 4, 5} {
		if chunks[i].Location != want {
			t.Fatalf("chunk %d location = %d, want %d", i, chunks[i].Location, want)
		}
	}
	if chunks[2].Frame.Height() != 20 {
		t.Fatalf("trimmed chunk height = %d", chunks[2].Frame.Height())
	}
	// The top of the screen anchors the walk.
	if e.CurrentLocation() != 3 {
		t.Fatalf("current location = %d, want 3", e.CurrentLocation())
	}

	// Advancing one screen promotes the partially shown bottom chunk.
	if _, ok := e.GoToNeighbor(geo.CycleNext); !ok {
		t.Fatal("advance failed")
	}
	if e.CurrentLocation() != 5 {
		t.Fatalf("current location after advance = %d, want 5", e.CurrentLocation())
	}
	if e.ViewPort().PageOffset.Y != 20 {
		t.Fatalf("page offset = %v", e.ViewPort().PageOffset)
	}
}

func TestFitToWidthPageScrollWindowsOnePage(t *testing.T) {
	doc := newScriptedDoc(3, 100, 300)
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100),
		WithReaderInfo(&metadata.ReaderInfo{
			ZoomMode:   metadata.FitToWidth,
			ScrollMode: metadata.PageScroll,
		}))
	chunks := e.Chunks()
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	if chunks[0].Frame != geo.Rect(0, 0, 100, 100) {
		t.Fatalf("frame = %v", chunks[0].Frame)
	}

	e.Scroll(geo.Pt(0, 120))
	chunks = e.Chunks()
	if chunks[0].Frame != geo.Rect(0, 120, 100, 220) {
		t.Fatalf("frame after scroll = %v", chunks[0].Frame)
	}
	if e.CurrentLocation() != 0 {
		t.Fatal("page scroll must stay on the page")
	}
}

func TestCustomZoomChunkIsViewportIntersection(t *testing.T) {
	doc := newScriptedDoc(1, 100, 100)
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100),
		WithReaderInfo(&metadata.ReaderInfo{ZoomMode: metadata.CustomZoom, ZoomFactor: 1.5}))

	chunks := e.Chunks()
	if len(chunks) != 1 || chunks[0].Frame != geo.Rect(0, 0, 100, 100) {
		t.Fatalf("chunks = %+v", chunks)
	}

	e.Scroll(geo.Pt(30, 40))
	chunks = e.Chunks()
	if chunks[0].Frame != geo.Rect(30, 40, 130, 140) {
		t.Fatalf("frame after pan = %v", chunks[0].Frame)
	}

	// Panning entirely off the page is refused.
	if region := e.Scroll(geo.Pt(500, 0)); !region.Empty() {
		t.Fatal("off-page pan should be rejected")
	}
	if e.ViewPort().PageOffset != geo.Pt(30, 40) {
		t.Fatalf("offset = %v", e.ViewPort().PageOffset)
	}
}

func TestNonInvertedRegionsKeepLargeImages(t *testing.T) {
	doc := newScriptedDoc(1, 100, 100)
	doc.Pages[0].Images = []geo.Boundary{
		{MinX: 0, MinY: 0, MaxX: 60, MaxY: 60},
		{MinX: 0, MinY: 70, MaxX: 40, MaxY: 90}, // too small
	}
	e := New(document.NewShared(doc), geo.Rect(0, 0, 100, 100))

	if len(e.NonInvertedRegions()[0]) != 0 {
		t.Fatal("no regions expected while not inverted")
	}
	e.SetInverted(true)
	regions := e.NonInvertedRegions()[0]
	if len(regions) != 1 || regions[0].MaxX != 60 {
		t.Fatalf("regions = %+v", regions)
	}
}
