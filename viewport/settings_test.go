package viewport

import (
	"testing"

	"github.com/wudi/readkit/document"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/metadata"
)

func TestSetZoomModeRerenders(t *testing.T) {
	e, _ := fitPageEngine(t, 3)
	res, _ := e.Resource(0)
	if res.Scale != 1.0 {
		t.Fatalf("initial scale = %v", res.Scale)
	}

	e.SetZoomMode(metadata.CustomZoom, 2.0, true)
	res, ok := e.Resource(0)
	if !ok || res.Scale != 2.0 {
		t.Fatalf("scale after zoom change = %v, resident %v", res.Scale, ok)
	}
	if e.Info().ZoomMode != metadata.CustomZoom || e.Info().ZoomFactor != 2.0 {
		t.Fatalf("info = %+v", e.Info())
	}

	if region := e.SetZoomMode(metadata.CustomZoom, 2.0, true); !region.Empty() {
		t.Fatal("same mode and factor should be a no-op")
	}
}

func TestSetZoomModeCanKeepOffset(t *testing.T) {
	e, _ := fitWidthEngine(t, 5)
	e.Scroll(geo.Pt(0, 10))
	e.SetZoomMode(metadata.FitToPage, 0, false)
	if e.ViewPort().PageOffset.Y != 10 {
		t.Fatalf("offset = %d, want preserved", e.ViewPort().PageOffset.Y)
	}
	e.SetZoomMode(metadata.FitToWidth, 0, true)
	if e.ViewPort().PageOffset.Y != 0 {
		t.Fatalf("offset = %d, want reset", e.ViewPort().PageOffset.Y)
	}
}

func TestSetScrollModeOnlyMattersUnderFitToWidth(t *testing.T) {
	e, _ := fitPageEngine(t, 3)
	if region := e.SetScrollMode(metadata.PageScroll); !region.Empty() {
		t.Fatal("scroll mode is inert outside fit-to-width")
	}
	if e.Info().ScrollMode != metadata.PageScroll {
		t.Fatal("preference must still be recorded")
	}
}

func TestCropMarginsRerendersPage(t *testing.T) {
	e, _ := fitPageEngine(t, 3)
	e.CropMargins(0, metadata.Margin{Top: 0.1, Bottom: 0.1}, false)
	res, _ := e.Resource(0)
	if res.Frame.Min.Y == 0 {
		t.Fatalf("frame = %v, want cropped top", res.Frame)
	}
	if e.Info().CroppingMargins.Margin(1) != (metadata.Margin{}) {
		t.Fatal("other pages must keep their margin")
	}

	e.CropMargins(0, metadata.Margin{Left: 0.2}, true)
	if e.Info().CroppingMargins.Margin(1).Left != 0.2 {
		t.Fatal("apply-to-all must cover every page")
	}
}

func TestLayoutChangeSkippedWhileBusy(t *testing.T) {
	doc := newScriptedDoc(3, 100, 100)
	doc.Reflow = true
	shared := document.NewShared(doc)
	e := New(shared, geo.Rect(0, 0, 100, 100))
	layouts := doc.Relayouts

	waitIdle(t, shared)
	shared.Retain()
	if region := e.SetFontSize(14); !region.Empty() {
		t.Fatal("font change should be dropped while busy")
	}
	if doc.Relayouts != layouts || e.Info().FontSize == 14 {
		t.Fatal("state must be untouched")
	}
	shared.Release()
	waitIdle(t, shared)

	if region := e.SetFontSize(14); region.Empty() {
		t.Fatal("font change should apply once idle")
	}
	if doc.Relayouts != layouts+1 || e.Info().FontSize != 14 {
		t.Fatalf("relayouts = %d fontSize = %v", doc.Relayouts, e.Info().FontSize)
	}
}

func TestLayoutChangesIgnoredForFixedLayout(t *testing.T) {
	e, doc := fitPageEngine(t, 3)
	layouts := doc.Relayouts
	if region := e.SetFontSize(14); !region.Empty() {
		t.Fatal("fixed layouts have no font size")
	}
	if region := e.SetLineHeight(1.6); !region.Empty() {
		t.Fatal("fixed layouts have no line height")
	}
	if doc.Relayouts != layouts {
		t.Fatal("no relayout expected")
	}
}

func TestSetMarginWidthChangesScale(t *testing.T) {
	e, _ := fitWidthEngine(t, 5)
	e.SetMarginWidth(10)
	res, _ := e.Resource(0)
	// 80 surface pixels over a 100 unit page.
	if res.Scale != 0.8 {
		t.Fatalf("scale = %v", res.Scale)
	}
	if e.Chunks()[0].Position.X != 10 {
		t.Fatalf("position = %v", e.Chunks()[0].Position)
	}
}
