package metadata

import "testing"

func TestCroppingMargins(t *testing.T) {
	var c *CroppingMargins
	if m := c.Margin(3); m != (Margin{}) {
		t.Fatalf("nil margins = %+v", m)
	}

	c = &CroppingMargins{Any: Margin{Top: 0.1}}
	if m := c.Margin(7); m.Top != 0.1 {
		t.Fatalf("default margin = %+v", m)
	}
	c.SetMargin(7, Margin{Left: 0.2})
	if m := c.Margin(7); m.Left != 0.2 || m.Top != 0 {
		t.Fatalf("per-page margin = %+v", m)
	}
	if m := c.Margin(8); m.Top != 0.1 {
		t.Fatalf("other pages keep default, got %+v", m)
	}
}

func TestToggleBookmark(t *testing.T) {
	info := &ReaderInfo{}
	if !info.ToggleBookmark(4) {
		t.Fatal("first toggle should set")
	}
	if info.ToggleBookmark(4) {
		t.Fatal("second toggle should clear")
	}
	if len(info.Bookmarks) != 0 {
		t.Fatalf("bookmarks = %v", info.Bookmarks)
	}
}

func TestBookmarkNeighbors(t *testing.T) {
	info := &ReaderInfo{}
	for _, loc := range []int{2, 9, 5} {
		info.ToggleBookmark(loc)
	}

	if loc, ok := info.BookmarkAfter(2); !ok || loc != 5 {
		t.Errorf("BookmarkAfter(2) = %d, %v", loc, ok)
	}
	if loc, ok := info.BookmarkBefore(9); !ok || loc != 5 {
		t.Errorf("BookmarkBefore(9) = %d, %v", loc, ok)
	}
	if _, ok := info.BookmarkAfter(9); ok {
		t.Error("no bookmark after the last one")
	}
	if _, ok := info.BookmarkBefore(2); ok {
		t.Error("no bookmark before the first one")
	}
}
