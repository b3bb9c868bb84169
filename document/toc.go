package document

import "github.com/wudi/readkit/geo"

// FlattenToc returns the entries of the tree in reading order.
func FlattenToc(entries []TocEntry) []TocEntry {
	var out []TocEntry
	for _, e := range entries {
		out = append(out, e)
		out = append(out, FlattenToc(e.Children)...)
	}
	return out
}

// ChapterAt is the stock Chapter implementation: it returns the entry with
// the greatest location at or before index, the fraction of the chapter read
// and the fraction remaining. Backends without a smarter notion of chapters
// delegate to it.
func ChapterAt(index int, toc []TocEntry, pagesCount int) (*TocEntry, float64, float64, bool) {
	flat := FlattenToc(toc)
	chapter := -1
	for i, e := range flat {
		if e.Location <= index {
			chapter = i
		}
	}
	if chapter < 0 {
		return nil, 0, 0, false
	}
	start := flat[chapter].Location
	end := pagesCount
	if chapter+1 < len(flat) {
		end = flat[chapter+1].Location
	}
	span := end - start
	if span <= 0 {
		span = 1
	}
	progress := float64(index-start) / float64(span)
	remain := float64(end-index-1) / float64(span)
	if remain < 0 {
		remain = 0
	}
	entry := flat[chapter]
	return &entry, progress, remain, true
}

// ChapterRelative returns the entry of the chapter before or after the one
// covering index.
func ChapterRelative(index int, dir geo.CycleDir, toc []TocEntry) (*TocEntry, bool) {
	flat := FlattenToc(toc)
	if dir == geo.CycleNext {
		for _, e := range flat {
			if e.Location > index {
				entry := e
				return &entry, true
			}
		}
		return nil, false
	}
	for i := len(flat) - 1; i >= 0; i-- {
		if flat[i].Location < index {
			entry := flat[i]
			return &entry, true
		}
	}
	return nil, false
}
