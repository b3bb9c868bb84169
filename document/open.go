package document

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// OpenerFunc opens a document of one format.
type OpenerFunc func(path string) (Document, error)

var (
	openersMu sync.RWMutex
	openers   = map[string]OpenerFunc{}
)

// RegisterFormat registers an opener for a file extension (with leading
// dot, lowercase). Backends call it from init.
func RegisterFormat(ext string, fn OpenerFunc) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[ext] = fn
}

// Formats returns the registered extensions, sorted.
func Formats() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	out := make([]string, 0, len(openers))
	for ext := range openers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Open opens path with the backend registered for its extension.
func Open(path string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	openersMu.RLock()
	fn, ok := openers[ext]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("open %s: unsupported format %q", path, ext)
	}
	return fn(path)
}
