package document

import (
	"sync"
	"sync/atomic"
)

// Shared serializes access to a Document across goroutines. Backends keep
// non-reentrant decode state, so at most one caller may be inside a document
// operation at a time; every call site locks, calls, and unlocks without
// holding the lock across a channel send.
//
// Background workers additionally register themselves with Retain/Release so
// that layout-affecting operations can be skipped while any of them is
// mid-flight.
type Shared struct {
	mu      sync.Mutex
	doc     Document
	borrows atomic.Int32
}

// NewShared wraps doc in a shared handle.
func NewShared(doc Document) *Shared {
	return &Shared{doc: doc}
}

// Lock acquires the document for a single operation. The returned Document
// must not be retained past the matching Unlock.
func (s *Shared) Lock() Document {
	s.mu.Lock()
	return s.doc
}

// Unlock releases the document.
func (s *Shared) Unlock() {
	s.mu.Unlock()
}

// Retain marks a background borrow of the handle for the lifetime of a
// worker, not of a single call.
func (s *Shared) Retain() {
	s.borrows.Add(1)
}

// Release undoes a Retain.
func (s *Shared) Release() {
	s.borrows.Add(-1)
}

// Idle reports whether no background borrow is outstanding. Layout mutations
// are only safe while the handle is idle.
func (s *Shared) Idle() bool {
	return s.borrows.Load() == 0
}
