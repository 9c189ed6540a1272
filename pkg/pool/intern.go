package pool

import (
	"sync"
	"sync/atomic"
)

// DefaultInternLimit bounds the distinct strings an Interner keeps
const DefaultInternLimit = 1 << 16

// Interner provides string interning to reduce memory held by repeated
// column values. It is safe for concurrent use.
type Interner struct {
	mu      sync.RWMutex
	strings map[string]string
	maxSize int
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewInterner creates an interner holding at most maxSize strings. A
// non-positive maxSize uses DefaultInternLimit.
func NewInterner(maxSize int) *Interner {
	if maxSize <= 0 {
		maxSize = DefaultInternLimit
	}
	return &Interner{
		strings: make(map[string]string, 256),
		maxSize: maxSize,
	}
}

// Intern returns the shared copy of s
func (p *Interner) Intern(s string) string {
	// Fast path: check if already interned
	p.mu.RLock()
	interned, ok := p.strings[s]
	p.mu.RUnlock()
	if ok {
		p.hits.Add(1)
		return interned
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if interned, ok := p.strings[s]; ok {
		p.hits.Add(1)
		return interned
	}
	p.misses.Add(1)
	if len(p.strings) >= p.maxSize {
		return s
	}
	p.strings[s] = s
	return s
}

// Stats returns the number of interned strings, hits and misses
func (p *Interner) Stats() (size int, hits, misses int64) {
	p.mu.RLock()
	size = len(p.strings)
	p.mu.RUnlock()
	return size, p.hits.Load(), p.misses.Load()
}
