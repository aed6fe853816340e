package site

import "sync"

type lazyState int

const (
	unresolved lazyState = iota
	resolved
)

// lazy holds a value that is computed at most once. Concurrent callers of get
// block until the first computation finishes and then observe its result.
type lazy[T any] struct {
	mu    sync.Mutex
	state lazyState
	value T
}

func (l *lazy[T]) get(compute func() T) T {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == unresolved {
		l.value = compute()
		l.state = resolved
	}
	return l.value
}

// peek returns the value without computing it.
func (l *lazy[T]) peek() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.state == resolved
}
