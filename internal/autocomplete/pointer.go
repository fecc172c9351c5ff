package autocomplete

import "sync"

// Rect is a control's bounding region in the host's coordinate space.
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// PointerBus fans pointer-down events out to the listeners registered on it.
// Selectors register while their list is open and deregister on close.
type PointerBus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(x, y int)
}

// NewPointerBus returns an empty bus.
func NewPointerBus() *PointerBus {
	return &PointerBus{listeners: make(map[int]func(x, y int))}
}

// Register adds a listener and returns the function that removes it.
// The returned function is safe to call more than once.
func (b *PointerBus) Register(fn func(x, y int)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// PointerDown delivers a pointer-down at (x, y) to every listener.
// Listeners run outside the bus lock so they may deregister themselves.
func (b *PointerBus) PointerDown(x, y int) {
	b.mu.Lock()
	fns := make([]func(x, y int), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(x, y)
	}
}

// Len returns the number of registered listeners.
func (b *PointerBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
