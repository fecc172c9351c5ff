package autocomplete

import "sync"

// Target holds the structured form fields a selection is committed into.
// It is owned by the enclosing form; selectors only write to it.
type Target struct {
	mu     sync.RWMutex
	fields Fields
}

// NewTarget returns an empty target.
func NewTarget() *Target {
	return &Target{fields: Fields{}}
}

// Apply replaces the target's contents with fields in one update.
func (t *Target) Apply(fields Fields) {
	next := fields.Clone()
	t.mu.Lock()
	t.fields = next
	t.mu.Unlock()
}

// Set stores a single value, e.g. text the user typed without picking a
// suggestion.
func (t *Target) Set(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fields == nil {
		t.fields = Fields{}
	}
	t.fields[key] = value
}

// Get returns one field.
func (t *Target) Get(key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fields[key]
}

// Snapshot returns a copy of all fields.
func (t *Target) Snapshot() Fields {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fields.Clone()
}

// Reset empties the target.
func (t *Target) Reset() {
	t.Apply(nil)
}

// IsEmpty reports whether no field is set.
func (t *Target) IsEmpty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.fields) == 0
}
