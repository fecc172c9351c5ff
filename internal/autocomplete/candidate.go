// Package autocomplete turns free-text input into a structured selection.
//
// A Selector combines an optional remote suggestion source with a bundled
// local dataset. Remote results win when the source is ready and returned at
// least one match for the current query; otherwise the local dataset,
// filtered by case-insensitive substring, is shown. Selecting a candidate
// writes its payload into a Target in a single update.
package autocomplete

import (
	"context"
	"maps"
)

// Fields is the structured payload committed when a candidate is chosen,
// e.g. {"address": ..., "city": ..., "country": ...}.
type Fields map[string]string

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	return maps.Clone(f)
}

// Scope narrows a lookup, e.g. a country restriction or the parent make
// a model list depends on.
type Scope map[string]string

// Clone returns an independent copy.
func (s Scope) Clone() Scope {
	if s == nil {
		return Scope{}
	}
	return maps.Clone(s)
}

// Candidate is a selectable suggestion.
type Candidate struct {
	// ID is set only for remote candidates. Local candidates are matched by
	// value equality instead.
	ID        string `json:"id,omitempty"`
	Label     string `json:"label"`
	Secondary string `json:"secondary,omitempty"`
	// DetailsRef points at the full payload on the remote source. It is
	// resolved lazily, and only for the candidate the user picks.
	DetailsRef string `json:"detailsRef,omitempty"`
	Fields     Fields `json:"fields"`
}

// IsRemote reports whether the candidate came from a remote source.
func (c Candidate) IsRemote() bool {
	return c.ID != ""
}

// Equal compares remote candidates by ID and local ones by value.
func (c Candidate) Equal(other Candidate) bool {
	if c.IsRemote() || other.IsRemote() {
		return c.ID == other.ID
	}
	return c.Label == other.Label && c.Secondary == other.Secondary && maps.Equal(c.Fields, other.Fields)
}

// RemoteSource is a network-backed suggestion service.
type RemoteSource interface {
	// Lookup returns candidates for query in the order the service ranks them.
	Lookup(ctx context.Context, query string, scope Scope) ([]Candidate, error)
	// ResolveDetails fetches the full payload behind a candidate's DetailsRef.
	ResolveDetails(ctx context.Context, ref string) (Fields, error)
}

// Dataset is a bundled, in-memory list of candidates.
type Dataset interface {
	Candidates(scope Scope) []Candidate
}

// StaticDataset ignores scope.
type StaticDataset []Candidate

// Candidates implements Dataset.
func (d StaticDataset) Candidates(Scope) []Candidate {
	return d
}

// ScopedDataset keys candidate lists by the value of one scope entry,
// e.g. vehicle models keyed by make. A missing or unknown scope value
// yields no candidates.
type ScopedDataset struct {
	Key     string
	ByScope map[string][]Candidate
}

// Candidates implements Dataset.
func (d ScopedDataset) Candidates(scope Scope) []Candidate {
	value := scope[d.Key]
	if value == "" {
		return nil
	}
	if list, ok := d.ByScope[value]; ok {
		return list
	}
	for key, list := range d.ByScope {
		if foldEqual(key, value) {
			return list
		}
	}
	return nil
}
