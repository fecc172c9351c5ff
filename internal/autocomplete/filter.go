package autocomplete

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// MinRemoteQueryLen is the shortest query, in characters, sent to a remote
// source. Shorter input is served from the local dataset only.
const MinRemoteQueryLen = 3

// FilterLocal returns the candidates whose label contains query, ignoring
// case. An empty query returns the whole dataset. Dataset order is kept.
func FilterLocal(query string, dataset []Candidate) []Candidate {
	if query == "" {
		out := make([]Candidate, len(dataset))
		copy(out, dataset)
		return out
	}

	caser := cases.Fold()
	needle := caser.String(query)

	out := make([]Candidate, 0, len(dataset))
	for _, candidate := range dataset {
		if strings.Contains(caser.String(candidate.Label), needle) {
			out = append(out, candidate)
		}
	}
	return out
}

// Choose decides which single list is visible for a query: the remote
// results when there is at least one, otherwise the local fallback.
func Choose(remote []Candidate, remoteErr error, local []Candidate) ([]Candidate, Origin) {
	if remoteErr == nil && len(remote) > 0 {
		return remote, OriginRemote
	}
	return local, OriginLocal
}

// QualifiesForRemote reports whether query is long enough for a remote lookup.
func QualifiesForRemote(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) >= MinRemoteQueryLen
}

func foldEqual(a, b string) bool {
	caser := cases.Fold()
	return caser.String(a) == caser.String(b)
}
