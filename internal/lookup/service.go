package lookup

import (
	"context"
	"strings"

	"rideshare_backend/internal/autocomplete"
	"rideshare_backend/platform/apperr"
	"rideshare_backend/platform/logger"
)

// Service answers suggestion queries for every kind, combining a remote
// source (when configured) with the bundled local dataset the same way a
// Selector does.
type Service struct {
	sources  map[Kind]autocomplete.RemoteSource
	datasets map[Kind]autocomplete.Dataset
	log      *logger.Logger
}

// NewService creates a service with no sources. Register them with
// WithSource and WithDataset.
func NewService(log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		sources:  make(map[Kind]autocomplete.RemoteSource),
		datasets: make(map[Kind]autocomplete.Dataset),
		log:      log,
	}
}

// WithSource registers the remote source for kind. A nil source leaves the
// kind local-only.
func (s *Service) WithSource(kind Kind, src autocomplete.RemoteSource) *Service {
	if src != nil {
		s.sources[kind] = src
	}
	return s
}

// WithDataset registers the local fallback dataset for kind.
func (s *Service) WithDataset(kind Kind, d autocomplete.Dataset) *Service {
	s.datasets[kind] = d
	return s
}

// Source returns the remote source registered for kind, if any.
func (s *Service) Source(kind Kind) (autocomplete.RemoteSource, bool) {
	src, ok := s.sources[kind]
	return src, ok
}

// Dataset returns the local dataset registered for kind, if any.
func (s *Service) Dataset(kind Kind) (autocomplete.Dataset, bool) {
	d, ok := s.datasets[kind]
	return d, ok
}

// Suggest returns the candidate list for query. Remote results are used when
// the kind has a source, the query is long enough and the source returned at
// least one match; otherwise the filtered local dataset is returned. A remote
// failure is logged and degrades to local; it is never returned as an error.
func (s *Service) Suggest(ctx context.Context, kind Kind, query string, scope autocomplete.Scope) (Suggestions, error) {
	if !kind.Valid() {
		return Suggestions{}, apperr.NotFound("unknown lookup kind")
	}

	var local []autocomplete.Candidate
	if d, ok := s.datasets[kind]; ok {
		local = autocomplete.FilterLocal(query, d.Candidates(scope))
	}

	result := Suggestions{
		Kind:      kind,
		Query:     query,
		Readiness: autocomplete.RemoteUnavailable.String(),
	}

	src, ok := s.sources[kind]
	if !ok {
		result.Candidates, result.Source = local, autocomplete.OriginLocal
		return result, nil
	}
	result.Readiness = autocomplete.RemoteReady.String()

	if !autocomplete.QualifiesForRemote(query) {
		result.Candidates, result.Source = local, autocomplete.OriginLocal
		return result, nil
	}

	remote, err := src.Lookup(ctx, strings.TrimSpace(query), scope)
	if err != nil {
		s.log.WithContext(ctx).LookupDegraded(string(kind), query, err.Error())
		result.Readiness = autocomplete.RemoteErrored.String()
	}
	result.Candidates, result.Source = autocomplete.Choose(remote, err, local)
	if result.Candidates == nil {
		result.Candidates = []autocomplete.Candidate{}
	}
	return result, nil
}

// Details resolves the full payload behind a remote candidate.
func (s *Service) Details(ctx context.Context, kind Kind, ref string) (Details, error) {
	if !kind.Valid() {
		return Details{}, apperr.NotFound("unknown lookup kind")
	}
	src, ok := s.sources[kind]
	if !ok {
		return Details{}, apperr.Unavailable("remote lookup not configured")
	}

	fields, err := src.ResolveDetails(ctx, ref)
	if err != nil {
		if apperr.GetKind(err) != apperr.KindUnknown {
			return Details{}, err
		}
		s.log.WithContext(ctx).LookupDegraded(string(kind), ref, err.Error())
		return Details{}, apperr.Wrap(apperr.KindUnavailable, "lookup service unavailable", err)
	}
	return Details{Kind: kind, Ref: ref, Fields: fields}, nil
}
