// Package client calls the lookup HTTP API and exposes each kind as an
// autocomplete remote source.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rideshare_backend/internal/autocomplete"
	"rideshare_backend/internal/lookup"
)

// ErrRemoteDisabled is returned by Dial when the server has no remote source
// for the kind.
var ErrRemoteDisabled = errors.New("remote lookup disabled on server")

// Source is an autocomplete.RemoteSource backed by the lookup API. It only
// reports the server's remote results; local fallback stays with the caller.
type Source struct {
	baseURL string
	kind    lookup.Kind
	http    *http.Client
}

// New returns a source without contacting the server.
func New(baseURL string, kind lookup.Kind, httpClient *http.Client) *Source {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &Source{baseURL: strings.TrimRight(baseURL, "/"), kind: kind, http: httpClient}
}

// Dial returns a source after checking that the server offers remote lookups
// for kind. It is meant as a selector's remote initialiser.
func Dial(ctx context.Context, baseURL string, kind lookup.Kind, httpClient *http.Client) (*Source, error) {
	s := New(baseURL, kind, httpClient)
	var probe lookup.Suggestions
	if err := s.get(ctx, "", url.Values{}, &probe); err != nil {
		return nil, err
	}
	if probe.Readiness == autocomplete.RemoteUnavailable.String() {
		return nil, ErrRemoteDisabled
	}
	return s, nil
}

func (s *Source) Lookup(ctx context.Context, query string, scope autocomplete.Scope) ([]autocomplete.Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	for k, v := range scope {
		if v != "" {
			params.Set(k, v)
		}
	}

	var result lookup.Suggestions
	if err := s.get(ctx, "", params, &result); err != nil {
		return nil, err
	}
	if result.Readiness == autocomplete.RemoteErrored.String() {
		return nil, errors.New("server reported remote lookup failure")
	}
	if result.Source != autocomplete.OriginRemote {
		return nil, nil
	}
	return result.Candidates, nil
}

func (s *Source) ResolveDetails(ctx context.Context, ref string) (autocomplete.Fields, error) {
	var result lookup.Details
	if err := s.get(ctx, "/details", url.Values{"ref": {ref}}, &result); err != nil {
		return nil, err
	}
	return result.Fields, nil
}

func (s *Source) get(ctx context.Context, suffix string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s/api/v1/lookup/%s%s?%s", s.baseURL, url.PathEscape(string(s.kind)), suffix, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("lookup api %s: %d %s", s.kind, resp.StatusCode, body.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ autocomplete.RemoteSource = (*Source)(nil)
