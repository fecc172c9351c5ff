package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"rideshare_backend/internal/autocomplete"
	"rideshare_backend/platform/apperr"
	"rideshare_backend/platform/logger"

	"golang.org/x/sync/singleflight"
)

const (
	defaultHTTPTimeout = 5 * time.Second
	vpicResultLimit    = 20
	makesListTTL       = 24 * time.Hour
)

// vpicClient talks to the NHTSA vehicle product information catalog.
type vpicClient struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

func (c *vpicClient) get(ctx context.Context, path string, out any) error {
	reqURL := fmt.Sprintf("%s%s?format=json", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("vpic request failed", "error", err)
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("vpic upstream error", "status", resp.StatusCode)
		return fmt.Errorf("upstream api error: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Error("failed to decode vpic payload", "error", err)
		return err
	}
	return nil
}

// MakeSource suggests passenger car makes. The catalog has no search
// endpoint, so the full list is fetched once per TTL and filtered locally in
// catalog order.
type MakeSource struct {
	api vpicClient
	now func() time.Time

	fetch singleflight.Group

	mu        sync.Mutex
	makes     []autocomplete.Candidate
	fetchedAt time.Time
}

// NewMakeSource creates a make source against baseURL (e.g. https://vpic.nhtsa.dot.gov/api).
func NewMakeSource(baseURL string, client *http.Client, log *logger.Logger) *MakeSource {
	return &MakeSource{api: newVPICClient(baseURL, client, log), now: time.Now}
}

func (s *MakeSource) Lookup(ctx context.Context, query string, _ autocomplete.Scope) ([]autocomplete.Candidate, error) {
	all, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	return limit(autocomplete.FilterLocal(query, all), vpicResultLimit), nil
}

// ResolveDetails is not supported; make candidates carry their full payload.
func (s *MakeSource) ResolveDetails(context.Context, string) (autocomplete.Fields, error) {
	return nil, apperr.BadRequest("vehicle makes have no details")
}

// list returns the cached catalog, refreshing it when expired. Concurrent
// refreshes share one upstream call and the lock is never held across it.
func (s *MakeSource) list(ctx context.Context) ([]autocomplete.Candidate, error) {
	s.mu.Lock()
	if s.makes != nil && s.now().Sub(s.fetchedAt) < makesListTTL {
		makes := s.makes
		s.mu.Unlock()
		return makes, nil
	}
	s.mu.Unlock()

	ch := s.fetch.DoChan("makes", func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		makes, err := s.fetchMakes(callCtx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.makes = makes
		s.fetchedAt = s.now()
		s.mu.Unlock()
		return makes, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]autocomplete.Candidate), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *MakeSource) fetchMakes(ctx context.Context) ([]autocomplete.Candidate, error) {
	var payload vpicMakesResponse
	if err := s.api.get(ctx, "/vehicles/GetMakesForVehicleType/car", &payload); err != nil {
		return nil, err
	}

	makes := make([]autocomplete.Candidate, 0, len(payload.Results))
	for _, m := range payload.Results {
		name := strings.TrimSpace(m.MakeName)
		if name == "" {
			continue
		}
		makes = append(makes, autocomplete.Candidate{
			ID:     "vpic-make:" + strconv.Itoa(m.MakeID),
			Label:  name,
			Fields: autocomplete.Fields{"make": name},
		})
	}
	return makes, nil
}

// ModelSource suggests models of the make named in the "make" scope. Without
// a make it returns nothing.
type ModelSource struct {
	api vpicClient
}

func NewModelSource(baseURL string, client *http.Client, log *logger.Logger) *ModelSource {
	return &ModelSource{api: newVPICClient(baseURL, client, log)}
}

func (s *ModelSource) Lookup(ctx context.Context, query string, scope autocomplete.Scope) ([]autocomplete.Candidate, error) {
	makeName := strings.TrimSpace(scope[ScopeMake])
	if makeName == "" {
		return nil, nil
	}

	var payload vpicModelsResponse
	if err := s.api.get(ctx, "/vehicles/GetModelsForMake/"+url.PathEscape(makeName), &payload); err != nil {
		return nil, err
	}

	models := make([]autocomplete.Candidate, 0, len(payload.Results))
	for _, m := range payload.Results {
		name := strings.TrimSpace(m.ModelName)
		if name == "" {
			continue
		}
		models = append(models, autocomplete.Candidate{
			ID:        "vpic-model:" + strconv.Itoa(m.ModelID),
			Label:     name,
			Secondary: m.MakeName,
			Fields:    autocomplete.Fields{"model": name},
		})
	}
	return limit(autocomplete.FilterLocal(query, models), vpicResultLimit), nil
}

// ResolveDetails is not supported; model candidates carry their full payload.
func (s *ModelSource) ResolveDetails(context.Context, string) (autocomplete.Fields, error) {
	return nil, apperr.BadRequest("vehicle models have no details")
}

func newVPICClient(baseURL string, client *http.Client, log *logger.Logger) vpicClient {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return vpicClient{baseURL: strings.TrimRight(baseURL, "/"), client: client, log: log}
}

func limit(candidates []autocomplete.Candidate, n int) []autocomplete.Candidate {
	if len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}
