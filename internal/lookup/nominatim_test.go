package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"rideshare_backend/internal/autocomplete"
	"rideshare_backend/platform/apperr"
)

const nominatimSearchPayload = `[
  {"place_id": 1, "osm_type": "way", "osm_id": 4410, "lat": "47.02", "lon": "28.83",
   "address": {"road": "Strada Kiev", "house_number": "14", "postcode": "MD-2068", "city": "Chișinău", "country": "Moldova", "country_code": "md"}},
  {"place_id": 2, "osm_type": "node", "osm_id": 99, "lat": "47.1", "lon": "28.9",
   "address": {"country": "Moldova", "country_code": "md"}},
  {"place_id": 3, "osm_type": "way", "osm_id": 4411, "lat": "47.76", "lon": "27.92",
   "address": {"road": "Strada Kievului", "town": "Bălți", "country": "Moldova", "country_code": "md"}}
]`

type requestRecorder struct {
	mu   sync.Mutex
	reqs []*http.Request
}

func (r *requestRecorder) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req.Clone(context.Background()))
}

func (r *requestRecorder) first() *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[0]
}

func newNominatimTestServer(t *testing.T, seen *requestRecorder) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.add(r)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(nominatimSearchPayload))
		case "/lookup":
			if r.URL.Query().Get("osm_ids") == "W404" {
				_, _ = w.Write([]byte(`[]`))
				return
			}
			_, _ = w.Write([]byte(`[{"place_id": 1, "osm_type": "way", "osm_id": 4410, "lat": "47.02", "lon": "28.83",
			  "address": {"road": "Strada Kiev", "house_number": "14", "postcode": "MD-2068", "city": "Chișinău", "country_code": "md"}}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNominatimLookupBuildsCandidatesInRankOrder(t *testing.T) {
	seen := &requestRecorder{}
	srv := newNominatimTestServer(t, seen)
	src := NewNominatimSource(NominatimOptions{BaseURL: srv.URL, UserAgent: "RideshareTest/1.0", CountryCodes: "md,ro"}, nil)

	got, err := src.Lookup(context.Background(), "kiev", autocomplete.Scope{})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected places without a street to be skipped, got %d candidates", len(got))
	}
	if got[0].ID != "W4410" || got[0].DetailsRef != "W4410" {
		t.Fatalf("unexpected id/ref %q/%q", got[0].ID, got[0].DetailsRef)
	}
	if got[0].Label != "Strada Kiev 14, MD-2068 Chișinău" {
		t.Fatalf("unexpected label %q", got[0].Label)
	}
	if got[0].Fields["country"] != "MD" || got[0].Fields["address"] != "Strada Kiev 14" {
		t.Fatalf("unexpected fields %+v", got[0].Fields)
	}
	if got[1].Fields["city"] != "Bălți" {
		t.Fatalf("expected town fallback for city, got %q", got[1].Fields["city"])
	}

	q := seen.first().URL.Query()
	if q.Get("countrycodes") != "md,ro" || q.Get("q") != "kiev" {
		t.Fatalf("unexpected query %v", q)
	}
	if seen.first().Header.Get("User-Agent") != "RideshareTest/1.0" {
		t.Fatalf("expected configured user agent, got %q", seen.first().Header.Get("User-Agent"))
	}
}

func TestNominatimCountryScopeOverridesDefault(t *testing.T) {
	seen := &requestRecorder{}
	srv := newNominatimTestServer(t, seen)
	src := NewNominatimSource(NominatimOptions{BaseURL: srv.URL, CountryCodes: "md,ro"}, nil)

	if _, err := src.Lookup(context.Background(), "kiev", autocomplete.Scope{ScopeCountry: "RO"}); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got := seen.first().URL.Query().Get("countrycodes"); got != "ro" {
		t.Fatalf("expected scoped country restriction, got %q", got)
	}
}

func TestNominatimResolveDetails(t *testing.T) {
	seen := &requestRecorder{}
	srv := newNominatimTestServer(t, seen)
	src := NewNominatimSource(NominatimOptions{BaseURL: srv.URL}, nil)

	fields, err := src.ResolveDetails(context.Background(), "W4410")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if fields["zipCode"] != "MD-2068" || fields["lat"] != "47.02" {
		t.Fatalf("unexpected fields %+v", fields)
	}
	if got := seen.first().URL.Query().Get("osm_ids"); got != "W4410" {
		t.Fatalf("expected osm_ids=W4410, got %q", got)
	}

	if _, err := src.ResolveDetails(context.Background(), "W404"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := src.ResolveDetails(context.Background(), "../etc"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNominatimUpstreamErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewNominatimSource(NominatimOptions{BaseURL: srv.URL}, nil)
	if _, err := src.Lookup(context.Background(), "kiev", nil); err == nil {
		t.Fatal("expected upstream error")
	}
}

func TestBuildLabelWithoutZipCode(t *testing.T) {
	label := buildLabel(autocomplete.Fields{"address": "Strada Kievului", "city": "Bălți"})
	if label != "Strada Kievului, Bălți" {
		t.Fatalf("unexpected label %q", label)
	}
}
