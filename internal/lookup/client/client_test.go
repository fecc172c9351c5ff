package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"rideshare_backend/internal/autocomplete"
	"rideshare_backend/internal/lookup"

	"github.com/gin-gonic/gin"
)

type fixedSource struct {
	mu      sync.Mutex
	results []autocomplete.Candidate
	err     error
}

func (f *fixedSource) set(results []autocomplete.Candidate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = results
}

func (f *fixedSource) Lookup(context.Context, string, autocomplete.Scope) ([]autocomplete.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results, f.err
}

func (f *fixedSource) ResolveDetails(context.Context, string) (autocomplete.Fields, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return autocomplete.Fields{"zipCode": "MD-2068"}, f.err
}

func newAPI(t *testing.T, svc *lookup.Service) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := lookup.NewHandler(svc)
	engine.GET("/api/v1/lookup/:kind", h.Suggest)
	engine.GET("/api/v1/lookup/:kind/details", h.Details)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

var local = autocomplete.StaticDataset{{Label: "Strada Kiev 14", Fields: autocomplete.Fields{"address": "Strada Kiev 14"}}}

func TestDialRejectsLocalOnlyKind(t *testing.T) {
	srv := newAPI(t, lookup.NewService(nil).WithDataset(lookup.KindAddresses, local))

	if _, err := Dial(context.Background(), srv.URL, lookup.KindAddresses, nil); !errors.Is(err, ErrRemoteDisabled) {
		t.Fatalf("expected ErrRemoteDisabled, got %v", err)
	}
}

func TestLookupReturnsOnlyRemoteResults(t *testing.T) {
	remote := autocomplete.Candidate{ID: "W4410", Label: "Strada Kiev 14, Chișinău", DetailsRef: "W4410"}
	src := &fixedSource{results: []autocomplete.Candidate{remote}}
	svc := lookup.NewService(nil).WithDataset(lookup.KindAddresses, local).WithSource(lookup.KindAddresses, src)
	srv := newAPI(t, svc)

	c, err := Dial(context.Background(), srv.URL, lookup.KindAddresses, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	got, err := c.Lookup(context.Background(), "kiev", autocomplete.Scope{"country": "md"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 1 || got[0].ID != "W4410" {
		t.Fatalf("unexpected candidates %+v", got)
	}

	src.set(nil)
	got, err = c.Lookup(context.Background(), "kiev", nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected server-side local fallback to be hidden, got %+v %v", got, err)
	}

	fields, err := c.ResolveDetails(context.Background(), "W4410")
	if err != nil || fields["zipCode"] != "MD-2068" {
		t.Fatalf("unexpected details %+v %v", fields, err)
	}
}

func TestLookupSurfacesRemoteFailure(t *testing.T) {
	src := &fixedSource{err: errors.New("upstream down")}
	svc := lookup.NewService(nil).WithSource(lookup.KindAddresses, src)
	srv := newAPI(t, svc)

	c := New(srv.URL, lookup.KindAddresses, nil)
	if _, err := c.Lookup(context.Background(), "kiev", nil); err == nil {
		t.Fatal("expected degraded server lookup to surface as an error")
	}
}
