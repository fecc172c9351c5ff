package lookup

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rideshare_backend/internal/autocomplete"

	"github.com/gin-gonic/gin"
)

func newTestEngine(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewHandler(svc)
	engine.GET("/lookup/:kind", h.Suggest)
	engine.GET("/lookup/:kind/details", h.Details)
	return engine
}

func TestSuggestEndpointReturnsLocalCandidates(t *testing.T) {
	engine := newTestEngine(NewService(nil).WithDataset(KindAddresses, testAddresses))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lookup/addresses?q=KIEV", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body Suggestions
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Source != autocomplete.OriginLocal || len(body.Candidates) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Candidates[0].Fields["city"] != "Chișinău" {
		t.Fatalf("unexpected payload %+v", body.Candidates[0].Fields)
	}
}

func TestSuggestEndpointRejectsUnknownKind(t *testing.T) {
	engine := newTestEngine(NewService(nil))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lookup/planets?q=mars", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSuggestEndpointValidatesCountry(t *testing.T) {
	engine := newTestEngine(NewService(nil))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lookup/addresses?q=kiev&country=moldova", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDetailsEndpoint(t *testing.T) {
	src := &stubSource{details: autocomplete.Fields{"zipCode": "MD-2068"}}
	engine := newTestEngine(NewService(nil).WithSource(KindAddresses, src))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lookup/addresses/details", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without ref, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lookup/addresses/details?ref=W4410", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lookup/countries/details?ref=MD", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for local-only kind, got %d", rec.Code)
	}
}
