package access

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"rideshare_backend/internal/access/repository"
	apphttp "rideshare_backend/internal/http"
	"rideshare_backend/internal/http/router"
	"rideshare_backend/platform/logger"
	"rideshare_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "access-test-secret"

type testConfig struct{}

func (testConfig) GetHTTPAddr() string        { return ":0" }
func (testConfig) GetCORSAllowAll() bool      { return true }
func (testConfig) GetCORSOrigins() []string   { return nil }
func (testConfig) GetCORSAllowCreds() bool    { return false }
func (testConfig) GetJWTAccessSecret() string { return testSecret }

type roleTable struct {
	mu   sync.Mutex
	rows map[string]bool
}

func key(userID uuid.UUID, role string) string { return userID.String() + "/" + role }

func (r *roleTable) HasRole(_ context.Context, userID uuid.UUID, role string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[key(userID, role)], nil
}

func (r *roleTable) Grant(_ context.Context, userID uuid.UUID, role string, _ *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows[key(userID, role)] {
		return false, nil
	}
	r.rows[key(userID, role)] = true
	return true, nil
}

func (r *roleTable) Revoke(_ context.Context, userID uuid.UUID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.rows[key(userID, role)] {
		return repository.ErrNotFound
	}
	delete(r.rows, key(userID, role))
	return nil
}

func (r *roleTable) ListRoles(_ context.Context, userID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles := make([]string, 0)
	for k := range r.rows {
		if strings.HasPrefix(k, userID.String()+"/") {
			roles = append(roles, strings.TrimPrefix(k, userID.String()+"/"))
		}
	}
	return roles, nil
}

func (r *roleTable) ListByRole(context.Context, string) ([]repository.Grant, error) {
	return nil, nil
}

func (r *roleTable) CountRole(_ context.Context, role string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.rows {
		if strings.HasSuffix(k, "/"+role) {
			n++
		}
	}
	return n, nil
}

func bearer(t *testing.T, userID uuid.UUID, email string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"type":  "access",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + signed
}

func newEngine(store repository.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewModuleWithStore(store, nil, validator.New(), nil)
	return router.New(&apphttp.App{
		Config:  testConfig{},
		Logger:  logger.NewNop(),
		Roles:   m.Service(),
		Modules: []apphttp.Module{m},
	})
}

func TestAdminAccessComesFromRoleStoreNotEmail(t *testing.T) {
	store := &roleTable{rows: map[string]bool{}}
	engine := newEngine(store)
	admin := uuid.New()
	_, _ = store.Grant(context.Background(), admin, "admin", nil)

	lookalike := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/roles/"+admin.String(), nil)
	req.Header.Set("Authorization", bearer(t, lookalike, "admin@gmail.com"))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for an unprivileged user with an admin-looking email, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/roles/"+admin.String(), nil)
	req.Header.Set("Authorization", bearer(t, admin, "someone@example.com"))
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a stored administrator, got %d", rec.Code)
	}
}

func TestGrantAndRevokeRoutes(t *testing.T) {
	store := &roleTable{rows: map[string]bool{}}
	engine := newEngine(store)
	admin, driver := uuid.New(), uuid.New()
	_, _ = store.Grant(context.Background(), admin, "admin", nil)

	body := `{"userId":"` + driver.String() + `","role":"driver"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/roles", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, admin, ""))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if ok, _ := store.HasRole(context.Background(), driver, "driver"); !ok {
		t.Fatal("expected driver role to be stored")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/roles", strings.NewReader(`{"userId":"nope","role":"driver"}`))
	req.Header.Set("Authorization", bearer(t, admin, ""))
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid user id, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/roles/"+driver.String()+"/driver", nil)
	req.Header.Set("Authorization", bearer(t, admin, ""))
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/roles/"+admin.String()+"/admin", nil)
	req.Header.Set("Authorization", bearer(t, admin, ""))
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for self-revoke, got %d", rec.Code)
	}
}

func TestMyRoles(t *testing.T) {
	store := &roleTable{rows: map[string]bool{}}
	engine := newEngine(store)
	driver := uuid.New()
	_, _ = store.Grant(context.Background(), driver, "driver", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/roles", nil)
	req.Header.Set("Authorization", bearer(t, driver, ""))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"driver"`) {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}
