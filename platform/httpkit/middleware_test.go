package httpkit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string { return "test-secret" }

type stubRoles struct {
	admins map[uuid.UUID]bool
	err    error
}

func (s stubRoles) HasRole(_ context.Context, userID uuid.UUID, role string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return role == "admin" && s.admins[userID], nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAdminEngine(roles RoleLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/admin", AuthRequired(testJWTConfig{}), RequireRole(roles, "admin", nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": GetIdentity(c).Email()})
	})
	return engine
}

func doRequest(engine *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	rec := doRequest(newAdminEngine(stubRoles{}), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredRejectsRefreshTokens(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": "refresh",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	rec := doRequest(newAdminEngine(stubRoles{}), token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleUsesRoleStoreNotEmail(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub":   userID.String(),
		"email": "admin@example.com",
		"type":  "access",
		"exp":   time.Now().Add(time.Minute).Unix(),
	})

	rec := doRequest(newAdminEngine(stubRoles{admins: map[uuid.UUID]bool{}}), token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("an admin-looking email without a stored role must be forbidden, got %d", rec.Code)
	}

	rec = doRequest(newAdminEngine(stubRoles{admins: map[uuid.UUID]bool{userID: true}}), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for stored admin role, got %d", rec.Code)
	}
}

func TestRequireRoleFailsClosedOnLookupError(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": "access",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})

	rec := doRequest(newAdminEngine(stubRoles{err: errors.New("db down")}), token)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}
