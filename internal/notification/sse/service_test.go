package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rideshare_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandlerStreamsPublishedEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := New(nil)
	userID := uuid.New()

	engine := gin.New()
	engine.GET("/events", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, userID)
		c.Next()
	}, s.Handler())
	srv := httptest.NewServer(engine)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	waitFor(t, func() bool { return s.Connected(userID) == 1 })
	s.Publish(uuid.New(), Event{Type: EventRoleGranted})
	s.Publish(userID, Event{Type: EventVehicleReviewed, Message: "approved"})

	buf := make([]byte, 0, 512)
	chunk := make([]byte, 256)
	for !strings.Contains(string(buf), "vehicle_reviewed") {
		n, err := resp.Body.Read(chunk)
		if err != nil {
			t.Fatalf("read: %v (got %q)", err, buf)
		}
		buf = append(buf, chunk[:n]...)
	}
	if strings.Contains(string(buf), "role_granted") {
		t.Fatal("received another user's event")
	}

	cancel()
	waitFor(t, func() bool { return s.Connected(userID) == 0 })
}

func TestHandlerRequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := New(nil)
	engine := gin.New()
	engine.GET("/events", s.Handler())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCloseRefusesNewStreams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := New(nil)
	s.Close()

	engine := gin.New()
	engine.GET("/events", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Next()
	}, s.Handler())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after close, got %d", rec.Code)
	}
}
