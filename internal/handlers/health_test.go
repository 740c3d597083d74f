package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandlerHandle(t *testing.T) {
	handler := HealthHandler{Environment: "test", Started: time.Now().Add(-time.Minute)}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type got %s", got)
	}

	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("expected status ok got %q", payload["status"])
	}
	if payload["environment"] != "test" {
		t.Fatalf("expected environment test got %q", payload["environment"])
	}
	if payload["uptime"] == "" {
		t.Fatal("expected uptime to be reported")
	}
}
