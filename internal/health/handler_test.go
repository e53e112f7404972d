package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/motionlab-ai/pose-backend/internal/backend"
)

func engineHandler(cfg backend.RemoteConfig) *Handler {
	return NewHandler(nil, nil, cfg, nil, nil, nil, nil, "test")
}

func TestComputeOverallStatus(t *testing.T) {
	h := &Handler{}

	tests := []struct {
		name       string
		components map[string]ComponentStatus
		want       Status
	}{
		{
			name: "all healthy",
			components: map[string]ComponentStatus{
				"database": {Status: StatusHealthy},
				"redis":    {Status: StatusHealthy},
				"engine":   {Status: StatusHealthy},
			},
			want: StatusHealthy,
		},
		{
			name: "database down is unhealthy",
			components: map[string]ComponentStatus{
				"database": {Status: StatusUnhealthy},
				"redis":    {Status: StatusHealthy},
				"engine":   {Status: StatusHealthy},
			},
			want: StatusUnhealthy,
		},
		{
			name: "engine down is unhealthy",
			components: map[string]ComponentStatus{
				"database": {Status: StatusHealthy},
				"redis":    {Status: StatusHealthy},
				"engine":   {Status: StatusUnhealthy},
			},
			want: StatusUnhealthy,
		},
		{
			name: "redis down only degrades",
			components: map[string]ComponentStatus{
				"database": {Status: StatusHealthy},
				"redis":    {Status: StatusUnhealthy},
				"engine":   {Status: StatusHealthy},
			},
			want: StatusDegraded,
		},
		{
			name: "missing redis degrades",
			components: map[string]ComponentStatus{
				"database": {Status: StatusHealthy},
				"redis":    {Status: StatusDegraded},
				"engine":   {Status: StatusHealthy},
			},
			want: StatusDegraded,
		},
		{
			name: "mqtt disconnect degrades",
			components: map[string]ComponentStatus{
				"database": {Status: StatusHealthy},
				"redis":    {Status: StatusHealthy},
				"engine":   {Status: StatusHealthy},
				"mqtt":     {Status: StatusDegraded},
			},
			want: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.computeOverallStatus(tt.components)
			if got != tt.want {
				t.Errorf("computeOverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckEngine(t *testing.T) {
	tests := []struct {
		name    string
		respond http.HandlerFunc
		want    Status
	}{
		{
			name: "healthy",
			respond: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"accelerators": []string{"npu", "gpu", "cpu"}})
			},
			want: StatusHealthy,
		},
		{
			name: "no accelerators",
			respond: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"accelerators": []string{}})
			},
			want: StatusDegraded,
		},
		{
			name: "server error",
			respond: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: StatusUnhealthy,
		},
		{
			name: "malformed body",
			respond: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
			want: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.respond)
			defer ts.Close()

			h := engineHandler(backend.RemoteConfig{BaseURL: ts.URL})
			got := h.checkEngine(context.Background())
			if got.Status != tt.want {
				t.Errorf("checkEngine() status = %v, want %v", got.Status, tt.want)
			}
		})
	}
}

func TestCheckEngine_NotConfigured(t *testing.T) {
	h := engineHandler(backend.RemoteConfig{})

	got := h.checkEngine(context.Background())
	if got.Status != StatusUnhealthy {
		t.Errorf("checkEngine() status = %v, want %v", got.Status, StatusUnhealthy)
	}
	if got.Error == "" {
		t.Error("expected an error description")
	}
}

func TestCheckEngine_SendsAPIKey(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"accelerators": []string{"cpu"}})
	}))
	defer ts.Close()

	h := engineHandler(backend.RemoteConfig{BaseURL: ts.URL, APIKey: "sk_test"})
	h.checkEngine(context.Background())

	if gotAuth != "Bearer sk_test" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer sk_test")
	}
}

func TestLiveness(t *testing.T) {
	h := engineHandler(backend.RemoteConfig{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Liveness(c); err != nil {
		t.Fatalf("Liveness() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}
