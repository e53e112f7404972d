package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/tensor"
)

func remoteProfile() profile.Profile {
	return profile.Profile{
		Name:        "test-remote",
		InputSize:   4,
		Encoding:    profile.EncodingUint8,
		Layout:      profile.LayoutNHWC,
		Keypoints:   2,
		Components:  3,
		Decode:      profile.DecodeRegression,
		Runtime:     profile.RuntimeRemote,
		RemoteModel: "test_model",
	}
}

// engineStub fakes the inference server: one accelerator, one session,
// echoes a fixed keypoint block.
func engineStub(t *testing.T, accelerators []string, deleted *atomic.Int32) *httptest.Server {
	t.Helper()
	output := []float32{0.1, 0.2, 0.9, 0.3, 0.4, 0.8}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/accelerators", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(acceleratorsResponse{Accelerators: accelerators})
	})
	mux.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Model != "test_model" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(errorResponse{Error: "unknown model"})
			return
		}
		json.NewEncoder(w).Encode(sessionResponse{SessionID: "sess_123"})
	})
	mux.HandleFunc("POST /v1/sessions/sess_123/infer", func(w http.ResponseWriter, r *http.Request) {
		var req inferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Data == "" || len(req.Shape) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorResponse{Error: "missing tensor"})
			return
		}
		json.NewEncoder(w).Encode(inferResponse{
			Shape: []int{1, 2, 3},
			Data:  base64.StdEncoding.EncodeToString(f32Bytes(output)),
		})
	})
	mux.HandleFunc("DELETE /v1/sessions/sess_123", func(w http.ResponseWriter, r *http.Request) {
		if deleted != nil {
			deleted.Add(1)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return httptest.NewServer(mux)
}

func TestRemoteStrategy_Available(t *testing.T) {
	srv := engineStub(t, []string{"npu", "cpu"}, nil)
	defer srv.Close()

	strategies := NewRemoteStrategies(RemoteConfig{BaseURL: srv.URL}, testLogger())
	byMode := map[Mode]Strategy{}
	for _, s := range strategies {
		byMode[s.Mode()] = s
	}

	ctx := context.Background()
	if !byMode[ModeNeural].Available(ctx) {
		t.Error("expected neural available")
	}
	if byMode[ModeGraphics].Available(ctx) {
		t.Error("expected graphics unavailable")
	}
	if !byMode[ModeCPU].Available(ctx) {
		t.Error("expected cpu available")
	}
}

func TestRemoteStrategy_Available_ServerDown(t *testing.T) {
	strategies := NewRemoteStrategies(RemoteConfig{BaseURL: "http://127.0.0.1:1"}, testLogger())
	if strategies[0].Available(context.Background()) {
		t.Error("expected unavailable when server is unreachable")
	}
}

func TestRemoteStrategy_OpenAndInvoke(t *testing.T) {
	var deleted atomic.Int32
	srv := engineStub(t, []string{"npu", "cpu"}, &deleted)
	defer srv.Close()

	strategies := NewRemoteStrategies(RemoteConfig{BaseURL: srv.URL}, testLogger())
	rt, err := strategies[0].Open(context.Background(), remoteProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := tensor.NewUint8(1, 4, 4, 3)
	out, err := rt.Invoke(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Shape) != 3 || out.Shape[1] != 2 || out.Shape[2] != 3 {
		t.Errorf("expected shape [1 2 3], got %v", out.Shape)
	}
	if out.F32[2] != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", out.F32[2])
	}

	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if deleted.Load() != 1 {
		t.Errorf("expected 1 session delete, got %d", deleted.Load())
	}

	// close is idempotent
	if err := rt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if deleted.Load() != 1 {
		t.Errorf("expected still 1 delete, got %d", deleted.Load())
	}

	if _, err := rt.Invoke(context.Background(), in); err == nil {
		t.Error("expected error invoking a closed runtime")
	}
}

func TestRemoteStrategy_OpenUnknownModel(t *testing.T) {
	srv := engineStub(t, []string{"cpu"}, nil)
	defer srv.Close()

	p := remoteProfile()
	p.RemoteModel = "missing_model"

	strategies := NewRemoteStrategies(RemoteConfig{BaseURL: srv.URL}, testLogger())
	_, err := strategies[2].Open(context.Background(), p)
	if err == nil {
		t.Fatal("expected error")
	}
	if !shared.IsKind(err, shared.KindModelLoad) {
		t.Errorf("expected model_load_failure, got %v", err)
	}
}

func TestRemoteStrategy_OpenServerDown(t *testing.T) {
	strategies := NewRemoteStrategies(RemoteConfig{BaseURL: "http://127.0.0.1:1"}, testLogger())
	_, err := strategies[0].Open(context.Background(), remoteProfile())
	if err == nil {
		t.Fatal("expected error")
	}
	if !shared.IsKind(err, shared.KindBackendUnavailable) {
		t.Errorf("expected backend_unavailable, got %v", err)
	}
}

func TestF32BytesRoundTrip(t *testing.T) {
	in := []float32{0, 1, -2.5, 3.25e7}
	out, err := bytesF32(f32Bytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: expected %f, got %f", i, in[i], out[i])
		}
	}

	if _, err := bytesF32([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for misaligned bytes")
	}
}
