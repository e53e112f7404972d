package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/tensor"
)

type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// RemoteStrategy drives an inference server over HTTP. The server hosts the
// accelerator, so availability is a question it answers, not the local
// machine.
type RemoteStrategy struct {
	mode       Mode
	cfg        RemoteConfig
	httpClient *http.Client
	logger     *slog.Logger
}

func NewRemoteStrategies(cfg RemoteConfig, logger *slog.Logger) []Strategy {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	l := logger.With("component", "backend-remote")

	out := make([]Strategy, 0, 3)
	for _, m := range []Mode{ModeNeural, ModeGraphics, ModeCPU} {
		out = append(out, &RemoteStrategy{mode: m, cfg: cfg, httpClient: client, logger: l})
	}
	return out
}

func (s *RemoteStrategy) Mode() Mode {
	return s.mode
}

type acceleratorsResponse struct {
	Accelerators []string `json:"accelerators"`
}

type sessionRequest struct {
	Model       string `json:"model"`
	Accelerator string `json:"accelerator"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type inferRequest struct {
	Shape []int  `json:"shape"`
	DType string `json:"dtype"`
	Data  string `json:"data"`
}

type inferResponse struct {
	Shape []int  `json:"shape"`
	Data  string `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func acceleratorName(m Mode) string {
	switch m {
	case ModeNeural:
		return "npu"
	case ModeGraphics:
		return "gpu"
	default:
		return "cpu"
	}
}

func (s *RemoteStrategy) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", s.cfg.BaseURL+"/v1/accelerators", nil)
	if err != nil {
		return false
	}
	s.auth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var accel acceleratorsResponse
	if err := json.NewDecoder(resp.Body).Decode(&accel); err != nil {
		return false
	}
	want := acceleratorName(s.mode)
	for _, a := range accel.Accelerators {
		if a == want {
			return true
		}
	}
	return false
}

func (s *RemoteStrategy) Open(ctx context.Context, p profile.Profile) (Runtime, error) {
	body, err := json.Marshal(sessionRequest{
		Model:       p.RemoteModel,
		Accelerator: acceleratorName(s.mode),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.cfg.BaseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.auth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, shared.BackendUnavailable(fmt.Sprintf("engine server at %s", s.cfg.BaseURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, shared.ModelLoadFailure(
			fmt.Sprintf("engine rejected session for %s on %s", p.RemoteModel, acceleratorName(s.mode)),
			fmt.Errorf("status %d: %s", resp.StatusCode, readError(resp.Body)))
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, shared.ModelLoadFailure("decode session response", err)
	}
	if session.SessionID == "" {
		return nil, shared.ModelLoadFailure("engine returned empty session id", nil)
	}

	rt := &remoteRuntime{
		httpClient: s.httpClient,
		baseURL:    s.cfg.BaseURL,
		apiKey:     s.cfg.APIKey,
		sessionID:  session.SessionID,
		model:      p.RemoteModel,
	}
	if _, err := rt.Invoke(ctx, warmupTensor(p)); err != nil {
		rt.Close()
		return nil, shared.BackendUnavailable(fmt.Sprintf("%s warmup for %s", s.mode, p.Name), err)
	}

	s.logger.Info("session opened", "model", p.Name, "mode", s.mode, "session", session.SessionID)
	return rt, nil
}

func (s *RemoteStrategy) auth(req *http.Request) {
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}
}

type remoteRuntime struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	sessionID  string
	model      string

	mu     sync.Mutex
	closed bool
}

func (r *remoteRuntime) Invoke(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, shared.InferenceFailure("runtime closed", shared.ErrClosed)
	}
	r.mu.Unlock()

	if err := in.Validate(); err != nil {
		return nil, shared.InferenceFailure("input tensor", err)
	}

	var raw []byte
	if in.DType == tensor.Uint8 {
		raw = in.U8
	} else {
		raw = f32Bytes(in.F32)
	}

	body, err := json.Marshal(inferRequest{
		Shape: in.Shape,
		DType: in.DType.String(),
		Data:  base64.StdEncoding.EncodeToString(raw),
	})
	if err != nil {
		return nil, shared.InferenceFailure("marshal infer request", err)
	}

	url := fmt.Sprintf("%s/v1/sessions/%s/infer", r.baseURL, r.sessionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, shared.InferenceFailure("create infer request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, shared.InferenceFailure(fmt.Sprintf("infer request for %s", r.model), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, shared.InferenceFailure(
			fmt.Sprintf("engine returned status %d", resp.StatusCode),
			fmt.Errorf("%s", readError(resp.Body)))
	}

	var out inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, shared.InferenceFailure("decode infer response", err)
	}

	rawOut, err := base64.StdEncoding.DecodeString(out.Data)
	if err != nil {
		return nil, shared.InferenceFailure("decode output data", err)
	}
	f32, err := bytesF32(rawOut)
	if err != nil {
		return nil, shared.InferenceFailure("output data", err)
	}

	result := &tensor.Tensor{Shape: out.Shape, DType: tensor.Float32, F32: f32}
	if err := result.Validate(); err != nil {
		return nil, shared.InferenceFailure("output tensor", err)
	}
	return result, nil
}

func (r *remoteRuntime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/v1/sessions/%s", r.baseURL, r.sessionID)
	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return err
	}
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	resp.Body.Close()
	return nil
}

func readError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return "unreadable error body"
	}
	var e errorResponse
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return string(data)
}

func f32Bytes(f []float32) []byte {
	out := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func bytesF32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%d bytes is not a float32 array", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
