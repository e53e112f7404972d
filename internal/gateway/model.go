package gateway

import (
	"context"
	"time"

	"github.com/motionlab-ai/pose-backend/internal/detector"
	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/pose"
)

type StreamMessageType string

const (
	StreamMessageConfigure  StreamMessageType = "configure"
	StreamMessageConfigured StreamMessageType = "configured"
	StreamMessageStats      StreamMessageType = "stats"
	StreamMessageResult     StreamMessageType = "result"
	StreamMessageError      StreamMessageType = "error"
)

type StreamMessage struct {
	Type      StreamMessageType `json:"type"`
	SessionID string            `json:"session_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   any               `json:"payload,omitempty"`
}

// ConfigurePayload reconfigures the connection's detector mid-stream.
// Absent fields keep their current setting.
type ConfigurePayload struct {
	Mode          string   `json:"mode,omitempty"`
	MaxPoses      int      `json:"max_poses,omitempty"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
	EstimateDepth *bool    `json:"estimate_depth,omitempty"`
	Rotation      *int     `json:"rotation,omitempty"`
}

// ResultPayload carries one frame's detection as the flat numeric map.
type ResultPayload struct {
	Values      map[string]float64 `json:"values"`
	Model       string             `json:"model"`
	InferenceMS float64            `json:"inference_ms"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StreamDetector is the per-connection pipeline the stream server drives.
// *detector.Detector satisfies it.
type StreamDetector interface {
	Detect(ctx context.Context, in frame.Input) (*pose.Result, error)
	UpdateConfig(ctx context.Context, cfg detector.Config) error
	Config() detector.Config
	Close() error
}

// DetectorFactory opens a fresh pipeline for one stream connection or
// one-shot request.
type DetectorFactory func(ctx context.Context, cfg detector.Config) (StreamDetector, error)
