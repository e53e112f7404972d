package ingest

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"

	"github.com/motionlab-ai/pose-backend/internal/frame"
)

// FrameSink consumes assembled frames. *stream.Scheduler satisfies it.
type FrameSink interface {
	Submit(ctx context.Context, in frame.Input) bool
}

// Decoder turns an encoded video frame into an image.
type Decoder interface {
	Decode(data []byte, mimeType string) (image.Image, error)
	Close() error
}

type CapturerConfig struct {
	SessionID   string
	Sink        FrameSink
	Decoder     Decoder
	CaptureRate time.Duration
	Rotation    frame.Rotation
	Logger      *slog.Logger
}

// FrameCapturer reassembles RTP packets into whole frames and feeds them to
// the sink. Frames arriving faster than the capture rate are discarded
// before they are decoded.
type FrameCapturer struct {
	sink        FrameSink
	sessionID   string
	logger      *slog.Logger
	captureRate time.Duration
	rotation    frame.Rotation
	decoder     Decoder
	ctx         context.Context
	cancel      context.CancelFunc

	mu            sync.Mutex
	sampleBuilder *samplebuilder.SampleBuilder
	lastCapture   time.Time
	mimeType      string
	stopped       bool
}

func NewFrameCapturer(cfg CapturerConfig) *FrameCapturer {
	if cfg.CaptureRate == 0 {
		cfg.CaptureRate = 33 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &FrameCapturer{
		sink:        cfg.Sink,
		sessionID:   cfg.SessionID,
		logger:      cfg.Logger.With("component", "frame-capturer", "session_id", cfg.SessionID),
		captureRate: cfg.CaptureRate,
		rotation:    cfg.Rotation,
		decoder:     cfg.Decoder,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (c *FrameCapturer) HandleRTP(pkt *rtp.Packet, mimeType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	if c.sampleBuilder == nil || c.mimeType != mimeType {
		c.mimeType = mimeType
		c.sampleBuilder = c.createSampleBuilder(mimeType)
		if c.sampleBuilder == nil {
			return
		}
	}

	c.sampleBuilder.Push(pkt)

	for {
		sample := c.sampleBuilder.Pop()
		if sample == nil {
			break
		}

		now := time.Now()
		if now.Sub(c.lastCapture) < c.captureRate {
			continue
		}

		c.lastCapture = now
		go c.processFrame(sample.Data, mimeType)
	}
}

func (c *FrameCapturer) createSampleBuilder(mimeType string) *samplebuilder.SampleBuilder {
	switch mimeType {
	case "video/VP8":
		return samplebuilder.New(64, &codecs.VP8Packet{}, 90000)
	case "video/VP9":
		return samplebuilder.New(64, &codecs.VP9Packet{}, 90000)
	case "video/H264":
		return samplebuilder.New(64, &codecs.H264Packet{}, 90000)
	default:
		c.logger.Warn("unsupported video codec", "mime_type", mimeType)
		return nil
	}
}

func (c *FrameCapturer) processFrame(data []byte, mimeType string) {
	if c.decoder == nil {
		return
	}

	img, err := c.decoder.Decode(data, mimeType)
	if err != nil {
		c.logger.Debug("frame decode failed", "error", err)
		return
	}

	in := frame.Input{Image: img, Rotation: c.rotation}
	if !c.sink.Submit(c.ctx, in) {
		c.logger.Debug("frame dropped, detector busy")
	}
}

// Stop cancels in-flight detection and releases the decoder. Packets
// arriving afterwards are ignored.
func (c *FrameCapturer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.cancel()
	if c.decoder != nil {
		c.decoder.Close()
	}
}
