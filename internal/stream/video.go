package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/pose"
	"github.com/motionlab-ai/pose-backend/internal/shared"
)

// FrameSource yields decoded frames in order. Next returns ok=false at the
// end of the stream; a non-nil error with ok=true means this frame was
// unreadable and the next may still be fine.
type FrameSource interface {
	Next() (in frame.Input, ok bool, err error)
	Total() int
	Close() error
}

type FrameResult struct {
	Index  int          `json:"index"`
	Result *pose.Result `json:"result"`
}

// BatchResult is what a video walk produces. Completed is false when the
// context was cancelled mid-run; everything gathered so far is still here.
type BatchResult struct {
	Frames      []FrameResult `json:"frames"`
	TotalFrames int           `json:"total_frames"`
	Analyzed    int           `json:"analyzed"`
	Skipped     int           `json:"skipped"`
	Completed   bool          `json:"completed"`
	Elapsed     time.Duration `json:"elapsed"`
}

type BatchOptions struct {
	// FrameInterval analyzes every nth frame; values below 1 mean every
	// frame.
	FrameInterval int
	OnProgress    func(current, total int)
}

type VideoAnalyzer struct {
	det    Detector
	logger *slog.Logger
}

func NewVideoAnalyzer(det Detector, logger *slog.Logger) *VideoAnalyzer {
	return &VideoAnalyzer{
		det:    det,
		logger: logger.With("component", "video-analyzer"),
	}
}

// Analyze walks the source with the configured stride. Cancellation is
// checked every iteration and is not an error: the caller gets the partial
// batch with Completed unset. Frames that fail to decode or infer are
// logged and skipped.
func (a *VideoAnalyzer) Analyze(ctx context.Context, src FrameSource, opts BatchOptions) (*BatchResult, error) {
	interval := opts.FrameInterval
	if interval < 1 {
		interval = 1
	}

	start := time.Now()
	res := &BatchResult{TotalFrames: src.Total()}

	for idx := 0; ; idx++ {
		select {
		case <-ctx.Done():
			res.Elapsed = time.Since(start)
			a.logger.Info("batch cancelled",
				"analyzed", res.Analyzed, "frames", len(res.Frames))
			return res, nil
		default:
		}

		in, ok, err := src.Next()
		if !ok {
			break
		}
		if err != nil {
			a.logger.Warn("unreadable frame", "index", idx, "error", err)
			res.Skipped++
			continue
		}

		if idx%interval != 0 {
			continue
		}

		res.Analyzed++
		fr, err := a.det.Detect(ctx, in)
		if err != nil {
			if shared.IsKind(err, shared.KindCancelled) {
				res.Elapsed = time.Since(start)
				a.logger.Info("batch cancelled mid-frame",
					"analyzed", res.Analyzed, "frames", len(res.Frames))
				return res, nil
			}
			a.logger.Warn("frame inference failed", "index", idx, "error", err)
			res.Skipped++
		} else {
			res.Frames = append(res.Frames, FrameResult{Index: idx, Result: fr})
		}

		if opts.OnProgress != nil {
			opts.OnProgress(idx+1, res.TotalFrames)
		}
	}

	res.Completed = true
	res.Elapsed = time.Since(start)
	a.logger.Info("batch finished",
		"analyzed", res.Analyzed, "frames", len(res.Frames), "skipped", res.Skipped,
		"elapsed", res.Elapsed)
	return res, nil
}
