package stream

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/pose"
	"github.com/motionlab-ai/pose-backend/internal/shared"
)

// Detector is the slice of the pipeline the scheduler drives.
type Detector interface {
	Detect(ctx context.Context, in frame.Input) (*pose.Result, error)
}

// Callbacks receive scheduler events. Nil fields are skipped.
type Callbacks struct {
	OnResult func(res *pose.Result)
	OnError  func(err error)
}

type Stats struct {
	Submitted uint64  `json:"submitted"`
	Completed uint64  `json:"completed"`
	Dropped   uint64  `json:"dropped"`
	Failed    uint64  `json:"failed"`
	FPS       float64 `json:"fps"`
}

// Scheduler enforces the live-feed discipline: at most one frame in flight,
// and a frame arriving while one is processing is dropped on the spot. A
// camera produces another frame soon enough that queueing only adds
// latency.
type Scheduler struct {
	sessionID string
	det       Detector
	callbacks Callbacks
	logger    *slog.Logger

	busy      atomic.Bool
	submitted atomic.Uint64
	completed atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
	meter     *fpsMeter
	wg        sync.WaitGroup
}

func NewScheduler(sessionID string, det Detector, cb Callbacks, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sessionID: sessionID,
		det:       det,
		callbacks: cb,
		logger:    logger.With("component", "stream-scheduler", "session", sessionID),
		meter:     newFPSMeter(),
	}
}

// Submit offers a frame. It returns false when the slot is occupied and the
// frame was dropped; the frame is never queued for later.
func (s *Scheduler) Submit(ctx context.Context, in frame.Input) bool {
	s.submitted.Add(1)

	if !s.busy.CompareAndSwap(false, true) {
		s.dropped.Add(1)
		return false
	}

	s.wg.Add(1)
	go s.process(ctx, in)
	return true
}

func (s *Scheduler) process(ctx context.Context, in frame.Input) {
	defer s.wg.Done()
	defer s.busy.Store(false)

	res, err := s.det.Detect(ctx, in)
	if err != nil {
		if shared.IsKind(err, shared.KindCancelled) {
			return
		}
		s.failed.Add(1)
		s.logger.Warn("frame failed", "error", err)
		if s.callbacks.OnError != nil {
			s.callbacks.OnError(err)
		}
		return
	}

	s.completed.Add(1)
	s.meter.record(time.Now())
	if s.callbacks.OnResult != nil {
		s.callbacks.OnResult(res)
	}
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Submitted: s.submitted.Load(),
		Completed: s.completed.Load(),
		Dropped:   s.dropped.Load(),
		Failed:    s.failed.Load(),
		FPS:       s.meter.fps(),
	}
}

func (s *Scheduler) SessionID() string {
	return s.sessionID
}

// Drain waits for the in-flight frame, if any, to finish.
func (s *Scheduler) Drain() {
	s.wg.Wait()
}
