package videojob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/motionlab-ai/pose-backend/internal/detector"
	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/pose"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/stream"
)

// progressEvery is how many analyzed frames pass between progress writes.
const progressEvery = 30

// Detector is the per-job inference handle. *detector.Detector satisfies it.
type Detector interface {
	Detect(ctx context.Context, in frame.Input) (*pose.Result, error)
	Close() error
}

// DetectorFactory opens a detector for a job's configuration.
type DetectorFactory func(ctx context.Context, cfg detector.Config) (Detector, error)

// SourceFactory opens the frame source behind a job's path.
type SourceFactory func(path string) (stream.FrameSource, error)

// Service owns the video job lifecycle: queued jobs run one goroutine each,
// cancellation keeps the partial result.
type Service struct {
	store     *Store
	detectors DetectorFactory
	sources   SourceFactory
	logger    *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewService(store *Store, detectors DetectorFactory, sources SourceFactory, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		detectors: detectors,
		sources:   sources,
		logger:    logger.With("component", "videojob-service"),
		cancels:   make(map[string]context.CancelFunc),
	}
}

// Submit persists the job and starts it in the background.
func (s *Service) Submit(ctx context.Context, sourcePath string, frameInterval int, params JobParams) (*VideoJob, error) {
	return s.submit(ctx, sourcePath, frameInterval, params, false)
}

// SubmitUpload is Submit for a spooled upload: the job owns sourcePath and
// removes it once analysis ends.
func (s *Service) SubmitUpload(ctx context.Context, sourcePath string, frameInterval int, params JobParams) (*VideoJob, error) {
	return s.submit(ctx, sourcePath, frameInterval, params, true)
}

func (s *Service) submit(ctx context.Context, sourcePath string, frameInterval int, params JobParams, uploaded bool) (*VideoJob, error) {
	doc, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode job parameters: %w", err)
	}

	job := &VideoJob{
		SourcePath:    sourcePath,
		Uploaded:      uploaded,
		FrameInterval: frameInterval,
		Params:        shared.JSONDocument(doc),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.run(job.ID)

	s.logger.Info("job submitted", "job", job.ID, "source", sourcePath, "uploaded", uploaded)
	return job, nil
}

func (s *Service) Get(ctx context.Context, id string) (*VideoJob, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status *Status, limit, offset int) ([]*VideoJob, error) {
	return s.store.List(ctx, status, limit, offset)
}

// Cancel stops a job. A running job persists whatever it analyzed so far; a
// queued job finishes immediately with nothing. Terminal jobs report
// ErrConflict.
func (s *Service) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	cancel, running := s.cancels[id]
	s.mu.Unlock()

	if running {
		cancel()
		return nil
	}

	err := s.store.MarkCancelled(ctx, id, nil, 0)
	if errors.Is(err, shared.ErrConflict) {
		job, getErr := s.store.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		if job.Terminal() {
			return shared.ErrConflict
		}
	}
	return err
}

// Delete removes a finished job's record. Active jobs report ErrConflict;
// cancel them first.
func (s *Service) Delete(ctx context.Context, id string) error {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !job.Terminal() {
		return shared.ErrConflict
	}
	if job.Uploaded {
		os.Remove(job.SourcePath)
	}
	return s.store.Delete(ctx, id)
}

// RunningJobs counts jobs currently being analyzed.
func (s *Service) RunningJobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancels)
}

// Shutdown cancels every in-flight job and waits until their partial
// results are persisted.
func (s *Service) Shutdown() {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Service) run(jobID string) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[jobID] = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.cancels, jobID)
		s.mu.Unlock()
		cancel()
	}()

	bg := context.Background()
	job, err := s.store.GetByID(bg, jobID)
	if err != nil {
		s.logger.Error("job vanished before start", "job", jobID, "error", err)
		return
	}
	if job.Uploaded {
		// Spooled uploads are single-use; drop them once the job settles.
		defer os.Remove(job.SourcePath)
	}

	if err := s.store.MarkRunning(bg, jobID); err != nil {
		s.logger.Info("job no longer runnable", "job", jobID, "error", err)
		return
	}

	var params JobParams
	if len(job.Params) > 0 {
		if err := json.Unmarshal(job.Params, &params); err != nil {
			s.fail(jobID, fmt.Sprintf("invalid job parameters: %v", err))
			return
		}
	}

	src, err := s.sources(job.SourcePath)
	if err != nil {
		s.fail(jobID, fmt.Sprintf("open video: %v", err))
		return
	}
	defer src.Close()

	det, err := s.detectors(ctx, params.DetectorConfig())
	if err != nil {
		s.fail(jobID, fmt.Sprintf("open detector: %v", err))
		return
	}
	defer det.Close()

	analyzer := stream.NewVideoAnalyzer(det, s.logger)
	analyzed := 0
	batch, err := analyzer.Analyze(ctx, src, stream.BatchOptions{
		FrameInterval: job.FrameInterval,
		OnProgress: func(current, total int) {
			analyzed++
			if analyzed%progressEvery == 0 {
				s.store.UpdateProgress(bg, jobID, analyzed, total)
			}
		},
	})
	if err != nil {
		s.fail(jobID, fmt.Sprintf("analyze video: %v", err))
		return
	}

	doc, err := json.Marshal(batch)
	if err != nil {
		s.fail(jobID, fmt.Sprintf("encode result: %v", err))
		return
	}

	if !batch.Completed {
		if err := s.store.MarkCancelled(bg, jobID, shared.JSONDocument(doc), batch.Analyzed); err != nil {
			s.logger.Error("mark cancelled failed", "job", jobID, "error", err)
		}
		return
	}

	var warnings []string
	if batch.Skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d frames skipped", batch.Skipped))
	}
	if err := s.store.MarkDone(bg, jobID, shared.JSONDocument(doc), batch.Analyzed, batch.TotalFrames, warnings); err != nil {
		s.logger.Error("mark done failed", "job", jobID, "error", err)
	}
}

func (s *Service) fail(jobID, message string) {
	s.logger.Error("job failed", "job", jobID, "message", message)
	if err := s.store.MarkFailed(context.Background(), jobID, message); err != nil {
		s.logger.Error("mark failed errored", "job", jobID, "error", err)
	}
}
