package videojob

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/motionlab-ai/pose-backend/internal/shared"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&VideoJob{})
}

func (s *Store) Create(ctx context.Context, job *VideoJob) error {
	if job.ID == "" {
		job.ID = shared.NewID("vjob_")
	}
	if job.Status == "" {
		job.Status = StatusQueued
	}
	if job.FrameInterval < 1 {
		job.FrameInterval = 1
	}
	return s.db.WithContext(ctx).Create(job).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*VideoJob, error) {
	var job VideoJob
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &job, err
}

func (s *Store) List(ctx context.Context, status *Status, limit, offset int) ([]*VideoJob, error) {
	var jobs []*VideoJob
	q := s.db.WithContext(ctx)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error
	return jobs, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&VideoJob{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkRunning moves a queued job to running. A job in any other state stays
// put and the call reports ErrConflict.
func (s *Store) MarkRunning(ctx context.Context, id string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&VideoJob{}).
		Where("id = ? AND status = ?", id, StatusQueued).
		Updates(map[string]any{
			"status":     StatusRunning,
			"started_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConflict
	}
	return nil
}

func (s *Store) MarkDone(ctx context.Context, id string, result shared.JSONDocument, analyzed, total int, warnings []string) error {
	return s.finish(ctx, id, StatusDone, map[string]any{
		"result":          result,
		"analyzed_frames": analyzed,
		"total_frames":    total,
		"warnings":        shared.StringSlice(warnings),
	})
}

func (s *Store) MarkFailed(ctx context.Context, id string, message string) error {
	return s.finish(ctx, id, StatusFailed, map[string]any{
		"error": message,
	})
}

// MarkCancelled finishes a job early, keeping whatever partial result was
// gathered. Queued jobs can be cancelled before they ever run.
func (s *Store) MarkCancelled(ctx context.Context, id string, result shared.JSONDocument, analyzed int) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&VideoJob{}).
		Where("id = ? AND status IN ?", id, []Status{StatusQueued, StatusRunning}).
		Updates(map[string]any{
			"status":          StatusCancelled,
			"result":          result,
			"analyzed_frames": analyzed,
			"finished_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrConflict
	}
	return nil
}

func (s *Store) UpdateProgress(ctx context.Context, id string, analyzed, total int) error {
	return s.db.WithContext(ctx).Model(&VideoJob{}).
		Where("id = ? AND status = ?", id, StatusRunning).
		Updates(map[string]any{
			"analyzed_frames": analyzed,
			"total_frames":    total,
		}).Error
}

func (s *Store) finish(ctx context.Context, id string, status Status, fields map[string]any) error {
	now := time.Now()
	fields["status"] = status
	fields["finished_at"] = now

	result := s.db.WithContext(ctx).Model(&VideoJob{}).
		Where("id = ? AND status = ?", id, StatusRunning).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConflict
	}
	return nil
}
