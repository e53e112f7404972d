package videojob

import (
	"time"

	"github.com/motionlab-ai/pose-backend/internal/backend"
	"github.com/motionlab-ai/pose-backend/internal/detector"
	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// JobParams is the detector configuration persisted with the job.
type JobParams struct {
	Mode                  string  `json:"mode,omitempty"`
	MaxPoses              int     `json:"max_poses,omitempty"`
	MinConfidence         float64 `json:"min_confidence,omitempty"`
	EstimateDepth         bool    `json:"estimate_depth,omitempty"`
	PreferredAcceleration string  `json:"preferred_acceleration,omitempty"`
	RuntimeClass          string  `json:"runtime_class,omitempty"`
}

// DetectorConfig translates the persisted parameters into a detector
// configuration. Out-of-range values are handled by the detector itself.
func (p JobParams) DetectorConfig() detector.Config {
	return detector.Config{
		Mode:                  detector.Mode(p.Mode),
		MaxPoses:              p.MaxPoses,
		MinConfidence:         p.MinConfidence,
		EstimateDepth:         p.EstimateDepth,
		PreferredAcceleration: backend.Mode(p.PreferredAcceleration),
		RuntimeClass:          profile.RuntimeClass(p.RuntimeClass),
	}
}

type VideoJob struct {
	ID     string `gorm:"primaryKey" json:"id"`
	Status Status `gorm:"not null;index;default:'queued'" json:"status"`

	SourcePath    string              `gorm:"not null" json:"source_path"`
	Uploaded      bool                `gorm:"default:false" json:"uploaded,omitempty"`
	FrameInterval int                 `gorm:"default:1" json:"frame_interval"`
	Params        shared.JSONDocument `gorm:"type:json" json:"params,omitempty"`

	TotalFrames    int `gorm:"default:0" json:"total_frames"`
	AnalyzedFrames int `gorm:"default:0" json:"analyzed_frames"`

	Result   shared.JSONDocument `gorm:"type:json" json:"result,omitempty"`
	Error    string              `json:"error,omitempty"`
	Warnings shared.StringSlice  `gorm:"type:json" json:"warnings,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Terminal reports whether the job can no longer change state.
func (j *VideoJob) Terminal() bool {
	return j.Status == StatusDone || j.Status == StatusFailed || j.Status == StatusCancelled
}
