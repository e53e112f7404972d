package dto

type SubmitVideoRequest struct {
	Path          string   `json:"path" example:"/data/videos/squat.mp4"`
	FrameInterval int      `json:"frame_interval,omitempty" example:"5" minimum:"1"`
	Mode          string   `json:"mode,omitempty" example:"accuracy" enums:"speed,accuracy"`
	MaxPoses      int      `json:"max_poses,omitempty" example:"1" minimum:"1" maximum:"10"`
	MinConfidence *float64 `json:"min_confidence,omitempty" example:"0.5" minimum:"0" maximum:"1"`
	EstimateDepth bool     `json:"estimate_depth,omitempty" example:"false"`
	Acceleration  string   `json:"acceleration,omitempty" example:"cpu" enums:"neural,graphics,cpu"`
	Runtime       string   `json:"runtime,omitempty" example:"local" enums:"local,remote"`
}

type VideoJobResponse struct {
	ID             string   `json:"id" example:"vjob_abc123"`
	Status         string   `json:"status" example:"running" enums:"queued,running,done,failed,cancelled"`
	SourcePath     string   `json:"source_path" example:"/data/videos/squat.mp4"`
	FrameInterval  int      `json:"frame_interval" example:"5"`
	TotalFrames    int      `json:"total_frames" example:"1800"`
	AnalyzedFrames int      `json:"analyzed_frames" example:"360"`
	Error          string   `json:"error,omitempty" example:"open video: no such file"`
	Warnings       []string `json:"warnings,omitempty" example:"3 frames skipped"`
	CreatedAt      string   `json:"created_at" example:"2025-06-10T14:04:05Z"`
	StartedAt      *string  `json:"started_at,omitempty" example:"2025-06-10T14:04:06Z"`
	FinishedAt     *string  `json:"finished_at,omitempty" example:"2025-06-10T14:09:42Z"`
}

type VideoJobListResponse struct {
	Jobs   []VideoJobResponse `json:"jobs"`
	Limit  int                `json:"limit" example:"20"`
	Offset int                `json:"offset" example:"0"`
}
