package pose

import "time"

// Landmark is one canonical body point in normalized source-frame
// coordinates. Values are retained even below the presence threshold;
// Detected carries the threshold decision.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility"`
	Detected   bool    `json:"detected"`
}

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Pose struct {
	Landmarks []Landmark  `json:"landmarks"`
	Score     float64     `json:"score"`
	Box       BoundingBox `json:"box"`
}

// Result is the outcome of one frame through the pipeline.
type Result struct {
	Poses         []Pose        `json:"poses"`
	SourceWidth   int           `json:"source_width"`
	SourceHeight  int           `json:"source_height"`
	CapturedAt    time.Time     `json:"captured_at"`
	InferenceTime time.Duration `json:"inference_time"`
	Model         string        `json:"model"`
}
