package dto

type DetectRequest struct {
	Image         string   `json:"image" example:"/9j/4AAQSkZJRgABAQAAAQ..."`
	Mode          string   `json:"mode,omitempty" example:"speed" enums:"speed,accuracy"`
	MaxPoses      int      `json:"max_poses,omitempty" example:"1" minimum:"1" maximum:"10"`
	MinConfidence *float64 `json:"min_confidence,omitempty" example:"0.3" minimum:"0" maximum:"1"`
	EstimateDepth bool     `json:"estimate_depth,omitempty" example:"false"`
	Rotation      int      `json:"rotation,omitempty" example:"0" enums:"0,90,180,270"`
}

type KeypointResponse struct {
	Name       string  `json:"name" example:"nose"`
	X          float64 `json:"x" example:"0.512"`
	Y          float64 `json:"y" example:"0.304"`
	Z          float64 `json:"z,omitempty" example:"-0.12"`
	Visibility float64 `json:"visibility" example:"0.98"`
	Detected   bool    `json:"detected" example:"true"`
}

type BoundingBoxResponse struct {
	X      float64 `json:"x" example:"0.26"`
	Y      float64 `json:"y" example:"0.31"`
	Width  float64 `json:"width" example:"0.48"`
	Height float64 `json:"height" example:"0.42"`
}

type PoseResponse struct {
	Score     float64             `json:"score" example:"0.91"`
	Box       BoundingBoxResponse `json:"box"`
	Keypoints []KeypointResponse  `json:"keypoints"`
}

type DetectResponse struct {
	Poses       []PoseResponse `json:"poses"`
	Count       int            `json:"count" example:"1"`
	Width       int            `json:"width" example:"1280"`
	Height      int            `json:"height" example:"720"`
	Model       string         `json:"model" example:"movenet-lightning"`
	InferenceMS float64        `json:"inference_ms" example:"27.4"`
	TimestampMS int64          `json:"timestamp_ms" example:"1718029483123"`
}
