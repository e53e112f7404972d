package dto

type ModelResponse struct {
	Name              string  `json:"name" example:"movenet-lightning"`
	Runtime           string  `json:"runtime" example:"remote" enums:"local,remote"`
	InputSize         int     `json:"input_size" example:"192"`
	Keypoints         int     `json:"keypoints" example:"17"`
	Topology          string  `json:"topology" example:"coco17"`
	Decode            string  `json:"decode" example:"regression" enums:"regression,heatmap"`
	Depth             bool    `json:"depth" example:"false"`
	PresenceThreshold float64 `json:"presence_threshold" example:"0.3"`
}

type ModelListResponse struct {
	Models []ModelResponse `json:"models"`
}
