package dto

type ErrorResponse struct {
	Code    string `json:"code" example:"invalid_frame_format"`
	Message string `json:"message" example:"Unsupported image encoding"`
	Details any    `json:"details,omitempty" swaggertype:"object"`
}

type ValidationError struct {
	Field   string `json:"field" example:"max_poses"`
	Message string `json:"message" example:"max_poses must be between 1 and 10"`
}
