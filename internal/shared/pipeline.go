package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies pipeline failures so callers can pick a recovery path
// without string matching.
type Kind string

const (
	KindBackendUnavailable Kind = "backend_unavailable"
	KindInvalidFrame       Kind = "invalid_frame_format"
	KindModelLoad          Kind = "model_load_failure"
	KindInference          Kind = "inference_failure"
	KindCancelled          Kind = "cancelled"
)

type PipelineError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewPipelineError(kind Kind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

func BackendUnavailable(message string, err error) *PipelineError {
	return NewPipelineError(KindBackendUnavailable, message, err)
}

func InvalidFrame(message string) *PipelineError {
	return NewPipelineError(KindInvalidFrame, message, nil)
}

func ModelLoadFailure(message string, err error) *PipelineError {
	return NewPipelineError(KindModelLoad, message, err)
}

func InferenceFailure(message string, err error) *PipelineError {
	return NewPipelineError(KindInference, message, err)
}

func Cancelled(message string) *PipelineError {
	return NewPipelineError(KindCancelled, message, nil)
}

// IsKind reports whether any error in err's chain is a PipelineError of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first PipelineError in the chain, or an
// empty Kind when there is none.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// HTTPStatus maps a pipeline failure onto the status the gateway reports.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidFrame:
		return http.StatusBadRequest
	case KindBackendUnavailable, KindModelLoad:
		return http.StatusServiceUnavailable
	case KindCancelled:
		return http.StatusRequestTimeout
	case KindInference:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
