package backend

import (
	"context"

	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/tensor"
)

// Runtime is an open model ready for inference. Invoke is not safe for
// concurrent use; callers serialize.
type Runtime interface {
	Invoke(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error)
	Close() error
}

// Strategy makes one acceleration mode usable: a cheap availability probe
// and an open that loads the model and proves it with a warmup pass.
type Strategy interface {
	Mode() Mode
	Available(ctx context.Context) bool
	Open(ctx context.Context, p profile.Profile) (Runtime, error)
}

// warmupTensor builds a zero input matching the profile's expected shape
// and dtype.
func warmupTensor(p profile.Profile) *tensor.Tensor {
	var shape []int
	if p.Layout == profile.LayoutNCHW {
		shape = []int{1, 3, p.InputSize, p.InputSize}
	} else {
		shape = []int{1, p.InputSize, p.InputSize, 3}
	}
	if p.Encoding == profile.EncodingUint8 {
		return tensor.NewUint8(shape...)
	}
	return tensor.NewFloat32(shape...)
}
