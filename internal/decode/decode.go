package decode

import (
	"fmt"
	"math"

	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/tensor"
)

// RawKeypoint is one decoded model keypoint, still in the source model's
// index order and normalized to the model input square.
type RawKeypoint struct {
	X          float64
	Y          float64
	Z          float64
	Confidence float64
}

// Output decodes a model output tensor according to the profile.
func Output(t *tensor.Tensor, p profile.Profile) ([]RawKeypoint, error) {
	switch p.Decode {
	case profile.DecodeHeatmap:
		return Heatmap(t, p)
	case profile.DecodeRegression:
		return Regression(t, p)
	default:
		return nil, shared.InferenceFailure(fmt.Sprintf("profile %s has no decode kind", p.Name), nil)
	}
}

// Heatmap finds the peak cell of each keypoint channel. Scan order is
// row-major and only a strictly greater score moves the peak, so equal
// scores resolve to the earliest cell.
func Heatmap(t *tensor.Tensor, p profile.Profile) ([]RawKeypoint, error) {
	if len(t.Shape) != 4 || t.Shape[0] != 1 {
		return nil, shared.InferenceFailure(fmt.Sprintf("heatmap tensor shape %v", t.Shape), nil)
	}

	var k, h, w int
	chanFirst := p.Layout == profile.LayoutNCHW
	if chanFirst {
		k, h, w = t.Shape[1], t.Shape[2], t.Shape[3]
	} else {
		h, w, k = t.Shape[1], t.Shape[2], t.Shape[3]
	}
	if k < p.Keypoints {
		return nil, shared.InferenceFailure(
			fmt.Sprintf("heatmap has %d channels, profile wants %d", k, p.Keypoints), nil)
	}
	if err := t.Validate(); err != nil {
		return nil, shared.InferenceFailure("heatmap tensor storage", err)
	}

	kps := make([]RawKeypoint, p.Keypoints)
	for c := 0; c < p.Keypoints; c++ {
		best := math.Inf(-1)
		bx, by := 0, 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var idx int
				if chanFirst {
					idx = c*h*w + y*w + x
				} else {
					idx = (y*w+x)*k + c
				}
				v := float64(t.Float(idx))
				if v > best {
					best = v
					bx, by = x, y
				}
			}
		}

		conf := best
		if p.GridLogits {
			conf = sigmoid(best)
		}
		var nx, ny float64
		if p.HalfPixel {
			nx = (float64(bx) + 0.5) / float64(w)
			ny = (float64(by) + 0.5) / float64(h)
		} else {
			nx = float64(bx) / float64(w)
			ny = float64(by) / float64(h)
		}
		kps[c] = RawKeypoint{X: nx, Y: ny, Confidence: conf}
	}
	return kps, nil
}

// Regression reads a flat (y, x, conf) or (y, x, z, conf) block per
// keypoint, already normalized.
func Regression(t *tensor.Tensor, p profile.Profile) ([]RawKeypoint, error) {
	if err := t.Validate(); err != nil {
		return nil, shared.InferenceFailure("regression tensor storage", err)
	}
	want := p.Keypoints * p.Components
	if t.Len() != want {
		return nil, shared.InferenceFailure(
			fmt.Sprintf("regression tensor has %d elems, profile wants %d", t.Len(), want), nil)
	}

	kps := make([]RawKeypoint, p.Keypoints)
	for i := 0; i < p.Keypoints; i++ {
		base := i * p.Components
		kp := RawKeypoint{
			Y: float64(t.Float(base)),
			X: float64(t.Float(base + 1)),
		}
		if p.Components == 4 {
			kp.Z = float64(t.Float(base + 2))
			kp.Confidence = float64(t.Float(base + 3))
		} else {
			kp.Confidence = float64(t.Float(base + 2))
		}
		kps[i] = kp
	}
	return kps, nil
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
