package decode

import (
	"math"
	"testing"

	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/tensor"
)

func heatmapProfile(keypoints int, layout profile.Layout, logits, halfPixel bool) profile.Profile {
	return profile.Profile{
		Name:       "test-heatmap",
		Decode:     profile.DecodeHeatmap,
		Keypoints:  keypoints,
		Layout:     layout,
		GridLogits: logits,
		HalfPixel:  halfPixel,
	}
}

func regressionProfile(keypoints, components int) profile.Profile {
	return profile.Profile{
		Name:       "test-regression",
		Decode:     profile.DecodeRegression,
		Keypoints:  keypoints,
		Components: components,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestHeatmap_ArgmaxNCHW(t *testing.T) {
	// 2 channels of 4x4
	tn := tensor.NewFloat32(1, 2, 4, 4)
	tn.F32[0*16+1*4+2] = 5 // channel 0 peak at (2,1)
	tn.F32[1*16+3*4+0] = 7 // channel 1 peak at (0,3)

	p := heatmapProfile(2, profile.LayoutNCHW, false, false)
	kps, err := Heatmap(tn, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(kps[0].X, 2.0/4.0) || !almostEqual(kps[0].Y, 1.0/4.0) {
		t.Errorf("kp0: expected (0.5, 0.25), got (%f, %f)", kps[0].X, kps[0].Y)
	}
	if !almostEqual(kps[0].Confidence, 5) {
		t.Errorf("kp0: expected raw confidence 5, got %f", kps[0].Confidence)
	}
	if !almostEqual(kps[1].X, 0) || !almostEqual(kps[1].Y, 3.0/4.0) {
		t.Errorf("kp1: expected (0, 0.75), got (%f, %f)", kps[1].X, kps[1].Y)
	}
}

func TestHeatmap_ArgmaxNHWC(t *testing.T) {
	tn := tensor.NewFloat32(1, 3, 3, 2)
	// channel 1 peak at (2,0)
	tn.F32[(0*3+2)*2+1] = 4

	p := heatmapProfile(2, profile.LayoutNHWC, false, false)
	kps, err := Heatmap(tn, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(kps[1].X, 2.0/3.0) || !almostEqual(kps[1].Y, 0) {
		t.Errorf("expected (0.667, 0), got (%f, %f)", kps[1].X, kps[1].Y)
	}
}

func TestHeatmap_TieBreakFirstOccurrence(t *testing.T) {
	tn := tensor.NewFloat32(1, 1, 4, 4)
	// identical peaks at (1,1), (3,1), (0,2); row-major first is (1,1)
	tn.F32[1*4+1] = 9
	tn.F32[1*4+3] = 9
	tn.F32[2*4+0] = 9

	p := heatmapProfile(1, profile.LayoutNCHW, false, false)
	kps, err := Heatmap(tn, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(kps[0].X, 1.0/4.0) || !almostEqual(kps[0].Y, 1.0/4.0) {
		t.Errorf("expected first peak (0.25, 0.25), got (%f, %f)", kps[0].X, kps[0].Y)
	}
}

func TestHeatmap_Deterministic(t *testing.T) {
	tn := tensor.NewFloat32(1, 4, 8, 8)
	for i := range tn.F32 {
		tn.F32[i] = float32((i*31)%17) / 17
	}

	p := heatmapProfile(4, profile.LayoutNCHW, false, false)
	first, err := Heatmap(tn, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Heatmap(tn, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for k := range first {
			if first[k] != again[k] {
				t.Fatalf("run %d kp %d: %v != %v", i, k, again[k], first[k])
			}
		}
	}
}

func TestHeatmap_SigmoidConfidence(t *testing.T) {
	tn := tensor.NewFloat32(1, 1, 2, 2)
	tn.F32[3] = 2

	p := heatmapProfile(1, profile.LayoutNCHW, true, false)
	kps, err := Heatmap(tn, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1 / (1 + math.Exp(-2))
	if !almostEqual(kps[0].Confidence, want) {
		t.Errorf("expected sigmoid confidence %f, got %f", want, kps[0].Confidence)
	}
}

func TestHeatmap_HalfPixelCenters(t *testing.T) {
	tn := tensor.NewFloat32(1, 1, 4, 4)
	tn.F32[0] = 1 // peak at (0,0)

	p := heatmapProfile(1, profile.LayoutNCHW, false, true)
	kps, err := Heatmap(tn, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(kps[0].X, 0.5/4.0) || !almostEqual(kps[0].Y, 0.5/4.0) {
		t.Errorf("expected cell center (0.125, 0.125), got (%f, %f)", kps[0].X, kps[0].Y)
	}
}

func TestHeatmap_BadShapes(t *testing.T) {
	p := heatmapProfile(18, profile.LayoutNCHW, false, false)

	tests := []struct {
		name string
		tn   *tensor.Tensor
	}{
		{"rank 3", tensor.NewFloat32(18, 46, 46)},
		{"batch 2", tensor.NewFloat32(2, 18, 46, 46)},
		{"too few channels", tensor.NewFloat32(1, 9, 46, 46)},
		{"short storage", &tensor.Tensor{Shape: []int{1, 18, 4, 4}, DType: tensor.Float32, F32: make([]float32, 8)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Heatmap(tt.tn, p)
			if err == nil {
				t.Fatal("expected error")
			}
			if !shared.IsKind(err, shared.KindInference) {
				t.Errorf("expected inference_failure, got %v", err)
			}
		})
	}
}

func TestRegression_ThreeComponents(t *testing.T) {
	tn := tensor.NewFloat32(1, 2, 3)
	// kp0: y=0.1 x=0.2 conf=0.9; kp1: y=0.4 x=0.5 conf=0.3
	copy(tn.F32, []float32{0.1, 0.2, 0.9, 0.4, 0.5, 0.3})

	kps, err := Regression(tn, regressionProfile(2, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if float32(kps[0].X) != 0.2 || float32(kps[0].Y) != 0.1 || float32(kps[0].Confidence) != 0.9 {
		t.Errorf("kp0: got %+v", kps[0])
	}
	if kps[0].Z != 0 {
		t.Errorf("expected zero z for 3 components, got %f", kps[0].Z)
	}
	if float32(kps[1].X) != 0.5 || float32(kps[1].Y) != 0.4 {
		t.Errorf("kp1: got %+v", kps[1])
	}
}

func TestRegression_FourComponents(t *testing.T) {
	tn := tensor.NewFloat32(1, 1, 4)
	copy(tn.F32, []float32{0.6, 0.7, -0.25, 0.95})

	kps, err := Regression(tn, regressionProfile(1, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kp := kps[0]
	if float32(kp.Y) != 0.6 || float32(kp.X) != 0.7 || float32(kp.Z) != -0.25 || float32(kp.Confidence) != 0.95 {
		t.Errorf("got %+v", kp)
	}
}

func TestRegression_WrongLength(t *testing.T) {
	tn := tensor.NewFloat32(1, 17, 2)
	_, err := Regression(tn, regressionProfile(17, 3))
	if err == nil {
		t.Fatal("expected error")
	}
	if !shared.IsKind(err, shared.KindInference) {
		t.Errorf("expected inference_failure, got %v", err)
	}
}

func TestOutput_Dispatch(t *testing.T) {
	reg := tensor.NewFloat32(1, 1, 3)
	if _, err := Output(reg, regressionProfile(1, 3)); err != nil {
		t.Errorf("regression dispatch: %v", err)
	}

	hm := tensor.NewFloat32(1, 1, 2, 2)
	if _, err := Output(hm, heatmapProfile(1, profile.LayoutNCHW, false, false)); err != nil {
		t.Errorf("heatmap dispatch: %v", err)
	}

	if _, err := Output(reg, profile.Profile{Name: "x"}); err == nil {
		t.Error("expected error for missing decode kind")
	}
}
