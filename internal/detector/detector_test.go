package detector

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/motionlab-ai/pose-backend/internal/backend"
	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/pose"
	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/tensor"
)

type stubRuntime struct {
	prof      profile.Profile
	invoked   int
	closed    int
	invokeErr error
}

func (r *stubRuntime) Invoke(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.invokeErr != nil {
		return nil, r.invokeErr
	}
	r.invoked++

	// every keypoint at model center with visibility 0.9
	out := tensor.NewFloat32(1, r.prof.Keypoints, r.prof.Components)
	for i := 0; i < r.prof.Keypoints; i++ {
		base := i * r.prof.Components
		out.F32[base] = 0.5
		out.F32[base+1] = 0.5
		out.F32[base+r.prof.Components-1] = 0.9
	}
	return out, nil
}

func (r *stubRuntime) Close() error {
	r.closed++
	return nil
}

type stubOpener struct {
	opens         int
	openErr       error
	lastProfile   profile.Profile
	lastPreferred backend.Mode
	runtime       *stubRuntime
}

func (o *stubOpener) Open(ctx context.Context, preferred backend.Mode, p profile.Profile) (*backend.Selection, error) {
	o.opens++
	o.lastProfile = p
	o.lastPreferred = preferred
	if o.openErr != nil {
		return nil, o.openErr
	}
	o.runtime = &stubRuntime{prof: p}
	return &backend.Selection{Mode: backend.ModeCPU, Runtime: o.runtime}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

func newTestDetector(t *testing.T, cfg Config) (*Detector, *stubOpener) {
	t.Helper()
	opener := &stubOpener{}
	d, err := New(context.Background(), cfg, opener, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d, opener
}

func TestNew_OpensSelectedProfile(t *testing.T) {
	d, opener := newTestDetector(t, Config{Mode: ModeAccuracy, MaxPoses: 3})
	defer d.Close()

	if opener.opens != 1 {
		t.Errorf("expected 1 open, got %d", opener.opens)
	}
	if opener.lastProfile.Name != "movenet-thunder" {
		t.Errorf("expected movenet-thunder, got %s", opener.lastProfile.Name)
	}
	if d.ActiveMode() != backend.ModeCPU {
		t.Errorf("expected cpu, got %s", d.ActiveMode())
	}
}

func TestDetect_EndToEnd(t *testing.T) {
	d, _ := newTestDetector(t, Config{Mode: ModeSpeed, MaxPoses: 2})
	defer d.Close()

	res, err := d.Detect(context.Background(), frame.Input{Image: testImage()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Model != "movenet-lightning" {
		t.Errorf("expected movenet-lightning, got %s", res.Model)
	}
	if res.SourceWidth != 64 || res.SourceHeight != 48 {
		t.Errorf("expected 64x48, got %dx%d", res.SourceWidth, res.SourceHeight)
	}
	if len(res.Poses) != 1 {
		t.Fatalf("expected 1 pose, got %d", len(res.Poses))
	}

	p := res.Poses[0]
	// 17 mapped at 0.9 plus 2 derived heels at 0.72
	want := (17*0.9 + 2*0.72) / 19
	if math.Abs(p.Score-want) > 1e-9 {
		t.Errorf("expected score %f, got %f", want, p.Score)
	}

	nose := p.Landmarks[pose.Nose]
	if !nose.Detected {
		t.Fatal("expected detected nose")
	}
	// model center maps back to frame center through the letterbox
	if math.Abs(nose.X-0.5) > 1e-6 || math.Abs(nose.Y-0.5) > 1e-6 {
		t.Errorf("expected nose at center, got (%f, %f)", nose.X, nose.Y)
	}

	if res.InferenceTime < 0 {
		t.Error("expected non-negative inference time")
	}
}

func TestDetect_MinConfidenceExcludesPose(t *testing.T) {
	d, _ := newTestDetector(t, Config{Mode: ModeSpeed, MaxPoses: 2, MinConfidence: 0.95})
	defer d.Close()

	res, err := d.Detect(context.Background(), frame.Input{Image: testImage()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Poses) != 0 {
		t.Errorf("expected no poses above 0.95, got %d", len(res.Poses))
	}
}

func TestDetect_InvalidFrame(t *testing.T) {
	d, _ := newTestDetector(t, Config{})
	defer d.Close()

	_, err := d.Detect(context.Background(), frame.Input{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !shared.IsKind(err, shared.KindInvalidFrame) {
		t.Errorf("expected invalid_frame_format, got %v", err)
	}
}

func TestDetect_CancelledContext(t *testing.T) {
	d, _ := newTestDetector(t, Config{})
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Detect(ctx, frame.Input{Image: testImage()})
	if err == nil {
		t.Fatal("expected error")
	}
	if !shared.IsKind(err, shared.KindCancelled) {
		t.Errorf("expected cancelled, got %v", err)
	}
}

func TestDetect_RuntimeErrorPassesThrough(t *testing.T) {
	d, opener := newTestDetector(t, Config{})
	defer d.Close()

	opener.runtime.invokeErr = shared.InferenceFailure("forward", errors.New("boom"))

	_, err := d.Detect(context.Background(), frame.Input{Image: testImage()})
	if !shared.IsKind(err, shared.KindInference) {
		t.Errorf("expected inference_failure, got %v", err)
	}
}

func TestUpdateConfig_FilterOnlySkipsReopen(t *testing.T) {
	d, opener := newTestDetector(t, Config{Mode: ModeSpeed, MaxPoses: 2, MinConfidence: 0.3})
	defer d.Close()

	err := d.UpdateConfig(context.Background(), Config{Mode: ModeSpeed, MaxPoses: 5, MinConfidence: 0.95})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opener.opens != 1 {
		t.Errorf("expected no reopen, got %d opens", opener.opens)
	}

	res, err := d.Detect(context.Background(), frame.Input{Image: testImage()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Poses) != 0 {
		t.Error("expected new filter to apply")
	}
}

func TestUpdateConfig_ProfileChangeReopens(t *testing.T) {
	d, opener := newTestDetector(t, Config{Mode: ModeSpeed})
	defer d.Close()
	first := opener.runtime

	err := d.UpdateConfig(context.Background(), Config{Mode: ModeAccuracy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opener.opens != 2 {
		t.Errorf("expected reopen, got %d opens", opener.opens)
	}
	if opener.lastProfile.Name != "movenet-thunder" {
		t.Errorf("expected movenet-thunder, got %s", opener.lastProfile.Name)
	}
	if first.closed != 1 {
		t.Errorf("expected previous runtime closed once, got %d", first.closed)
	}
}

func TestUpdateConfig_AccelerationChangeReopens(t *testing.T) {
	d, opener := newTestDetector(t, Config{Mode: ModeSpeed})
	defer d.Close()

	err := d.UpdateConfig(context.Background(), Config{Mode: ModeSpeed, PreferredAcceleration: backend.ModeGraphics})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opener.opens != 2 {
		t.Errorf("expected reopen for new preference, got %d opens", opener.opens)
	}
	if opener.lastPreferred != backend.ModeGraphics {
		t.Errorf("expected graphics preference, got %s", opener.lastPreferred)
	}
}

func TestUpdateConfig_OpenFailureKeepsOldRuntime(t *testing.T) {
	d, opener := newTestDetector(t, Config{Mode: ModeSpeed})
	defer d.Close()
	first := opener.runtime

	opener.openErr = shared.ModelLoadFailure("weights", nil)
	err := d.UpdateConfig(context.Background(), Config{Mode: ModeAccuracy})
	if err == nil {
		t.Fatal("expected error")
	}
	if first.closed != 0 {
		t.Error("old runtime must survive a failed reconfigure")
	}

	opener.openErr = nil
	if _, err := d.Detect(context.Background(), frame.Input{Image: testImage()}); err != nil {
		t.Errorf("detector should still work: %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	d, opener := newTestDetector(t, Config{})

	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if opener.runtime.closed != 1 {
		t.Errorf("expected runtime closed once, got %d", opener.runtime.closed)
	}

	if _, err := d.Detect(context.Background(), frame.Input{Image: testImage()}); err == nil {
		t.Error("expected error after close")
	}
}
