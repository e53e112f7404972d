package stream

import (
	"context"
	"fmt"
	"testing"

	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/pose"
	"github.com/motionlab-ai/pose-backend/internal/shared"
)

type fakeSource struct {
	frames int
	idx    int
	badAt  map[int]bool
	closed bool
}

func (s *fakeSource) Next() (frame.Input, bool, error) {
	if s.idx >= s.frames {
		return frame.Input{}, false, nil
	}
	i := s.idx
	s.idx++
	if s.badAt[i] {
		return frame.Input{}, true, fmt.Errorf("decode failed at frame %d", i)
	}
	return frame.Input{}, true, nil
}

func (s *fakeSource) Total() int { return s.frames }

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type videoDetector struct {
	calls       int
	failOnCall  int
	cancelAfter int
	cancel      context.CancelFunc
	err         error
}

func (d *videoDetector) Detect(ctx context.Context, _ frame.Input) (*pose.Result, error) {
	d.calls++
	if d.failOnCall > 0 && d.calls == d.failOnCall {
		if d.err != nil {
			return nil, d.err
		}
		return nil, shared.InferenceFailure("forward failed", nil)
	}
	if d.cancelAfter > 0 && d.calls == d.cancelAfter {
		d.cancel()
	}
	return &pose.Result{SourceWidth: 4, SourceHeight: 4}, nil
}

func TestVideoAnalyzer_EveryFrame(t *testing.T) {
	det := &videoDetector{}
	a := NewVideoAnalyzer(det, testLogger())
	res, err := a.Analyze(context.Background(), &fakeSource{frames: 10}, BatchOptions{FrameInterval: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Completed {
		t.Error("expected completed batch")
	}
	if res.TotalFrames != 10 {
		t.Errorf("expected 10 total frames, got %d", res.TotalFrames)
	}
	if res.Analyzed != 10 {
		t.Errorf("expected 10 analyzed, got %d", res.Analyzed)
	}
	if len(res.Frames) != 10 {
		t.Errorf("expected 10 frame results, got %d", len(res.Frames))
	}
	if res.Skipped != 0 {
		t.Errorf("expected 0 skipped, got %d", res.Skipped)
	}
}

func TestVideoAnalyzer_Stride(t *testing.T) {
	det := &videoDetector{}
	a := NewVideoAnalyzer(det, testLogger())
	res, err := a.Analyze(context.Background(), &fakeSource{frames: 10}, BatchOptions{FrameInterval: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Analyzed != 4 {
		t.Errorf("expected 4 analyzed with interval 3, got %d", res.Analyzed)
	}
	want := []int{0, 3, 6, 9}
	if len(res.Frames) != len(want) {
		t.Fatalf("expected %d frame results, got %d", len(want), len(res.Frames))
	}
	for i, fr := range res.Frames {
		if fr.Index != want[i] {
			t.Errorf("frame %d: expected index %d, got %d", i, want[i], fr.Index)
		}
	}
}

func TestVideoAnalyzer_IntervalClampedToOne(t *testing.T) {
	det := &videoDetector{}
	a := NewVideoAnalyzer(det, testLogger())
	res, err := a.Analyze(context.Background(), &fakeSource{frames: 5}, BatchOptions{FrameInterval: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Analyzed != 5 {
		t.Errorf("expected interval 0 to mean every frame, got %d analyzed", res.Analyzed)
	}
}

func TestVideoAnalyzer_SkipsBadFrames(t *testing.T) {
	det := &videoDetector{failOnCall: 4}
	src := &fakeSource{frames: 6, badAt: map[int]bool{1: true}}
	a := NewVideoAnalyzer(det, testLogger())
	res, err := a.Analyze(context.Background(), src, BatchOptions{FrameInterval: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Completed {
		t.Error("per-frame failures should not abort the batch")
	}
	if res.Analyzed != 5 {
		t.Errorf("expected 5 analyzed (frame 1 unreadable), got %d", res.Analyzed)
	}
	if res.Skipped != 2 {
		t.Errorf("expected 2 skipped (unreadable + failed), got %d", res.Skipped)
	}
	want := []int{0, 2, 3, 5}
	if len(res.Frames) != len(want) {
		t.Fatalf("expected %d frame results, got %d", len(want), len(res.Frames))
	}
	for i, fr := range res.Frames {
		if fr.Index != want[i] {
			t.Errorf("frame %d: expected index %d, got %d", i, want[i], fr.Index)
		}
	}
}

func TestVideoAnalyzer_CancelReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	det := &videoDetector{cancelAfter: 3, cancel: cancel}
	a := NewVideoAnalyzer(det, testLogger())
	res, err := a.Analyze(ctx, &fakeSource{frames: 10}, BatchOptions{FrameInterval: 1})
	if err != nil {
		t.Fatalf("cancellation must not surface as an error, got %v", err)
	}
	if res.Completed {
		t.Error("expected partial batch after cancellation")
	}
	if res.Analyzed != 3 {
		t.Errorf("expected 3 analyzed before cancellation, got %d", res.Analyzed)
	}
	if len(res.Frames) != 3 {
		t.Errorf("expected 3 frame results, got %d", len(res.Frames))
	}
	if res.TotalFrames != 10 {
		t.Errorf("expected total to stay 10, got %d", res.TotalFrames)
	}
}

func TestVideoAnalyzer_CancelledKindFromDetect(t *testing.T) {
	det := &videoDetector{failOnCall: 2, err: shared.Cancelled("frame abandoned")}
	a := NewVideoAnalyzer(det, testLogger())
	res, err := a.Analyze(context.Background(), &fakeSource{frames: 10}, BatchOptions{FrameInterval: 1})
	if err != nil {
		t.Fatalf("cancellation must not surface as an error, got %v", err)
	}
	if res.Completed {
		t.Error("expected partial batch when the detector reports cancellation")
	}
	if len(res.Frames) != 1 {
		t.Errorf("expected 1 frame result before cancellation, got %d", len(res.Frames))
	}
}

func TestVideoAnalyzer_Progress(t *testing.T) {
	det := &videoDetector{}
	var current, total []int
	a := NewVideoAnalyzer(det, testLogger())
	_, err := a.Analyze(context.Background(), &fakeSource{frames: 4}, BatchOptions{
		FrameInterval: 2,
		OnProgress: func(c, n int) {
			current = append(current, c)
			total = append(total, n)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantCurrent := []int{1, 3}
	if len(current) != len(wantCurrent) {
		t.Fatalf("expected %d progress calls, got %d", len(wantCurrent), len(current))
	}
	for i := range wantCurrent {
		if current[i] != wantCurrent[i] {
			t.Errorf("progress %d: expected current %d, got %d", i, wantCurrent[i], current[i])
		}
		if total[i] != 4 {
			t.Errorf("progress %d: expected total 4, got %d", i, total[i])
		}
	}
}

func TestVideoAnalyzer_EmptySource(t *testing.T) {
	det := &videoDetector{}
	a := NewVideoAnalyzer(det, testLogger())
	res, err := a.Analyze(context.Background(), &fakeSource{frames: 0}, BatchOptions{FrameInterval: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Completed {
		t.Error("expected empty source to complete")
	}
	if res.Analyzed != 0 || len(res.Frames) != 0 {
		t.Errorf("expected nothing analyzed, got %d analyzed %d frames", res.Analyzed, len(res.Frames))
	}
}
