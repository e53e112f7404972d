package video

import (
	"path/filepath"
	"testing"

	"github.com/motionlab-ai/pose-backend/internal/shared"
)

func TestOpen_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.mp4")
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !shared.IsKind(err, shared.KindInvalidFrame) {
		t.Errorf("expected invalid_frame_format kind, got %v", err)
	}
}
