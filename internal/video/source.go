package video

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/shared"
)

// FileSource reads frames from a video file through OpenCV. It satisfies
// stream.FrameSource.
type FileSource struct {
	cap   *gocv.VideoCapture
	mat   gocv.Mat
	total int
	path  string
}

func Open(path string) (*FileSource, error) {
	cap, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, shared.InvalidFrame(fmt.Sprintf("open video %s: %v", path, err))
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, shared.InvalidFrame("video stream could not be opened: " + path)
	}
	return &FileSource{
		cap:   cap,
		mat:   gocv.NewMat(),
		total: int(cap.Get(gocv.VideoCaptureFrameCount)),
		path:  path,
	}, nil
}

func (s *FileSource) Next() (frame.Input, bool, error) {
	if !s.cap.Read(&s.mat) || s.mat.Empty() {
		return frame.Input{}, false, nil
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return frame.Input{}, true, fmt.Errorf("convert frame: %w", err)
	}
	return frame.Input{Image: img}, true, nil
}

// Total reports the container's frame count. Some codecs do not know it and
// report zero.
func (s *FileSource) Total() int { return s.total }

func (s *FileSource) FPS() float64 { return s.cap.Get(gocv.VideoCaptureFPS) }

func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Close() error {
	s.mat.Close()
	return s.cap.Close()
}
