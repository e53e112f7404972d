package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/cuda"

	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/tensor"
)

// LocalStrategy runs models in-process through the OpenCV DNN module. One
// instance covers one acceleration mode; the mode picks the DNN backend and
// target pair.
type LocalStrategy struct {
	mode     Mode
	modelDir string
	logger   *slog.Logger
}

// NewLocalStrategies returns the strategy set for in-process inference,
// one per acceleration mode.
func NewLocalStrategies(modelDir string, logger *slog.Logger) []Strategy {
	l := logger.With("component", "backend-opencv")
	return []Strategy{
		&LocalStrategy{mode: ModeNeural, modelDir: modelDir, logger: l},
		&LocalStrategy{mode: ModeGraphics, modelDir: modelDir, logger: l},
		&LocalStrategy{mode: ModeCPU, modelDir: modelDir, logger: l},
	}
}

func (s *LocalStrategy) Mode() Mode {
	return s.mode
}

func (s *LocalStrategy) Available(ctx context.Context) bool {
	switch s.mode {
	case ModeCPU:
		return true
	case ModeGraphics:
		return cuda.GetCudaEnabledDeviceCount() > 0
	case ModeNeural:
		// openvino environments export this; the warmup in Open catches a
		// half-installed toolkit
		return os.Getenv("INTEL_OPENVINO_DIR") != ""
	default:
		return false
	}
}

func (s *LocalStrategy) Open(ctx context.Context, p profile.Profile) (Runtime, error) {
	modelPath := filepath.Join(s.modelDir, p.ModelFile)
	configPath := filepath.Join(s.modelDir, p.ConfigFile)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, shared.ModelLoadFailure(fmt.Sprintf("model file %s", modelPath), err)
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil, shared.ModelLoadFailure(fmt.Sprintf("config file %s", configPath), err)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, shared.ModelLoadFailure(fmt.Sprintf("read network %s", p.Name), nil)
	}

	backendType, targetType := dnnPair(s.mode)
	if err := net.SetPreferableBackend(backendType); err != nil {
		net.Close()
		return nil, shared.BackendUnavailable(fmt.Sprintf("set %s backend", s.mode), err)
	}
	if err := net.SetPreferableTarget(targetType); err != nil {
		net.Close()
		return nil, shared.BackendUnavailable(fmt.Sprintf("set %s target", s.mode), err)
	}

	rt := &localRuntime{net: net, logger: s.logger, mode: s.mode, model: p.Name}
	if err := rt.warmup(ctx, p); err != nil {
		net.Close()
		return nil, shared.BackendUnavailable(fmt.Sprintf("%s warmup for %s", s.mode, p.Name), err)
	}

	s.logger.Info("network loaded", "model", p.Name, "mode", s.mode)
	return rt, nil
}

func dnnPair(m Mode) (gocv.NetBackendType, gocv.NetTargetType) {
	switch m {
	case ModeNeural:
		return gocv.NetBackendOpenVINO, gocv.NetTargetVPU
	case ModeGraphics:
		return gocv.NetBackendCUDA, gocv.NetTargetCUDA
	default:
		return gocv.NetBackendDefault, gocv.NetTargetCPU
	}
}

type localRuntime struct {
	mu     sync.Mutex
	net    gocv.Net
	closed bool
	mode   Mode
	model  string
	logger *slog.Logger
}

// warmup pushes a zero tensor through the network. A misconfigured
// accelerator typically loads fine and only fails on the first forward
// pass, so this is where the selector learns the truth.
func (r *localRuntime) warmup(ctx context.Context, p profile.Profile) error {
	out, err := r.Invoke(ctx, warmupTensor(p))
	if err != nil {
		return err
	}
	if out.Len() == 0 {
		return fmt.Errorf("warmup produced empty output")
	}
	return nil
}

func (r *localRuntime) Invoke(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if in.DType != tensor.Float32 || len(in.Shape) != 4 {
		return nil, shared.InferenceFailure(
			fmt.Sprintf("opencv runtime wants float32 nchw, got %s %v", in.DType, in.Shape), nil)
	}
	if err := in.Validate(); err != nil {
		return nil, shared.InferenceFailure("input tensor", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, shared.InferenceFailure("runtime closed", shared.ErrClosed)
	}

	blob := gocv.NewMatWithSizes(in.Shape, gocv.MatTypeCV32F)
	defer blob.Close()
	view, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, shared.InferenceFailure("map input blob", err)
	}
	copy(view, in.F32)

	r.net.SetInput(blob, "")
	out := r.net.Forward("")
	defer out.Close()
	if out.Empty() {
		return nil, shared.InferenceFailure(fmt.Sprintf("%s forward returned empty output", r.model), nil)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, shared.InferenceFailure("map output blob", err)
	}

	result := &tensor.Tensor{
		Shape: append([]int(nil), out.Size()...),
		DType: tensor.Float32,
		F32:   append([]float32(nil), data...),
	}
	return result, nil
}

func (r *localRuntime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.net.Close()
}
