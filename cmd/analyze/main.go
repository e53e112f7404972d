package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/motionlab-ai/pose-backend/internal/backend"
	"github.com/motionlab-ai/pose-backend/internal/detector"
	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/stream"
	"github.com/motionlab-ai/pose-backend/internal/video"
)

func main() {
	var (
		videoPath = flag.String("video", "", "path to the video file to analyze")
		interval  = flag.Int("interval", 1, "analyze every nth frame")
		mode      = flag.String("mode", "speed", "model tier: speed or accuracy")
		maxPoses  = flag.Int("max-poses", 1, "maximum poses per frame")
		minConf   = flag.Float64("min-conf", 0.3, "minimum landmark visibility")
		accel     = flag.String("accel", "", "preferred acceleration: neural, graphics or cpu")
		depth     = flag.Bool("depth", false, "estimate landmark depth")
		local     = flag.Bool("local", false, "run a bundled local model instead of the remote engine")
		asJSON    = flag.Bool("json", false, "print the full result as JSON")
	)
	flag.Parse()

	if *videoPath == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -video <path> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	engineURL := os.Getenv("ENGINE_URL")
	if engineURL == "" {
		engineURL = "http://localhost:9090"
	}
	modelDir := os.Getenv("MODEL_DIR")
	if modelDir == "" {
		modelDir = "./models"
	}

	engine := backend.NewEngine(
		backend.NewLocalStrategies(modelDir, logger),
		backend.NewRemoteStrategies(backend.RemoteConfig{
			BaseURL: engineURL,
			APIKey:  os.Getenv("ENGINE_API_KEY"),
		}, logger),
		logger,
	)

	cfg := detector.Config{
		Mode:                  detector.Mode(*mode),
		MaxPoses:              *maxPoses,
		MinConfidence:         *minConf,
		EstimateDepth:         *depth,
		PreferredAcceleration: backend.ParseMode(*accel),
	}
	if *local {
		cfg.RuntimeClass = profile.RuntimeLocal
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "interrupted, collecting partial results")
		cancel()
	}()

	det, err := detector.New(ctx, cfg, engine, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open detector: %v\n", err)
		os.Exit(1)
	}
	defer det.Close()

	src, err := video.Open(*videoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open video: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	opts := stream.BatchOptions{FrameInterval: *interval}
	if !*asJSON {
		opts.OnProgress = func(current, total int) {
			fmt.Fprintf(os.Stderr, "\rframe %d/%d", current, total)
		}
	}

	res, err := stream.NewVideoAnalyzer(det, logger).Analyze(ctx, src, opts)
	if opts.OnProgress != nil {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to analyze video: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printSummary(res)
}

func printSummary(res *stream.BatchResult) {
	status := "complete"
	if !res.Completed {
		status = "partial"
	}
	fmt.Printf("Analysis %s: %d frames analyzed, %d skipped of %d total in %s\n",
		status, res.Analyzed, res.Skipped, res.TotalFrames,
		res.Elapsed.Round(time.Millisecond))

	if len(res.Frames) == 0 {
		return
	}

	var poseCount int
	var scoreSum float64
	for _, fr := range res.Frames {
		for _, p := range fr.Result.Poses {
			poseCount++
			scoreSum += p.Score
		}
	}

	fmt.Printf("Model: %s\n", res.Frames[0].Result.Model)
	if poseCount > 0 {
		fmt.Printf("Poses: %d across %d frames, mean score %.2f\n",
			poseCount, len(res.Frames), scoreSum/float64(poseCount))
	} else {
		fmt.Printf("Poses: none detected in %d frames\n", len(res.Frames))
	}
}
