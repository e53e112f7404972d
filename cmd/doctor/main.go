package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/motionlab-ai/pose-backend/internal/backend"
	"github.com/motionlab-ai/pose-backend/internal/profile"
)

// doctor probes every acceleration backend and then opens each model in the
// catalog, printing the fallback trail the selector walked. Run it on a new
// deployment to see what the pipeline will actually commit to.
func main() {
	var (
		engineURL = flag.String("engine", envOr("ENGINE_URL", "http://localhost:9090"), "remote engine address")
		modelDir  = flag.String("models", envOr("MODEL_DIR", "./models"), "local model directory")
		accel     = flag.String("accel", "", "preferred acceleration: neural, graphics or cpu")
		skipOpen  = flag.Bool("probe-only", false, "only probe availability, do not load models")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	remote := backend.NewRemoteStrategies(backend.RemoteConfig{
		BaseURL: *engineURL,
		APIKey:  os.Getenv("ENGINE_API_KEY"),
	}, logger)
	local := backend.NewLocalStrategies(*modelDir, logger)

	fmt.Printf("Remote engine at %s\n", *engineURL)
	probeSet(ctx, remote)
	fmt.Printf("\nLocal models in %s\n", *modelDir)
	probeSet(ctx, local)

	if *skipOpen {
		return
	}

	preferred := backend.ParseMode(*accel)
	fmt.Println()
	for _, p := range profile.All() {
		set := remote
		if p.Runtime == profile.RuntimeLocal {
			set = local
		}
		openProfile(ctx, logger, set, preferred, p)
	}
}

func probeSet(ctx context.Context, set []backend.Strategy) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, s := range set {
		state := "unavailable"
		if s.Available(ctx) {
			state = "available"
		}
		fmt.Fprintf(w, "  %s\t%s\n", s.Mode(), state)
	}
	w.Flush()
}

func openProfile(ctx context.Context, logger *slog.Logger, set []backend.Strategy, preferred backend.Mode, p profile.Profile) {
	fmt.Printf("Opening %s (%s)\n", p.Name, p.Runtime)

	sel, err := backend.NewSelector(logger, set...).Select(ctx, preferred, p)
	if err != nil {
		fmt.Printf("  FAILED: %v\n", err)
		return
	}
	defer sel.Runtime.Close()

	for _, a := range sel.Trail {
		fmt.Printf("  tried %s: %v\n", a.Mode, a.Err)
	}
	fmt.Printf("  committed %s\n", sel.Mode)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
