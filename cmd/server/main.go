package main

import (
	_ "github.com/motionlab-ai/pose-backend/docs"
	"github.com/motionlab-ai/pose-backend/internal/bootstrap"
)

// @title Pose Backend API
// @version 1.0.0
// @description Real-time human pose estimation over HTTP and WebSocket

// @host localhost:8080
// @BasePath /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	bootstrap.Run()
}
