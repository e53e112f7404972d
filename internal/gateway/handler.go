package gateway

import (
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/motionlab-ai/pose-backend/internal/detector"
	"github.com/motionlab-ai/pose-backend/internal/dto"
	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/pose"
	"github.com/motionlab-ai/pose-backend/internal/profile"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/videojob"
)

type Handler struct {
	detectors DetectorFactory
	jobs      *videojob.Service
	streams   *StreamServer
	logger    *slog.Logger
}

func NewHandler(detectors DetectorFactory, jobs *videojob.Service, streams *StreamServer, logger *slog.Logger) *Handler {
	return &Handler{
		detectors: detectors,
		jobs:      jobs,
		streams:   streams,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/detect", h.Detect)
	g.POST("/videos", h.SubmitVideo)
	g.GET("/videos", h.ListVideos)
	g.GET("/videos/:id", h.GetVideo)
	g.GET("/videos/:id/result", h.GetVideoResult)
	g.DELETE("/videos/:id", h.CancelVideo)
	g.GET("/models", h.ListModels)
	g.GET("/stream/ws", h.streams.HandleConnection)
	g.GET("/stream/sessions/:id/result", h.GetStreamResult)
	g.DELETE("/stream/sessions/:id", h.PurgeStreamSession)
}

// Detect godoc
// @Summary      Detect poses in one image
// @Description  Runs pose estimation on a single image, sent either as a multipart file upload or as base64 JSON
// @Tags         detect
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Param        request  body      dto.DetectRequest  false  "Base64 image and detector overrides"
// @Success      200      {object}  dto.DetectResponse
// @Failure      400      {object}  shared.APIError
// @Failure      503      {object}  shared.APIError  "No acceleration backend available"
// @Security     BearerAuth
// @Router       /detect [post]
func (h *Handler) Detect(c echo.Context) error {
	in, cfg, err := h.bindDetect(c)
	if err != nil {
		return err
	}

	det, err := h.detectors(c.Request().Context(), cfg)
	if err != nil {
		h.logger.Error("failed to open detector", "error", err)
		return pipelineHTTPError(err, "failed to initialize pipeline")
	}
	defer det.Close()

	res, err := det.Detect(c.Request().Context(), in)
	if err != nil {
		return pipelineHTTPError(err, "pose detection failed")
	}

	return c.JSON(http.StatusOK, detectToResponse(res))
}

func (h *Handler) bindDetect(c echo.Context) (frame.Input, detector.Config, error) {
	cfg := detector.DefaultConfig()

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		file, err := c.FormFile("image")
		if err != nil {
			return frame.Input{}, cfg, shared.BadRequest("missing_image", "image file is required")
		}
		src, err := file.Open()
		if err != nil {
			return frame.Input{}, cfg, shared.BadRequest("invalid_image", "failed to read image file")
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return frame.Input{}, cfg, shared.BadRequest("invalid_image", "failed to read image file")
		}

		rot, err := formDetectOverrides(c, &cfg)
		if err != nil {
			return frame.Input{}, cfg, err
		}
		return frame.Input{Bytes: data, Rotation: rot}, cfg, nil
	}

	var req dto.DetectRequest
	if err := c.Bind(&req); err != nil {
		return frame.Input{}, cfg, shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.Image == "" {
		return frame.Input{}, cfg, shared.BadRequest("missing_image", "image is required")
	}
	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return frame.Input{}, cfg, shared.BadRequest("invalid_image", "image must be base64 encoded")
	}

	if req.Mode != "" {
		cfg.Mode = detector.Mode(req.Mode)
	}
	if req.MaxPoses > 0 {
		cfg.MaxPoses = req.MaxPoses
	}
	if req.MinConfidence != nil {
		cfg.MinConfidence = *req.MinConfidence
	}
	cfg.EstimateDepth = req.EstimateDepth

	rot := frame.Rotation(req.Rotation)
	if !rot.Valid() {
		return frame.Input{}, cfg, shared.BadRequest("invalid_rotation", "rotation must be one of 0, 90, 180, 270")
	}
	return frame.Input{Bytes: data, Rotation: rot}, cfg, nil
}

func formDetectOverrides(c echo.Context, cfg *detector.Config) (frame.Rotation, error) {
	if v := c.FormValue("mode"); v != "" {
		cfg.Mode = detector.Mode(v)
	}
	if v := c.FormValue("max_poses"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, shared.BadRequest("invalid_max_poses", "max_poses must be an integer")
		}
		cfg.MaxPoses = n
	}
	if v := c.FormValue("min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, shared.BadRequest("invalid_min_confidence", "min_confidence must be a number")
		}
		cfg.MinConfidence = f
	}
	if v := c.FormValue("estimate_depth"); v != "" {
		cfg.EstimateDepth = v == "true" || v == "1"
	}

	rot := frame.Rotate0
	if v := c.FormValue("rotation"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !frame.Rotation(n).Valid() {
			return 0, shared.BadRequest("invalid_rotation", "rotation must be one of 0, 90, 180, 270")
		}
		rot = frame.Rotation(n)
	}
	return rot, nil
}

// SubmitVideo godoc
// @Summary      Submit a video analysis job
// @Description  Queues a video for background pose analysis, sent either as a multipart upload or as a JSON body naming a file on the server filesystem
// @Tags         videos
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Param        request  body      dto.SubmitVideoRequest  false  "Video path and analysis parameters"
// @Param        video    formData  file                    false  "Video file to analyze"
// @Success      201      {object}  dto.VideoJobResponse
// @Failure      400      {object}  shared.APIError
// @Failure      500      {object}  shared.APIError
// @Security     BearerAuth
// @Router       /videos [post]
func (h *Handler) SubmitVideo(c echo.Context) error {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return h.submitUploadedVideo(c)
	}

	var req dto.SubmitVideoRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.Path == "" {
		return shared.BadRequest("missing_path", "path is required")
	}

	params := videojob.JobParams{
		Mode:                  req.Mode,
		MaxPoses:              req.MaxPoses,
		MinConfidence:         detector.DefaultConfig().MinConfidence,
		EstimateDepth:         req.EstimateDepth,
		PreferredAcceleration: req.Acceleration,
		RuntimeClass:          req.Runtime,
	}
	if req.MinConfidence != nil {
		params.MinConfidence = *req.MinConfidence
	}

	job, err := h.jobs.Submit(c.Request().Context(), req.Path, req.FrameInterval, params)
	if err != nil {
		h.logger.Error("failed to submit video job", "error", err)
		return shared.InternalError("submit_failed", "failed to submit video job")
	}

	return c.JSON(http.StatusCreated, jobToResponse(job))
}

// submitUploadedVideo spools the multipart upload to a temp file and queues
// it. The job owns the temp file from the moment SubmitUpload succeeds.
func (h *Handler) submitUploadedVideo(c echo.Context) error {
	file, err := c.FormFile("video")
	if err != nil {
		return shared.BadRequest("missing_video", "video file is required")
	}

	frameInterval := 0
	if v := c.FormValue("frame_interval"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return shared.BadRequest("invalid_frame_interval", "frame_interval must be an integer")
		}
		frameInterval = n
	}
	params, err := formJobParams(c)
	if err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return shared.BadRequest("invalid_video", "failed to read video file")
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "pose-upload-*"+filepath.Ext(file.Filename))
	if err != nil {
		h.logger.Error("failed to create upload spool file", "error", err)
		return shared.InternalError("upload_failed", "failed to store uploaded video")
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		h.logger.Error("failed to spool uploaded video", "error", err)
		return shared.InternalError("upload_failed", "failed to store uploaded video")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		h.logger.Error("failed to spool uploaded video", "error", err)
		return shared.InternalError("upload_failed", "failed to store uploaded video")
	}

	job, err := h.jobs.SubmitUpload(c.Request().Context(), tmp.Name(), frameInterval, params)
	if err != nil {
		os.Remove(tmp.Name())
		h.logger.Error("failed to submit video job", "error", err)
		return shared.InternalError("submit_failed", "failed to submit video job")
	}

	return c.JSON(http.StatusCreated, jobToResponse(job))
}

func formJobParams(c echo.Context) (videojob.JobParams, error) {
	params := videojob.JobParams{
		Mode:                  c.FormValue("mode"),
		MinConfidence:         detector.DefaultConfig().MinConfidence,
		PreferredAcceleration: c.FormValue("acceleration"),
		RuntimeClass:          c.FormValue("runtime"),
	}
	if v := c.FormValue("max_poses"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, shared.BadRequest("invalid_max_poses", "max_poses must be an integer")
		}
		params.MaxPoses = n
	}
	if v := c.FormValue("min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, shared.BadRequest("invalid_min_confidence", "min_confidence must be a number")
		}
		params.MinConfidence = f
	}
	if v := c.FormValue("estimate_depth"); v != "" {
		params.EstimateDepth = v == "true" || v == "1"
	}
	return params, nil
}

// ListVideos godoc
// @Summary      List video jobs
// @Tags         videos
// @Produce      json
// @Param        status  query  string  false  "Filter by job status"  Enums(queued, running, done, failed, cancelled)
// @Param        limit   query  int     false  "Page size"  default(20)  maximum(100)
// @Param        offset  query  int     false  "Page offset"  default(0)
// @Success      200  {object}  dto.VideoJobListResponse
// @Security     BearerAuth
// @Router       /videos [get]
func (h *Handler) ListVideos(c echo.Context) error {
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	var status *videojob.Status
	if v := c.QueryParam("status"); v != "" {
		s := videojob.Status(v)
		status = &s
	}

	jobs, err := h.jobs.List(c.Request().Context(), status, limit, offset)
	if err != nil {
		h.logger.Error("failed to list video jobs", "error", err)
		return shared.InternalError("list_failed", "failed to list video jobs")
	}

	resp := make([]dto.VideoJobResponse, len(jobs))
	for i, j := range jobs {
		resp[i] = jobToResponse(j)
	}
	return c.JSON(http.StatusOK, dto.VideoJobListResponse{Jobs: resp, Limit: limit, Offset: offset})
}

// GetVideo godoc
// @Summary      Get video job status
// @Description  Returns job state and analysis progress
// @Tags         videos
// @Produce      json
// @Param        id  path  string  true  "Job ID"
// @Success      200  {object}  dto.VideoJobResponse
// @Failure      404  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /videos/{id} [get]
func (h *Handler) GetVideo(c echo.Context) error {
	job, err := h.jobs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("job_not_found", "video job not found")
		}
		return shared.InternalError("get_failed", "failed to get video job")
	}
	return c.JSON(http.StatusOK, jobToResponse(job))
}

// GetVideoResult godoc
// @Summary      Get video job result
// @Description  Returns the per-frame pose document. Cancelled jobs return the partial result accumulated before cancellation
// @Tags         videos
// @Produce      json
// @Param        id  path  string  true  "Job ID"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /videos/{id}/result [get]
func (h *Handler) GetVideoResult(c echo.Context) error {
	job, err := h.jobs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("job_not_found", "video job not found")
		}
		return shared.InternalError("get_failed", "failed to get video job")
	}
	if len(job.Result) == 0 {
		return shared.NotFound("result_not_ready", "no result available for this job")
	}
	return c.JSONBlob(http.StatusOK, job.Result)
}

// CancelVideo godoc
// @Summary      Cancel or delete a video job
// @Description  Cooperatively stops a queued or running job, keeping the partial result. Deleting a finished job removes its record
// @Tags         videos
// @Param        id  path  string  true  "Job ID"
// @Success      204  "No Content"
// @Failure      404  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /videos/{id} [delete]
func (h *Handler) CancelVideo(c echo.Context) error {
	err := h.jobs.Cancel(c.Request().Context(), c.Param("id"))
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, shared.ErrNotFound):
		return shared.NotFound("job_not_found", "video job not found")
	case errors.Is(err, shared.ErrConflict):
		// Finished jobs can't be cancelled; delete the record instead.
		if err := h.jobs.Delete(c.Request().Context(), c.Param("id")); err != nil {
			h.logger.Error("failed to delete video job", "error", err)
			return shared.InternalError("delete_failed", "failed to delete video job")
		}
		return c.NoContent(http.StatusNoContent)
	default:
		h.logger.Error("failed to cancel video job", "error", err)
		return shared.InternalError("cancel_failed", "failed to cancel video job")
	}
}

// GetStreamResult godoc
// @Summary      Get the latest result for a streaming session
// @Description  Returns the most recent cached pose result. Cached results expire 60 seconds after the last frame
// @Tags         stream
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200  {object}  dto.DetectResponse
// @Failure      404  {object}  shared.APIError
// @Security     BearerAuth
// @Router       /stream/sessions/{id}/result [get]
func (h *Handler) GetStreamResult(c echo.Context) error {
	res, err := h.streams.LatestResult(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("result_not_found", "no recent result for this session")
		}
		h.logger.Error("failed to read stream result", "error", err)
		return shared.InternalError("get_failed", "failed to read stream result")
	}
	return c.JSON(http.StatusOK, detectToResponse(res))
}

// PurgeStreamSession godoc
// @Summary      Delete cached session data
// @Description  Drops the cached result and counters for a streaming session
// @Tags         stream
// @Param        id  path  string  true  "Session ID"
// @Success      204  "No Content"
// @Security     BearerAuth
// @Router       /stream/sessions/{id} [delete]
func (h *Handler) PurgeStreamSession(c echo.Context) error {
	if err := h.streams.PurgeSession(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error("failed to purge stream session", "error", err)
		return shared.InternalError("purge_failed", "failed to purge stream session")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListModels godoc
// @Summary      List model profiles
// @Description  Returns the model catalog with input and decode characteristics
// @Tags         models
// @Produce      json
// @Success      200  {object}  dto.ModelListResponse
// @Security     BearerAuth
// @Router       /models [get]
func (h *Handler) ListModels(c echo.Context) error {
	profiles := profile.All()
	models := make([]dto.ModelResponse, len(profiles))
	for i, p := range profiles {
		models[i] = dto.ModelResponse{
			Name:              p.Name,
			Runtime:           string(p.Runtime),
			InputSize:         p.InputSize,
			Keypoints:         p.Keypoints,
			Topology:          p.Topology,
			Decode:            string(p.Decode),
			Depth:             p.HasDepth(),
			PresenceThreshold: float64(p.PresenceThreshold),
		}
	}
	return c.JSON(http.StatusOK, dto.ModelListResponse{Models: models})
}

func pipelineHTTPError(err error, fallback string) error {
	kind := shared.KindOf(err)
	if kind == "" {
		return shared.InternalError("detect_failed", fallback)
	}
	return shared.NewAPIError(string(kind), err.Error()).ToHTTP(shared.HTTPStatus(err))
}

func detectToResponse(res *pose.Result) dto.DetectResponse {
	poses := make([]dto.PoseResponse, len(res.Poses))
	for i, p := range res.Poses {
		kps := make([]dto.KeypointResponse, len(p.Landmarks))
		for j, lm := range p.Landmarks {
			kps[j] = dto.KeypointResponse{
				Name:       pose.LandmarkName(j),
				X:          lm.X,
				Y:          lm.Y,
				Z:          lm.Z,
				Visibility: lm.Visibility,
				Detected:   lm.Detected,
			}
		}
		poses[i] = dto.PoseResponse{
			Score: p.Score,
			Box: dto.BoundingBoxResponse{
				X:      p.Box.X,
				Y:      p.Box.Y,
				Width:  p.Box.Width,
				Height: p.Box.Height,
			},
			Keypoints: kps,
		}
	}
	return dto.DetectResponse{
		Poses:       poses,
		Count:       len(poses),
		Width:       res.SourceWidth,
		Height:      res.SourceHeight,
		Model:       res.Model,
		InferenceMS: float64(res.InferenceTime.Microseconds()) / 1000,
		TimestampMS: res.CapturedAt.UnixMilli(),
	}
}

func jobToResponse(j *videojob.VideoJob) dto.VideoJobResponse {
	resp := dto.VideoJobResponse{
		ID:             j.ID,
		Status:         string(j.Status),
		SourcePath:     j.SourcePath,
		FrameInterval:  j.FrameInterval,
		TotalFrames:    j.TotalFrames,
		AnalyzedFrames: j.AnalyzedFrames,
		Error:          j.Error,
		Warnings:       []string(j.Warnings),
		CreatedAt:      j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if j.StartedAt != nil {
		s := j.StartedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.StartedAt = &s
	}
	if j.FinishedAt != nil {
		s := j.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.FinishedAt = &s
	}
	return resp
}
