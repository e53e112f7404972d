package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pion/rtp"

	"github.com/motionlab-ai/pose-backend/internal/detector"
	"github.com/motionlab-ai/pose-backend/internal/dto"
	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/ingest"
	"github.com/motionlab-ai/pose-backend/internal/pose"
	"github.com/motionlab-ai/pose-backend/internal/publish"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/stream"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024

	statsInterval = 5 * time.Second
)

const (
	FormatJPEG = "jpeg"
	FormatVP8  = "vp8"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type StreamServer struct {
	detectors DetectorFactory
	store     *stream.Store
	publisher *publish.Publisher
	logger    *slog.Logger

	active atomic.Int64
}

func NewStreamServer(detectors DetectorFactory, store *stream.Store, publisher *publish.Publisher, logger *slog.Logger) *StreamServer {
	return &StreamServer{
		detectors: detectors,
		store:     store,
		publisher: publisher,
		logger:    logger.With("component", "stream_server"),
	}
}

func (s *StreamServer) HandleConnection(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = FormatJPEG
	}
	if format != FormatJPEG && format != FormatVP8 {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported format: "+format)
	}

	det, err := s.detectors(c.Request().Context(), detector.DefaultConfig())
	if err != nil {
		s.logger.Error("failed to open detector", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "detector unavailable")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		det.Close()
		s.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	sessionID := uuid.New().String()
	conn := newStreamConn(ws, sessionID, s.logger)
	sess := newStreamSession(s, conn, det, format)

	s.active.Add(1)
	s.logger.Info("stream session started", "session_id", sessionID, "format", format)

	go conn.writePump()
	go sess.statsLoop()
	sess.readPump()

	return nil
}

// ActiveSessions counts connections currently streaming.
func (s *StreamServer) ActiveSessions() int64 {
	return s.active.Load()
}

// LatestResult returns the last cached result for a session, which may
// belong to a connection that already closed.
func (s *StreamServer) LatestResult(ctx context.Context, sessionID string) (*pose.Result, error) {
	return s.store.GetLatestResult(ctx, sessionID)
}

// PurgeSession drops a session's cached result and counters.
func (s *StreamServer) PurgeSession(ctx context.Context, sessionID string) error {
	return s.store.DeleteSession(ctx, sessionID)
}

// streamSession ties one connection to its own detector and scheduler.
// Sessions never share pipeline state.
type streamSession struct {
	server   *StreamServer
	conn     *streamConn
	det      StreamDetector
	sched    *stream.Scheduler
	capturer *ingest.FrameCapturer
	format   string

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	rotation frame.Rotation
}

func newStreamSession(server *StreamServer, conn *streamConn, det StreamDetector, format string) *streamSession {
	ctx, cancel := context.WithCancel(context.Background())
	sess := &streamSession{
		server: server,
		conn:   conn,
		det:    det,
		format: format,
		ctx:    ctx,
		cancel: cancel,
	}

	sess.sched = stream.NewScheduler(conn.sessionID, det, stream.Callbacks{
		OnResult: sess.handleResult,
		OnError:  sess.handleError,
	}, server.logger)

	if format == FormatVP8 {
		sess.capturer = ingest.NewFrameCapturer(ingest.CapturerConfig{
			SessionID: conn.sessionID,
			Sink:      sessionSink{sess},
			Decoder:   ingest.NewVP8Decoder(),
			Logger:    server.logger,
		})
	}

	return sess
}

// sessionSink routes decoded RTP frames back through the session so drops
// are counted the same way as on the direct path.
type sessionSink struct {
	sess *streamSession
}

func (s sessionSink) Submit(_ context.Context, in frame.Input) bool {
	return s.sess.submitFrame(in)
}

func (s *streamSession) submitFrame(in frame.Input) bool {
	in.Rotation = s.currentRotation()
	ok := s.sched.Submit(s.ctx, in)
	if !ok {
		s.server.store.IncrementDropped(context.Background(), s.conn.sessionID)
	}
	return ok
}

func (s *streamSession) currentRotation() frame.Rotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotation
}

func (s *streamSession) setRotation(rot frame.Rotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotation = rot
}

func (s *streamSession) readPump() {
	defer s.close()

	ws := s.conn.ws
	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.conn.logger.Error("read error", "error", err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.handleFrame(data)
		case websocket.TextMessage:
			s.handleControl(data)
		}
	}
}

func (s *streamSession) handleFrame(data []byte) {
	if s.format == FormatVP8 {
		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(data); err != nil {
			s.conn.logger.Debug("discarding malformed rtp packet", "error", err)
			return
		}
		s.capturer.HandleRTP(pkt, "video/VP8")
		return
	}

	s.submitFrame(frame.Input{Bytes: data})
}

func (s *streamSession) handleControl(data []byte) {
	var msg StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.conn.logger.Error("unmarshal error", "error", err)
		return
	}

	switch msg.Type {
	case StreamMessageConfigure:
		s.applyConfigure(msg.Payload)
	case StreamMessageStats:
		s.sendStats()
	}
}

func (s *streamSession) applyConfigure(payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	var p ConfigurePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		s.sendError("invalid_configure", "malformed configure payload")
		return
	}

	cfg := s.det.Config()
	if p.Mode != "" {
		cfg.Mode = detector.Mode(p.Mode)
	}
	if p.MaxPoses > 0 {
		cfg.MaxPoses = p.MaxPoses
	}
	if p.MinConfidence != nil {
		cfg.MinConfidence = *p.MinConfidence
	}
	if p.EstimateDepth != nil {
		cfg.EstimateDepth = *p.EstimateDepth
	}

	if err := s.det.UpdateConfig(s.ctx, cfg); err != nil {
		s.conn.logger.Error("reconfigure failed", "error", err)
		s.sendError(string(shared.KindOf(err)), "reconfigure failed")
		return
	}

	if p.Rotation != nil {
		rot := frame.Rotation(*p.Rotation)
		if rot.Valid() {
			s.setRotation(rot)
		}
	}

	s.conn.Send(&StreamMessage{
		Type:      StreamMessageConfigured,
		SessionID: s.conn.sessionID,
		Timestamp: time.Now(),
		Payload:   s.configSnapshot(),
	})
}

// configSnapshot reports the settings now in effect, in the same shape the
// client sent them.
func (s *streamSession) configSnapshot() ConfigurePayload {
	cfg := s.det.Config()
	minConfidence := cfg.MinConfidence
	estimateDepth := cfg.EstimateDepth
	rotation := int(s.currentRotation())
	return ConfigurePayload{
		Mode:          string(cfg.Mode),
		MaxPoses:      cfg.MaxPoses,
		MinConfidence: &minConfidence,
		EstimateDepth: &estimateDepth,
		Rotation:      &rotation,
	}
}

func (s *streamSession) handleResult(res *pose.Result) {
	s.conn.Send(&StreamMessage{
		Type:      StreamMessageResult,
		SessionID: s.conn.sessionID,
		Timestamp: time.Now(),
		Payload: ResultPayload{
			Values:      dto.FlattenResult(res),
			Model:       res.Model,
			InferenceMS: float64(res.InferenceTime.Microseconds()) / 1000,
		},
	})

	ctx := context.Background()
	s.server.store.StoreResult(ctx, s.conn.sessionID, res)
	s.server.store.IncrementFrames(ctx, s.conn.sessionID)
	s.server.publisher.PublishResult(s.conn.sessionID, res)
}

func (s *streamSession) handleError(err error) {
	s.server.store.IncrementErrors(context.Background(), s.conn.sessionID)
	s.sendError(string(shared.KindOf(err)), err.Error())
}

func (s *streamSession) sendError(code, message string) {
	s.conn.Send(&StreamMessage{
		Type:      StreamMessageError,
		SessionID: s.conn.sessionID,
		Timestamp: time.Now(),
		Payload:   ErrorPayload{Code: code, Message: message},
	})
}

func (s *streamSession) sendStats() {
	s.conn.Send(&StreamMessage{
		Type:      StreamMessageStats,
		SessionID: s.conn.sessionID,
		Timestamp: time.Now(),
		Payload:   s.sched.Stats(),
	})
}

func (s *streamSession) statsLoop() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.conn.done:
			return
		case <-ticker.C:
			s.sendStats()
		}
	}
}

func (s *streamSession) close() {
	s.cancel()
	if s.capturer != nil {
		s.capturer.Stop()
	}
	s.conn.Close()
	s.sched.Drain()
	s.det.Close()
	s.server.active.Add(-1)

	stats := s.sched.Stats()
	s.conn.logger.Info("stream session closed",
		"completed", stats.Completed, "dropped", stats.Dropped, "failed", stats.Failed)
}

type streamConn struct {
	ws        *websocket.Conn
	sessionID string
	logger    *slog.Logger
	send      chan *StreamMessage
	done      chan struct{}
	mu        sync.Mutex
	closed    bool
}

func newStreamConn(ws *websocket.Conn, sessionID string, logger *slog.Logger) *streamConn {
	return &streamConn{
		ws:        ws,
		sessionID: sessionID,
		logger:    logger.With("session_id", sessionID),
		send:      make(chan *StreamMessage, 256),
		done:      make(chan struct{}),
	}
}

// Send queues a message for the write pump. A full buffer drops the
// message rather than stalling the result path.
func (c *streamConn) Send(msg *StreamMessage) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		c.logger.Warn("send buffer full, dropping message")
	}
}

func (c *streamConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	return c.ws.Close()
}

func (c *streamConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))

			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("marshal error", "error", err)
				continue
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("write error", "error", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
