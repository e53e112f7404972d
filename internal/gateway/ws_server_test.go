package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/motionlab-ai/pose-backend/internal/detector"
	"github.com/motionlab-ai/pose-backend/internal/frame"
	"github.com/motionlab-ai/pose-backend/internal/publish"
	"github.com/motionlab-ai/pose-backend/internal/shared"
	"github.com/motionlab-ai/pose-backend/internal/stream"
)

func newTestStreamServer(det *stubStreamDetector) *StreamServer {
	store := stream.NewStore(nil)
	publisher := publish.NewPublisher(publish.Config{}, testLogger())
	return NewStreamServer(stubFactory(det), store, publisher, testLogger())
}

func dialTestStream(t *testing.T, srv *StreamServer, query string) *websocket.Conn {
	t.Helper()
	e := echo.New()
	e.GET("/v1/stream/ws", srv.HandleConnection)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+ts.URL[4:]+"/v1/stream/ws"+query, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// readStreamMessage skips messages of other types so tests do not depend on
// the interleaving of results and periodic pushes.
func readStreamMessage(t *testing.T, ws *websocket.Conn, want StreamMessageType) StreamMessage {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg StreamMessage
		if err := ws.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s message: %v", want, err)
		}
		if msg.Type == want {
			return msg
		}
	}
}

func decodePayload(t *testing.T, payload any, out any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
}

func TestStreamServer_RejectsUnknownFormat(t *testing.T) {
	srv := newTestStreamServer(&stubStreamDetector{})
	e := echo.New()
	e.GET("/v1/stream/ws", srv.HandleConnection)
	ts := httptest.NewServer(e)
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+ts.URL[4:]+"/v1/stream/ws?format=h264", nil)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil {
		t.Fatal("expected an http response")
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestStreamSession_FrameProducesResult(t *testing.T) {
	det := &stubStreamDetector{result: cannedResult()}
	ws := dialTestStream(t, newTestStreamServer(det), "")

	if err := ws.WriteMessage(websocket.BinaryMessage, []byte("jpeg frame")); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	msg := readStreamMessage(t, ws, StreamMessageResult)
	if msg.SessionID == "" {
		t.Error("result should carry the session id")
	}

	var rp ResultPayload
	decodePayload(t, msg.Payload, &rp)
	if rp.Model != "movenet-lightning" {
		t.Errorf("model = %q, want movenet-lightning", rp.Model)
	}
	if rp.InferenceMS != 42 {
		t.Errorf("inference_ms = %v, want 42", rp.InferenceMS)
	}
	if rp.Values["count"] != 1 {
		t.Errorf("count = %v, want 1", rp.Values["count"])
	}
	if rp.Values["width"] != 640 || rp.Values["height"] != 480 {
		t.Errorf("dimensions = %vx%v, want 640x480", rp.Values["width"], rp.Values["height"])
	}
	if rp.Values["pose_0_score"] != 0.9 {
		t.Errorf("pose_0_score = %v, want 0.9", rp.Values["pose_0_score"])
	}
}

func TestStreamSession_Configure(t *testing.T) {
	det := &stubStreamDetector{result: cannedResult()}
	ws := dialTestStream(t, newTestStreamServer(det), "")

	req := `{"type":"configure","payload":{"mode":"accuracy","max_poses":3,"rotation":180}}`
	if err := ws.WriteMessage(websocket.TextMessage, []byte(req)); err != nil {
		t.Fatalf("write configure: %v", err)
	}

	msg := readStreamMessage(t, ws, StreamMessageConfigured)
	var p ConfigurePayload
	decodePayload(t, msg.Payload, &p)
	if p.Mode != "accuracy" {
		t.Errorf("mode = %q, want accuracy", p.Mode)
	}
	if p.MaxPoses != 3 {
		t.Errorf("max_poses = %d, want 3", p.MaxPoses)
	}
	if p.Rotation == nil || *p.Rotation != 180 {
		t.Errorf("rotation = %v, want 180", p.Rotation)
	}

	cfg := det.Config()
	if cfg.Mode != detector.ModeAccuracy {
		t.Errorf("detector mode = %q, want accuracy", cfg.Mode)
	}
	if cfg.MaxPoses != 3 {
		t.Errorf("detector max poses = %d, want 3", cfg.MaxPoses)
	}

	if err := ws.WriteMessage(websocket.BinaryMessage, []byte("frame")); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	readStreamMessage(t, ws, StreamMessageResult)

	in, ok := det.lastInput()
	if !ok {
		t.Fatal("detector never received a frame")
	}
	if in.Rotation != frame.Rotate180 {
		t.Errorf("frame rotation = %d, want 180", in.Rotation)
	}
}

func TestStreamSession_StatsOnRequest(t *testing.T) {
	det := &stubStreamDetector{result: cannedResult()}
	ws := dialTestStream(t, newTestStreamServer(det), "")

	if err := ws.WriteMessage(websocket.BinaryMessage, []byte("frame")); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	readStreamMessage(t, ws, StreamMessageResult)

	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"stats"}`)); err != nil {
		t.Fatalf("write stats request: %v", err)
	}

	msg := readStreamMessage(t, ws, StreamMessageStats)
	var st stream.Stats
	decodePayload(t, msg.Payload, &st)
	if st.Submitted < 1 {
		t.Errorf("submitted = %d, want at least 1", st.Submitted)
	}
	if st.Completed < 1 {
		t.Errorf("completed = %d, want at least 1", st.Completed)
	}
}

func TestStreamSession_DetectorError(t *testing.T) {
	det := &stubStreamDetector{detectErr: shared.InvalidFrame("unsupported image encoding")}
	ws := dialTestStream(t, newTestStreamServer(det), "")

	if err := ws.WriteMessage(websocket.BinaryMessage, []byte("bad frame")); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	msg := readStreamMessage(t, ws, StreamMessageError)
	var ep ErrorPayload
	decodePayload(t, msg.Payload, &ep)
	if ep.Code != string(shared.KindInvalidFrame) {
		t.Errorf("error code = %q, want %q", ep.Code, shared.KindInvalidFrame)
	}
	if ep.Message == "" {
		t.Error("error message should not be empty")
	}
}

func TestStreamSession_VP8DiscardsMalformedPackets(t *testing.T) {
	det := &stubStreamDetector{}
	ws := dialTestStream(t, newTestStreamServer(det), "?format=vp8")

	// Too short to be an RTP packet; the session must survive it.
	if err := ws.WriteMessage(websocket.BinaryMessage, []byte{0x01}); err != nil {
		t.Fatalf("write packet: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"stats"}`)); err != nil {
		t.Fatalf("write stats request: %v", err)
	}

	msg := readStreamMessage(t, ws, StreamMessageStats)
	var st stream.Stats
	decodePayload(t, msg.Payload, &st)
	if st.Submitted != 0 {
		t.Errorf("malformed packet should not reach the scheduler, got %d submissions", st.Submitted)
	}
}

func TestStreamSession_CloseReleasesDetector(t *testing.T) {
	det := &stubStreamDetector{result: cannedResult()}
	ws := dialTestStream(t, newTestStreamServer(det), "")

	ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if det.closed.Load() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("detector was not closed when the connection ended")
}
