package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type ResultPayload struct {
	Values      map[string]float64 `json:"values"`
	Model       string             `json:"model"`
	InferenceMS float64            `json:"inference_ms"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: stream-client <frame.jpg> [more frames...]")
	}
	frames := os.Args[1:]

	serverURL := os.Getenv("SERVER_URL")
	if serverURL == "" {
		serverURL = "ws://localhost:8080/v1/stream/ws?format=jpeg"
	}

	header := http.Header{}
	if token := os.Getenv("API_TOKEN"); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	fmt.Printf("[STREAM] Connecting to %s\n", serverURL)
	conn, resp, err := websocket.DefaultDialer.Dial(serverURL, header)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			fmt.Printf("[STREAM] Dial failed: status=%d body=%s\n", resp.StatusCode, string(body))
		}
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	fmt.Println("[STREAM] Connected")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("[STREAM] Shutting down...")
		conn.Close()
		os.Exit(0)
	}()

	done := make(chan struct{})
	go readLoop(conn, done)

	if mode := os.Getenv("MODE"); mode != "" {
		sendConfigure(conn, mode)
	}

	for i, path := range frames {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("[STREAM] Skipping %s: %v\n", path, err)
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			log.Fatal("write frame:", err)
		}
		fmt.Printf("[STREAM] Sent frame %d/%d (%s, %d bytes)\n", i+1, len(frames), path, len(data))
		time.Sleep(100 * time.Millisecond)
	}

	if err := conn.WriteJSON(Message{Type: "stats"}); err != nil {
		log.Fatal("request stats:", err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		fmt.Println("[STREAM] Timed out waiting for stats")
	}
}

// readLoop prints everything the server pushes and exits once the final
// stats reply lands.
func readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			fmt.Printf("[STREAM] Unmarshal error: %v\n", err)
			continue
		}

		switch msg.Type {
		case "result":
			var res ResultPayload
			if err := json.Unmarshal(msg.Payload, &res); err != nil {
				fmt.Printf("[STREAM] Bad result payload: %v\n", err)
				continue
			}
			fmt.Printf("[STREAM] Result: model=%s inference=%.1fms poses=%.0f score=%.2f\n",
				res.Model, res.InferenceMS, res.Values["count"], res.Values["pose_0_score"])
		case "error":
			var ep ErrorPayload
			if err := json.Unmarshal(msg.Payload, &ep); err != nil {
				continue
			}
			fmt.Printf("[STREAM] Error: %s (%s)\n", ep.Message, ep.Code)
		case "stats":
			fmt.Printf("[STREAM] Stats: %s\n", string(msg.Payload))
			return
		default:
			fmt.Printf("[STREAM] %s: %s\n", msg.Type, string(msg.Payload))
		}
	}
}

func sendConfigure(conn *websocket.Conn, mode string) {
	payload, _ := json.Marshal(map[string]any{"mode": mode})
	if err := conn.WriteJSON(Message{Type: "configure", Payload: payload}); err != nil {
		fmt.Printf("[STREAM] Configure error: %v\n", err)
		return
	}
	fmt.Printf("[STREAM] Requested mode %q\n", mode)
}
