package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/motionlab-ai/pose-backend/internal/pose"
)

// Publisher pushes pose results to an MQTT broker so overlays and recorders
// can subscribe without touching the HTTP surface. A Publisher with no
// broker configured is inert.
type Publisher struct {
	broker   string
	clientID string
	logger   *slog.Logger

	mu        sync.RWMutex
	client    mqtt.Client
	connected bool

	published atomic.Uint64
	dropped   atomic.Uint64
	errors    atomic.Uint64
}

type Config struct {
	Broker   string
	ClientID string
}

type Stats struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
	Errors    uint64 `json:"errors"`
}

func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	if cfg.ClientID == "" {
		cfg.ClientID = "pose-backend"
	}
	return &Publisher{
		broker:   cfg.Broker,
		clientID: cfg.ClientID,
		logger:   logger.With("component", "mqtt-publisher"),
	}
}

func (p *Publisher) Enabled() bool {
	return p.broker != ""
}

func (p *Publisher) Connect() error {
	if !p.Enabled() {
		return nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.broker)
	opts.SetClientID(p.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		p.mu.Lock()
		p.connected = true
		p.mu.Unlock()
		p.logger.Info("mqtt connected", "broker", p.broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		p.mu.Lock()
		p.connected = false
		p.mu.Unlock()
		p.logger.Warn("mqtt connection lost", "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	p.mu.Lock()
	p.client = client
	p.connected = true
	p.mu.Unlock()
	return nil
}

// PublishResult fires a result at pose/<session>/result with QoS 0 and does
// not wait for the broker. Results are disposable: while disconnected they
// are dropped, not queued.
func (p *Publisher) PublishResult(sessionID string, result *pose.Result) error {
	client, ok := p.currentClient()
	if !ok {
		if p.Enabled() {
			p.dropped.Add(1)
		}
		return nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		p.errors.Add(1)
		return fmt.Errorf("marshal result: %w", err)
	}

	topic := fmt.Sprintf("pose/%s/result", sessionID)
	token := client.Publish(topic, 0, false, payload)
	go func() {
		if token.WaitTimeout(2*time.Second) && token.Error() == nil {
			p.published.Add(1)
			return
		}
		p.errors.Add(1)
	}()
	return nil
}

func (p *Publisher) Disconnect() {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.connected = false
	p.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(250)
		p.logger.Info("mqtt disconnected")
	}
}

func (p *Publisher) Stats() Stats {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()

	return Stats{
		Enabled:   p.Enabled(),
		Connected: connected,
		Published: p.published.Load(),
		Dropped:   p.dropped.Load(),
		Errors:    p.errors.Load(),
	}
}

func (p *Publisher) currentClient() (mqtt.Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil || !p.connected {
		return nil, false
	}
	return p.client, true
}
