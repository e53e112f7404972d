package stream

import (
	"sync"
	"time"
)

const fpsWindow = 30

// fpsMeter keeps a rolling window of completion timestamps. The rate is
// spans-per-elapsed: (n-1) / (t_last - t_first), zero until two samples
// exist.
type fpsMeter struct {
	mu      sync.Mutex
	samples []time.Time
}

func newFPSMeter() *fpsMeter {
	return &fpsMeter{samples: make([]time.Time, 0, fpsWindow)}
}

func (m *fpsMeter) record(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.samples) == fpsWindow {
		copy(m.samples, m.samples[1:])
		m.samples = m.samples[:fpsWindow-1]
	}
	m.samples = append(m.samples, t)
}

func (m *fpsMeter) fps() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.samples)
	if n < 2 {
		return 0
	}
	elapsed := m.samples[n-1].Sub(m.samples[0]).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(n-1) / elapsed
}

func (m *fpsMeter) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = m.samples[:0]
}
