package health

import (
	"context"
	"sync"
	"time"

	"github.com/aescanero/smrepo/pkg/ports"
	"go.uber.org/zap"
)

// Status is the result of the last store health check
type Status struct {
	Backend   string    `json:"backend"`
	Healthy   bool      `json:"healthy"`
	Submodels int       `json:"submodels"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Monitor periodically checks store health
type Monitor struct {
	store    ports.SubmodelStore
	metrics  ports.MetricsCollector
	backend  string
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu       sync.RWMutex
	status   Status
	running  bool
	stopCh   chan struct{}
	done     chan struct{}
	onChange []func(Status)
}

// NewMonitor creates a new store health monitor
func NewMonitor(store ports.SubmodelStore, metrics ports.MetricsCollector, backend string, interval time.Duration, logger *zap.Logger) *Monitor {
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}

	return &Monitor{
		store:    store,
		metrics:  metrics,
		backend:  backend,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		status:   Status{Backend: backend},
	}
}

// OnChange registers fn to be called whenever health flips
func (m *Monitor) OnChange(fn func(Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Start runs an immediate check and then checks on every interval
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	m.mu.Unlock()

	m.Check(context.Background())
	go m.run()
}

// Stop stops the monitor and waits for the loop to exit
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.done
	m.mu.Unlock()

	<-done
}

func (m *Monitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.Check(context.Background())
		}
	}
}

// Check pings the store once and records the result
func (m *Monitor) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status := Status{Backend: m.backend, CheckedAt: time.Now().UTC()}

	if err := m.store.Ping(ctx); err != nil {
		status.Error = err.Error()
	} else if count, err := m.store.Count(ctx); err != nil {
		status.Error = err.Error()
	} else {
		status.Healthy = true
		status.Submodels = count
		m.metrics.SetSubmodelCount(count)
	}

	m.metrics.SetStoreUp(m.backend, status.Healthy)

	m.mu.Lock()
	changed := m.status.CheckedAt.IsZero() || m.status.Healthy != status.Healthy
	m.status = status
	callbacks := append([]func(Status){}, m.onChange...)
	m.mu.Unlock()

	if !status.Healthy {
		m.logger.Warn("submodel store is unhealthy",
			zap.String("backend", m.backend),
			zap.String("error", status.Error))
	} else {
		m.logger.Debug("submodel store health check",
			zap.String("backend", m.backend),
			zap.Int("submodels", status.Submodels))
	}

	if changed {
		for _, fn := range callbacks {
			fn(status)
		}
	}

	return status
}

// Status returns the last recorded status
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsHealthy returns true if the last check succeeded
func (m *Monitor) IsHealthy() bool {
	return m.Status().Healthy
}
