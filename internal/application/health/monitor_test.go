package health

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aescanero/smrepo/pkg/adapters/storage/memory"
	"github.com/aescanero/smrepo/pkg/domain/submodel"
	"github.com/aescanero/smrepo/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakyStore struct {
	ports.SubmodelStore
	down     atomic.Bool
	listings atomic.Int32
}

func (f *flakyStore) GetAll(ctx context.Context) ([]*submodel.Submodel, error) {
	f.listings.Add(1)
	return f.SubmodelStore.GetAll(ctx)
}

func (f *flakyStore) Ping(ctx context.Context) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return f.SubmodelStore.Ping(ctx)
}

type gaugeMetrics struct {
	mu      sync.Mutex
	count   int
	storeUp map[string]bool
}

func (g *gaugeMetrics) RecordOperation(string, string, time.Duration) {}
func (g *gaugeMetrics) RecordEventPublished(string, bool)             {}

func (g *gaugeMetrics) SetSubmodelCount(count int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count = count
}

func (g *gaugeMetrics) SetStoreUp(backend string, up bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.storeUp == nil {
		g.storeUp = make(map[string]bool)
	}
	g.storeUp[backend] = up
}

func newStore(t *testing.T) *flakyStore {
	t.Helper()
	inner := memory.NewInMemorySubmodelStore()
	require.NoError(t, inner.Create(context.Background(), submodel.MustParse(`{"id":"a"}`)))
	require.NoError(t, inner.Create(context.Background(), submodel.MustParse(`{"id":"b"}`)))
	return &flakyStore{SubmodelStore: inner}
}

func TestCheckHealthy(t *testing.T) {
	metrics := &gaugeMetrics{}
	m := NewMonitor(newStore(t), metrics, "memory", time.Minute, zap.NewNop())

	status := m.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, 2, status.Submodels)
	assert.Equal(t, "memory", status.Backend)
	assert.Equal(t, 2, metrics.count)
	assert.True(t, metrics.storeUp["memory"])
	assert.True(t, m.IsHealthy())
}

func TestCheckCountsWithoutListing(t *testing.T) {
	store := newStore(t)
	m := NewMonitor(store, &gaugeMetrics{}, "memory", time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		assert.Equal(t, 2, m.Check(context.Background()).Submodels)
	}
	assert.Equal(t, int32(0), store.listings.Load())
}

func TestCheckUnhealthy(t *testing.T) {
	store := newStore(t)
	store.down.Store(true)
	metrics := &gaugeMetrics{}
	m := NewMonitor(store, metrics, "redis", time.Minute, zap.NewNop())

	status := m.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "connection refused", status.Error)
	assert.False(t, metrics.storeUp["redis"])
	assert.False(t, m.IsHealthy())
}

func TestOnChangeFiresOnTransitions(t *testing.T) {
	store := newStore(t)
	m := NewMonitor(store, &gaugeMetrics{}, "memory", time.Minute, zap.NewNop())

	var transitions []bool
	m.OnChange(func(s Status) { transitions = append(transitions, s.Healthy) })

	m.Check(context.Background())
	m.Check(context.Background())
	store.down.Store(true)
	m.Check(context.Background())
	store.down.Store(false)
	m.Check(context.Background())

	assert.Equal(t, []bool{true, false, true}, transitions)
}

func TestStartStop(t *testing.T) {
	store := newStore(t)
	m := NewMonitor(store, &gaugeMetrics{}, "memory", 10*time.Millisecond, zap.NewNop())

	m.Start()
	m.Start()
	assert.True(t, m.IsHealthy())

	store.down.Store(true)
	assert.Eventually(t, func() bool { return !m.IsHealthy() }, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop()
}
