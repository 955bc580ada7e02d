package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/smrepo/pkg/domain/submodel"
	"github.com/aescanero/smrepo/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names used for metrics and logs
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Manager serves submodel repository operations
type Manager struct {
	store    ports.SubmodelStore
	eventBus ports.EventBus
	metrics  ports.MetricsCollector
	logger   *zap.Logger

	locks *keyedMutex
	now   func() time.Time
}

// NewManager creates a new repository manager
func NewManager(
	store ports.SubmodelStore,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		store:    store,
		eventBus: eventBus,
		metrics:  metrics,
		logger:   logger,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// List returns all submodels in id order
func (m *Manager) List(ctx context.Context) (result []*submodel.Submodel, err error) {
	defer m.observe(OpList, m.now(), &err)

	result, err = m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submodels: %w", err)
	}

	m.metrics.SetSubmodelCount(len(result))
	return result, nil
}

// Get returns the submodel with the given id projected to content
func (m *Manager) Get(ctx context.Context, id string, content submodel.Content) (doc json.RawMessage, err error) {
	defer m.observe(OpGet, m.now(), &err)

	sm, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return submodel.Project(sm, content)
}

// Create stores a new submodel and returns it
func (m *Manager) Create(ctx context.Context, sm *submodel.Submodel) (created *submodel.Submodel, err error) {
	defer m.observe(OpCreate, m.now(), &err)

	unlock := m.locks.Lock(sm.ID())
	defer unlock()

	if err := m.store.Create(ctx, sm); err != nil {
		return nil, err
	}

	m.logger.Info("submodel created", zap.String("submodel_id", sm.ID()))
	m.publish(ctx, ports.EventTypeSubmodelCreated, sm.ID())

	return sm, nil
}

// Update replaces the submodel stored under id.
// A missing id is reported before the document id is compared with it.
func (m *Manager) Update(ctx context.Context, id string, sm *submodel.Submodel) (err error) {
	defer m.observe(OpUpdate, m.now(), &err)

	unlock := m.locks.Lock(id)
	defer unlock()

	if _, err := m.store.Get(ctx, id); err != nil {
		return err
	}

	if sm.ID() != id {
		return fmt.Errorf("%w: body id %q does not match path id %q", submodel.ErrBadRequest, sm.ID(), id)
	}

	if err := m.store.Update(ctx, id, sm); err != nil {
		return err
	}

	m.logger.Info("submodel updated", zap.String("submodel_id", id))
	m.publish(ctx, ports.EventTypeSubmodelUpdated, id)

	return nil
}

// Delete removes the submodel stored under id
func (m *Manager) Delete(ctx context.Context, id string) (err error) {
	defer m.observe(OpDelete, m.now(), &err)

	unlock := m.locks.Lock(id)
	defer unlock()

	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}

	m.logger.Info("submodel deleted", zap.String("submodel_id", id))
	m.publish(ctx, ports.EventTypeSubmodelDeleted, id)

	return nil
}

// publish emits a lifecycle event. Failures are logged, not returned:
// the store change has already happened.
func (m *Manager) publish(ctx context.Context, eventType ports.EventType, id string) {
	event := ports.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		SubmodelID: id,
		Timestamp:  m.now().UTC(),
		Data: map[string]interface{}{
			"encoded_id": submodel.EncodeID(id),
		},
	}

	err := m.eventBus.Publish(ctx, ports.TopicSubmodels, event)
	m.metrics.RecordEventPublished(string(eventType), err == nil)
	if err != nil {
		m.logger.Error("failed to publish submodel event",
			zap.String("submodel_id", id),
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}

func (m *Manager) observe(op string, start time.Time, errp *error) {
	m.metrics.RecordOperation(op, StatusOf(*errp), m.now().Sub(start))
}

// StatusOf maps an operation error to its metrics status label
func StatusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, submodel.ErrNotFound):
		return "not_found"
	case errors.Is(err, submodel.ErrConflict):
		return "conflict"
	case errors.Is(err, submodel.ErrBadRequest):
		return "bad_request"
	default:
		return "error"
	}
}
