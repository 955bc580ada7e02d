// Package ports defines the interfaces between the repository service and
// its adapters (storage, events, metrics).
package ports

import (
	"context"
	"time"

	"github.com/aescanero/smrepo/pkg/domain/submodel"
)

// SubmodelStore persists submodel documents keyed by their raw id.
//
// Implementations return submodel.ErrNotFound from Get, Update and Delete
// when the id is absent, and submodel.ErrConflict from Create when it is
// already present. Create and Update must be atomic per id.
type SubmodelStore interface {
	// Get returns the submodel with the given id.
	Get(ctx context.Context, id string) (*submodel.Submodel, error)

	// GetAll returns every stored submodel ordered by id.
	GetAll(ctx context.Context) ([]*submodel.Submodel, error)

	// Count returns the number of stored submodels without decoding them.
	Count(ctx context.Context) (int, error)

	// Create stores a new submodel.
	Create(ctx context.Context, sm *submodel.Submodel) error

	// Update replaces the submodel stored under id.
	Update(ctx context.Context, id string, sm *submodel.Submodel) error

	// Delete removes the submodel stored under id.
	Delete(ctx context.Context, id string) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// EventType identifies a submodel lifecycle event.
type EventType string

const (
	EventTypeSubmodelCreated EventType = "submodel.created"
	EventTypeSubmodelUpdated EventType = "submodel.updated"
	EventTypeSubmodelDeleted EventType = "submodel.deleted"
)

// TopicSubmodels is the event bus topic carrying submodel lifecycle events.
const TopicSubmodels = "submodel.events"

// Event is a message published on the event bus.
type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	SubmodelID string                 `json:"submodel_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// EventHandler processes an event delivered by a subscription.
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes and delivers events by topic.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}

// MetricsCollector records repository metrics.
type MetricsCollector interface {
	// RecordOperation records one repository operation and its outcome.
	RecordOperation(operation, status string, duration time.Duration)

	// SetSubmodelCount sets the number of stored submodels.
	SetSubmodelCount(count int)

	// RecordEventPublished counts a published event by type and outcome.
	RecordEventPublished(eventType string, ok bool)

	// SetStoreUp records the outcome of the last store health check.
	SetStoreUp(backend string, up bool)
}
