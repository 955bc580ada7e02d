package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aescanero/smrepo/pkg/domain/submodel"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "smrepo:submodel:"

// SubmodelStore implements ports.SubmodelStore using Redis
type SubmodelStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSubmodelStore creates a new Redis submodel store
func NewSubmodelStore(client *redis.Client, logger *zap.Logger) *SubmodelStore {
	return &SubmodelStore{
		client: client,
		logger: logger,
	}
}

// Get retrieves a submodel by id
func (s *SubmodelStore) Get(ctx context.Context, id string) (*submodel.Submodel, error) {
	data, err := s.client.Get(ctx, getSubmodelKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", submodel.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get submodel: %w", err)
	}

	return submodel.Parse(data)
}

// GetAll returns all submodels ordered by id
func (s *SubmodelStore) GetAll(ctx context.Context) ([]*submodel.Submodel, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*submodel.Submodel, 0, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	sort.Strings(keys)

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get submodels: %w", err)
	}

	for i, v := range values {
		// Deleted between SCAN and MGET.
		if v == nil {
			continue
		}

		data, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected value type for key %s", keys[i])
		}

		sm, err := submodel.Parse([]byte(data))
		if err != nil {
			s.logger.Warn("skipping invalid stored submodel",
				zap.String("key", keys[i]),
				zap.Error(err))
			continue
		}
		result = append(result, sm)
	}

	return result, nil
}

// Create stores a new submodel. SETNX keeps creation atomic across replicas.
func (s *SubmodelStore) Create(ctx context.Context, sm *submodel.Submodel) error {
	created, err := s.client.SetNX(ctx, getSubmodelKey(sm.ID()), sm.Bytes(), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create submodel: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %s", submodel.ErrConflict, sm.ID())
	}

	s.logger.Debug("submodel created", zap.String("submodel_id", sm.ID()))
	return nil
}

// Update replaces an existing submodel
func (s *SubmodelStore) Update(ctx context.Context, id string, sm *submodel.Submodel) error {
	updated, err := s.client.SetXX(ctx, getSubmodelKey(id), sm.Bytes(), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update submodel: %w", err)
	}
	if !updated {
		return fmt.Errorf("%w: %s", submodel.ErrNotFound, id)
	}

	s.logger.Debug("submodel updated", zap.String("submodel_id", id))
	return nil
}

// Delete removes a submodel
func (s *SubmodelStore) Delete(ctx context.Context, id string) error {
	deleted, err := s.client.Del(ctx, getSubmodelKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete submodel: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", submodel.ErrNotFound, id)
	}

	s.logger.Debug("submodel deleted", zap.String("submodel_id", id))
	return nil
}

// Ping checks the Redis connection
func (s *SubmodelStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Count returns the number of submodel keys
func (s *SubmodelStore) Count(ctx context.Context) (int, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Close is a no-op; the Redis client is owned by the caller
func (s *SubmodelStore) Close() error {
	return nil
}

func (s *SubmodelStore) scanKeys(ctx context.Context) ([]string, error) {
	var cursor uint64
	var keys []string
	seen := make(map[string]struct{})

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		// SCAN may return a key more than once.
		for _, key := range batch {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}

		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// getSubmodelKey returns the Redis key for a submodel
func getSubmodelKey(id string) string {
	return keyPrefix + id
}
