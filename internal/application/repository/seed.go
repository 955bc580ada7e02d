package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aescanero/smrepo/pkg/domain/submodel"
	"go.uber.org/zap"
)

// SeedFile loads preconfigured submodels from a JSON file. See Seed.
func (m *Manager) SeedFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return m.Seed(ctx, f)
}

// Seed stores every submodel of a JSON array read from r. Submodels whose id
// already exists are left untouched. It returns the number created.
func (m *Manager) Seed(ctx context.Context, r io.Reader) (int, error) {
	var docs []json.RawMessage
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return 0, fmt.Errorf("failed to decode seed submodels: %w", err)
	}

	parsed := make([]*submodel.Submodel, 0, len(docs))
	for i, doc := range docs {
		sm, err := submodel.Parse(doc)
		if err != nil {
			return 0, fmt.Errorf("invalid seed submodel at index %d: %w", i, err)
		}
		parsed = append(parsed, sm)
	}

	created := 0
	for _, sm := range parsed {
		unlock := m.locks.Lock(sm.ID())
		err := m.store.Create(ctx, sm)
		unlock()

		switch {
		case err == nil:
			created++
		case errors.Is(err, submodel.ErrConflict):
			m.logger.Debug("seed submodel already present", zap.String("submodel_id", sm.ID()))
		default:
			return created, fmt.Errorf("failed to seed submodel %s: %w", sm.ID(), err)
		}
	}

	m.logger.Info("seeded submodels",
		zap.Int("created", created),
		zap.Int("total", len(parsed)))

	return created, nil
}
