package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aescanero/smrepo/pkg/domain/submodel"
)

// SubmodelStore implements ports.SubmodelStore using SQLite.
type SubmodelStore struct {
	db *DB
}

// NewSubmodelStore creates a new SQLite submodel store.
func NewSubmodelStore(db *DB) *SubmodelStore {
	return &SubmodelStore{db: db}
}

// Get retrieves a submodel by id.
func (s *SubmodelStore) Get(ctx context.Context, id string) (*submodel.Submodel, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM submodels WHERE id = ?`, id,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", submodel.ErrNotFound, id)
		}
		return nil, fmt.Errorf("query submodel: %w", err)
	}

	return submodel.Parse([]byte(document))
}

// GetAll returns all submodels ordered by id.
func (s *SubmodelStore) GetAll(ctx context.Context) ([]*submodel.Submodel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, document FROM submodels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query submodels: %w", err)
	}
	defer rows.Close()

	result := make([]*submodel.Submodel, 0)
	for rows.Next() {
		var id, document string
		if err := rows.Scan(&id, &document); err != nil {
			return nil, fmt.Errorf("scan submodel: %w", err)
		}
		sm, err := submodel.Parse([]byte(document))
		if err != nil {
			return nil, fmt.Errorf("invalid stored submodel %s: %w", id, err)
		}
		result = append(result, sm)
	}

	return result, rows.Err()
}

// Create stores a new submodel.
func (s *SubmodelStore) Create(ctx context.Context, sm *submodel.Submodel) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO submodels (id, document) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		sm.ID(), string(sm.Bytes()),
	)
	if err != nil {
		return fmt.Errorf("insert submodel: %w", err)
	}

	return checkAffected(res, fmt.Errorf("%w: %s", submodel.ErrConflict, sm.ID()))
}

// Update replaces an existing submodel.
func (s *SubmodelStore) Update(ctx context.Context, id string, sm *submodel.Submodel) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submodels SET document = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(sm.Bytes()), id,
	)
	if err != nil {
		return fmt.Errorf("update submodel: %w", err)
	}

	return checkAffected(res, fmt.Errorf("%w: %s", submodel.ErrNotFound, id))
}

// Delete removes a submodel.
func (s *SubmodelStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submodels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete submodel: %w", err)
	}

	return checkAffected(res, fmt.Errorf("%w: %s", submodel.ErrNotFound, id))
}

// Count returns the number of stored submodels.
func (s *SubmodelStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submodels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submodels: %w", err)
	}
	return n, nil
}

// Ping checks database connectivity.
func (s *SubmodelStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SubmodelStore) Close() error {
	return s.db.Close()
}

func checkAffected(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}
