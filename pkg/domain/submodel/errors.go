package submodel

import "errors"

var (
	// ErrNotFound is returned when no submodel exists for the requested id.
	ErrNotFound = errors.New("submodel not found")

	// ErrConflict is returned when creating a submodel whose id already exists.
	ErrConflict = errors.New("submodel already exists")

	// ErrBadRequest is returned for malformed ids, documents or content variants.
	ErrBadRequest = errors.New("bad request")
)
