package repository

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common repository errors that can be checked with errors.Is()
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint
	ErrDuplicate = errors.New("entity already exists")
)

// DuplicateKeyError reports which unique field a write collided on.
// It matches ErrDuplicate with errors.Is.
type DuplicateKeyError struct {
	Field string
	Value any
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %s", e.KeyValue())
}

// Is lets errors.Is(err, ErrDuplicate) match
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicate
}

// KeyValue renders the collision as a JSON object, e.g. {"no":25}
func (e *DuplicateKeyError) KeyValue() string {
	b, err := json.Marshal(map[string]any{e.Field: e.Value})
	if err != nil {
		return fmt.Sprintf("{%q:%v}", e.Field, e.Value)
	}
	return string(b)
}
