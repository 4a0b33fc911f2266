// Package storage holds the ports.Storage backends: JSON files, SQLite and memory.
package storage

import (
	"errors"
	"fmt"

	"svw.info/numbermaster/internal/ports"
)

var (
	ErrNotFound  = ports.ErrNotFound
	ErrInvalidID = errors.New("invalid session id")
)

const maxIDLen = 64

// checkID keeps ids safe to use as file names and keys.
func checkID(id string) error {
	if id == "" || len(id) > maxIDLen {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
	}
	return nil
}
