// Package userstore keeps user records: an opaque id, the profile body
// sent at signup and the password hash.
//
// Backends only guarantee that a single record exists per id, callers
// that need "create if absent" semantics are expected to perform a lookup
// first and handle Duplicate when two creations race.
package userstore

import (
	"context"
	"encoding/json"
)

type (
	Record struct {
		ID           string          `json:"id"`
		Profile      json.RawMessage `json:"body"`
		PasswordHash string          `json:"password"`
	}

	Store interface {
		Create(ctx context.Context, rec Record) (Record, error)
		Find(ctx context.Context, id string) (Record, error)
		Delete(ctx context.Context, id string) error
		Close() error
	}
)
