// Package records defines the record store gateway used by the rest of the
// application. Every operation is scoped by the user id supplied by the
// identity gateway.
package records

import (
	"context"
	"errors"

	"registros/internal/core"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrEmptyUser = errors.New("empty user id")
)

// Ports for outbound adapters.
type (
	// Creator stores a new record and returns the id assigned to it.
	// The incoming ID is ignored; a zero CreatedAt is stamped by the store.
	Creator interface {
		Create(ctx context.Context, userID string, r core.Record) (id string, err error)
	}

	// Deleter removes a record. Unknown ids yield ErrNotFound.
	Deleter interface {
		Delete(ctx context.Context, userID, id string) error
	}

	// Lister returns the full record set of a user, in no particular order.
	Lister interface {
		List(ctx context.Context, userID string) ([]core.Record, error)
	}

	Gateway interface {
		Creator
		Deleter
		Lister
	}

	// Pinger is implemented by stores that can report their availability.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
