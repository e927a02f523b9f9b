package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/finanzas-dev/finanzas/internal/model"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when a grouped write finds a document at a
	// different version than the one it was read at, or creates a document
	// that already exists. The write is rejected as a whole.
	ErrConflict = errors.New("document changed concurrently")

	// ErrUnavailable marks transient backend failures (timeouts, locked
	// database). Callers may retry; the store never does.
	ErrUnavailable = errors.New("store unavailable")
)

// IsRetryable reports whether err is a transient store failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// OpKind is the kind of a grouped write operation.
type OpKind int

const (
	OpCreate OpKind = iota + 1
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Op is one operation of a grouped write. Update and delete carry the
// version the document was read at.
type Op struct {
	Kind OpKind
	Doc  model.Document
}

// Create returns an op that inserts doc; it fails if the ID is taken.
func Create(doc model.Document) Op { return Op{Kind: OpCreate, Doc: doc} }

// Update returns an op that replaces doc if it is still at doc.DocVersion().
func Update(doc model.Document) Op { return Op{Kind: OpUpdate, Doc: doc} }

// Delete returns an op that removes doc if it is still at doc.DocVersion().
func Delete(doc model.Document) Op { return Op{Kind: OpDelete, Doc: doc} }

// Record is an encoded document as held by a backend.
type Record struct {
	Collection model.Collection
	ID         string
	Version    int64
	Body       []byte
}

// Mutation is an encoded Op handed to a backend.
type Mutation struct {
	Kind       OpKind
	Collection model.Collection
	ID         string
	Version    int64 // expected current version; 0 skips the check on delete
	Body       []byte
}

// Backend persists encoded documents per user. Apply must apply all
// mutations or none.
type Backend interface {
	Get(ctx context.Context, userID string, coll model.Collection, id string) (Record, error)
	List(ctx context.Context, userID string, coll model.Collection) ([]Record, error)
	Apply(ctx context.Context, userID string, muts []Mutation) error
	Close() error
}

// transient wraps context deadline errors as ErrUnavailable.
func transient(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
