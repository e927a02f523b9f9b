package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/finanzas-dev/finanzas/internal/model"
)

type docKey struct {
	user string
	coll model.Collection
	id   string
}

// MemoryBackend keeps documents in process memory. It is used by tests and
// by the CLI's --store memory mode.
type MemoryBackend struct {
	mu       sync.RWMutex
	docs     map[docKey]Record
	failNext error
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[docKey]Record)}
}

// FailNext makes the next Apply fail with err without applying anything.
func (m *MemoryBackend) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Get returns a copy of one record.
func (m *MemoryBackend) Get(ctx context.Context, userID string, coll model.Collection, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, transient(err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.docs[docKey{userID, coll, id}]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// List returns copies of all records of a collection ordered by ID.
func (m *MemoryBackend) List(ctx context.Context, userID string, coll model.Collection) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, transient(err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for k, rec := range m.docs {
		if k.user == userID && k.coll == coll {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Apply checks every mutation against a staged view and commits only if
// all of them pass.
func (m *MemoryBackend) Apply(ctx context.Context, userID string, muts []Mutation) error {
	if err := ctx.Err(); err != nil {
		return transient(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}

	staged := make(map[docKey]*Record)
	lookup := func(k docKey) (Record, bool) {
		if s, ok := staged[k]; ok {
			if s == nil {
				return Record{}, false
			}
			return *s, true
		}
		rec, ok := m.docs[k]
		return rec, ok
	}

	for i, mut := range muts {
		k := docKey{userID, mut.Collection, mut.ID}
		cur, exists := lookup(k)
		switch mut.Kind {
		case OpCreate:
			if exists {
				return fmt.Errorf("mutation %d: create %s %s: %w", i, mut.Collection, mut.ID, ErrConflict)
			}
			staged[k] = &Record{Collection: mut.Collection, ID: mut.ID, Version: 1, Body: mut.Body}
		case OpUpdate:
			if !exists {
				return fmt.Errorf("mutation %d: update %s %s: %w", i, mut.Collection, mut.ID, ErrNotFound)
			}
			if cur.Version != mut.Version {
				return fmt.Errorf("mutation %d: update %s %s at version %d, stored %d: %w", i, mut.Collection, mut.ID, mut.Version, cur.Version, ErrConflict)
			}
			staged[k] = &Record{Collection: mut.Collection, ID: mut.ID, Version: cur.Version + 1, Body: mut.Body}
		case OpDelete:
			if !exists {
				return fmt.Errorf("mutation %d: delete %s %s: %w", i, mut.Collection, mut.ID, ErrNotFound)
			}
			if mut.Version != 0 && cur.Version != mut.Version {
				return fmt.Errorf("mutation %d: delete %s %s at version %d, stored %d: %w", i, mut.Collection, mut.ID, mut.Version, cur.Version, ErrConflict)
			}
			staged[k] = nil
		default:
			return fmt.Errorf("mutation %d: unknown kind %s", i, mut.Kind)
		}
	}

	for k, rec := range staged {
		if rec == nil {
			delete(m.docs, k)
			continue
		}
		m.docs[k] = cloneRecord(*rec)
	}
	return nil
}

// Close is a no-op.
func (m *MemoryBackend) Close() error { return nil }

func cloneRecord(r Record) Record {
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	r.Body = body
	return r
}
