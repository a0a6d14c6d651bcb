// Package catalog holds the read-only test and question definitions that
// attempts are scored against.
package catalog

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("test not found")

// Catalog is the read side consumed by the attempt engine.
type Catalog interface {
	GetTest(ctx context.Context, id string) (Test, error)
}

// Store is a Catalog that can also be seeded.
type Store interface {
	Catalog
	PutTest(ctx context.Context, t Test) error
}

type memoryCatalog struct {
	mu    sync.RWMutex
	tests map[string]Test
}

func NewInMemory() Store {
	return &memoryCatalog{tests: map[string]Test{}}
}

func (m *memoryCatalog) PutTest(_ context.Context, t Test) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[t.ID] = clone(t)
	return nil
}

func (m *memoryCatalog) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, ErrNotFound
	}
	return clone(t), nil
}

// clone keeps callers from mutating stored definitions through shared slices.
func clone(t Test) Test {
	out := t
	out.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}
