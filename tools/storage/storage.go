// Package storage provides byte sources and sinks for the recipe index.
package storage

import (
	"context"
	"errors"
)

// CatalogState loads the raw recipe index.
type CatalogState interface {
	Load(ctx context.Context) ([]byte, error)
}

// CatalogSink stores a freshly built recipe index.
type CatalogSink interface {
	Save(ctx context.Context, data []byte) error
}

// TestCatalogState is a simple in-memory implementation for testing
type TestCatalogState struct {
	data  []byte
	err   error
	saved []byte
}

func NewTestCatalogState(data []byte) *TestCatalogState {
	return &TestCatalogState{data: data}
}

func NewTestCatalogStateWithError() *TestCatalogState {
	return &TestCatalogState{err: errors.New("not found")}
}

func (t *TestCatalogState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}

func (t *TestCatalogState) Save(ctx context.Context, data []byte) error {
	if t.err != nil {
		return t.err
	}
	t.saved = append([]byte(nil), data...)
	return nil
}

// Saved returns the last data passed to Save.
func (t *TestCatalogState) Saved() []byte { return t.saved }

func (t *TestCatalogState) String() string { return "memory" }
