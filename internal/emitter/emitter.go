// Package emitter defines the outputs an inventory document is sent to.
package emitter

import (
	"context"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// Emitter outputs an inventory document to a backend.
type Emitter interface {
	// Emit sends the document to the backend.
	Emit(ctx context.Context, doc resource.Document) error

	// Close cleans up resources.
	Close() error
}

// MultiEmitter fans out to multiple emitters.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter creates an emitter that sends to multiple backends.
// Nil emitters are skipped.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	m := &MultiEmitter{}
	for _, e := range emitters {
		if e != nil {
			m.emitters = append(m.emitters, e)
		}
	}
	return m
}

// Emit sends to all emitters, returns first error.
func (m *MultiEmitter) Emit(ctx context.Context, doc resource.Document) error {
	for _, e := range m.emitters {
		if err := e.Emit(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all emitters.
func (m *MultiEmitter) Close() error {
	for _, e := range m.emitters {
		if err := e.Close(); err != nil {
			return err
		}
	}
	return nil
}
