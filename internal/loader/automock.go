package loader

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"
	"github.com/modverse/loader/internal/mocksynth"
)

// Automocker synthesizes a mock by isolating the registries, recursively
// evaluating the real module, and handing its exports to the Mock
// Synthesizer. Grounded on spec.md §4.5's registry-swap technique.
type Automocker struct {
	registry    *Registry
	synthesizer mocksynth.Synthesizer
	requireReal func(importerPath, requestedName string) (*goja.Object, error)

	mu     sync.Mutex
	shapes map[string]*mocksynth.Shape
}

// NewAutomocker builds an Automocker bound to one Registry and
// Synthesizer. requireReal is a callback into the Loader that evaluates
// the real module under whatever registry is currently live — Synthesize
// swaps fresh empty registries in before calling it and restores the
// originals afterward.
func NewAutomocker(registry *Registry, synth mocksynth.Synthesizer, requireReal func(string, string) (*goja.Object, error)) *Automocker {
	return &Automocker{
		registry:    registry,
		synthesizer: synth,
		requireReal: requireReal,
		shapes:      make(map[string]*mocksynth.Shape),
	}
}

// Synthesize implements spec.md §4.5.
func (a *Automocker) Synthesize(importerPath, requestedName, realPath string) (goja.Value, error) {
	a.mu.Lock()
	shape, cached := a.shapes[realPath]
	if !cached {
		a.shapes[realPath] = &mocksynth.Shape{Kind: mocksynth.KindObject, Fields: map[string]*mocksynth.Shape{}}
	}
	a.mu.Unlock()

	if !cached {
		prevReal, prevMock := a.registry.Swap()
		exports, err := a.requireReal(importerPath, requestedName)
		a.registry.Restore(prevReal, prevMock)

		if err != nil {
			a.mu.Lock()
			delete(a.shapes, realPath)
			a.mu.Unlock()
			return nil, err
		}

		extracted, shapeErr := a.synthesizer.GetMetadata(exports)
		if shapeErr != nil {
			return nil, fmt.Errorf("failed to extract shape for %s: %w", realPath, shapeErr)
		}
		if extracted == nil {
			return nil, &MockExtractionFailedError{Path: realPath}
		}

		a.mu.Lock()
		a.shapes[realPath] = extracted
		shape = extracted
		a.mu.Unlock()
	}

	return a.synthesizer.GenerateFromMetadata(shape)
}
