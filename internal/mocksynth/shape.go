// Package mocksynth defines the Mock Synthesizer contract (an external
// collaborator per the spec: it extracts a shape descriptor from a real
// module's exports and reconstructs a stub from it) plus a default
// reflection-based implementation so the Automocker has something
// runnable without a host synthesizer wired in.
package mocksynth

import "github.com/dop251/goja"

// Kind classifies one node of a MockShape tree.
type Kind int

const (
	KindPrimitive Kind = iota
	KindFunction
	KindObject
	KindArray
)

// Shape is a descriptor of a real module's exported value, recursively
// capturing enough structure to reconstruct a stub: functions become mock
// functions, objects/arrays are walked field by field, and primitives are
// carried through unchanged.
type Shape struct {
	Kind     Kind
	Name     string
	Constant interface{}       // valid when Kind == KindPrimitive
	Fields   map[string]*Shape // valid when Kind == KindObject
	Elements []*Shape          // valid when Kind == KindArray
}

// Synthesizer is the Mock Synthesizer contract consumed by the
// Automocker.
type Synthesizer interface {
	// GetMetadata extracts a Shape from a real value, or (nil, nil) if
	// the value carries no shape the synthesizer can reconstruct from.
	GetMetadata(value goja.Value) (*Shape, error)

	// GenerateFromMetadata builds a fresh stub from a cached Shape.
	GenerateFromMetadata(shape *Shape) (goja.Value, error)

	// GetMockFunction returns a bare mock function value, used by the
	// Runtime API's genMockFunction/genMockFn.
	GetMockFunction() goja.Value
}
