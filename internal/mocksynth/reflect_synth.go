package mocksynth

import (
	"fmt"

	"github.com/dop251/goja"
)

// ReflectSynthesizer is the default Synthesizer: it extracts shape by
// walking a goja.Value directly (callability, object keys, array
// elements; only primitive leaves are exported to Go), grounded on the
// teacher's internal/plugins/bridge.go house style for turning a Go value
// into a goja object (here run in reverse: goja value -> shape -> stub).
type ReflectSynthesizer struct {
	rt *goja.Runtime
}

// NewReflectSynthesizer builds a Synthesizer bound to the given runtime,
// needed to construct mock functions and objects.
func NewReflectSynthesizer(rt *goja.Runtime) *ReflectSynthesizer {
	return &ReflectSynthesizer{rt: rt}
}

func (s *ReflectSynthesizer) GetMetadata(value goja.Value) (*Shape, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, nil
	}
	return s.shapeOf(value, make(map[*goja.Object]bool))
}

func (s *ReflectSynthesizer) shapeOf(value goja.Value, seen map[*goja.Object]bool) (*Shape, error) {
	if _, ok := goja.AssertFunction(value); ok {
		return &Shape{Kind: KindFunction, Name: value.String()}, nil
	}

	obj, isObj := value.(*goja.Object)
	if !isObj {
		return &Shape{Kind: KindPrimitive, Constant: value.Export()}, nil
	}
	if seen[obj] {
		// Cyclic object graph: stop recursing, treat as an empty object.
		return &Shape{Kind: KindObject, Fields: map[string]*Shape{}}, nil
	}
	seen[obj] = true

	if obj.ClassName() == "Array" {
		shape := &Shape{Kind: KindArray}
		length := int(obj.Get("length").ToInteger())
		for i := 0; i < length; i++ {
			elemShape, err := s.shapeOf(obj.Get(itoa(i)), seen)
			if err != nil {
				return nil, err
			}
			shape.Elements = append(shape.Elements, elemShape)
		}
		return shape, nil
	}

	shape := &Shape{Kind: KindObject, Fields: make(map[string]*Shape)}
	for _, key := range obj.Keys() {
		fieldShape, err := s.shapeOf(obj.Get(key), seen)
		if err != nil {
			return nil, fmt.Errorf("failed to extract shape of field %q: %w", key, err)
		}
		shape.Fields[key] = fieldShape
	}
	return shape, nil
}

func (s *ReflectSynthesizer) GenerateFromMetadata(shape *Shape) (goja.Value, error) {
	if shape == nil {
		return goja.Undefined(), nil
	}
	switch shape.Kind {
	case KindFunction:
		return s.GetMockFunction(), nil
	case KindPrimitive:
		return s.rt.ToValue(shape.Constant), nil
	case KindArray:
		arr := s.rt.NewArray()
		for i, elem := range shape.Elements {
			v, err := s.GenerateFromMetadata(elem)
			if err != nil {
				return nil, err
			}
			arr.Set(itoa(i), v)
		}
		return arr, nil
	case KindObject:
		obj := s.rt.NewObject()
		for name, field := range shape.Fields {
			v, err := s.GenerateFromMetadata(field)
			if err != nil {
				return nil, fmt.Errorf("failed to generate mock field %q: %w", name, err)
			}
			obj.Set(name, v)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unknown shape kind %d", shape.Kind)
	}
}

func (s *ReflectSynthesizer) GetMockFunction() goja.Value {
	return NewMockFunction(s.rt)
}
