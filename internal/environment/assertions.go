package environment

import "fmt"

// matcherRegistry is the default AssertionLibrary: it records custom
// matcher functions by name so a host test-assertion runtime (out of
// scope for this core) can pick them up. The real matcher *evaluation*
// belongs to that runtime; this only owns registration, which is all the
// Runtime API's addMatchers needs to delegate.
type matcherRegistry struct {
	matchers map[string]interface{}
}

func newMatcherRegistry() *matcherRegistry {
	return &matcherRegistry{matchers: make(map[string]interface{})}
}

func (r *matcherRegistry) AddMatchers(matchers map[string]interface{}) error {
	if matchers == nil {
		return fmt.Errorf("addMatchers: nil matcher map")
	}
	for name, fn := range matchers {
		r.matchers[name] = fn
	}
	return nil
}
