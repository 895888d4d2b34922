package loader

import (
	"sync"

	"github.com/dop251/goja"
	"github.com/modverse/loader/internal/environment"
)

// ModuleRecord is one evaluation result of a real module: a mutable
// exports reference cell (not an immutable value), per spec.md §9's
// guidance for a statically typed rewrite of the two-phase registry
// pattern. Pre-allocated empty before the Executor runs so cyclic
// requires observe a partially-populated record instead of recursing
// forever.
type ModuleRecord struct {
	Filename string
	Exports  *goja.Object
	Parent   *ModuleRecord
	Loaded   bool
}

// Registry holds the two path-keyed mappings (real, mock) the spec
// calls for, plus pre-allocation for cycle safety and the reset
// machinery of §4.3. Grounded on the teacher's Runtime.modules/
// ModuleManager.cache two-map pattern.
type Registry struct {
	mu   sync.Mutex
	real map[string]*ModuleRecord
	mock map[string]*goja.Object
	env  environment.Environment
}

// NewRegistry builds an empty Registry bound to one Environment (needed
// so Reset can sweep mock functions off its global object).
func NewRegistry(env environment.Environment) *Registry {
	return &Registry{
		real: make(map[string]*ModuleRecord),
		mock: make(map[string]*goja.Object),
		env:  env,
	}
}

// GetReal returns the cached real record for path, if any.
func (r *Registry) GetReal(path string) (*ModuleRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.real[path]
	return rec, ok
}

// PreAllocateReal inserts an empty ModuleRecord for path before the
// Executor runs, so recursive requires for the same path during
// evaluation observe the partially-populated record (invariant 1).
func (r *Registry) PreAllocateReal(path string, parent *ModuleRecord, exports *goja.Object) *ModuleRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := &ModuleRecord{Filename: path, Exports: exports, Parent: parent}
	r.real[path] = rec
	return rec
}

// MarkLoaded flips a pre-allocated record to loaded once the Executor's
// top-level evaluation has completed.
func (r *Registry) MarkLoaded(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.real[path]; ok {
		rec.Loaded = true
	}
}

// GetMock returns the cached mock exports for path, if any.
func (r *Registry) GetMock(path string) (*goja.Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.mock[path]
	return exp, ok
}

// SetMock installs exports as the cached mock for path (used for both an
// evaluated manual mock and an automock synthesis result; setMock's
// explicit slots live in the Loader, not here).
func (r *Registry) SetMock(path string, exports *goja.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mock[path] = exports
}

// Swap atomically replaces both mappings and returns the previous ones,
// the registry-swap isolation technique the Automocker uses (spec.md
// §4.5 step 3).
func (r *Registry) Swap() (prevReal map[string]*ModuleRecord, prevMock map[string]*goja.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prevReal, prevMock = r.real, r.mock
	r.real = make(map[string]*ModuleRecord)
	r.mock = make(map[string]*goja.Object)
	return prevReal, prevMock
}

// Restore puts back mappings previously returned by Swap.
func (r *Registry) Restore(real map[string]*ModuleRecord, mock map[string]*goja.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.real = real
	r.mock = mock
}

// Reset replaces both mappings with empty ones, clears every mock
// function found on the Environment's global object, and invokes a
// registered mockClearTimers hook if present. Explicit overrides and
// explicit mock slots are owned by the PolicyEngine and the Loader's
// explicitMocks map, not this Registry, so they are untouched here by
// construction.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.real = make(map[string]*ModuleRecord)
	r.mock = make(map[string]*goja.Object)
	r.mu.Unlock()

	if r.env == nil || r.env.IsTornDown() {
		return
	}
	global := r.env.Global()
	for _, key := range global.Keys() {
		val := global.Get(key)
		if val == nil || goja.IsUndefined(val) {
			continue
		}
		obj, ok := val.(*goja.Object)
		if !ok {
			continue
		}
		if isMock, ok := obj.Get("_isMockFunction").Export().(bool); ok && isMock {
			if clearFn, ok := goja.AssertFunction(obj.Get("mockClear")); ok {
				clearFn(obj)
			}
		}
	}
	if hook := global.Get("mockClearTimers"); hook != nil && !goja.IsUndefined(hook) {
		if fn, ok := goja.AssertFunction(hook); ok {
			fn(goja.Undefined())
		}
	}
}
