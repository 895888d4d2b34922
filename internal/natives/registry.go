package natives

import (
	"sync"

	"github.com/dop251/goja"
)

// Registry caches the goja exports object produced for each native
// extension path, so the Executor's native bypass only builds the
// bridge object once per module, mirroring the Loader's own evaluate-once
// cache at the next layer up.
type Registry struct {
	loader  *Loader
	rt      *goja.Runtime
	mu      sync.RWMutex
	exports map[string]*goja.Object
}

// NewRegistry builds a Registry that loads extensions through loader and
// bridges them into objects on rt.
func NewRegistry(rt *goja.Runtime, loader *Loader) *Registry {
	return &Registry{
		loader:  loader,
		rt:      rt,
		exports: make(map[string]*goja.Object),
	}
}

// Require loads (or returns the cached) exports object for the native
// extension at path.
func (r *Registry) Require(path string) (*goja.Object, error) {
	r.mu.RLock()
	if obj, ok := r.exports[path]; ok {
		r.mu.RUnlock()
		return obj, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if obj, ok := r.exports[path]; ok {
		return obj, nil
	}

	info, err := r.loader.Load(path)
	if err != nil {
		return nil, err
	}
	obj := ToModuleExports(r.rt, info)
	r.exports[path] = obj
	return obj, nil
}

// IsLoaded reports whether path has already been bridged into this
// registry.
func (r *Registry) IsLoaded(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.exports[path]
	return ok
}
