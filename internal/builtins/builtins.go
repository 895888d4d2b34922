// Package builtins registers the handful of platform modules the
// Resolver recognizes by logical name before ever touching the
// filesystem (spec.md §4.1 step 1) — a small path/os/util/assert
// surface plus a "core" module carrying version/platform, goja-backed
// the same way the teacher registers its
// "gode:core" built-in.
package builtins

import (
	"os"
	"path/filepath"
	goruntime "runtime"

	"github.com/dop251/goja"
)

// Registry holds every built-in module this loader ships, keyed by the
// logical name a require() call would use.
type Registry struct {
	modules map[string]*goja.Object
}

// New builds the standard set of built-ins bound to rt.
func New(rt *goja.Runtime) *Registry {
	r := &Registry{modules: make(map[string]*goja.Object)}
	r.modules["path"] = newPathModule(rt)
	r.modules["os"] = newOSModule(rt)
	r.modules["util"] = newUtilModule(rt)
	r.modules["assert"] = newAssertModule(rt)
	r.modules["core"] = newCoreModule(rt)
	return r
}

// Get returns the built-in module exports for name, if one exists.
func (r *Registry) Get(name string) (*goja.Object, bool) {
	obj, ok := r.modules[name]
	return obj, ok
}

// Has reports whether name is a recognized built-in, without fetching
// its exports object.
func (r *Registry) Has(name string) bool {
	_, ok := r.modules[name]
	return ok
}

func newCoreModule(rt *goja.Runtime) *goja.Object {
	obj := rt.NewObject()
	obj.Set("version", "0.1.0")
	obj.Set("platform", "modloader")
	return obj
}

func newPathModule(rt *goja.Runtime) *goja.Object {
	obj := rt.NewObject()
	obj.Set("join", func(parts ...string) string { return filepath.Join(parts...) })
	obj.Set("dirname", func(p string) string { return filepath.Dir(p) })
	obj.Set("basename", func(p string) string { return filepath.Base(p) })
	obj.Set("extname", func(p string) string { return filepath.Ext(p) })
	obj.Set("resolve", func(parts ...string) (string, error) { return filepath.Abs(filepath.Join(parts...)) })
	obj.Set("isAbsolute", func(p string) bool { return filepath.IsAbs(p) })
	obj.Set("sep", string(filepath.Separator))
	return obj
}

func newOSModule(rt *goja.Runtime) *goja.Object {
	obj := rt.NewObject()
	obj.Set("platform", func() string { return goruntime.GOOS })
	obj.Set("tmpdir", func() string { return os.TempDir() })
	obj.Set("cwd", func() (string, error) { return os.Getwd() })
	obj.Set("env", func(name string) string { return os.Getenv(name) })
	return obj
}

func newUtilModule(rt *goja.Runtime) *goja.Object {
	obj := rt.NewObject()
	obj.Set("isArray", func(v goja.Value) bool {
		o, ok := v.(*goja.Object)
		return ok && o.ClassName() == "Array"
	})
	obj.Set("isFunction", func(v goja.Value) bool {
		_, ok := goja.AssertFunction(v)
		return ok
	})
	obj.Set("inspect", func(v goja.Value) string { return v.String() })
	return obj
}

func newAssertModule(rt *goja.Runtime) *goja.Object {
	obj := rt.NewObject()
	assertFn := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 || !call.Arguments[0].ToBoolean() {
			msg := "assertion failed"
			if len(call.Arguments) > 1 {
				msg = call.Arguments[1].String()
			}
			panic(rt.NewGoError(assertionError{msg}))
		}
		return goja.Undefined()
	}
	fnVal := rt.ToValue(assertFn)
	fnObj := fnVal.(*goja.Object)
	fnObj.Set("ok", assertFn)
	fnObj.Set("equal", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(rt.NewGoError(assertionError{"assert.equal requires two arguments"}))
		}
		if call.Arguments[0].Export() != call.Arguments[1].Export() {
			panic(rt.NewGoError(assertionError{"values are not equal"}))
		}
		return goja.Undefined()
	})
	return fnObj
}

type assertionError struct{ msg string }

func (e assertionError) Error() string { return e.msg }
