package loader

import "github.com/dop251/goja"

// RuntimeAPI builds the per-module jest-style fluent control object
// (spec.md §4.6): every method returns the object itself so calls chain.
// Grounded on the teacher's test.Bridge.RegisterGlobals style of
// exposing Go closures as properties on a JS-visible object, generalized
// from test-suite registration to mock/timer control.
type RuntimeAPI struct {
	loader *Loader
}

// NewRuntimeAPI builds a RuntimeAPI bound to loader, the single object
// that owns the Resolver/PolicyEngine/Registry/Automocker/Synthesizer
// this API delegates to.
func NewRuntimeAPI(l *Loader) *RuntimeAPI {
	return &RuntimeAPI{loader: l}
}

// Build constructs the jest object for one module evaluation. importer
// is the path of the module this jest instance is bound to, used by
// mock/dontMock/genMockFromModule to resolve relative to the right
// directory.
func (r *RuntimeAPI) Build(importer string) *goja.Object {
	rt := r.loader.env.Runtime()
	obj := rt.NewObject()

	obj.Set("autoMockOn", func(goja.FunctionCall) goja.Value {
		r.loader.policy.SetAutoMock(true)
		return obj
	})
	obj.Set("autoMockOff", func(goja.FunctionCall) goja.Value {
		r.loader.policy.SetAutoMock(false)
		return obj
	})

	obj.Set("mock", func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		r.setOverride(importer, name, true)
		return obj
	})
	obj.Set("dontMock", func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		r.setOverride(importer, name, false)
		return obj
	})

	obj.Set("setMock", func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		var exports *goja.Object
		if len(call.Arguments) > 1 {
			if o, ok := call.Arguments[1].(*goja.Object); ok {
				exports = o
			}
		}
		id, err := r.loader.resolver.Resolve(importer, name)
		if err == nil {
			r.loader.policy.SetExplicitOverride(id, true)
			if exports != nil {
				r.loader.SetExplicitMock(id, exports)
			}
		}
		return obj
	})

	obj.Set("genMockFromModule", func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		mock, err := r.loader.GenMockFromModule(importer, name)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		return mock
	})

	obj.Set("genMockFunction", r.loader.synthesizer.GetMockFunction)
	obj.Set("genMockFn", r.loader.synthesizer.GetMockFunction)

	obj.Set("resetModuleRegistry", func(goja.FunctionCall) goja.Value {
		r.loader.registry.Reset()
		return obj
	})

	timers := r.loader.env.FakeTimers()
	obj.Set("useFakeTimers", func(goja.FunctionCall) goja.Value { timers.UseFakeTimers(); return obj })
	obj.Set("useRealTimers", func(goja.FunctionCall) goja.Value { timers.UseRealTimers(); return obj })
	obj.Set("runAllTicks", func(goja.FunctionCall) goja.Value { timers.RunAllTicks(); return obj })
	obj.Set("runAllImmediates", func(goja.FunctionCall) goja.Value { timers.RunAllImmediates(); return obj })
	obj.Set("runAllTimers", func(goja.FunctionCall) goja.Value { timers.RunAllTimers(); return obj })
	obj.Set("runOnlyPendingTimers", func(goja.FunctionCall) goja.Value { timers.RunOnlyPendingTimers(); return obj })
	obj.Set("clearAllTimers", func(goja.FunctionCall) goja.Value { timers.ClearAllTimers(); return obj })

	obj.Set("currentTestPath", func(goja.FunctionCall) goja.Value {
		return rt.ToValue(r.loader.env.TestFilePath())
	})

	obj.Set("addMatchers", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			if raw, ok := call.Arguments[0].Export().(map[string]interface{}); ok {
				_ = r.loader.env.AssertionLibrary().AddMatchers(raw)
			}
		}
		return obj
	})

	obj.Set("getTestEnvData", func(goja.FunctionCall) goja.Value {
		frozen := rt.NewObject()
		for k, v := range r.loader.cfg.TestEnvData {
			frozen.Set(k, v)
		}
		return frozen
	})

	return obj
}

func (r *RuntimeAPI) setOverride(importer, name string, mock bool) {
	id, err := r.loader.resolver.Resolve(importer, name)
	if err != nil {
		return
	}
	r.loader.policy.SetExplicitOverride(id, mock)
}

func argString(call goja.FunctionCall, i int) string {
	if i >= len(call.Arguments) {
		return ""
	}
	return call.Arguments[i].String()
}
