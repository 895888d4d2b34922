package mocksynth

import "github.com/dop251/goja"

// NewMockFunction builds a jest-style mock function: a callable goja value
// flagged with _isMockFunction, recording every call's arguments and
// return value, and exposing mockClear/mockReset/mockImplementation so the
// Registry's reset sweep and hand-authored tests can drive it. Grounded on
// the teacher's internal/plugins/bridge.go house style for wrapping Go
// behavior as a goja object with methods.
func NewMockFunction(rt *goja.Runtime) *goja.Object {
	var implementation goja.Callable
	calls := rt.NewArray()
	results := rt.NewArray()

	callFn := func(call goja.FunctionCall) goja.Value {
		args := rt.NewArray()
		for i, a := range call.Arguments {
			args.Set(itoa(i), a)
		}
		calls.Set(itoa(int(calls.Get("length").ToInteger())), args)

		var ret goja.Value = goja.Undefined()
		var callErr error
		if implementation != nil {
			ret, callErr = implementation(call.This, call.Arguments...)
		}

		result := rt.NewObject()
		if callErr != nil {
			result.Set("type", "throw")
			result.Set("value", rt.ToValue(callErr.Error()))
		} else {
			result.Set("type", "return")
			result.Set("value", ret)
		}
		results.Set(itoa(int(results.Get("length").ToInteger())), result)
		return ret
	}

	fnVal := rt.ToValue(callFn)
	obj := fnVal.(*goja.Object)
	obj.Set("_isMockFunction", true)
	obj.Set("mock", buildMockMeta(rt, calls, results))

	obj.Set("mockClear", func(goja.FunctionCall) goja.Value {
		calls.Set("length", 0)
		results.Set("length", 0)
		return obj
	})
	obj.Set("mockReset", func(goja.FunctionCall) goja.Value {
		calls.Set("length", 0)
		results.Set("length", 0)
		implementation = nil
		return obj
	})
	obj.Set("mockImplementation", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			if fn, ok := goja.AssertFunction(call.Arguments[0]); ok {
				implementation = fn
			}
		}
		return obj
	})
	obj.Set("mockReturnValue", func(call goja.FunctionCall) goja.Value {
		var v goja.Value = goja.Undefined()
		if len(call.Arguments) > 0 {
			v = call.Arguments[0]
		}
		implementation = func(_ goja.Value, _ ...goja.Value) (goja.Value, error) {
			return v, nil
		}
		return obj
	})

	return obj
}

func buildMockMeta(rt *goja.Runtime, calls, results *goja.Object) *goja.Object {
	meta := rt.NewObject()
	meta.Set("calls", calls)
	meta.Set("results", results)
	return meta
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
