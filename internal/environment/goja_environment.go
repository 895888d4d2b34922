package environment

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

// GojaEnvironment is the default Environment implementation, grounded on
// the teacher's internal/runtime.Runtime: a single goja.Runtime evaluated
// synchronously, with a hand-rolled JSON bridge (jsonStringify/jsonParse
// in the teacher) standing in for the host JS engine's native JSON object.
type GojaEnvironment struct {
	vm           *goja.Runtime
	testFilePath string
	tornDown     bool
	timers       FakeTimers
	assertions   AssertionLibrary
}

// New creates a fresh evaluation sandbox for one test file.
func New(testFilePath string) *GojaEnvironment {
	env := &GojaEnvironment{
		vm:           goja.New(),
		testFilePath: testFilePath,
		timers:       newManualFakeTimers(),
		assertions:   newMatcherRegistry(),
	}
	return env
}

func (e *GojaEnvironment) Runtime() *goja.Runtime {
	return e.vm
}

func (e *GojaEnvironment) Global() *goja.Object {
	return e.vm.GlobalObject()
}

func (e *GojaEnvironment) IsTornDown() bool {
	return e.tornDown
}

func (e *GojaEnvironment) RunSourceText(source, filename string) (goja.Value, error) {
	return e.vm.RunScript(filename, source)
}

// ParseJSON mirrors the teacher's jsonParse: decode via encoding/json, then
// re-box the result as a goja value, raising the same SyntaxError shape a
// native JSON.parse would on malformed input.
func (e *GojaEnvironment) ParseJSON(data []byte) (goja.Value, error) {
	var result interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("SyntaxError: %w", err)
	}
	return e.vm.ToValue(result), nil
}

func (e *GojaEnvironment) FakeTimers() FakeTimers {
	return e.timers
}

func (e *GojaEnvironment) AssertionLibrary() AssertionLibrary {
	return e.assertions
}

func (e *GojaEnvironment) TestFilePath() string {
	return e.testFilePath
}

// Dispose tears down the environment; after this, IsTornDown reports true
// and the Executor becomes a no-op for any module scheduled against it.
func (e *GojaEnvironment) Dispose() {
	e.tornDown = true
}
