package loader

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dop251/goja"
	"github.com/modverse/loader/internal/coverage"
	"github.com/modverse/loader/internal/environment"
	"github.com/modverse/loader/internal/transformer"
	"github.com/modverse/loader/pkg/config"
)

// wrapperPropertyName is the fixed, known property name the module
// wrapper is assigned under before invocation. Showing up in stack
// traces as an anonymous function belonging to Object keeps traces
// readable — spec.md §4.4 calls this out by name.
const wrapperPropertyName = "Object.<anonymous>"

// RequireFunc is the per-file require the Loader binds before invoking
// the Executor; it is a *goja.Object carrying the callable plus its
// resolve/requireMock/requireActual/cache/extensions properties (spec.md
// §4.6).
type RequireFunc = *goja.Object

// Executor reads a module's source, transforms it, wraps it in a
// callable scope, and invokes it inside the Environment with the eight
// bound arguments spec.md §4.4 names. Grounded on the teacher's
// ModuleResolver.executeModule (module-wrapper invocation technique),
// generalized from its five-argument CommonJS wrapper to the
// eight-argument signature this spec requires.
type Executor struct {
	env             environment.Environment
	transform       transformer.Transformer
	cfg             *config.LoaderConfig
	coverageFactory coverage.Factory

	mu                sync.Mutex
	currentModulePath string
	currentManualMock bool
}

// NewExecutor builds an Executor bound to one Environment, Transformer,
// and config.
func NewExecutor(env environment.Environment, tf transformer.Transformer, cfg *config.LoaderConfig, cf coverage.Factory) *Executor {
	return &Executor{env: env, transform: tf, cfg: cfg, coverageFactory: cf}
}

// Execute implements spec.md §4.4. rec must already be pre-allocated in
// the Registry (its Exports field is the object subsequent cyclic
// requires will observe). require is the bound per-file require object
// from §4.6; jestAPI is the per-module Runtime API object. isManualMock
// records whether this evaluation is of a manual mock file (the
// "previously executing manual-mock flag" the guarded context tracks).
func (e *Executor) Execute(rec *ModuleRecord, require RequireFunc, jestAPI *goja.Object, isManualMock bool) error {
	if e.env.IsTornDown() {
		return nil
	}

	source, err := e.transform.Transform(rec.Filename, e.cfg)
	if err != nil {
		return fmt.Errorf("failed to transform module %s: %w", rec.Filename, err)
	}

	sinkName := ""
	if e.coverageEnabledFor(rec.Filename) {
		sinkName = coverageSinkName(rec.Filename)
		collector := e.coverageFactory.GetCoverageDataStore()
		source = collector.GetInstrumentedSource(rec.Filename, source, sinkName)
		e.env.Global().Set("__cov_hit", func(sink string, line int) { collector.RecordHit(sink, line) })
	}

	e.mu.Lock()
	prevPath := e.currentModulePath
	prevManualMock := e.currentManualMock
	e.currentModulePath = rec.Filename
	e.currentManualMock = isManualMock
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.currentModulePath = prevPath
		e.currentManualMock = prevManualMock
		e.mu.Unlock()
	}()

	rt := e.env.Runtime()
	if rec.Parent == nil {
		// Fixed sentinel parent (empty exports) so modules that inspect
		// their parent never see undefined (spec.md §4.4 step 5).
		rec.Parent = &ModuleRecord{Filename: "", Exports: rt.NewObject(), Loaded: true}
	}

	wrapperSource := fmt.Sprintf(
		"({%q: function(module, exports, require, __dirname, __filename, global, jest, __coverageSink) {\n%s\n}})",
		wrapperPropertyName, source,
	)

	wrapperObj, err := e.env.RunSourceText(wrapperSource, rec.Filename)
	if err != nil {
		return fmt.Errorf("failed to compile module %s: %w", rec.Filename, err)
	}
	obj, ok := wrapperObj.(*goja.Object)
	if !ok {
		return fmt.Errorf("module wrapper for %s did not evaluate to an object", rec.Filename)
	}
	fnVal := obj.Get(wrapperPropertyName)
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return fmt.Errorf("module wrapper for %s did not produce a callable", rec.Filename)
	}

	moduleObj := rt.NewObject()
	moduleObj.Set("exports", rec.Exports)
	moduleObj.Set("id", rec.Filename)
	moduleObj.Set("filename", rec.Filename)
	if rec.Parent != nil && rec.Parent.Exports != nil {
		parentObj := rt.NewObject()
		parentObj.Set("exports", rec.Parent.Exports)
		moduleObj.Set("parent", parentObj)
	} else {
		moduleObj.Set("parent", goja.Null())
	}

	args := []goja.Value{
		moduleObj,
		rec.Exports,
		require,
		rt.ToValue(filepath.Dir(rec.Filename)),
		rt.ToValue(rec.Filename),
		e.env.Global(),
		jestAPI,
	}
	if sinkName != "" {
		args = append(args, rt.ToValue(sinkName))
	}

	_, execErr := fn(rec.Exports, args...)
	if execErr != nil {
		return fmt.Errorf("error executing module %s: %w", rec.Filename, execErr)
	}

	if exportsAfter := moduleObj.Get("exports"); exportsAfter != nil && !goja.IsUndefined(exportsAfter) {
		if newExports, ok := exportsAfter.(*goja.Object); ok && newExports != rec.Exports {
			copyOwnProps(newExports, rec.Exports)
		}
	}

	rec.Loaded = true
	return nil
}

// copyOwnProps mirrors module.exports reassignment (`module.exports = {...}`)
// back onto the shared exports reference cell other modules already hold,
// since the Registry's cycle-safety relies on rec.Exports staying the
// same object identity throughout evaluation.
func copyOwnProps(src, dst *goja.Object) {
	for _, key := range src.Keys() {
		dst.Set(key, src.Get(key))
	}
}

func (e *Executor) coverageEnabledFor(path string) bool {
	if e.coverageFactory == nil || !e.cfg.CollectCoverage {
		return false
	}
	if len(e.cfg.CollectCoverageOnlyFrom) == 0 {
		return true
	}
	return e.cfg.CollectCoverageOnlyFrom[path]
}

func coverageSinkName(path string) string {
	return "__cov_" + filepath.Base(path)
}

// CurrentModulePath returns the path of the module currently being
// evaluated (the guarded context Execute pushes on entry and restores on
// return).
func (e *Executor) CurrentModulePath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentModulePath
}

// CurrentlyManualMock reports the manual-mock flag pushed by the
// innermost in-flight Execute call.
func (e *Executor) CurrentlyManualMock() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentManualMock
}
