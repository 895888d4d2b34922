// Package loader is the Module Loader core: a single stateful object
// instantiated per test file, bound to one Environment and one Resource
// Map, that resolves module identifiers, decides mock-vs-real per
// request, evaluates untrusted source inside the Environment, and
// synthesizes automocks on demand.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"

	"github.com/modverse/loader/internal/builtins"
	"github.com/modverse/loader/internal/coverage"
	"github.com/modverse/loader/internal/environment"
	"github.com/modverse/loader/internal/mocksynth"
	"github.com/modverse/loader/internal/natives"
	"github.com/modverse/loader/internal/resourcemap"
	"github.com/modverse/loader/internal/transformer"
	"github.com/modverse/loader/pkg/config"
)

// Loader ties the Resolver, Mock Policy Engine, Registry, Executor,
// Automocker, and Runtime API together behind the public operations
// spec.md §4.7 names.
type Loader struct {
	cfg       *config.LoaderConfig
	resources resourcemap.Map
	env       environment.Environment

	resolver    *Resolver
	policy      *PolicyEngine
	registry    *Registry
	executor    *Executor
	automocker  *Automocker
	synthesizer mocksynth.Synthesizer
	builtinsReg *builtins.Registry
	nativesReg  *natives.Registry
	runtimeAPI  *RuntimeAPI

	explicitMocksMu sync.Mutex
	explicitMocks   map[ModuleID]*goja.Object

	dependentsOnce  sync.Once
	dependentsCache map[string][]string
}

// New builds a Loader for one test file. extraSearchRoots is the parsed
// optional environment-variable search-path list (spec.md §6).
func New(cfg *config.LoaderConfig, resources resourcemap.Map, env environment.Environment, extraSearchRoots []string) *Loader {
	rt := env.Runtime()
	bi := builtins.New(rt)

	l := &Loader{
		cfg:           cfg,
		resources:     resources,
		env:           env,
		policy:        NewPolicyEngine(cfg),
		builtinsReg:   bi,
		synthesizer:   mocksynth.NewReflectSynthesizer(rt),
		explicitMocks: make(map[ModuleID]*goja.Object),
	}
	l.resolver = NewResolver(cfg, resources, bi, extraSearchRoots)
	l.registry = NewRegistry(env)
	l.executor = NewExecutor(env, transformer.Identity{}, cfg, coverage.NoopFactory{})
	l.nativesReg = natives.NewRegistry(rt, natives.NewLoader(env))
	l.automocker = NewAutomocker(l.registry, l.synthesizer, l.requireRealForAutomock)
	l.runtimeAPI = NewRuntimeAPI(l)
	return l
}

// WithCoverage swaps in a real coverage factory, enabling the Executor's
// instrumentation path. Construction-time option rather than a New(...)
// parameter since most callers run without coverage.
func (l *Loader) WithCoverage(cf coverage.Factory) *Loader {
	l.executor = NewExecutor(l.env, transformer.Identity{}, l.cfg, cf)
	return l
}

// WithTransformer swaps in a real source Transformer.
func (l *Loader) WithTransformer(tf transformer.Transformer) *Loader {
	l.executor = NewExecutor(l.env, tf, l.cfg, l.executor.coverageFactory)
	return l
}

// RequireModuleOrMock is the bound require's default behavior: consult
// the Mock Policy Engine and deliver whichever of real/mock it picks.
func (l *Loader) RequireModuleOrMock(importerPath, requestedName string) (goja.Value, error) {
	id, err := l.resolver.Resolve(importerPath, requestedName)
	if err != nil {
		return nil, err
	}

	mock := l.policy.ShouldMock(id, requestedName, func() (string, bool) {
		return id.RealPath, id.RealPath != ""
	})
	log.WithFields(logrus.Fields{"requested": requestedName, "importer": importerPath, "mock": mock}).Debug("resolved require")

	if mock {
		return l.deliverMock(importerPath, requestedName, id)
	}
	return l.deliverReal(importerPath, id)
}

// RequireModule forces the real branch regardless of policy
// (require.requireActual).
func (l *Loader) RequireModule(importerPath, requestedName string) (goja.Value, error) {
	id, err := l.resolver.Resolve(importerPath, requestedName)
	if err != nil {
		return nil, err
	}
	return l.deliverReal(importerPath, id)
}

// RequireMock forces the mock branch regardless of policy
// (require.requireMock).
func (l *Loader) RequireMock(importerPath, requestedName string) (goja.Value, error) {
	id, err := l.resolver.Resolve(importerPath, requestedName)
	if err != nil {
		return nil, err
	}
	return l.deliverMock(importerPath, requestedName, id)
}

func (l *Loader) deliverReal(importerPath string, id ModuleID) (goja.Value, error) {
	if id.Kind == KindCore {
		obj, ok := l.builtinsReg.Get(id.RealPath)
		if !ok {
			return nil, fmt.Errorf("%w: built-in %s", ErrModuleNotFound, id.RealPath)
		}
		return obj, nil
	}

	if id.RealPath == "" {
		return nil, fmt.Errorf("%w: %s has no real path (required by %s)", ErrModuleNotFound, id.String(), importerPath)
	}

	if rec, ok := l.registry.GetReal(id.RealPath); ok {
		return rec.Exports, nil
	}

	return l.evaluateReal(id.RealPath)
}

func (l *Loader) deliverMock(importerPath, requestedName string, id ModuleID) (goja.Value, error) {
	l.explicitMocksMu.Lock()
	if slot, ok := l.explicitMocks[id]; ok {
		l.explicitMocksMu.Unlock()
		return slot, nil
	}
	l.explicitMocksMu.Unlock()

	if id.MockPath != "" {
		if exports, ok := l.registry.GetMock(id.MockPath); ok {
			return exports, nil
		}
		rec, err := l.evaluateRealAt(id.MockPath)
		if err != nil {
			return nil, err
		}
		l.registry.SetMock(id.MockPath, rec.Exports)
		return rec.Exports, nil
	}

	if id.RealPath == "" {
		return nil, fmt.Errorf("%w: %s (required by %s)", ErrModuleNotFound, requestedName, importerPath)
	}

	if exports, ok := l.registry.GetMock(id.RealPath); ok {
		return exports, nil
	}

	mockVal, err := l.automocker.Synthesize(importerPath, requestedName, id.RealPath)
	if err != nil {
		return nil, err
	}
	if obj, ok := mockVal.(*goja.Object); ok {
		l.registry.SetMock(id.RealPath, obj)
	}
	return mockVal, nil
}

// requireRealForAutomock is the Automocker's requireReal callback: it
// evaluates the real module under whatever registry is currently live
// (the Automocker has already swapped in an isolated one by the time
// this runs).
func (l *Loader) requireRealForAutomock(importerPath, requestedName string) (*goja.Object, error) {
	id, err := l.resolver.Resolve(importerPath, requestedName)
	if err != nil {
		return nil, err
	}
	val, err := l.deliverReal(importerPath, id)
	if err != nil {
		return nil, err
	}
	obj, _ := val.(*goja.Object)
	return obj, nil
}

// SetExplicitMock implements jest.setMock's ExplicitMockSlot half: the
// installed exports value is user intent tied to the test file, not
// evaluation state, so it survives resetModuleRegistry (spec.md's
// ExplicitMockSlot entity) — stored separately from the Registry's mock
// map, which Reset does clear.
func (l *Loader) SetExplicitMock(id ModuleID, exports *goja.Object) {
	l.explicitMocksMu.Lock()
	defer l.explicitMocksMu.Unlock()
	l.explicitMocks[id] = exports
}

// GenMockFromModule implements jest.genMockFromModule: synthesize a mock
// for name using importer as the resolving context, without consulting
// the policy engine or caching into the mock registry.
func (l *Loader) GenMockFromModule(importer, name string) (goja.Value, error) {
	id, err := l.resolver.Resolve(importer, name)
	if err != nil {
		return nil, err
	}
	if id.RealPath == "" {
		return nil, fmt.Errorf("%w: %s (required by %s)", ErrModuleNotFound, name, importer)
	}
	return l.automocker.Synthesize(importer, name, id.RealPath)
}

// evaluateReal pre-allocates a ModuleRecord for path, binds its require
// and jest objects, and invokes the Executor — or, for .json and native
// extensions, bypasses the Executor per spec.md §4.4's special cases.
func (l *Loader) evaluateReal(path string) (goja.Value, error) {
	rec, err := l.evaluateRealAt(path)
	if err != nil {
		return nil, err
	}
	return rec.Exports, nil
}

func (l *Loader) evaluateRealAt(path string) (*ModuleRecord, error) {
	log.WithField("path", path).Debug("evaluating module")
	rt := l.env.Runtime()
	exportsCell := rt.NewObject()
	rec := l.registry.PreAllocateReal(path, nil, exportsCell)

	require := l.buildRequire(path)
	jestAPI := l.runtimeAPI.Build(path)

	switch {
	case strings.HasSuffix(path, ".json"):
		data, readErr := readFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read JSON module %s: %w", path, readErr)
		}
		val, parseErr := l.env.ParseJSON(data)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse JSON module %s: %w", path, parseErr)
		}
		if obj, ok := val.(*goja.Object); ok {
			copyOwnProps(obj, rec.Exports)
		}
		l.registry.MarkLoaded(path)
		return rec, nil

	case strings.HasSuffix(path, ".so"):
		obj, loadErr := l.nativesReg.Require(path)
		if loadErr != nil {
			return nil, fmt.Errorf("failed to load native extension %s: %w", path, loadErr)
		}
		copyOwnProps(obj, rec.Exports)
		l.registry.MarkLoaded(path)
		return rec, nil

	default:
		isManualMock := l.isUnderMocksDir(path)
		if err := l.executor.Execute(rec, require, jestAPI, isManualMock); err != nil {
			return nil, err
		}
		l.registry.MarkLoaded(path)
		return rec, nil
	}
}

func (l *Loader) isUnderMocksDir(path string) bool {
	return strings.Contains(path, string(filepath.Separator)+"__mocks__"+string(filepath.Separator))
}

// buildRequire constructs the bound require object spec.md §4.6
// describes: a callable plus resolve/requireMock/requireActual/cache/
// extensions properties, scoped to filename's directory.
func (l *Loader) buildRequire(filename string) *goja.Object {
	rt := l.env.Runtime()

	callFn := func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		val, err := l.RequireModuleOrMock(filename, name)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		return val
	}
	fnVal := rt.ToValue(callFn)
	obj := fnVal.(*goja.Object)

	obj.Set("resolve", func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		id, err := l.resolver.Resolve(filename, name)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		if id.RealPath != "" {
			return rt.ToValue(id.RealPath)
		}
		return rt.ToValue(id.MockPath)
	})
	obj.Set("requireMock", func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		val, err := l.RequireMock(filename, name)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		return val
	})
	obj.Set("requireActual", func(call goja.FunctionCall) goja.Value {
		name := argString(call, 0)
		val, err := l.RequireModule(filename, name)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		return val
	})
	obj.Set("cache", rt.NewObject())
	obj.Set("extensions", rt.NewObject())

	return obj
}

// GetDependenciesFromPath implements spec.md §4.7.
func (l *Loader) GetDependenciesFromPath(path string) ([]string, error) {
	res, ok := l.resources.GetResourceByPath(path)
	if !ok {
		return nil, &UnknownModulePathError{Path: path}
	}
	if res.Type == resourcemap.ProjectConfig || res.Type == resourcemap.Other {
		return nil, &InvalidResourceKindError{Path: path, Kind: kindName(res.Type)}
	}

	deps := make([]string, 0, len(res.RequiredModules))
	for _, name := range res.RequiredModules {
		id, err := l.resolver.Resolve(path, name)
		if err != nil {
			continue
		}
		if id.RealPath != "" {
			deps = append(deps, id.RealPath)
		} else if id.MockPath != "" {
			deps = append(deps, id.MockPath)
		}
	}
	return deps, nil
}

// GetDependentsFromPath implements spec.md §4.7's inverse query,
// computed lazily on first call and cached for the Loader's lifetime.
func (l *Loader) GetDependentsFromPath(path string) ([]string, error) {
	l.dependentsOnce.Do(func() {
		l.dependentsCache = make(map[string][]string)
		for _, res := range l.resources.GetAllResources() {
			if res.Type == resourcemap.ProjectConfig || res.Type == resourcemap.Other {
				continue
			}
			deps, err := l.GetDependenciesFromPath(res.Path)
			if err != nil {
				continue
			}
			for _, dep := range deps {
				l.dependentsCache[dep] = append(l.dependentsCache[dep], res.Path)
			}
		}
	})
	if _, ok := l.resources.GetResourceByPath(path); !ok {
		return nil, &UnknownModulePathError{Path: path}
	}
	return l.dependentsCache[path], nil
}

// GetAllCoverageInfo implements spec.md §4.7; it throws CoverageDisabled
// if coverage was never enabled for this Loader.
func (l *Loader) GetAllCoverageInfo() (map[string]interface{}, error) {
	if !l.cfg.CollectCoverage {
		return nil, ErrCoverageDisabled
	}
	collector := l.executor.coverageFactory.GetCoverageDataStore()
	info := make(map[string]interface{})
	for _, res := range l.resources.GetAllResourcesByType(resourcemap.Source) {
		if data := collector.ExtractRuntimeCoverageInfo(coverageSinkName(res.Path)); data != nil {
			info[res.Path] = data
		}
	}
	return info, nil
}

// GetCoverageForFilePath implements spec.md §4.7 for a single file.
func (l *Loader) GetCoverageForFilePath(path string) (interface{}, error) {
	if !l.cfg.CollectCoverage {
		return nil, ErrCoverageDisabled
	}
	collector := l.executor.coverageFactory.GetCoverageDataStore()
	return collector.ExtractRuntimeCoverageInfo(coverageSinkName(path)), nil
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func kindName(k resourcemap.Kind) string {
	switch k {
	case resourcemap.ProjectConfig:
		return "ProjectConfig"
	case resourcemap.Other:
		return "Other"
	case resourcemap.ManualMock:
		return "ManualMock"
	default:
		return "Source"
	}
}
