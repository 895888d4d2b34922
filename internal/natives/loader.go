package natives

import (
	"fmt"
	"path/filepath"
	"plugin"
)

// Loader opens compiled Go plugins by file path and caches the result so
// the Executor's native-extension bypass only ever opens a given .so
// once, matching the Registry's own evaluate-once guarantee.
type Loader struct {
	loaded map[string]*ExtensionInfo
	env    interface{}
}

// NewLoader builds a Loader bound to the Environment (or equivalent host)
// passed to every extension's Initialize.
func NewLoader(env interface{}) *Loader {
	return &Loader{
		loaded: make(map[string]*ExtensionInfo),
		env:    env,
	}
}

// Load opens the plugin at path (a .so built with `go build -buildmode=plugin`),
// initializes it once, and caches it by absolute path.
func (l *Loader) Load(path string) (*ExtensionInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve native extension path: %w", err)
	}

	if info, exists := l.loaded[absPath]; exists {
		return info, nil
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open native extension %s: %w", path, err)
	}

	info := &ExtensionInfo{Path: absPath}

	ext, err := loadStandardSymbols(p)
	if err != nil {
		return nil, fmt.Errorf("native extension %s does not expose Name/Version/Exports symbols: %w", path, err)
	}

	if err := ext.Initialize(l.env); err != nil {
		return nil, fmt.Errorf("failed to initialize native extension %s: %w", ext.Name(), err)
	}

	info.Extension = ext
	info.Name = ext.Name()
	info.Version = ext.Version()
	info.Initialized = true

	l.loaded[absPath] = info
	return info, nil
}

// loadStandardSymbols looks up the Name/Version/Exports symbols a compiled
// native extension must export at package scope, plus the optional
// Initialize/Dispose symbols, matching the teacher's standardPlugin
// symbol-lookup convention.
func loadStandardSymbols(p *plugin.Plugin) (Extension, error) {
	nameSym, err := p.Lookup("Name")
	if err != nil {
		return nil, fmt.Errorf("missing Name function: %w", err)
	}
	versionSym, err := p.Lookup("Version")
	if err != nil {
		return nil, fmt.Errorf("missing Version function: %w", err)
	}
	exportsSym, err := p.Lookup("Exports")
	if err != nil {
		return nil, fmt.Errorf("missing Exports function: %w", err)
	}

	nameFunc, ok := nameSym.(func() string)
	if !ok {
		return nil, fmt.Errorf("Name has wrong signature")
	}
	versionFunc, ok := versionSym.(func() string)
	if !ok {
		return nil, fmt.Errorf("Version has wrong signature")
	}
	exportsFunc, ok := exportsSym.(func() map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("Exports has wrong signature")
	}

	var initFunc func(interface{}) error
	if sym, err := p.Lookup("Initialize"); err == nil {
		if f, ok := sym.(func(interface{}) error); ok {
			initFunc = f
		}
	}
	var disposeFunc func() error
	if sym, err := p.Lookup("Dispose"); err == nil {
		if f, ok := sym.(func() error); ok {
			disposeFunc = f
		}
	}

	return &symbolExtension{
		nameFunc:    nameFunc,
		versionFunc: versionFunc,
		exportsFunc: exportsFunc,
		initFunc:    initFunc,
		disposeFunc: disposeFunc,
	}, nil
}

type symbolExtension struct {
	nameFunc    func() string
	versionFunc func() string
	exportsFunc func() map[string]interface{}
	initFunc    func(interface{}) error
	disposeFunc func() error
}

func (e *symbolExtension) Name() string    { return e.nameFunc() }
func (e *symbolExtension) Version() string { return e.versionFunc() }
func (e *symbolExtension) Exports() map[string]interface{} { return e.exportsFunc() }

func (e *symbolExtension) Initialize(env interface{}) error {
	if e.initFunc != nil {
		return e.initFunc(env)
	}
	return nil
}

func (e *symbolExtension) Dispose() error {
	if e.disposeFunc != nil {
		return e.disposeFunc()
	}
	return nil
}

// Unload disposes and forgets the extension loaded from path.
func (l *Loader) Unload(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, exists := l.loaded[absPath]
	if !exists {
		return fmt.Errorf("native extension not loaded: %s", path)
	}
	if err := info.Extension.Dispose(); err != nil {
		return fmt.Errorf("failed to dispose native extension %s: %w", info.Name, err)
	}
	delete(l.loaded, absPath)
	return nil
}

// List returns every currently loaded extension.
func (l *Loader) List() []*ExtensionInfo {
	out := make([]*ExtensionInfo, 0, len(l.loaded))
	for _, info := range l.loaded {
		out = append(out, info)
	}
	return out
}
