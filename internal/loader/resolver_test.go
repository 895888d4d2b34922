package loader

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modverse/loader/internal/builtins"
	"github.com/modverse/loader/internal/resourcemap"
	"github.com/modverse/loader/pkg/config"
)

func newTestResolver(t *testing.T, cfg *config.LoaderConfig, resources []*resourcemap.Resource, extraRoots []string) *Resolver {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	bi := builtins.New(goja.New())
	return NewResolver(cfg, resourcemap.NewMemoryMap(resources), bi, extraRoots)
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestResolveCoreModule(t *testing.T) {
	r := newTestResolver(t, nil, nil, nil)

	id, err := r.Resolve("/project/index.js", "path")
	require.NoError(t, err)
	assert.Equal(t, KindCore, id.Kind)
	assert.Equal(t, "path", id.RealPath)
}

func TestResolveRelativePathForm(t *testing.T) {
	dir := t.TempDir()
	importer := filepath.Join(dir, "index.js")
	target := filepath.Join(dir, "util.js")
	writeFile(t, importer, "")
	writeFile(t, target, "module.exports = {}")

	r := newTestResolver(t, nil, nil, nil)
	id, err := r.Resolve(importer, "./util")
	require.NoError(t, err)
	assert.Equal(t, KindUser, id.Kind)
	assert.Equal(t, target, id.RealPath)
}

func TestResolveAppendsConfiguredExtensions(t *testing.T) {
	dir := t.TempDir()
	importer := filepath.Join(dir, "index.js")
	target := filepath.Join(dir, "data.json")
	writeFile(t, importer, "")
	writeFile(t, target, "{}")

	r := newTestResolver(t, nil, nil, nil)
	id, err := r.Resolve(importer, "./data")
	require.NoError(t, err)
	assert.Equal(t, target, id.RealPath)
}

func TestResolveDirectoryAsPackageDefaultsToIndex(t *testing.T) {
	dir := t.TempDir()
	importer := filepath.Join(dir, "index.js")
	pkgIndex := filepath.Join(dir, "widget", "index.js")
	writeFile(t, importer, "")
	writeFile(t, pkgIndex, "module.exports = {}")

	r := newTestResolver(t, nil, nil, nil)
	id, err := r.Resolve(importer, "./widget")
	require.NoError(t, err)
	assert.Equal(t, pkgIndex, id.RealPath)
}

func TestResolveAttachesMockSibling(t *testing.T) {
	dir := t.TempDir()
	importer := filepath.Join(dir, "index.js")
	target := filepath.Join(dir, "util.js")
	mock := filepath.Join(dir, "__mocks__", "util.js")
	writeFile(t, importer, "")
	writeFile(t, target, "module.exports = {}")
	writeFile(t, mock, "module.exports = { mocked: true }")

	r := newTestResolver(t, nil, nil, nil)
	id, err := r.Resolve(importer, "./util")
	require.NoError(t, err)
	assert.Equal(t, target, id.RealPath)
	assert.Equal(t, mock, id.MockPath)
}

func TestResolveLogicalNameFromResourceMap(t *testing.T) {
	resources := []*resourcemap.Resource{
		{ID: "left-pad", Type: resourcemap.Source, Path: "/deps/left-pad/index.js"},
	}
	r := newTestResolver(t, nil, resources, nil)

	id, err := r.Resolve("/project/index.js", "left-pad")
	require.NoError(t, err)
	assert.Equal(t, "/deps/left-pad/index.js", id.RealPath)
}

func TestResolveManualMockOnlyEntry(t *testing.T) {
	resources := []*resourcemap.Resource{
		{ID: "fs", Type: resourcemap.ManualMock, Path: "/project/__mocks__/fs.js"},
	}
	r := newTestResolver(t, nil, resources, nil)

	id, err := r.Resolve("/project/index.js", "fs")
	require.NoError(t, err)
	assert.Equal(t, "", id.RealPath)
	assert.Equal(t, "/project/__mocks__/fs.js", id.MockPath)
}

func TestResolveUnknownModuleFails(t *testing.T) {
	r := newTestResolver(t, nil, nil, nil)
	_, err := r.Resolve("/project/index.js", "nonexistent-package")
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestResolveNameMappingSubstitutesCaptureGroups(t *testing.T) {
	dir := t.TempDir()
	importer := filepath.Join(dir, "index.js")
	target := filepath.Join(dir, "styles", "button.js")
	writeFile(t, importer, "")
	writeFile(t, target, "module.exports = {}")

	cfg := config.Default()
	cfg.ModuleNameMapper = []config.NameMapping{
		{Pattern: regexp.MustCompile(`^css/(.*)$`), CanonicalName: "./styles/$1"},
	}

	r := newTestResolver(t, cfg, nil, nil)
	id, err := r.Resolve(importer, "css/button")
	require.NoError(t, err)
	assert.Equal(t, target, id.RealPath)
}

func TestResolveManifestFallbackDirectionality(t *testing.T) {
	root := t.TempDir()
	pkgDir := filepath.Join(root, "node_modules", "leftpad")
	pkgManifest := filepath.Join(pkgDir, "package.json")
	pkgMain := filepath.Join(pkgDir, "index.js")
	writeFile(t, pkgManifest, `{"name":"leftpad"}`)
	writeFile(t, pkgMain, "module.exports = {}")

	importerInsidePkg := filepath.Join(pkgDir, "lib", "helper.js")
	writeFile(t, importerInsidePkg, "")
	importerOutsidePkg := filepath.Join(root, "app.js")
	writeFile(t, importerOutsidePkg, "")

	resources := []*resourcemap.Resource{
		{ID: "leftpad-manifest", Type: resourcemap.ProjectConfig, Path: pkgManifest, Data: resourcemap.ProjectData{Name: "leftpad", Main: "index"}},
	}
	r := newTestResolver(t, nil, resources, nil)

	// A requester already nested inside the package's own directory should
	// not be redirected back to the package's manifest fallback.
	_, err := r.Resolve(importerInsidePkg, "leftpad")
	assert.ErrorIs(t, err, ErrModuleNotFound)

	// A requester outside the package directory falls through to it.
	id, err := r.Resolve(importerOutsidePkg, "leftpad")
	require.NoError(t, err)
	assert.Equal(t, pkgMain, id.RealPath)
}

func TestResolveFromExtraSearchRoot(t *testing.T) {
	root := t.TempDir()
	extra := filepath.Join(root, "extra")
	importerDir := filepath.Join(root, "src")
	importer := filepath.Join(importerDir, "index.js")
	target := filepath.Join(extra, "helper.js")
	writeFile(t, importer, "")
	writeFile(t, target, "module.exports = {}")

	r := newTestResolver(t, nil, nil, []string{extra})
	id, err := r.Resolve(importer, "helper")
	require.NoError(t, err)
	assert.Equal(t, target, id.RealPath)
}
