package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modverse/loader/internal/coverage"
	"github.com/modverse/loader/internal/environment"
	"github.com/modverse/loader/internal/transformer"
	"github.com/modverse/loader/pkg/config"
)

func newTestExecutor(t *testing.T, cf coverage.Factory, cfg *config.LoaderConfig) (*Executor, *environment.GojaEnvironment) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	env := environment.New("/virtual/test.js")
	return NewExecutor(env, transformer.Identity{}, cfg, cf), env
}

func buildPreallocated(env *environment.GojaEnvironment, filename string) *ModuleRecord {
	return &ModuleRecord{Filename: filename, Exports: env.Runtime().NewObject()}
}

func TestExecutorInvokesModuleWrapperWithBoundArgs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mod.js")
	writeFile(t, file, `
exports.dirnameSeen = __dirname;
exports.filenameSeen = __filename;
exports.hasModule = typeof module === "object";
exports.hasJest = typeof jest === "object";
`)

	exec, env := newTestExecutor(t, nil, nil)
	rec := buildPreallocated(env, file)
	rt := env.Runtime()

	requireObj := rt.NewObject()
	jestAPI := rt.NewObject()

	err := exec.Execute(rec, requireObj, jestAPI, false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(file), rec.Exports.Get("dirnameSeen").Export())
	assert.Equal(t, file, rec.Exports.Get("filenameSeen").Export())
	assert.Equal(t, true, rec.Exports.Get("hasModule").Export())
	assert.Equal(t, true, rec.Exports.Get("hasJest").Export())
}

func TestExecutorNoopWhenEnvironmentTornDown(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mod.js")
	writeFile(t, file, `exports.ran = true;`)

	env := environment.New("/virtual/test.js")
	env.Dispose()
	exec := NewExecutor(env, transformer.Identity{}, config.Default(), nil)
	rec := &ModuleRecord{Filename: file, Exports: env.Runtime().NewObject()}

	err := exec.Execute(rec, env.Runtime().NewObject(), env.Runtime().NewObject(), false)
	require.NoError(t, err)
	assert.False(t, rec.Exports.Get("ran").ToBoolean())
}

func TestExecutorSentinelParentHasEmptyExports(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mod.js")
	writeFile(t, file, `exports.parentKeys = Object.keys(module.parent.exports).length;`)

	exec, env := newTestExecutor(t, nil, nil)
	rec := buildPreallocated(env, file)
	rt := env.Runtime()

	err := exec.Execute(rec, rt.NewObject(), rt.NewObject(), false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Exports.Get("parentKeys").ToInteger())
}

func TestExecutorWithCoverageInstrumentsAndRecordsHits(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mod.js")
	writeFile(t, file, "exports.value = 1;\nexports.value = exports.value + 1;")

	cfg := config.Default()
	cfg.CollectCoverage = true
	factory := coverage.NewSourceFactory()

	exec, env := newTestExecutor(t, factory, cfg)
	rec := buildPreallocated(env, file)
	rt := env.Runtime()

	err := exec.Execute(rec, rt.NewObject(), rt.NewObject(), false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Exports.Get("value").ToInteger())

	info := factory.GetCoverageDataStore().ExtractRuntimeCoverageInfo(coverageSinkName(file))
	require.NotNil(t, info)
	fc, ok := info.(*coverage.FileCoverage)
	require.True(t, ok)
	assert.Equal(t, 1, fc.LineHits[1])
	assert.Equal(t, 1, fc.LineHits[2])
}

func TestExecutorModuleExportsReassignmentCopiedBack(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mod.js")
	writeFile(t, file, `module.exports = { replaced: true };`)

	exec, env := newTestExecutor(t, nil, nil)
	rec := buildPreallocated(env, file)
	rt := env.Runtime()
	originalExports := rec.Exports

	err := exec.Execute(rec, rt.NewObject(), rt.NewObject(), false)
	require.NoError(t, err)

	assert.Equal(t, true, originalExports.Get("replaced").Export(), "reassigned module.exports must be copied back onto the original reference cell")
}
