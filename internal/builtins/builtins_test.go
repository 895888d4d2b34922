package builtins

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, obj *goja.Object, method string, args ...goja.Value) goja.Value {
	t.Helper()
	fn, ok := goja.AssertFunction(obj.Get(method))
	require.True(t, ok, "expected %q to be callable", method)
	v, err := fn(goja.Undefined(), args...)
	require.NoError(t, err)
	return v
}

func TestRegistryHasAndGetKnownBuiltins(t *testing.T) {
	rt := goja.New()
	reg := New(rt)

	for _, name := range []string{"path", "os", "util", "assert", "core"} {
		assert.True(t, reg.Has(name), "expected built-in %q to be registered", name)
		_, ok := reg.Get(name)
		assert.True(t, ok)
	}

	assert.False(t, reg.Has("fs"), "fs was never registered as a built-in")
	_, ok := reg.Get("fs")
	assert.False(t, ok)
}

func TestCoreModuleExposesVersionAndPlatform(t *testing.T) {
	rt := goja.New()
	reg := New(rt)
	core, _ := reg.Get("core")

	assert.Equal(t, "0.1.0", core.Get("version").String())
	assert.Equal(t, "modloader", core.Get("platform").String())
}

func TestPathModuleJoinDirnameBasenameExtname(t *testing.T) {
	rt := goja.New()
	reg := New(rt)
	path, _ := reg.Get("path")

	joined := call(t, path, "join", rt.ToValue("a"), rt.ToValue("b"), rt.ToValue("c.js"))
	assert.Equal(t, "a/b/c.js", joined.String())

	assert.Equal(t, "a/b", call(t, path, "dirname", rt.ToValue("a/b/c.js")).String())
	assert.Equal(t, "c.js", call(t, path, "basename", rt.ToValue("a/b/c.js")).String())
	assert.Equal(t, ".js", call(t, path, "extname", rt.ToValue("a/b/c.js")).String())
	assert.Equal(t, "/", path.Get("sep").String())
}

func TestPathModuleIsAbsolute(t *testing.T) {
	rt := goja.New()
	reg := New(rt)
	path, _ := reg.Get("path")

	assert.True(t, call(t, path, "isAbsolute", rt.ToValue("/a/b")).ToBoolean())
	assert.False(t, call(t, path, "isAbsolute", rt.ToValue("a/b")).ToBoolean())
}

func TestOSModuleReportsPlatformTmpdirAndCwd(t *testing.T) {
	rt := goja.New()
	reg := New(rt)
	osMod, _ := reg.Get("os")

	platform := call(t, osMod, "platform")
	assert.NotEmpty(t, platform.String())

	tmp := call(t, osMod, "tmpdir")
	assert.NotEmpty(t, tmp.String())

	cwd := call(t, osMod, "cwd")
	assert.NotEmpty(t, cwd.String())
}

func TestUtilModuleIsArrayAndIsFunction(t *testing.T) {
	rt := goja.New()
	reg := New(rt)
	util, _ := reg.Get("util")

	arrVal, err := rt.RunString("[1,2,3]")
	require.NoError(t, err)
	assert.True(t, call(t, util, "isArray", arrVal).ToBoolean())

	objVal, err := rt.RunString("({})")
	require.NoError(t, err)
	assert.False(t, call(t, util, "isArray", objVal).ToBoolean())

	fnVal, err := rt.RunString("(function(){})")
	require.NoError(t, err)
	assert.True(t, call(t, util, "isFunction", fnVal).ToBoolean())
	assert.False(t, call(t, util, "isFunction", objVal).ToBoolean())
}

func TestUtilModuleInspectStringifiesValue(t *testing.T) {
	rt := goja.New()
	reg := New(rt)
	util, _ := reg.Get("util")

	out := call(t, util, "inspect", rt.ToValue(42))
	assert.Equal(t, "42", out.String())
}

func TestAssertModuleCallableFormThrowsOnFalsy(t *testing.T) {
	rt := goja.New()
	reg := New(rt)
	assertMod, _ := reg.Get("assert")

	fn, ok := goja.AssertFunction(assertMod)
	require.True(t, ok, "the assert module export itself must be callable")

	_, err := fn(goja.Undefined(), rt.ToValue(true))
	assert.NoError(t, err)

	_, err = fn(goja.Undefined(), rt.ToValue(false), rt.ToValue("boom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestAssertModuleOkMirrorsCallableForm(t *testing.T) {
	rt := goja.New()
	reg := New(rt)
	assertMod, _ := reg.Get("assert")

	okFn, ok := goja.AssertFunction(assertMod.Get("ok"))
	require.True(t, ok)

	_, err := okFn(goja.Undefined(), rt.ToValue(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion failed")
}

func TestAssertModuleEqualComparesExportedValues(t *testing.T) {
	rt := goja.New()
	reg := New(rt)
	assertMod, _ := reg.Get("assert")

	equalFn, ok := goja.AssertFunction(assertMod.Get("equal"))
	require.True(t, ok)

	_, err := equalFn(goja.Undefined(), rt.ToValue("a"), rt.ToValue("a"))
	assert.NoError(t, err)

	_, err = equalFn(goja.Undefined(), rt.ToValue("a"), rt.ToValue("b"))
	assert.Error(t, err)

	_, err = equalFn(goja.Undefined(), rt.ToValue("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires two arguments")
}
