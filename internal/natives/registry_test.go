package natives

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRequirePropagatesLoadError(t *testing.T) {
	rt := goja.New()
	loader := NewLoader(nil)
	reg := NewRegistry(rt, loader)

	_, err := reg.Require("/absolutely/nonexistent/extension.so")
	require.Error(t, err)
	assert.False(t, reg.IsLoaded("/absolutely/nonexistent/extension.so"))
}

func TestToModuleExportsBridgesNameVersionAndFields(t *testing.T) {
	rt := goja.New()
	info := &ExtensionInfo{
		Name:    "widgets",
		Version: "2.0.0",
		Extension: &symbolExtension{
			nameFunc:    func() string { return "widgets" },
			versionFunc: func() string { return "2.0.0" },
			exportsFunc: func() map[string]interface{} {
				return map[string]interface{}{"makeWidget": func() string { return "widget" }}
			},
		},
	}

	obj := ToModuleExports(rt, info)
	assert.Equal(t, "widgets", obj.Get("__nativeExtensionName").String())
	assert.Equal(t, "2.0.0", obj.Get("__nativeExtensionVersion").String())

	fn, ok := goja.AssertFunction(obj.Get("makeWidget"))
	require.True(t, ok, "exported Go funcs must be callable from goja")
	ret, err := fn(goja.Undefined())
	require.NoError(t, err)
	assert.Equal(t, "widget", ret.String())
}
