package natives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLoadNonExistentFileReturnsWrappedError(t *testing.T) {
	loader := NewLoader(nil)

	_, err := loader.Load("/absolutely/nonexistent/extension.so")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open native extension")
}

func TestLoaderUnloadUnknownPathReturnsError(t *testing.T) {
	loader := NewLoader(nil)

	err := loader.Unload("/absolutely/nonexistent/extension.so")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not loaded")
}

func TestLoaderListIsEmptyUntilSomethingLoads(t *testing.T) {
	loader := NewLoader(nil)
	assert.Empty(t, loader.List())
}

func TestSymbolExtensionDisposeIsNoopWithoutDisposeSymbol(t *testing.T) {
	ext := &symbolExtension{
		nameFunc:    func() string { return "fixture" },
		versionFunc: func() string { return "1.0.0" },
		exportsFunc: func() map[string]interface{} { return map[string]interface{}{} },
	}

	assert.Equal(t, "fixture", ext.Name())
	assert.Equal(t, "1.0.0", ext.Version())
	assert.NoError(t, ext.Initialize(nil), "Initialize must be a no-op when no Initialize symbol was found")
	assert.NoError(t, ext.Dispose(), "Dispose must be a no-op when no Dispose symbol was found")
}

func TestSymbolExtensionInitializeDelegatesWhenPresent(t *testing.T) {
	var seenEnv interface{}
	ext := &symbolExtension{
		nameFunc:    func() string { return "fixture" },
		versionFunc: func() string { return "1.0.0" },
		exportsFunc: func() map[string]interface{} { return map[string]interface{}{} },
		initFunc: func(env interface{}) error {
			seenEnv = env
			return nil
		},
	}

	marker := "the-environment"
	require.NoError(t, ext.Initialize(marker))
	assert.Equal(t, marker, seenEnv)
}
