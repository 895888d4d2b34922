package natives

import "github.com/dop251/goja"

// ToModuleExports converts a loaded extension's Exports() map into the
// *goja.Object a module record's exports cell should hold, bypassing JS
// evaluation entirely. Goja converts Go values passed to Set directly,
// the same shortcut the teacher's Bridge relied on.
func ToModuleExports(rt *goja.Runtime, info *ExtensionInfo) *goja.Object {
	obj := rt.NewObject()
	obj.Set("__nativeExtensionName", info.Name)
	obj.Set("__nativeExtensionVersion", info.Version)
	for name, value := range info.Extension.Exports() {
		obj.Set(name, value)
	}
	return obj
}
