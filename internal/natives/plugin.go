// Package natives loads native Go extensions (compiled via Go's plugin
// package) whose Exports() become a module's real exports object,
// bypassing JS evaluation entirely for the module's file path. Adapted
// from the teacher's internal/plugins package, re-scoped from "Gode
// built-in module" to "one loader-resolved module's real exports".
package natives

// Extension is a loadable native module. The Loader builds one from a
// compiled plugin's package-level Name/Version/Exports functions (plus
// optional Initialize/Dispose).
type Extension interface {
	Name() string
	Version() string
	Initialize(env interface{}) error
	Exports() map[string]interface{}
	Dispose() error
}

// ExtensionInfo carries metadata about a loaded native extension
// alongside the extension itself.
type ExtensionInfo struct {
	Name        string
	Version     string
	Path        string
	Extension   Extension
	Initialized bool
}
