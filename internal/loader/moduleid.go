package loader

import "strings"

// idSeparator never appears inside a path component on any supported
// platform, making it safe to join a ModuleID's three fields into one
// string key.
const idSeparator = "\x00"

// ModuleKind distinguishes a platform built-in from an ordinary,
// file-backed module.
type ModuleKind int

const (
	KindUser ModuleKind = iota
	KindCore
)

// ModuleID is the canonical identity of a resolved import: its kind plus
// its real and/or mock absolute path. Either path may be empty, but not
// both.
type ModuleID struct {
	Kind     ModuleKind
	RealPath string
	MockPath string
}

// String encodes the triple as kind ∥ SEP ∥ realPath ∥ SEP ∥ mockPath.
func (id ModuleID) String() string {
	var kind string
	if id.Kind == KindCore {
		kind = "core"
	} else {
		kind = "user"
	}
	return kind + idSeparator + id.RealPath + idSeparator + id.MockPath
}

// parseModuleID reverses String, used only by tests that need to assert
// on a ModuleID's components after a round trip through a map key.
func parseModuleID(s string) (ModuleID, bool) {
	parts := strings.SplitN(s, idSeparator, 3)
	if len(parts) != 3 {
		return ModuleID{}, false
	}
	kind := KindUser
	if parts[0] == "core" {
		kind = KindCore
	}
	return ModuleID{Kind: kind, RealPath: parts[1], MockPath: parts[2]}, true
}
