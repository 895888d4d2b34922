// Package environment defines the evaluation sandbox contract the loader
// core runs modules inside, plus a default goja-backed implementation.
// The "real" Environment — a fresh global object and a source-text
// evaluator per test file — is an external collaborator per the spec; this
// package supplies a concrete instance so the loader is runnable and
// testable without a host test framework wired in.
package environment

import "github.com/dop251/goja"

// FakeTimers is the timer-control facility the Runtime API delegates to.
type FakeTimers interface {
	UseFakeTimers()
	UseRealTimers()
	RunAllTicks()
	RunAllImmediates()
	RunAllTimers()
	RunOnlyPendingTimers()
	ClearAllTimers()
}

// AssertionLibrary is the matcher-registration facility the Runtime API's
// addMatchers delegates to.
type AssertionLibrary interface {
	AddMatchers(matchers map[string]interface{}) error
}

// Environment is the evaluation sandbox one Loader is bound to. It must
// expose a fresh global object per test file; IsTornDown reports whether
// that global has since been discarded (the only cancellation signal the
// Executor recognizes).
type Environment interface {
	// Runtime returns the underlying goja runtime so the loader can build
	// and invoke module wrapper functions directly inside it.
	Runtime() *goja.Runtime

	// Global returns the environment's global object. Its identity does
	// not change across the Environment's lifetime; use IsTornDown to
	// detect disposal.
	Global() *goja.Object

	// IsTornDown reports whether the environment has been disposed. Once
	// true, Execute becomes a no-op.
	IsTornDown() bool

	// RunSourceText evaluates source under the given file name and
	// returns its completion value.
	RunSourceText(source, filename string) (goja.Value, error)

	// ParseJSON parses raw bytes using the environment's JSON facility,
	// used by the Executor's .json module bypass.
	ParseJSON(data []byte) (goja.Value, error)

	// FakeTimers returns the timer facility for this environment.
	FakeTimers() FakeTimers

	// AssertionLibrary returns the matcher-registration facility for this
	// environment.
	AssertionLibrary() AssertionLibrary

	// TestFilePath returns the path of the test file this environment was
	// created for.
	TestFilePath() string
}
