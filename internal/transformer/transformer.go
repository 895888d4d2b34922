// Package transformer defines the source-transformation contract the
// Executor applies to a module's raw file contents before evaluation. The
// real transformer (a Babel-equivalent source rewriter) is an external
// collaborator and out of scope; this package supplies the contract plus
// an identity default.
package transformer

import (
	"fmt"
	"os"

	"github.com/modverse/loader/pkg/config"
)

// Transformer rewrites a module's source before the Executor evaluates
// it. Implementations read the file themselves (per the spec's
// collaborator contract, transform(filename, config) -> source string).
type Transformer interface {
	Transform(filename string, cfg *config.LoaderConfig) (string, error)
}

// Identity reads a file's contents unchanged, matching the teacher's
// loadFileModule behavior for source files that need no rewriting (the
// default when no real source transformer is configured).
type Identity struct{}

func (Identity) Transform(filename string, _ *config.LoaderConfig) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read module %s: %w", filename, err)
	}
	return string(data), nil
}
