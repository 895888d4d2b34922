// Command modloader exercises the module loader core standalone: it
// resolves an identifier the way a bound require() would, reports the
// dependency graph derived from a scanned project tree, or synthesizes
// an automock — useful for debugging resolution/policy decisions without
// a full test runner attached. Grounded on the corpus's
// root-command-plus-subcommands Cobra layout (cloudposse-atmos); the
// teacher carries spf13/cobra as an indirect dependency but never wires
// a command tree of its own.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
