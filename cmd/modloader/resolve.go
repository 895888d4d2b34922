package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <importer-file> <requested-name>",
	Short: "Resolve a requested module identifier the way a bound require() would",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		importer, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		root := filepath.Dir(importer)

		l, err := buildLoader(root, importer)
		if err != nil {
			return err
		}

		val, err := l.RequireModuleOrMock(importer, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("resolved %q from %q -> %#v\n", args[1], importer, val.Export())
		return nil
	},
}
