package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps <file>",
	Short: "Print the direct dependencies declared for a scanned file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		root := filepath.Dir(path)

		l, err := buildLoader(root, path)
		if err != nil {
			return err
		}

		deps, err := l.GetDependenciesFromPath(path)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			fmt.Println(dep)
		}
		return nil
	},
}
