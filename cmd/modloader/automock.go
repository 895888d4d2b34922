package main

import (
	"fmt"
	"path/filepath"

	"github.com/dop251/goja"
	"github.com/spf13/cobra"
)

var automockCmd = &cobra.Command{
	Use:   "automock <importer-file> <requested-name>",
	Short: "Synthesize and print the keys of an automock for a requested module",
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

		mock, err := l.GenMockFromModule(importer, args[1])
		if err != nil {
			return err
		}
		if obj, ok := mock.(*goja.Object); ok {
			for _, key := range obj.Keys() {
				fmt.Println(key)
			}
			return nil
		}
		fmt.Printf("%#v\n", mock.Export())
		return nil
	},
}
