package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/modverse/loader/internal/environment"
	"github.com/modverse/loader/internal/loader"
	"github.com/modverse/loader/internal/resourcemap"
	"github.com/modverse/loader/pkg/config"
)

// scanProject walks root and builds a minimal in-memory ResourceMap: a
// Source resource per .js/.json file, a ManualMock resource for anything
// under a __mocks__ directory, and a ProjectConfig resource for any
// package.json it finds. This is a CLI convenience, not the spec's
// external Resource Indexer — the real indexer's on-disk cache format is
// explicitly out of scope for the core itself.
func scanProject(root string) (resourcemap.Map, error) {
	var resources []*resourcemap.Resource

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			if info.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case filepath.Base(path) == "package.json":
			resources = append(resources, &resourcemap.Resource{
				ID:   path,
				Type: resourcemap.ProjectConfig,
				Path: path,
				Data: resourcemap.ProjectData{Name: filepath.Base(filepath.Dir(path))},
			})
		case strings.Contains(path, string(filepath.Separator)+"__mocks__"+string(filepath.Separator)):
			resources = append(resources, &resourcemap.Resource{
				ID:   path,
				Type: resourcemap.ManualMock,
				Path: path,
			})
		case strings.HasSuffix(path, ".js") || strings.HasSuffix(path, ".json"):
			resources = append(resources, &resourcemap.Resource{
				ID:   path,
				Type: resourcemap.Source,
				Path: path,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resourcemap.NewMemoryMap(resources), nil
}

// buildLoader wires a Loader for CLI use: config from flagConfigPath (or
// defaults), a scanned resource map rooted at root, and a fresh goja
// Environment with testFilePath set to entryFile.
func buildLoader(root, entryFile string) (*loader.Loader, error) {
	cfg := config.Default()
	if flagConfigPath != "" {
		loaded, err := loadConfig(flagConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	resources, err := scanProject(root)
	if err != nil {
		return nil, err
	}

	env := environment.New(entryFile)
	return loader.New(cfg, resources, env, nil), nil
}

func loadConfig(path string) (*config.LoaderConfig, error) {
	if strings.HasSuffix(path, ".json") {
		return config.LoadJSON(path)
	}
	return config.LoadYAML(path)
}
