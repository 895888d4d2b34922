// Package config defines the immutable per-test configuration consumed by
// the module loader core.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"dario.cat/mergo"
	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// NameMapping is one entry of moduleNameMapper: a compiled pattern and the
// canonical name it rewrites a matching request to.
type NameMapping struct {
	Pattern       *regexp.Regexp
	CanonicalName string
}

// rawNameMapping is the wire shape of a NameMapping before its pattern is
// compiled.
type rawNameMapping struct {
	Pattern       string `json:"pattern" yaml:"pattern"`
	CanonicalName string `json:"canonicalName" yaml:"canonicalName"`
}

// LoaderConfig is the immutable configuration for one Loader instance.
// It is never mutated after construction (spec data model, LoaderConfig).
type LoaderConfig struct {
	Name                    string
	ModuleFileExtensions    []string
	ModuleNameMapper        []NameMapping
	ModulePathIgnorePatterns []string
	UnmockedModulePathPatterns []string
	AutoMockDefault         bool
	CollectCoverage         bool
	CollectCoverageOnlyFrom map[string]bool
	CacheDirectory          string
	TestPathDirs            []string
	VendorPath              string
	TestEnvData             map[string]interface{}
}

// rawLoaderConfig mirrors LoaderConfig but with the wire-friendly shapes
// (string patterns instead of compiled regexps) used for JSON/YAML files.
type rawLoaderConfig struct {
	Name                       string           `json:"name" yaml:"name"`
	ModuleFileExtensions       []string         `json:"moduleFileExtensions" yaml:"moduleFileExtensions"`
	ModuleNameMapper           []rawNameMapping `json:"moduleNameMapper" yaml:"moduleNameMapper"`
	ModulePathIgnorePatterns   []string         `json:"modulePathIgnorePatterns" yaml:"modulePathIgnorePatterns"`
	UnmockedModulePathPatterns []string         `json:"unmockedModulePathPatterns" yaml:"unmockedModulePathPatterns"`
	AutoMockDefault            bool             `json:"automock" yaml:"automock"`
	CollectCoverage            bool             `json:"collectCoverage" yaml:"collectCoverage"`
	CollectCoverageOnlyFrom    []string         `json:"collectCoverageOnlyFrom" yaml:"collectCoverageOnlyFrom"`
	CacheDirectory             string           `json:"cacheDirectory" yaml:"cacheDirectory"`
	TestPathDirs               []string         `json:"testPathDirs" yaml:"testPathDirs"`
	VendorPath                 string           `json:"vendorPath" yaml:"vendorPath"`
	TestEnvData                map[string]interface{} `json:"testEnvData" yaml:"testEnvData"`
}

// Default returns the baseline configuration merged under any user-supplied
// values by LoadJSON and LoadYAML. Mirrors the teacher's defaultGodeConfig.
func Default() *LoaderConfig {
	return &LoaderConfig{
		Name:                 "modloader",
		ModuleFileExtensions: []string{"js", "json"},
		AutoMockDefault:      false,
		CacheDirectory:       filepath.Join(xdg.CacheHome, "modloader"),
	}
}

// LoadJSON reads a LoaderConfig from a JSON file, merging it over Default().
func LoadJSON(path string) (*LoaderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var raw rawLoaderConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return fromRaw(&raw)
}

// LoadYAML reads a LoaderConfig from a YAML file, merging it over Default().
func LoadYAML(path string) (*LoaderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var raw rawLoaderConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return fromRaw(&raw)
}

func fromRaw(raw *rawLoaderConfig) (*LoaderConfig, error) {
	cfg := &LoaderConfig{
		Name:                     raw.Name,
		ModuleFileExtensions:     raw.ModuleFileExtensions,
		ModulePathIgnorePatterns: raw.ModulePathIgnorePatterns,
		UnmockedModulePathPatterns: raw.UnmockedModulePathPatterns,
		AutoMockDefault:          raw.AutoMockDefault,
		CollectCoverage:          raw.CollectCoverage,
		CacheDirectory:           raw.CacheDirectory,
		TestPathDirs:             raw.TestPathDirs,
		VendorPath:               raw.VendorPath,
		TestEnvData:              raw.TestEnvData,
	}

	for _, m := range raw.ModuleNameMapper {
		re, err := regexp.Compile(m.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid moduleNameMapper pattern %q: %w", m.Pattern, err)
		}
		cfg.ModuleNameMapper = append(cfg.ModuleNameMapper, NameMapping{Pattern: re, CanonicalName: m.CanonicalName})
	}

	if len(raw.CollectCoverageOnlyFrom) > 0 {
		cfg.CollectCoverageOnlyFrom = make(map[string]bool, len(raw.CollectCoverageOnlyFrom))
		for _, p := range raw.CollectCoverageOnlyFrom {
			cfg.CollectCoverageOnlyFrom[p] = true
		}
	}

	merged := Default()
	if err := mergo.Merge(merged, cfg, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	return merged, nil
}
