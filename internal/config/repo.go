package config

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RepoConfigPath is where a repository keeps its dispatcher overrides.
const RepoConfigPath = ".slashdispatch/config.yaml"

// ErrConfigNotFound indicates the repo config file doesn't exist.
var ErrConfigNotFound = errors.New("config not found")

// RepoConfig represents repository-level configuration.
type RepoConfig struct {
	OnLookupFailure string              `yaml:"on_lookup_failure"`
	Commands        []RepoCommandConfig `yaml:"commands"`
}

// RepoCommandConfig holds the per-command values a repository may override.
type RepoCommandConfig struct {
	Name       string `yaml:"name"`
	Permission string `yaml:"permission"`
	Disabled   bool   `yaml:"disabled"`
}

// FileReader reads files from a repository.
type FileReader interface {
	ReadFile(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
}

// LoadRepoConfig loads the repo config from .slashdispatch/config.yaml.
func LoadRepoConfig(ctx context.Context, reader FileReader, owner, repo, ref string) (*RepoConfig, error) {
	data, err := reader.ReadFile(ctx, owner, repo, RepoConfigPath, ref)
	if errors.Is(err, ErrConfigNotFound) {
		return &RepoConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading repo config: %w", err)
	}

	var cfg RepoConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing repo config: %w", err)
	}

	return &cfg, nil
}
