package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Dispatch backends.
const (
	BackendGitHubRepository = "github-repository"
	BackendGitHubWorkflow   = "github-workflow"
	BackendGitLabPipeline   = "gitlab-pipeline"
	BackendDocker           = "docker"
)

// Policies for a failed pull request lookup.
const (
	LookupDegrade = "degrade"
	LookupAbort   = "abort"
)

// Config represents the server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Providers ProvidersConfig `yaml:"providers"`
	Events    EventsConfig    `yaml:"events"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Commands  []CommandConfig `yaml:"commands"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`

	// TrustForwardedFor keys rate limits on X-Forwarded-For instead of the
	// socket peer. Only set it behind a proxy that overwrites the header.
	TrustForwardedFor bool `yaml:"trust_forwarded_for"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// ProvidersConfig holds git provider configurations.
type ProvidersConfig struct {
	GitHub GitHubConfig `yaml:"github"`
	GitLab GitLabConfig `yaml:"gitlab"`
}

// GitHubConfig holds GitHub-specific settings.
type GitHubConfig struct {
	Token         string `yaml:"token"`
	WebhookSecret string `yaml:"webhook_secret"`
	BaseURL       string `yaml:"base_url"`
}

// GitLabConfig holds GitLab-specific settings.
type GitLabConfig struct {
	Token         string `yaml:"token"`
	WebhookSecret string `yaml:"webhook_secret"`
	BaseURL       string `yaml:"base_url"`
	TriggerToken  string `yaml:"trigger_token"`
}

// EventsConfig controls comment intake.
type EventsConfig struct {
	DedupeSeconds int `yaml:"dedupe_seconds"`
	DedupeSize    int `yaml:"dedupe_size"`
}

// DispatchConfig holds settings shared by every command.
type DispatchConfig struct {
	OnLookupFailure string       `yaml:"on_lookup_failure"`
	Reactions       bool         `yaml:"reactions"`
	EventTypeSuffix string       `yaml:"event_type_suffix"`
	Docker          DockerConfig `yaml:"docker"`
}

// DockerConfig holds settings for the docker backend.
type DockerConfig struct {
	Network string `yaml:"network"`
}

// CommandConfig describes how one slash command is authorised and dispatched.
type CommandConfig struct {
	Name       string `yaml:"name"`
	Usage      string `yaml:"usage"`
	Permission string `yaml:"permission"`
	Backend    string `yaml:"backend"`
	EventType  string `yaml:"event_type"`
	Workflow   string `yaml:"workflow"`
	Ref        string `yaml:"ref"`
	Image      string `yaml:"image"`
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

var validPermissions = map[string]bool{
	"none": true, "read": true, "triage": true, "write": true, "maintain": true, "admin": true,
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 7000,
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "text",
			RetentionDays: 30,
		},
		Events: EventsConfig{
			DedupeSeconds: 300,
			DedupeSize:    1024,
		},
		Dispatch: DispatchConfig{
			OnLookupFailure: LookupDegrade,
			Reactions:       true,
			EventTypeSuffix: "-command",
		},
		Commands: []CommandConfig{
			defaultCommand("platform_tests"),
			defaultCommand("benchmark"),
		},
	}
}

func defaultCommand(name string) CommandConfig {
	return CommandConfig{
		Name:       name,
		Permission: "write",
		Backend:    BackendGitHubRepository,
	}
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML config data on top of DefaultConfig.
func Parse(data []byte) (*Config, error) {
	// Substitute environment variables
	data = envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(varName)))
	})

	// Start with defaults
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	for i := range cfg.Commands {
		cfg.Commands[i] = fillCommand(cfg.Commands[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Command returns the settings for the named command, falling back to the
// defaults when the command is not listed.
func (c *Config) Command(name string) CommandConfig {
	for _, cmd := range c.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return defaultCommand(name)
}

// Validate checks the config for values the dispatcher cannot act on.
func (c *Config) Validate() error {
	switch c.Dispatch.OnLookupFailure {
	case LookupDegrade, LookupAbort:
	default:
		return fmt.Errorf("dispatch.on_lookup_failure: must be %q or %q, got %q", LookupDegrade, LookupAbort, c.Dispatch.OnLookupFailure)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: must be text or json, got %q", c.Logging.Format)
	}

	seen := make(map[string]bool, len(c.Commands))
	for _, cmd := range c.Commands {
		if cmd.Name == "" {
			return fmt.Errorf("commands: name is required")
		}
		if seen[cmd.Name] {
			return fmt.Errorf("commands: duplicate command %q", cmd.Name)
		}
		seen[cmd.Name] = true

		if !validPermissions[cmd.Permission] {
			return fmt.Errorf("commands.%s.permission: unknown permission %q", cmd.Name, cmd.Permission)
		}

		switch cmd.Backend {
		case BackendGitHubRepository, BackendGitLabPipeline:
		case BackendGitHubWorkflow:
			if cmd.Workflow == "" {
				return fmt.Errorf("commands.%s.workflow: required for backend %s", cmd.Name, cmd.Backend)
			}
		case BackendDocker:
			if cmd.Image == "" {
				return fmt.Errorf("commands.%s.image: required for backend %s", cmd.Name, cmd.Backend)
			}
		default:
			return fmt.Errorf("commands.%s.backend: unknown backend %q", cmd.Name, cmd.Backend)
		}
	}

	return nil
}

func fillCommand(cmd CommandConfig) CommandConfig {
	def := defaultCommand(cmd.Name)
	cmd.Permission = coalesce(cmd.Permission, def.Permission)
	cmd.Backend = coalesce(cmd.Backend, def.Backend)
	return cmd
}
