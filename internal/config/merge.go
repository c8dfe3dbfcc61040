package config

// MergedConfig represents the final merged configuration for one repository.
type MergedConfig struct {
	OnLookupFailure string
	Reactions       bool
	Commands        map[string]CommandConfig
	Disabled        map[string]bool
}

// MergeConfigs merges server config with repo config.
// Repo config values take precedence over server defaults.
func MergeConfigs(server *Config, repo *RepoConfig) *MergedConfig {
	merged := &MergedConfig{
		OnLookupFailure: coalesce(repo.OnLookupFailure, server.Dispatch.OnLookupFailure),
		Reactions:       server.Dispatch.Reactions,
		Commands:        make(map[string]CommandConfig, len(server.Commands)),
		Disabled:        make(map[string]bool),
	}

	// An unknown policy from a repo must not widen behaviour; fall back to the server's.
	if merged.OnLookupFailure != LookupDegrade && merged.OnLookupFailure != LookupAbort {
		merged.OnLookupFailure = server.Dispatch.OnLookupFailure
	}

	for _, cmd := range server.Commands {
		merged.Commands[cmd.Name] = cmd
	}

	// Backends stay server-owned. A repo may change permission or disable a
	// command the server already knows, nothing else.
	for _, rc := range repo.Commands {
		cmd, ok := merged.Commands[rc.Name]
		if !ok {
			continue
		}
		if validPermissions[rc.Permission] {
			cmd.Permission = rc.Permission
		}
		merged.Commands[rc.Name] = cmd
		if rc.Disabled {
			merged.Disabled[rc.Name] = true
		}
	}

	return merged
}

// Command returns the merged settings for the named command.
func (m *MergedConfig) Command(name string) CommandConfig {
	if cmd, ok := m.Commands[name]; ok {
		return cmd
	}
	return defaultCommand(name)
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
