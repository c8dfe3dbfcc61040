package config

import "testing"

func TestMergeConfigs(t *testing.T) {
	server := DefaultConfig()
	server.Dispatch.OnLookupFailure = LookupDegrade

	repo := &RepoConfig{
		OnLookupFailure: LookupAbort,
		Commands: []RepoCommandConfig{
			{Name: "benchmark", Permission: "admin"},
			{Name: "platform_tests", Disabled: true},
		},
	}

	merged := MergeConfigs(server, repo)

	// Repo policy should override
	if merged.OnLookupFailure != LookupAbort {
		t.Errorf("OnLookupFailure = %q, want %q", merged.OnLookupFailure, LookupAbort)
	}

	// Repo permission should override
	if got := merged.Command("benchmark").Permission; got != "admin" {
		t.Errorf("benchmark.Permission = %q, want %q", got, "admin")
	}

	// Server default should remain where repo doesn't override
	if got := merged.Command("platform_tests").Permission; got != "write" {
		t.Errorf("platform_tests.Permission = %q, want server default", got)
	}
	if !merged.Disabled["platform_tests"] {
		t.Error("platform_tests should be disabled")
	}
	if merged.Disabled["benchmark"] {
		t.Error("benchmark should not be disabled")
	}
}

func TestMergeConfigs_EmptyRepo(t *testing.T) {
	server := DefaultConfig()
	server.Dispatch.OnLookupFailure = LookupAbort

	merged := MergeConfigs(server, &RepoConfig{})

	// Should use server defaults
	if merged.OnLookupFailure != LookupAbort {
		t.Errorf("OnLookupFailure = %q, want server default", merged.OnLookupFailure)
	}
	if got := merged.Command("benchmark"); got.Backend != BackendGitHubRepository {
		t.Errorf("benchmark.Backend = %q, want server default", got.Backend)
	}
}

func TestMergeConfigs_RepoCannotAddOrBreak(t *testing.T) {
	server := DefaultConfig()

	repo := &RepoConfig{
		OnLookupFailure: "ignore",
		Commands: []RepoCommandConfig{
			{Name: "deploy", Permission: "read"},
			{Name: "benchmark", Permission: "superuser"},
		},
	}

	merged := MergeConfigs(server, repo)

	if merged.OnLookupFailure != LookupDegrade {
		t.Errorf("OnLookupFailure = %q, want server value for unknown policy", merged.OnLookupFailure)
	}
	if _, ok := merged.Commands["deploy"]; ok {
		t.Error("repo config should not add commands")
	}
	if got := merged.Command("benchmark").Permission; got != "write" {
		t.Errorf("benchmark.Permission = %q, want server value for unknown permission", got)
	}
}
