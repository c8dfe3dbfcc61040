// Package registry builds the providers, grammar and dispatch routes described
// by the server config.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/drewdunne/slashdispatch/internal/command"
	"github.com/drewdunne/slashdispatch/internal/config"
	"github.com/drewdunne/slashdispatch/internal/dispatch"
	"github.com/drewdunne/slashdispatch/internal/docker"
	"github.com/drewdunne/slashdispatch/internal/provider"
	"github.com/drewdunne/slashdispatch/internal/provider/github"
	"github.com/drewdunne/slashdispatch/internal/provider/gitlab"
)

// Registry holds everything built from config.
type Registry struct {
	providers map[string]provider.Provider
	grammar   *command.Grammar
	router    *dispatch.Router
	docker    *docker.Client

	github *github.GitHubProvider
	gitlab *gitlab.GitLabProvider
}

// New creates a registry from config. A docker client is only created when a
// command uses the docker backend.
func New(cfg *config.Config) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]provider.Provider),
		router:    dispatch.NewRouter(),
	}

	if gh := cfg.Providers.GitHub; gh.Token != "" {
		var opts []github.Option
		if gh.BaseURL != "" {
			opts = append(opts, github.WithBaseURL(gh.BaseURL))
		}
		r.github = github.New(gh.Token, opts...)
		r.providers["github"] = r.github
	}

	if gl := cfg.Providers.GitLab; gl.Token != "" {
		var opts []gitlab.Option
		if gl.BaseURL != "" {
			opts = append(opts, gitlab.WithBaseURL(gl.BaseURL))
		}
		r.gitlab = gitlab.New(gl.Token, opts...)
		r.providers["gitlab"] = r.gitlab
	}

	grammar, err := Grammar(cfg)
	if err != nil {
		return nil, err
	}
	r.grammar = grammar

	for _, cmd := range cfg.Commands {
		d, err := r.dispatcher(cfg, cmd)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.router.Register(command.Command(cmd.Name), d)
	}

	return r, nil
}

// Grammar builds the command grammar in config order. Commands without a
// usage string take the built-in one when there is one.
func Grammar(cfg *config.Config) (*command.Grammar, error) {
	builtin := make(map[command.Command]string)
	for _, r := range command.DefaultRules() {
		builtin[r.Keyword] = r.Usage
	}

	rules := make([]command.Rule, 0, len(cfg.Commands))
	for _, cmd := range cfg.Commands {
		kw := command.Command(cmd.Name)
		usage := cmd.Usage
		if usage == "" {
			usage = builtin[kw]
		}
		rules = append(rules, command.Rule{Keyword: kw, Usage: usage})
	}

	g, err := command.NewGrammar(rules...)
	if err != nil {
		return nil, fmt.Errorf("building grammar: %w", err)
	}
	return g, nil
}

func (r *Registry) dispatcher(cfg *config.Config, cmd config.CommandConfig) (dispatch.Dispatcher, error) {
	switch cmd.Backend {
	case config.BackendGitHubRepository:
		if r.github == nil {
			return nil, fmt.Errorf("command %s: backend %s needs providers.github.token", cmd.Name, cmd.Backend)
		}
		eventType := cmd.EventType
		if eventType == "" {
			eventType = cmd.Name + cfg.Dispatch.EventTypeSuffix
		}
		return dispatch.NewRepositoryDispatcher(r.github.Client(), eventType), nil

	case config.BackendGitHubWorkflow:
		if r.github == nil {
			return nil, fmt.Errorf("command %s: backend %s needs providers.github.token", cmd.Name, cmd.Backend)
		}
		return dispatch.NewWorkflowDispatcher(r.github.Client(), cmd.Workflow, cmd.Ref), nil

	case config.BackendGitLabPipeline:
		if r.gitlab == nil || cfg.Providers.GitLab.TriggerToken == "" {
			return nil, fmt.Errorf("command %s: backend %s needs providers.gitlab.token and trigger_token", cmd.Name, cmd.Backend)
		}
		return dispatch.NewPipelineDispatcher(r.gitlab.Client(), cfg.Providers.GitLab.TriggerToken, cmd.Ref), nil

	case config.BackendDocker:
		if r.docker == nil {
			cli, err := docker.NewClient()
			if err != nil {
				return nil, fmt.Errorf("command %s: %w", cmd.Name, err)
			}
			r.docker = cli
		}
		return dispatch.NewDockerDispatcher(r.docker, cmd.Image, cfg.Dispatch.Docker.Network), nil

	default:
		return nil, fmt.Errorf("command %s: unknown backend %q", cmd.Name, cmd.Backend)
	}
}

// Get returns the provider for the given name.
func (r *Registry) Get(name string) (provider.Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// List returns all configured provider names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Grammar returns the command grammar.
func (r *Registry) Grammar() *command.Grammar {
	return r.grammar
}

// Router returns the dispatch router.
func (r *Registry) Router() *dispatch.Router {
	return r.router
}

// Check verifies the docker daemon is reachable when a docker backend is
// configured.
func (r *Registry) Check(ctx context.Context) error {
	if r.docker == nil {
		return nil
	}
	if err := r.docker.Ping(ctx); err != nil {
		return fmt.Errorf("docker: %w", err)
	}
	return nil
}

// RunningJobs returns the IDs of running dispatch containers. It returns nil
// when no docker backend is configured.
func (r *Registry) RunningJobs(ctx context.Context) ([]string, error) {
	if r.docker == nil {
		return nil, nil
	}
	ids, err := r.docker.ListByLabel(ctx, dispatch.LabelDispatchID, "")
	if err != nil {
		return nil, fmt.Errorf("docker: %w", err)
	}
	return ids, nil
}

// Close releases the docker client, if any.
func (r *Registry) Close() error {
	if r.docker == nil {
		return nil
	}
	return r.docker.Close()
}
