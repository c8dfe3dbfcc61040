package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/drewdunne/slashdispatch/internal/config"
	"github.com/drewdunne/slashdispatch/internal/event"
	"github.com/drewdunne/slashdispatch/internal/handler"
	"github.com/drewdunne/slashdispatch/internal/registry"
	"github.com/drewdunne/slashdispatch/internal/webhook"
)

type handleOptions struct {
	configPath string
	eventPath  string
	eventName  string
	token      string
}

// errReported marks a comment whose failure was written back to it.
var errReported = errors.New("command failed, error reported on the comment")

func handleConfig(opts handleOptions) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if opts.token != "" {
		cfg.Providers.GitHub.Token = opts.token
	}
	return cfg, nil
}

func readEvent(opts handleOptions) (*event.Event, error) {
	if opts.eventPath == "" {
		return nil, errors.New("no event file: set --event-path or GITHUB_EVENT_PATH")
	}

	data, err := os.ReadFile(opts.eventPath)
	if err != nil {
		return nil, fmt.Errorf("reading event file: %w", err)
	}

	return event.NormalizeGitHubEvent(&webhook.GitHubEvent{
		EventType:  opts.eventName,
		RawPayload: data,
	})
}

func runHandle(ctx context.Context, w io.Writer, opts handleOptions) error {
	cfg, err := handleConfig(opts)
	if err != nil {
		return err
	}

	closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	evt, err := readEvent(opts)
	if err != nil {
		return err
	}

	router := event.NewRouter(cfg, nil)
	if !router.Accepts(evt) {
		fmt.Fprintf(w, "%s: %s\n", evt.Key(), handler.StateIgnored)
		return nil
	}

	reg, err := registry.New(cfg)
	if err != nil {
		return fmt.Errorf("building registry: %w", err)
	}
	defer reg.Close()

	h := handler.NewCommandHandler(cfg, reg.Grammar(), reg, reg.Router())
	res, err := h.Handle(ctx, evt)
	return printResult(w, evt, res, err)
}

func printResult(w io.Writer, evt *event.Event, res *handler.Result, err error) error {
	if err != nil {
		return err
	}

	switch res.State {
	case handler.StateDispatched:
		fmt.Fprintf(w, "%s: %s /%s (dispatch %s)\n", evt.Key(), res.State, res.Command, res.DispatchID)
		return nil
	case handler.StateErrorReported:
		fmt.Fprintf(w, "%s: %s: %v\n", evt.Key(), res.State, res.Err)
		return errReported
	default:
		fmt.Fprintf(w, "%s: %s\n", evt.Key(), res.State)
		return nil
	}
}
