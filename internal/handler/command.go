package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/drewdunne/slashdispatch/internal/command"
	"github.com/drewdunne/slashdispatch/internal/config"
	"github.com/drewdunne/slashdispatch/internal/dispatch"
	"github.com/drewdunne/slashdispatch/internal/event"
	"github.com/drewdunne/slashdispatch/internal/metrics"
	"github.com/drewdunne/slashdispatch/internal/provider"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("package", "handler")

// State is where a comment ended up.
type State string

const (
	StateReceived      State = "received"
	StateParsed        State = "parsed"
	StateDispatched    State = "dispatched"
	StateErrorReported State = "error-reported"
	StateIgnored       State = "ignored"
)

// Result describes the outcome of handling one comment.
type Result struct {
	State      State
	Command    command.Command
	DispatchID string

	// Err is the failure that was reported back to the comment, if any.
	Err error
}

// APIError is a failed or malformed pull request lookup.
type APIError struct {
	Op  string
	Err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ProviderSource looks up a provider by name.
type ProviderSource interface {
	Get(name string) (provider.Provider, bool)
}

// Dispatcher forwards requests to a job backend.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *dispatch.Request) error
}

// CommandHandler turns a slash command comment into a dispatched job.
type CommandHandler struct {
	serverCfg  *config.Config
	grammar    *command.Grammar
	providers  ProviderSource
	dispatcher Dispatcher
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(serverCfg *config.Config, grammar *command.Grammar, providers ProviderSource, dispatcher Dispatcher) *CommandHandler {
	return &CommandHandler{
		serverCfg:  serverCfg,
		grammar:    grammar,
		providers:  providers,
		dispatcher: dispatcher,
	}
}

// Handle processes a comment: parse, authorise, resolve the pull request,
// dispatch. Any failure along the way is written back into the comment and
// the result ends in StateErrorReported. The returned error is reserved for
// failures that could not be reported.
func (h *CommandHandler) Handle(ctx context.Context, evt *event.Event) (*Result, error) {
	entry := logger.WithField("event", evt.Key()).WithField("author", evt.CommentAuthor)
	result := &Result{State: StateReceived}

	p, ok := h.providers.Get(evt.Provider)
	if !ok {
		return result, fmt.Errorf("no provider configured for %s", evt.Provider)
	}

	merged := h.mergedConfig(ctx, p, evt)
	if merged.Reactions {
		h.react(ctx, p, evt, provider.ReactionEyes)
	}

	fail := func(err error, message string) (*Result, error) {
		result.State = StateErrorReported
		result.Err = err
		entry.WithError(err).Info("Reporting command error")
		if merged.Reactions {
			h.react(ctx, p, evt, provider.ReactionConfused)
		}
		if rerr := ReportError(ctx, p, evt, message); rerr != nil {
			return result, fmt.Errorf("reporting error: %w", rerr)
		}
		return result, nil
	}

	parsed, err := h.grammar.Parse(evt.CommentBody)
	if err != nil {
		metrics.ParseFailure()
		return fail(err, err.Error())
	}
	metrics.CommandParsed()
	result.State = StateParsed
	result.Command = parsed.Command
	entry = entry.WithField("command", parsed.Command).WithField("sha", parsed.SHA)

	if merged.Disabled[string(parsed.Command)] {
		err := &dispatch.DispatchError{Command: parsed.Command, Message: fmt.Sprintf("/%s is disabled for this repository", parsed.Command)}
		return fail(err, err.Message)
	}

	if err := h.authorize(ctx, p, evt, merged.Command(string(parsed.Command))); err != nil {
		return fail(err, dispatch.UserMessage(err))
	}

	prCtx, err := ResolvePullRequestContext(ctx, p, evt.RepoOwner, evt.RepoName, evt.Number)
	if err != nil {
		metrics.LookupFailure()
		if merged.OnLookupFailure == config.LookupAbort {
			return fail(err, "Could not resolve pull request context: "+err.Error())
		}
		entry.WithError(err).Warn("Pull request lookup failed, dispatching with empty fork info")
	} else if prCtx.HeadSHA != parsed.SHA {
		entry.WithField("head_sha", prCtx.HeadSHA).Info("Requested commit is not the pull request head")
	}

	req := dispatch.NewRequest(parsed, evt.RepoOwner, evt.RepoName, evt.Number, evt.CommentID, evt.CommentAuthor, prCtx)
	result.DispatchID = req.ID

	if err := h.dispatcher.Dispatch(ctx, req); err != nil {
		metrics.DispatchFailure()
		return fail(err, dispatch.UserMessage(err))
	}

	metrics.CommandDispatched()
	result.State = StateDispatched
	entry.WithField("dispatch_id", req.ID).Info("Command dispatched")

	if merged.Reactions {
		h.react(ctx, p, evt, provider.ReactionRocket)
	}
	return result, nil
}

// ResolvePullRequestContext fetches the head repository and branch of a pull
// request.
func ResolvePullRequestContext(ctx context.Context, p provider.Provider, owner, repo string, number int) (dispatch.PRContext, error) {
	pr, err := p.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return dispatch.PRContext{}, &APIError{Op: "get pull request", Err: err}
	}
	if pr.HeadRepoFullName == "" || pr.HeadRef == "" {
		return dispatch.PRContext{}, &APIError{Op: "get pull request", Err: errors.New("response has no head repository or branch")}
	}
	return dispatch.PRContext{ForkName: pr.HeadRepoFullName, ForkBranch: pr.HeadRef, HeadSHA: pr.HeadSHA}, nil
}

// ReportError appends message, block-quoted, to the triggering comment.
func ReportError(ctx context.Context, p provider.Provider, evt *event.Event, message string) error {
	c, err := p.GetComment(ctx, evt.RepoOwner, evt.RepoName, evt.Number, evt.CommentID)
	if err != nil {
		return fmt.Errorf("fetching comment: %w", err)
	}

	if err := p.EditComment(ctx, evt.RepoOwner, evt.RepoName, evt.Number, evt.CommentID, c.Body+"\n\n"+quote(message)); err != nil {
		return fmt.Errorf("editing comment: %w", err)
	}

	metrics.ErrorReported()
	return nil
}

func quote(message string) string {
	lines := strings.Split(strings.TrimRight(message, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}

func (h *CommandHandler) authorize(ctx context.Context, p provider.Provider, evt *event.Event, cmd config.CommandConfig) error {
	required, err := provider.ParsePermission(cmd.Permission)
	if err != nil {
		return err
	}
	if required == provider.PermissionNone {
		return nil
	}

	have, err := p.GetPermission(ctx, evt.RepoOwner, evt.RepoName, evt.CommentAuthor)
	if err != nil {
		return &dispatch.DispatchError{
			Command: command.Command(cmd.Name),
			Message: "could not verify permission for @" + evt.CommentAuthor,
			Err:     &APIError{Op: "get permission", Err: err},
		}
	}
	if !have.Allows(required) {
		metrics.PermissionDenied()
		return &dispatch.DispatchError{
			Command: command.Command(cmd.Name),
			Message: fmt.Sprintf("@%s needs %s permission to run /%s (has %s)", evt.CommentAuthor, required, cmd.Name, have),
		}
	}
	return nil
}

// mergedConfig loads the repository's config from its default branch. A
// missing or unreadable file falls back to server settings.
func (h *CommandHandler) mergedConfig(ctx context.Context, p provider.Provider, evt *event.Event) *config.MergedConfig {
	repoCfg, err := config.LoadRepoConfig(ctx, p, evt.RepoOwner, evt.RepoName, "")
	if err != nil {
		logger.WithField("repository", evt.Repository()).WithError(err).Warn("Ignoring unreadable repo config")
		repoCfg = &config.RepoConfig{}
	}
	return config.MergeConfigs(h.serverCfg, repoCfg)
}

func (h *CommandHandler) react(ctx context.Context, p provider.Provider, evt *event.Event, r provider.Reaction) {
	if err := p.AddReaction(ctx, evt.RepoOwner, evt.RepoName, evt.Number, evt.CommentID, r); err != nil {
		logger.WithField("event", evt.Key()).WithField("reaction", r).WithError(err).Debug("Adding reaction failed")
	}
}
