// Package dispatch forwards parsed slash commands to out-of-process job
// runners. A dispatch is fire-and-forget: backends return once the runner has
// accepted the request and never wait for the job itself.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/drewdunne/slashdispatch/internal/command"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("package", "dispatch")

// Static argument names, in the order StaticArgs returns them.
const (
	ArgRepository = "repository"
	ArgCommentID  = "comment-id"
	ArgPRSHA      = "pr-sha"
	ArgBranchOrPR = "branch_or_pr_number"
	ArgForkInfo   = "fork_info"
)

// PRContext is the head metadata resolved for the pull request. All fields
// are empty when the lookup failed and the dispatch degraded.
type PRContext struct {
	ForkName   string
	ForkBranch string

	// HeadSHA is the pull request's current head commit, which may differ
	// from the commit named in the comment.
	HeadSHA string
}

// Request is one command ready to hand to a backend.
type Request struct {
	ID        string
	Command   command.Command
	Owner     string
	Repo      string
	Number    int
	CommentID int64
	Actor     string
	SHA       string
	Params    string
	Args      command.Args
	PR        PRContext
}

// NewRequest builds a Request with a fresh ID.
func NewRequest(parsed *command.ParsedCommand, owner, repo string, number int, commentID int64, actor string, pr PRContext) *Request {
	return &Request{
		ID:        uuid.NewString(),
		Command:   parsed.Command,
		Owner:     owner,
		Repo:      repo,
		Number:    number,
		CommentID: commentID,
		Actor:     actor,
		SHA:       parsed.SHA,
		Params:    parsed.Params,
		Args:      parsed.Args,
		PR:        pr,
	}
}

// Repository returns owner/repo.
func (r *Request) Repository() string {
	return r.Owner + "/" + r.Repo
}

// BranchOrPR returns the correlation tag PR-<number>.
func (r *Request) BranchOrPR() string {
	return "PR-" + strconv.Itoa(r.Number)
}

// ForkInfo returns <fork_name>|<fork_branch>.
func (r *Request) ForkInfo() string {
	return r.PR.ForkName + "|" + r.PR.ForkBranch
}

// Arg is a named static argument.
type Arg struct {
	Name  string
	Value string
}

// StaticArgs returns the fixed argument bundle every backend forwards.
func (r *Request) StaticArgs() []Arg {
	return []Arg{
		{ArgRepository, r.Repository()},
		{ArgCommentID, strconv.FormatInt(r.CommentID, 10)},
		{ArgPRSHA, r.SHA},
		{ArgBranchOrPR, r.BranchOrPR()},
		{ArgForkInfo, r.ForkInfo()},
	}
}

// Dispatcher triggers a job for a request.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, req *Request) error
}

// DispatchError is a failure reported by a backend. Message is what the
// commenter sees.
type DispatchError struct {
	Command command.Command
	Backend string
	Message string
	Err     error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatching %s: %s: %v", e.Command, e.Message, e.Err)
	}
	return fmt.Sprintf("dispatching %s: %s", e.Command, e.Message)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text quoted back into the triggering comment.
func UserMessage(err error) string {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func newError(req *Request, backend, msg string, err error) *DispatchError {
	return &DispatchError{Command: req.Command, Backend: backend, Message: msg, Err: err}
}

// Router selects the backend for each command.
type Router struct {
	routes map[command.Command]Dispatcher
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[command.Command]Dispatcher)}
}

// Register routes cmd to d, replacing any earlier registration.
func (r *Router) Register(cmd command.Command, d Dispatcher) {
	r.routes[cmd] = d
}

// Backend returns the dispatcher registered for cmd.
func (r *Router) Backend(cmd command.Command) (Dispatcher, bool) {
	d, ok := r.routes[cmd]
	return d, ok
}

// Backends returns the distinct registered dispatchers.
func (r *Router) Backends() []Dispatcher {
	seen := make(map[Dispatcher]bool)
	var out []Dispatcher
	for _, d := range r.routes {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// Dispatch forwards req to the backend registered for its command.
func (r *Router) Dispatch(ctx context.Context, req *Request) error {
	d, ok := r.routes[req.Command]
	if !ok {
		return &DispatchError{Command: req.Command, Message: fmt.Sprintf("unknown command %q", req.Command)}
	}

	entry := logger.WithField("dispatch_id", req.ID).
		WithField("command", req.Command).
		WithField("backend", d.Name()).
		WithField("repository", req.Repository())

	if err := d.Dispatch(ctx, req); err != nil {
		entry.WithError(err).Warn("Dispatch failed")
		return err
	}

	entry.Info("Dispatched command")
	return nil
}
