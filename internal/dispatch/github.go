package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/go-github/v60/github"
)

// payload mirrors the client_payload shape of peter-evans/slash-command-dispatch
// so existing repository_dispatch workflows keep working.
type payload struct {
	SlashCommand slashCommand  `json:"slash_command"`
	GitHub       githubContext `json:"github"`
	DispatchID   string        `json:"dispatch_id"`
}

type slashCommand struct {
	Command string `json:"command"`
	Args    struct {
		All     string            `json:"all"`
		Unnamed []string          `json:"unnamed"`
		Named   map[string]string `json:"named"`
	} `json:"args"`
}

type githubContext struct {
	Repository  string `json:"repository"`
	CommentID   int64  `json:"comment_id"`
	IssueNumber int    `json:"issue_number"`
	Actor       string `json:"actor"`
}

// RepositoryDispatcher sends a repository_dispatch event per command.
type RepositoryDispatcher struct {
	client    *github.Client
	eventType string
}

// NewRepositoryDispatcher dispatches events of type eventType.
func NewRepositoryDispatcher(client *github.Client, eventType string) *RepositoryDispatcher {
	return &RepositoryDispatcher{client: client, eventType: eventType}
}

// Name returns the backend name.
func (d *RepositoryDispatcher) Name() string {
	return "github-repository"
}

// Dispatch posts to /repos/{owner}/{repo}/dispatches.
func (d *RepositoryDispatcher) Dispatch(ctx context.Context, req *Request) error {
	body, err := json.Marshal(buildPayload(req))
	if err != nil {
		return newError(req, d.Name(), "could not encode dispatch payload", err)
	}
	raw := json.RawMessage(body)

	_, _, err = d.client.Repositories.Dispatch(ctx, req.Owner, req.Repo, github.DispatchRequestOptions{
		EventType:     d.eventType,
		ClientPayload: &raw,
	})
	if err != nil {
		return newError(req, d.Name(), gitHubMessage(err), err)
	}
	return nil
}

func buildPayload(req *Request) payload {
	p := payload{
		DispatchID: req.ID,
		GitHub: githubContext{
			Repository:  req.Repository(),
			CommentID:   req.CommentID,
			IssueNumber: req.Number,
			Actor:       req.Actor,
		},
	}
	p.SlashCommand.Command = string(req.Command)
	p.SlashCommand.Args.All = req.Args.All
	p.SlashCommand.Args.Unnamed = req.Args.Unnamed
	if p.SlashCommand.Args.Unnamed == nil {
		p.SlashCommand.Args.Unnamed = []string{}
	}

	// Static args win over user-supplied key=value pairs of the same name.
	named := make(map[string]string, len(req.Args.Named)+5)
	for k, v := range req.Args.Named {
		named[k] = v
	}
	for _, a := range req.StaticArgs() {
		named[a.Name] = a.Value
	}
	p.SlashCommand.Args.Named = named

	return p
}

// WorkflowDispatcher triggers a workflow_dispatch run of a workflow file.
type WorkflowDispatcher struct {
	client   *github.Client
	workflow string
	ref      string
}

// NewWorkflowDispatcher runs workflow on ref. An empty ref uses the
// repository's default branch.
func NewWorkflowDispatcher(client *github.Client, workflow, ref string) *WorkflowDispatcher {
	return &WorkflowDispatcher{client: client, workflow: workflow, ref: ref}
}

// Name returns the backend name.
func (d *WorkflowDispatcher) Name() string {
	return "github-workflow"
}

// Dispatch creates a workflow_dispatch event with the static args as inputs.
func (d *WorkflowDispatcher) Dispatch(ctx context.Context, req *Request) error {
	ref := d.ref
	if ref == "" {
		repo, _, err := d.client.Repositories.Get(ctx, req.Owner, req.Repo)
		if err != nil {
			return newError(req, d.Name(), "could not resolve default branch: "+gitHubMessage(err), err)
		}
		ref = repo.GetDefaultBranch()
	}

	inputs := make(map[string]interface{}, 6)
	for _, a := range req.StaticArgs() {
		inputs[a.Name] = a.Value
	}
	if req.Params != "" {
		inputs["params"] = req.Params
	}

	_, err := d.client.Actions.CreateWorkflowDispatchEventByFileName(ctx, req.Owner, req.Repo, d.workflow, github.CreateWorkflowDispatchEventRequest{
		Ref:    ref,
		Inputs: inputs,
	})
	if err != nil {
		return newError(req, d.Name(), gitHubMessage(err), err)
	}
	return nil
}

// gitHubMessage extracts the API's own error message.
func gitHubMessage(err error) string {
	var er *github.ErrorResponse
	if errors.As(err, &er) {
		if er.Response != nil {
			return fmt.Sprintf("%s (HTTP %d)", er.Message, er.Response.StatusCode)
		}
		return er.Message
	}
	return err.Error()
}
