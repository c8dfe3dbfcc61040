package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/xanzy/go-gitlab"
)

// PipelineDispatcher starts a GitLab pipeline through a trigger token.
type PipelineDispatcher struct {
	client *gitlab.Client
	token  string
	ref    string
}

// NewPipelineDispatcher runs pipelines on ref. An empty ref uses the
// project's default branch.
func NewPipelineDispatcher(client *gitlab.Client, triggerToken, ref string) *PipelineDispatcher {
	return &PipelineDispatcher{client: client, token: triggerToken, ref: ref}
}

// Name returns the backend name.
func (d *PipelineDispatcher) Name() string {
	return "gitlab-pipeline"
}

// Dispatch triggers a pipeline with the request as CI variables.
func (d *PipelineDispatcher) Dispatch(ctx context.Context, req *Request) error {
	ref := d.ref
	if ref == "" {
		project, _, err := d.client.Projects.GetProject(req.Repository(), nil, gitlab.WithContext(ctx))
		if err != nil {
			return newError(req, d.Name(), "could not resolve default branch: "+gitLabMessage(err), err)
		}
		ref = project.DefaultBranch
	}

	pipeline, _, err := d.client.PipelineTriggers.RunPipelineTrigger(req.Repository(), &gitlab.RunPipelineTriggerOptions{
		Ref:       gitlab.Ptr(ref),
		Token:     gitlab.Ptr(d.token),
		Variables: Variables(req),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return newError(req, d.Name(), gitLabMessage(err), err)
	}

	logger.WithField("dispatch_id", req.ID).WithField("pipeline", pipeline.ID).Debug("Triggered pipeline")
	return nil
}

func gitLabMessage(err error) string {
	var er *gitlab.ErrorResponse
	if errors.As(err, &er) {
		if er.Response != nil {
			return fmt.Sprintf("%s (HTTP %d)", er.Message, er.Response.StatusCode)
		}
		return er.Message
	}
	return err.Error()
}
