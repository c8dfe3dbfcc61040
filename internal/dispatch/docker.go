package dispatch

import (
	"context"
	"sort"

	"github.com/drewdunne/slashdispatch/internal/docker"
)

// Container labels set on every job container.
const (
	LabelDispatchID = "slashdispatch.dispatch-id"
	LabelCommand    = "slashdispatch.command"
	LabelRepository = "slashdispatch.repository"
	LabelPR         = "slashdispatch.pr"
)

// ContainerRunner starts detached containers.
type ContainerRunner interface {
	PullImage(ctx context.Context, image string) error
	Run(ctx context.Context, cfg docker.RunConfig) (string, error)
}

// DockerDispatcher runs one container per command on the local daemon.
type DockerDispatcher struct {
	runner  ContainerRunner
	image   string
	network string
}

// NewDockerDispatcher runs image attached to network (empty for default).
func NewDockerDispatcher(runner ContainerRunner, image, network string) *DockerDispatcher {
	return &DockerDispatcher{runner: runner, image: image, network: network}
}

// Name returns the backend name.
func (d *DockerDispatcher) Name() string {
	return "docker"
}

// Dispatch pulls the image if missing and starts the job container.
func (d *DockerDispatcher) Dispatch(ctx context.Context, req *Request) error {
	if err := d.runner.PullImage(ctx, d.image); err != nil {
		return newError(req, d.Name(), "could not pull image "+d.image, err)
	}

	vars := Variables(req)
	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	id, err := d.runner.Run(ctx, docker.RunConfig{
		Name:  "slashdispatch-" + req.ID,
		Image: d.image,
		Env:   env,
		Labels: map[string]string{
			LabelDispatchID: req.ID,
			LabelCommand:    string(req.Command),
			LabelRepository: req.Repository(),
			LabelPR:         req.BranchOrPR(),
		},
		NetworkMode: d.network,
	})
	if err != nil {
		return newError(req, d.Name(), "could not start job container", err)
	}

	logger.WithField("dispatch_id", req.ID).WithField("container", id).Debug("Started job container")
	return nil
}
