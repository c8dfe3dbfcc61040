package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Client wraps the Docker client with convenience methods.
type Client struct {
	cli *client.Client
}

// NewClient creates a new Docker client from the environment (DOCKER_HOST etc.).
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	return &Client{cli: cli}, nil
}

// Close closes the Docker client.
func (c *Client) Close() error {
	return c.cli.Close()
}

// Ping checks if Docker daemon is accessible.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.cli.Ping(ctx)
	return err
}

// ImageExists checks if an image exists locally.
func (c *Client) ImageExists(ctx context.Context, imageName string) (bool, error) {
	images, err := c.cli.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", imageName)),
	})
	if err != nil {
		return false, err
	}
	return len(images) > 0, nil
}

// PullImage pulls an image if it doesn't exist.
func (c *Client) PullImage(ctx context.Context, imageName string) error {
	exists, err := c.ImageExists(ctx, imageName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	reader, err := c.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pulling image: %w", err)
	}
	defer reader.Close()

	// Consume the output
	_, err = io.Copy(io.Discard, reader)
	return err
}

// RunConfig holds configuration for a detached job container.
type RunConfig struct {
	Name        string
	Image       string
	Env         []string
	Labels      map[string]string
	Cmd         []string
	NetworkMode string // e.g. "host", "bridge", or empty for default
}

// Run creates and starts a container without waiting for it to exit.
// The daemon removes the container once it stops.
func (c *Client) Run(ctx context.Context, cfg RunConfig) (string, error) {
	containerCfg, hostCfg := containerSpec(cfg)

	resp, err := c.cli.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, cfg.Name)
	if err != nil {
		return "", fmt.Errorf("creating container: %w", err)
	}

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		// Not started, so AutoRemove will never fire.
		_ = c.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("starting container: %w", err)
	}

	return resp.ID, nil
}

// ListByLabel returns the IDs of running containers carrying label=value.
// An empty value matches any container that has the label.
func (c *Client) ListByLabel(ctx context.Context, label, value string) ([]string, error) {
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{
		Filters: labelFilter(label, value),
	})
	if err != nil {
		return nil, fmt.Errorf("listing containers: %w", err)
	}

	ids := make([]string, len(containers))
	for i, ctr := range containers {
		ids[i] = ctr.ID
	}
	return ids, nil
}

func labelFilter(label, value string) filters.Args {
	if value == "" {
		return filters.NewArgs(filters.Arg("label", label))
	}
	return filters.NewArgs(filters.Arg("label", label+"="+value))
}

func containerSpec(cfg RunConfig) (*container.Config, *container.HostConfig) {
	hostConfig := &container.HostConfig{
		AutoRemove: true,
	}
	if cfg.NetworkMode != "" {
		hostConfig.NetworkMode = container.NetworkMode(cfg.NetworkMode)
	}

	return &container.Config{
		Image:  cfg.Image,
		Env:    cfg.Env,
		Labels: cfg.Labels,
		Cmd:    cfg.Cmd,
	}, hostConfig
}
