// Package container reports the state of docker containers started with
// docker isolation.
package container

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/client"
)

// Status is a container lifecycle state.
type Status string

const (
	StatusCreated  Status = "created"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusExited   Status = "exited"
	StatusDead     Status = "dead"
	StatusNotFound Status = "not-found"
	StatusUnknown  Status = "unknown"
)

// Alive reports whether the container still has a running process.
func (s Status) Alive() bool {
	return s == StatusRunning || s == StatusPaused
}

// Info describes one container.
type Info struct {
	Name      string
	ID        string
	Image     string
	Status    Status
	ExitCode  int
	StartedAt time.Time
}

// Inspector looks up containers by name.
type Inspector interface {
	Inspect(ctx context.Context, name string) (*Info, error)
	Close() error
}

// DockerInspector implements Inspector with the Docker Engine API.
type DockerInspector struct {
	client *client.Client
}

// NewDockerInspector connects using the standard DOCKER_* environment.
func NewDockerInspector() (*DockerInspector, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerInspector{client: cli}, nil
}

// Inspect returns the container's state. A missing container is reported
// as StatusNotFound, not as an error.
func (d *DockerInspector) Inspect(ctx context.Context, name string) (*Info, error) {
	inspect, err := d.client.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return &Info{Name: name, Status: StatusNotFound}, nil
		}
		return nil, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}

	info := &Info{
		Name:   strings.TrimPrefix(inspect.Name, "/"),
		ID:     inspect.ID,
		Image:  inspect.Image,
		Status: StatusUnknown,
	}
	if inspect.Config != nil {
		info.Image = inspect.Config.Image
	}
	if inspect.State != nil {
		info.Status = MapState(string(inspect.State.Status))
		info.ExitCode = inspect.State.ExitCode
		info.StartedAt, _ = time.Parse(time.RFC3339Nano, inspect.State.StartedAt)
	}
	return info, nil
}

// Close releases the client connection.
func (d *DockerInspector) Close() error {
	return d.client.Close()
}

// MapState converts a Docker state string to a Status.
func MapState(state string) Status {
	switch state {
	case "created":
		return StatusCreated
	case "running", "restarting":
		return StatusRunning
	case "paused":
		return StatusPaused
	case "exited", "removing":
		return StatusExited
	case "dead":
		return StatusDead
	default:
		return StatusUnknown
	}
}
