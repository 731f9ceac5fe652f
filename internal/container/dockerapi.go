// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// apiErrorExitCode is reported when the API call fails, matching the CLI's
// generic engine error code.
const apiErrorExitCode = 125

var _ Inspector = (*DockerAPIInspector)(nil)

// DockerAPIInspector lists and inspects containers through the engine API
// socket instead of the CLI. Podman serves the same API from its service socket.
// Results are rendered as CommandResults so callers cannot tell the two apart.
type DockerAPIInspector struct {
	cli *client.Client
}

// NewDockerAPIInspector connects using DOCKER_HOST and friends from the environment.
// host, when non-empty, overrides the daemon address (e.g., "unix:///run/podman/podman.sock").
func NewDockerAPIInspector(host string) (*DockerAPIInspector, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create engine API client: %w", err)
	}
	return &DockerAPIInspector{cli: cli}, nil
}

// Close releases the API client.
func (d *DockerAPIInspector) Close() error {
	return d.cli.Close()
}

// ListContainers returns container IDs one per line, like "container ls -q".
func (d *DockerAPIInspector) ListContainers(ctx context.Context, opts ListOptions) (*CommandResult, error) {
	args := filters.NewArgs()
	for _, f := range opts.Filters {
		key, value, _ := strings.Cut(f, "=")
		args.Add(key, value)
	}

	result := &CommandResult{Args: append([]string{"api"}, (&BaseCLIEngine{}).ListArgs(opts)...)}
	containers, err := d.cli.ContainerList(ctx, dockercontainer.ListOptions{All: opts.All, Filters: args})
	if err != nil {
		result.ExitCode = apiErrorExitCode
		result.Stderr = err.Error()
		return result, nil
	}

	var out strings.Builder
	for _, c := range containers {
		out.WriteString(c.ID)
		out.WriteString("\n")
	}
	result.Stdout = out.String()
	return result, nil
}

// Inspect returns a JSON array of raw inspection documents, like "container inspect".
// As with the CLI, a missing container fails the call while the records that
// were found are still written to stdout.
func (d *DockerAPIInspector) Inspect(ctx context.Context, names ...string) (*CommandResult, error) {
	result := &CommandResult{Args: append([]string{"api"}, (&BaseCLIEngine{}).InspectArgs(names...)...)}

	var out bytes.Buffer
	var errs []string
	out.WriteString("[")
	written := 0
	for _, name := range names {
		_, raw, err := d.cli.ContainerInspectWithRaw(ctx, name, false)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if written > 0 {
			out.WriteString(",")
		}
		out.Write(raw)
		written++
	}
	out.WriteString("]")

	result.Stdout = out.String()
	if len(errs) > 0 {
		result.ExitCode = apiErrorExitCode
		result.Stderr = strings.Join(errs, "\n")
	}
	return result, nil
}
