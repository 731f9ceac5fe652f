// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// PodmanEngine implements the Engine interface using Podman CLI.
// It embeds BaseCLIEngine for common CLI operations.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a new Podman engine resolved from PATH.
// Container stdout is routed to a k8s-file log when RunOptions.StdoutLogDir is set.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	path, _ := exec.LookPath("podman")
	return NewPodmanEngineAt(path, opts...)
}

// NewPodmanEngineAt creates a Podman engine for an explicit binary path.
func NewPodmanEngineAt(path string, opts ...BaseCLIEngineOption) *PodmanEngine {
	allOpts := append([]BaseCLIEngineOption{
		WithName(string(EngineTypePodman)),
		WithRunFlags(podmanRunFlags),
	}, opts...)

	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(path, allOpts...),
	}
}

// Name returns the engine name.
func (e *PodmanEngine) Name() string {
	return string(EngineTypePodman)
}

// Available checks if Podman is available.
func (e *PodmanEngine) Available() bool {
	if e.BinaryPath() == "" {
		return false
	}
	cmd := e.CreateCommand(context.Background(), "version", "--format", "{{.Version}}")
	return cmd.Run() == nil
}

// Version returns the Podman version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get podman version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ImageExists checks if an image exists.
func (e *PodmanEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	result, err := e.Capture(ctx, "image", "exists", image)
	if err != nil {
		return false, err
	}
	return result.Succeeded(), nil
}

// podmanRunFlags sends container stdout to <dir>/<name>.log via the k8s-file driver.
func podmanRunFlags(opts RunOptions) []string {
	if opts.StdoutLogDir == "" || opts.Name == "" {
		return nil
	}
	logPath := filepath.Join(opts.StdoutLogDir, opts.Name+".log")
	return []string{"--log-driver", "k8s-file", "--log-opt", "path=" + logPath}
}
