// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
)

const (
	// EngineTypePodman selects the Podman CLI.
	EngineTypePodman EngineType = "podman"
	// EngineTypeDocker selects the Docker CLI.
	EngineTypeDocker EngineType = "docker"
)

var (
	// ErrNoEngineAvailable is the sentinel error wrapped by EngineNotAvailableError.
	ErrNoEngineAvailable = errors.New("no container engine available")

	// ErrInvalidEngineType is the sentinel error wrapped by InvalidEngineTypeError.
	ErrInvalidEngineType = errors.New("invalid container engine type")
)

type (
	// Inspector lists and inspects containers. The CLI engines and
	// DockerAPIInspector implement it.
	Inspector interface {
		// ListContainers runs "container ls" with the given options.
		ListContainers(ctx context.Context, opts ListOptions) (*CommandResult, error)
		// Inspect runs "container inspect" for the given names or IDs.
		Inspect(ctx context.Context, names ...string) (*CommandResult, error)
	}

	// Engine defines the container operations used by the deploy and fact-gathering code.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// BinaryPath returns the resolved path of the engine binary.
		BinaryPath() string
		// Available checks if the engine is usable on this host.
		Available() bool
		// Version returns the engine version.
		Version(ctx context.Context) (string, error)

		Inspector
		// RunContainer runs "run" with the given options.
		RunContainer(ctx context.Context, opts RunOptions) (*CommandResult, error)
		// ExecContainer runs "exec" in an existing container.
		ExecContainer(ctx context.Context, opts ExecOptions) (*CommandResult, error)
		// RemoveContainer runs "rm" for a container.
		RemoveContainer(ctx context.Context, name string, force bool) (*CommandResult, error)
		// ImageExists reports whether an image is present locally.
		ImageExists(ctx context.Context, image string) (bool, error)
		// PullImage runs "pull" for an image.
		PullImage(ctx context.Context, image string) (*CommandResult, error)
	}

	// EngineType identifies the container engine type.
	EngineType string

	// InvalidEngineTypeError is returned when an EngineType is not podman or docker.
	InvalidEngineTypeError struct {
		Value EngineType
	}

	// EngineNotAvailableError is returned when a container engine is not available.
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}
)

// String returns the string representation of the EngineType.
func (t EngineType) String() string { return string(t) }

// Validate returns an error if the EngineType is not one of the supported engines.
func (t EngineType) Validate() error {
	switch t {
	case EngineTypePodman, EngineTypeDocker:
		return nil
	default:
		return &InvalidEngineTypeError{Value: t}
	}
}

// Error implements the error interface.
func (e *InvalidEngineTypeError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: podman, docker)", e.Value)
}

// Unwrap returns ErrInvalidEngineType for errors.Is() compatibility.
func (e *InvalidEngineTypeError) Unwrap() error { return ErrInvalidEngineType }

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrNoEngineAvailable for errors.Is() compatibility.
func (e *EngineNotAvailableError) Unwrap() error { return ErrNoEngineAvailable }

// NewEngine creates the engine of the requested type.
// Unlike AutoDetectEngine it never falls back to the other engine: deployments
// pick their engine explicitly and containers created by one are invisible to the other.
func NewEngine(engineType EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	if err := engineType.Validate(); err != nil {
		return nil, err
	}

	var engine Engine
	switch engineType {
	case EngineTypePodman:
		engine = NewPodmanEngine(opts...)
	case EngineTypeDocker:
		engine = NewDockerEngine(opts...)
	}

	if engine.BinaryPath() == "" {
		return nil, &EngineNotAvailableError{
			Engine: engineType.String(),
			Reason: engineType.String() + " was not found in PATH",
		}
	}
	return engine, nil
}

// AutoDetectEngine tries to find an available container engine.
func AutoDetectEngine() (Engine, error) {
	// Podman first: it is the TripleO default
	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	return nil, &EngineNotAvailableError{
		Engine: "any",
		Reason: "no container engine (podman or docker) is available on this system",
	}
}
