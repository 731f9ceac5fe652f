// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"

	"github.com/tripleo/tripleo-containers/internal/issue"
)

var (
	// ErrInvalidRunOptions is the sentinel error wrapped by InvalidRunOptionsError.
	ErrInvalidRunOptions = errors.New("invalid run options")

	// ErrInvalidExecOptions is the sentinel error wrapped by InvalidExecOptionsError.
	ErrInvalidExecOptions = errors.New("invalid exec options")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// RunFlagsFunc returns engine-specific flags for a run command.
	// They are inserted right before the image reference.
	// Podman uses this to route container stdout to a k8s-file log.
	RunFlagsFunc func(opts RunOptions) []string

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides common implementation for CLI-based container engines.
	// Docker and Podman engines embed this struct. Methods that are identical across
	// both CLIs are implemented here; engine-specific methods (Available, Version,
	// ImageExists) remain on the concrete types.
	BaseCLIEngine struct {
		name        string // Engine name for error messages (e.g., "docker", "podman")
		binaryPath  string
		execCommand ExecCommandFunc
		runFlags    RunFlagsFunc
	}

	// CommandResult captures one engine invocation.
	// A non-zero ExitCode is a normal outcome, not an error.
	CommandResult struct {
		// Args is the full command line, binary first.
		Args []string
		// ExitCode is the process exit code.
		ExitCode int
		// Stdout is everything the process wrote to stdout.
		Stdout string
		// Stderr is everything the process wrote to stderr.
		Stderr string
	}

	// ListOptions controls "container ls".
	ListOptions struct {
		// All includes stopped containers (-a).
		All bool
		// Filters are passed as --filter values (e.g., "label=managed_by=paunch").
		Filters []string
	}

	// RunOptions contains options for running a container.
	RunOptions struct {
		// Name is the container name.
		Name string
		// Image is the image to run.
		Image string
		// Command is the command to run.
		Command []string
		// Entrypoint overrides the image entrypoint.
		Entrypoint string
		// Detach runs the container in the background.
		Detach bool
		// Remove automatically removes the container after exit.
		Remove bool
		// Env contains KEY=VALUE pairs in the order they must be passed.
		Env []string
		// EnvFiles are files of environment variables.
		EnvFiles []string
		// Labels are attached to the container; rendered in key order.
		Labels map[string]string
		// Volumes are mounts in "host:container[:options]" format.
		Volumes []string
		// Ports are port mappings in "host:container" format.
		Ports []string
		// Net, Pid, Ipc and Uts select namespace modes.
		Net string
		Pid string
		Ipc string
		Uts string
		// Privileged gives the container extended privileges.
		Privileged bool
		// User runs the container process as this user.
		User string
		// Restart is the restart policy.
		Restart string
		// Hostname sets the container host name.
		Hostname string
		// WorkDir is the working directory inside the container.
		WorkDir string
		// Ulimits are "name=soft:hard" values.
		Ulimits []string
		// CapAdd and CapDrop adjust Linux capabilities.
		CapAdd  []string
		CapDrop []string
		// SecurityOpt are security options (e.g., "label=disable").
		SecurityOpt []string
		// Memory is a memory limit (e.g., "512m").
		Memory string
		// CPUShares is the relative CPU weight.
		CPUShares int
		// CPUSetCPUs pins the container to CPUs.
		CPUSetCPUs string
		// StopSignal overrides the stop signal.
		StopSignal string
		// TTY allocates a pseudo-TTY.
		TTY bool
		// Interactive keeps stdin open.
		Interactive bool
		// HealthCmd is the health check command.
		HealthCmd string
		// NoHealthcheck disables any health check defined by the image.
		NoHealthcheck bool
		// StdoutLogDir is a directory for per-container stdout logs (engine-specific).
		StdoutLogDir string
		// ExtraHosts are additional host-to-IP mappings.
		ExtraHosts []string
	}

	// ExecOptions contains options for running a command in a running container.
	ExecOptions struct {
		// Container is the target container name or ID.
		Container string
		// Command is the command to run.
		Command []string
		// User runs the command as this user.
		User string
		// Env contains KEY=VALUE pairs.
		Env []string
		// WorkDir is the working directory inside the container.
		WorkDir string
		// Privileged gives the process extended privileges.
		Privileged bool
	}

	// InvalidRunOptionsError is returned when RunOptions cannot produce a run command.
	InvalidRunOptionsError struct {
		Name   string
		Reason string
	}

	// InvalidExecOptionsError is returned when ExecOptions cannot produce an exec command.
	InvalidExecOptionsError struct {
		Container string
		Reason    string
	}
)

// Succeeded reports whether the command exited with code zero.
func (r *CommandResult) Succeeded() bool {
	return r.ExitCode == 0
}

// CommandLine returns Args joined by spaces.
func (r *CommandResult) CommandLine() string {
	return strings.Join(r.Args, " ")
}

// Error implements the error interface.
func (e *InvalidRunOptionsError) Error() string {
	return fmt.Sprintf("invalid run options for container %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidRunOptions for errors.Is() compatibility.
func (e *InvalidRunOptionsError) Unwrap() error { return ErrInvalidRunOptions }

// Error implements the error interface.
func (e *InvalidExecOptionsError) Error() string {
	return fmt.Sprintf("invalid exec options for container %q: %s", e.Container, e.Reason)
}

// Unwrap returns ErrInvalidExecOptions for errors.Is() compatibility.
func (e *InvalidExecOptionsError) Unwrap() error { return ErrInvalidExecOptions }

// Validate returns an error if the options lack an image or name.
func (o RunOptions) Validate() error {
	if strings.TrimSpace(o.Image) == "" {
		return &InvalidRunOptionsError{Name: o.Name, Reason: "image must be non-empty"}
	}
	if strings.TrimSpace(o.Name) == "" {
		return &InvalidRunOptionsError{Name: o.Name, Reason: "name must be non-empty"}
	}
	return nil
}

// Validate returns an error if the options lack a container or a command.
func (o ExecOptions) Validate() error {
	if strings.TrimSpace(o.Container) == "" {
		return &InvalidExecOptionsError{Container: o.Container, Reason: "container must be non-empty"}
	}
	if len(o.Command) == 0 {
		return &InvalidExecOptionsError{Container: o.Container, Reason: "command must be non-empty"}
	}
	return nil
}

// --- Option Functions ---

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithRunFlags sets the engine-specific run flags hook.
func WithRunFlags(fn RunFlagsFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.runFlags = fn
	}
}

// --- Constructor ---

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
		runFlags:    func(RunOptions) []string { return nil },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Accessor Methods ---

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// --- Argument Builders ---

// ListArgs constructs arguments for a container listing.
//
// Generated command: <binary> container ls -q [-a] [--filter f]...
func (e *BaseCLIEngine) ListArgs(opts ListOptions) []string {
	args := []string{"container", "ls", "-q"}
	if opts.All {
		args = append(args, "-a")
	}
	for _, f := range opts.Filters {
		args = append(args, "--filter", f)
	}
	return args
}

// InspectArgs constructs arguments for a container inspect.
//
// Generated command: <binary> container inspect <name...>
func (e *BaseCLIEngine) InspectArgs(names ...string) []string {
	return append([]string{"container", "inspect"}, names...)
}

// RunArgs constructs arguments for a container run command.
// Returns arguments in the order expected by docker/podman run.
//
// Generated command: <binary> run [options] <image> [command...]
func (e *BaseCLIEngine) RunArgs(opts RunOptions) []string {
	args := []string{"run"}

	if opts.Name != "" {
		args = append(args, "--name", opts.Name)
	}

	for _, k := range sortedKeys(opts.Labels) {
		args = append(args, "--label", k+"="+opts.Labels[k])
	}

	if opts.Detach {
		args = append(args, "--detach=true")
	}

	if opts.Remove {
		args = append(args, "--rm")
	}

	for _, env := range opts.Env {
		args = append(args, "--env", env)
	}

	for _, f := range opts.EnvFiles {
		args = append(args, "--env-file", f)
	}

	args = appendValueFlag(args, "--net", opts.Net)
	args = appendValueFlag(args, "--pid", opts.Pid)
	args = appendValueFlag(args, "--ipc", opts.Ipc)
	args = appendValueFlag(args, "--uts", opts.Uts)

	if opts.Privileged {
		args = append(args, "--privileged=true")
	}

	args = appendValueFlag(args, "--user", opts.User)
	args = appendValueFlag(args, "--restart", opts.Restart)
	args = appendValueFlag(args, "--hostname", opts.Hostname)
	args = appendValueFlag(args, "--workdir", opts.WorkDir)
	args = appendValueFlag(args, "--entrypoint", opts.Entrypoint)
	args = appendValueFlag(args, "--memory", opts.Memory)
	args = appendValueFlag(args, "--cpuset-cpus", opts.CPUSetCPUs)
	args = appendValueFlag(args, "--stop-signal", opts.StopSignal)

	if opts.CPUShares > 0 {
		args = append(args, "--cpu-shares", strconv.Itoa(opts.CPUShares))
	}

	for _, u := range opts.Ulimits {
		args = append(args, "--ulimit", u)
	}

	for _, c := range opts.CapAdd {
		args = append(args, "--cap-add", c)
	}

	for _, c := range opts.CapDrop {
		args = append(args, "--cap-drop", c)
	}

	for _, s := range opts.SecurityOpt {
		args = append(args, "--security-opt", s)
	}

	for _, v := range opts.Volumes {
		args = append(args, "--volume", v)
	}

	for _, p := range opts.Ports {
		args = append(args, "--publish", p)
	}

	for _, h := range opts.ExtraHosts {
		args = append(args, "--add-host", h)
	}

	if opts.Interactive {
		args = append(args, "--interactive=true")
	}

	if opts.TTY {
		args = append(args, "--tty=true")
	}

	if opts.NoHealthcheck {
		args = append(args, "--no-healthcheck")
	} else if opts.HealthCmd != "" {
		args = append(args, "--health-cmd", opts.HealthCmd)
	}

	args = append(args, e.runFlags(opts)...)

	args = append(args, opts.Image)
	args = append(args, opts.Command...)

	return args
}

// ExecArgs constructs arguments for a container exec command.
//
// Generated command: <binary> exec [options] <container> <command...>
func (e *BaseCLIEngine) ExecArgs(opts ExecOptions) []string {
	args := []string{"exec"}

	args = appendValueFlag(args, "--user", opts.User)
	args = appendValueFlag(args, "--workdir", opts.WorkDir)

	if opts.Privileged {
		args = append(args, "--privileged=true")
	}

	for _, env := range opts.Env {
		args = append(args, "--env", env)
	}

	args = append(args, opts.Container)
	args = append(args, opts.Command...)

	return args
}

// RemoveArgs constructs arguments for a container remove command.
func (e *BaseCLIEngine) RemoveArgs(name string, force bool) []string {
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, name)
	return args
}

// PullArgs constructs arguments for an image pull.
func (e *BaseCLIEngine) PullArgs(image string) []string {
	return []string{"pull", image}
}

// --- Command Execution ---

// Capture executes the engine binary and captures exit code, stdout and stderr.
// A non-zero exit code is reported in the result, not as an error.
// Only infrastructure failures (binary missing, context cancelled before start)
// return an error.
func (e *BaseCLIEngine) Capture(ctx context.Context, args ...string) (*CommandResult, error) {
	cmd := e.CreateCommand(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &CommandResult{
		Args:   append([]string{e.binaryPath}, args...),
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return result, fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	return result, nil
}

// RunCommandWithOutput executes a command and returns stdout, failing on non-zero exit.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	result, err := e.Capture(ctx, args...)
	if err != nil {
		return "", err
	}
	if !result.Succeeded() {
		return "", fmt.Errorf("command %s %v failed: exit status %d: %s",
			e.binaryPath, args, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return result.Stdout, nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

// --- Promoted Engine Methods (shared by Docker and Podman) ---

// ListContainers lists container IDs.
func (e *BaseCLIEngine) ListContainers(ctx context.Context, opts ListOptions) (*CommandResult, error) {
	return e.Capture(ctx, e.ListArgs(opts)...)
}

// Inspect returns the engine's inspection records for the given containers.
func (e *BaseCLIEngine) Inspect(ctx context.Context, names ...string) (*CommandResult, error) {
	return e.Capture(ctx, e.InspectArgs(names...)...)
}

// RunContainer runs a container.
// It validates RunOptions before executing to catch invalid fields early.
func (e *BaseCLIEngine) RunContainer(ctx context.Context, opts RunOptions) (*CommandResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	result, err := e.Capture(ctx, e.RunArgs(opts)...)
	if err != nil {
		return result, runContainerError(e.name, opts, err)
	}
	return result, nil
}

// ExecContainer runs a command in a running container.
func (e *BaseCLIEngine) ExecContainer(ctx context.Context, opts ExecOptions) (*CommandResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return e.Capture(ctx, e.ExecArgs(opts)...)
}

// RemoveContainer removes a container.
func (e *BaseCLIEngine) RemoveContainer(ctx context.Context, name string, force bool) (*CommandResult, error) {
	return e.Capture(ctx, e.RemoveArgs(name, force)...)
}

// PullImage pulls an image.
func (e *BaseCLIEngine) PullImage(ctx context.Context, image string) (*CommandResult, error) {
	return e.Capture(ctx, e.PullArgs(image)...)
}

// --- Helpers ---

func appendValueFlag(args []string, flag, value string) []string {
	if value == "" {
		return args
	}
	return append(args, flag+"="+value)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// --- Actionable Error Helpers ---

// runContainerError creates an actionable error for container run failures.
func runContainerError(engine string, opts RunOptions, cause error) error {
	ctx := issue.NewErrorContext().
		WithOperation("run container").
		WithResource(opts.Name).
		WithIssue(issue.ContainerRunFailedId)

	ctx.WithSuggestion("Verify the image exists (try: " + engine + " images " + opts.Image + ")")
	ctx.WithSuggestion("Check that volume mount paths exist on the host")
	ctx.WithSuggestion("Check the container log under the stdout log directory")

	return ctx.Wrap(cause).BuildError()
}
