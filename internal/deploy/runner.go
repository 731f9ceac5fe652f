// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tripleo/tripleo-containers/internal/container"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// EngineFactory returns the engine for a container CLI.
	EngineFactory func(container.EngineType) (container.Engine, error)

	// Runner is the Operator backed by a container engine.
	Runner struct {
		newEngine EngineFactory
		pullRetry container.RetryPolicy
	}

	// RunnerOption configures a Runner.
	RunnerOption func(*Runner)

	// step is one container of an apply, in start order.
	step struct {
		name  string
		order int
		spec  *ContainerSpec
	}
)

var _ Operator = (*Runner)(nil)

// WithEngineFactory overrides how engines are created.
func WithEngineFactory(f EngineFactory) RunnerOption {
	return func(r *Runner) { r.newEngine = f }
}

// WithPullRetry overrides the image pull retry policy.
func WithPullRetry(p container.RetryPolicy) RunnerOption {
	return func(r *Runner) { r.pullRetry = p }
}

// NewRunner creates a Runner that resolves engines from $PATH.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		newEngine: func(t container.EngineType) (container.Engine, error) { return container.NewEngine(t) },
		pullRetry: container.DefaultPullRetry,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply converges the engine on req.Configs. Individual command failures
// are recorded in the output and do not stop the run; the returned error
// is reserved for failures to start at all.
func (r *Runner) Apply(ctx context.Context, req ApplyRequest) (*Output, error) {
	logger, closer, err := req.Log.Logger("paunch")
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	engine, err := r.newEngine(req.ContainerCLI)
	if err != nil {
		return nil, err
	}

	if version, err := engine.Version(ctx); err != nil {
		logger.Warn("engine version unavailable", "engine", engine.Name(), "error", err)
	} else {
		logger.Debug("engine version", "engine", engine.Name(), "version", version)
	}

	managedBy := cmp.Or(req.ManagedBy, DefaultManagedBy)
	configID := ScopeID(req.ConfigIDs)
	logger.Info("applying", "config_id", configID, "managed_by", managedBy, "containers", len(req.Configs))

	out := &Output{}
	desired := make(map[string]string, len(req.Configs))
	var steps []step
	for _, name := range req.Configs.Names() {
		raw := req.Configs[name]
		data, err := ConfigData(raw)
		if err != nil {
			out.fail(1, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		desired[name] = data

		spec, err := DecodeSpec(name, raw)
		if err != nil {
			logger.Error("skipping container", "name", name, "error", err)
			out.fail(1, err.Error())
			continue
		}
		steps = append(steps, step{name: name, order: spec.StartOrder, spec: spec})
	}
	slices.SortStableFunc(steps, func(a, b step) int {
		return cmp.Or(cmp.Compare(a.order, b.order), strings.Compare(a.name, b.name))
	})

	existing, err := container.FindByLabels(ctx, engine, map[string]string{
		labelManagedBy: managedBy,
		labelConfigID:  configID,
	})
	if err != nil {
		logger.Error("listing containers failed", "error", err)
		out.fail(1, err.Error())
		return out, nil
	}

	running := r.removeStale(ctx, engine, logger, existing, desired, out)
	r.pullMissing(ctx, engine, logger, steps, out)

	scope := map[string]string{
		labelConfigID:  configID,
		labelManagedBy: managedBy,
	}
	for k, v := range req.Labels {
		scope[k] = v
	}

	for _, s := range steps {
		if s.spec.IsExec() {
			opts := s.spec.ExecOptions()
			result, err := engine.ExecContainer(ctx, opts)
			if r.record(engine, logger, result, err, out) {
				out.out("Completed exec in " + opts.Container)
			}
			continue
		}

		if running[s.name] {
			logger.Debug("container already exists", "name", s.name)
			continue
		}

		labels := make(map[string]string, len(scope)+2)
		for k, v := range scope {
			labels[k] = v
		}
		labels[labelContainerName] = s.name
		labels[labelConfigData] = desired[s.name]

		logDir := req.ContainerLogPath
		result, err := engine.RunContainer(ctx, s.spec.RunOptions(s.name, labels, logDir, req.HealthcheckDisabled))
		if r.record(engine, logger, result, err, out) {
			out.out("Created container " + s.name)
		}
	}

	logger.Info("apply finished", "config_id", configID, "rc", out.RC)
	return out, nil
}

// Cleanup removes every container managed by req.ManagedBy whose config_id
// label names one of req.ConfigIDs, including labels written by a multi-ID
// Apply.
func (r *Runner) Cleanup(ctx context.Context, req CleanupRequest) (*Output, error) {
	logger, closer, err := req.Log.Logger("paunch")
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	engine, err := r.newEngine(req.ContainerCLI)
	if err != nil {
		return nil, err
	}

	managedBy := cmp.Or(req.ManagedBy, DefaultManagedBy)
	scope := ScopeID(req.ConfigIDs)
	out := &Output{}
	logger.Info("cleaning up", "config_id", scope, "managed_by", managedBy)
	found, err := container.FindByLabels(ctx, engine, map[string]string{labelManagedBy: managedBy})
	if err != nil {
		logger.Error("listing containers failed", "config_id", scope, "error", err)
		out.fail(1, err.Error())
		return out, nil
	}
	for _, c := range found {
		if !InScope(c.Labels[labelConfigID], req.ConfigIDs) {
			continue
		}
		result, err := engine.RemoveContainer(ctx, c.Name, true)
		r.record(engine, logger, result, err, out)
	}
	return out, nil
}

// removeStale deletes managed containers that left the set or whose
// config_data changed, and returns the names of those kept.
func (r *Runner) removeStale(
	ctx context.Context,
	engine container.Engine,
	logger *log.Logger,
	existing []container.InspectSummary,
	desired map[string]string,
	out *Output,
) map[string]bool {
	kept := map[string]bool{}
	for _, c := range existing {
		name := cmp.Or(c.Labels[labelContainerName], c.Name)
		want, ok := desired[name]
		if ok && c.Labels[labelConfigData] == want {
			kept[name] = true
			continue
		}
		logger.Debug("removing stale container", "name", c.Name, "in_config", ok)
		result, err := engine.RemoveContainer(ctx, c.Name, true)
		if !r.record(engine, logger, result, err, out) {
			// Still present, starting it again would collide.
			kept[name] = true
		}
	}
	return kept
}

// pullMissing pulls each distinct image used by a run step that is not
// present locally.
func (r *Runner) pullMissing(ctx context.Context, engine container.Engine, logger *log.Logger, steps []step, out *Output) {
	seen := map[string]bool{}
	for _, s := range steps {
		image := s.spec.Image
		if s.spec.IsExec() || seen[image] {
			continue
		}
		seen[image] = true

		exists, err := engine.ImageExists(ctx, image)
		if err != nil {
			logger.Warn("image check failed", "image", image, "error", err)
		}
		if exists {
			continue
		}
		logger.Debug("pulling image", "image", image)
		result, err := container.PullImageWithRetry(ctx, engine, image, r.pullRetry)
		if result == nil {
			out.fail(1, fmt.Sprintf("pull %s: %v", image, err))
			continue
		}
		r.record(engine, logger, result, nil, out)
	}
}

// record echoes a command and its output, and reports whether it succeeded.
func (r *Runner) record(engine container.Engine, logger *log.Logger, result *container.CommandResult, err error, out *Output) bool {
	if result != nil {
		out.out("$ " + echo(engine.Name(), result.Args))
		if s := strings.TrimSpace(result.Stdout); s != "" {
			out.out(s)
		}
	}
	switch {
	case err != nil:
		logger.Error("command failed", "error", err)
		out.fail(exitCode(result), err.Error())
		return false
	case !result.Succeeded():
		logger.Error("command failed", "command", result.CommandLine(), "rc", result.ExitCode)
		out.fail(result.ExitCode, result.Stderr)
		return false
	}
	logger.Debug("command succeeded", "command", result.CommandLine())
	return true
}

func exitCode(result *container.CommandResult) int {
	if result == nil {
		return 1
	}
	return result.ExitCode
}

// echo renders a command line the way a user would type it, with the
// binary shown by engine name.
func echo(name string, args []string) string {
	words := make([]string, 0, len(args))
	words = append(words, name)
	if len(args) > 1 {
		for _, arg := range args[1:] {
			words = append(words, shellQuote(arg))
		}
	}
	return strings.Join(words, " ")
}

func shellQuote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return strconv.Quote(s)
	}
	return q
}
