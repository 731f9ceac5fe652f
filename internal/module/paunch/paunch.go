// SPDX-License-Identifier: MPL-2.0

// Package paunch implements the paunch module: apply or clean up a set of
// containers described by a configuration file or directory.
package paunch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tripleo/tripleo-containers/internal/ansible"
	"github.com/tripleo/tripleo-containers/internal/config"
	"github.com/tripleo/tripleo-containers/internal/container"
	"github.com/tripleo/tripleo-containers/internal/deploy"

	"github.com/charmbracelet/log"
)

// ModuleName is the name Ansible knows the module by.
const ModuleName = "paunch"

const (
	ActionApply   = "apply"
	ActionCleanup = "cleanup"
)

// changeMarkers appear in apply output when something was removed, executed or created.
var changeMarkers = []string{"rm -f", "Completed", "Created"}

// Spec is the module's parameter schema.
var Spec = ansible.ParamSpec{Module: ModuleName, Definition: "#Paunch", Required: []string{"config_id"}}

type (
	// Params are the validated module parameters. Pointers distinguish
	// unset booleans from false.
	Params struct {
		Config                 string   `json:"config"`
		ConfigID               []string `json:"config_id"`
		Action                 string   `json:"action"`
		ContainerCLI           string   `json:"container_cli"`
		ContainerLogStdoutPath string   `json:"container_log_stdout_path"`
		HealthcheckDisabled    *bool    `json:"healthcheck_disabled"`
		ManagedBy              string   `json:"managed_by"`
		Debug                  *bool    `json:"debug"`
		LogFile                string   `json:"log_file"`
	}

	// CommandOutput carries the operation's joined output. It is omitted
	// from cleanup results.
	CommandOutput struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
		RC     int    `json:"rc"`
	}

	// Result is the module's result document.
	Result struct {
		ansible.Common
		Action []string `json:"action"`
		*CommandOutput
	}

	// Module runs the paunch module against an Operator.
	Module struct {
		operator deploy.Operator
		defaults *config.Config
		logger   *log.Logger
	}

	// Option configures a Module.
	Option func(*Module)
)

// WithLogger sets the logger used for module-level diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(m *Module) { m.logger = l }
}

// New creates the module. Nil defaults fall back to config.DefaultConfig.
func New(operator deploy.Operator, defaults *config.Config, opts ...Option) *Module {
	if defaults == nil {
		defaults = config.DefaultConfig()
	}
	m := &Module{
		operator: operator,
		defaults: defaults,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApplyDefaults fills parameters the task left unset.
func (p *Params) ApplyDefaults(d *config.Config) {
	if p.Action == "" {
		p.Action = ActionApply
	}
	if p.ContainerCLI == "" {
		p.ContainerCLI = string(d.ContainerCLI)
	}
	if p.ContainerLogStdoutPath == "" {
		p.ContainerLogStdoutPath = d.ContainerLogStdoutPath
	}
	if p.ManagedBy == "" {
		p.ManagedBy = d.ManagedBy
	}
	if p.LogFile == "" {
		p.LogFile = d.LogFile
	}
	if p.HealthcheckDisabled == nil {
		v := d.HealthcheckDisabled
		p.HealthcheckDisabled = &v
	}
	if p.Debug == nil {
		v := d.Debug
		p.Debug = &v
	}
}

// LogConfig maps debug onto the operation's log level.
func (p *Params) LogConfig() deploy.LogConfig {
	level := deploy.LevelWarning
	if p.Debug != nil && *p.Debug {
		level = deploy.LevelDebug
	}
	return deploy.LogConfig{Level: level, File: p.LogFile}
}

func (p *Params) scope() string { return deploy.ScopeID(p.ConfigID) }

// Run executes the module for one invocation.
func (m *Module) Run(ctx context.Context, args *ansible.Args) *Result {
	result := &Result{Action: []string{}}

	if args.CheckMode() {
		result.Skipped = true
		result.Msg = "remote module (" + ModuleName + ") does not support check mode"
		return result
	}

	if err := Spec.Validate(args.Params); err != nil {
		result.FailWith(err)
		return result
	}
	result.Invocation = &ansible.Invocation{ModuleArgs: args.ModuleArgs()}

	var p Params
	if err := args.Decode(&p); err != nil {
		result.FailWith(err)
		return result
	}
	p.ApplyDefaults(m.defaults)

	switch p.Action {
	case ActionCleanup:
		m.cleanup(ctx, &p, result)
	default:
		m.apply(ctx, &p, result)
	}
	return result
}

func (m *Module) apply(ctx context.Context, p *Params, result *Result) {
	result.Action = append(result.Action, "Applying config_id "+p.scope())

	if p.Config == "" {
		result.Failed = true
		result.Msg = "Paunch apply requires 'config' parameter"
		result.CommandOutput = &CommandOutput{RC: 1}
		return
	}

	configs, err := deploy.LoadConfigSet(p.Config)
	if err != nil {
		result.FailWith(err)
		result.CommandOutput = &CommandOutput{RC: 1}
		return
	}

	out, err := m.operator.Apply(ctx, deploy.ApplyRequest{
		ConfigIDs:           p.ConfigID,
		Configs:             configs,
		ManagedBy:           p.ManagedBy,
		Labels:              map[string]string{},
		ContainerCLI:        container.EngineType(p.ContainerCLI),
		ContainerLogPath:    p.ContainerLogStdoutPath,
		HealthcheckDisabled: *p.HealthcheckDisabled,
		Log:                 p.LogConfig(),
	})
	if err != nil {
		result.FailWith(err)
		result.CommandOutput = &CommandOutput{RC: 1}
		return
	}

	output := &CommandOutput{
		Stdout: strings.Join(out.Stdout, "\n"),
		Stderr: strings.Join(out.Stderr, "\n"),
		RC:     out.RC,
	}
	result.CommandOutput = output

	if out.RC != 0 {
		result.Failed = true
		result.Msg = "Paunch failed with config_id " + p.scope()
		return
	}
	result.Changed = Changed(output.Stdout)
}

// cleanup never fails the task. Problems are surfaced as warnings.
func (m *Module) cleanup(ctx context.Context, p *Params, result *Result) {
	result.Action = append(result.Action, "Cleaning-up config_id(s) "+p.scope())

	out, err := m.operator.Cleanup(ctx, deploy.CleanupRequest{
		ConfigIDs:    p.ConfigID,
		ManagedBy:    p.ManagedBy,
		ContainerCLI: container.EngineType(p.ContainerCLI),
		Log:          p.LogConfig(),
	})

	var warning string
	switch {
	case err != nil:
		warning = fmt.Sprintf("cleanup of config_id(s) %s could not run: %v", p.scope(), err)
	case out.RC != 0:
		warning = fmt.Sprintf("cleanup of config_id(s) %s exited with rc %d: %s",
			p.scope(), out.RC, strings.Join(out.Stderr, "; "))
	}
	if warning != "" {
		m.logger.Warn("cleanup reported a failure", "config_id", p.scope(), "detail", warning)
		result.Warn(warning)
	}
}

// Changed reports whether apply output shows a container was removed,
// created or exec'd into.
func Changed(stdout string) bool {
	for _, marker := range changeMarkers {
		if strings.Contains(stdout, marker) {
			return true
		}
	}
	return false
}
