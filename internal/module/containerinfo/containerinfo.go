// SPDX-License-Identifier: MPL-2.0

// Package containerinfo implements the podman_container_info module: gather
// inspection records for some or all containers.
package containerinfo

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/tripleo/tripleo-containers/internal/ansible"
	"github.com/tripleo/tripleo-containers/internal/container"
	"github.com/tripleo/tripleo-containers/internal/issue"
)

// ModuleName is the name Ansible knows the module by.
const ModuleName = "podman_container_info"

// DefaultExecutable is used when the task does not set executable.
const DefaultExecutable = "podman"

// Spec is the module's parameter schema.
var Spec = ansible.ParamSpec{Module: ModuleName, Definition: "#ContainerInfo"}

type (
	// Inspector is the read-only engine surface the module needs.
	Inspector = container.Inspector

	// InspectorFactory returns the Inspector for the parameters and the
	// closer releasing it.
	InspectorFactory func(p Params) (Inspector, io.Closer, error)

	// Params are the validated module parameters.
	Params struct {
		Executable string   `json:"executable"`
		Name       []string `json:"name"`
		UseAPI     bool     `json:"use_api"`
	}

	// Facts is published under ansible_facts.
	Facts struct {
		PodmanContainers []json.RawMessage `json:"podman_containers"`
	}

	// Result is the module's result document.
	Result struct {
		ansible.Common
		Containers   []json.RawMessage `json:"containers"`
		AnsibleFacts Facts             `json:"ansible_facts"`
		Stdout       string            `json:"stdout"`
		Stderr       string            `json:"stderr"`
	}

	// Module runs podman_container_info.
	Module struct {
		newInspector InspectorFactory
	}
)

// New creates the module. A nil factory uses DefaultInspector.
func New(factory InspectorFactory) *Module {
	if factory == nil {
		factory = DefaultInspector
	}
	return &Module{newInspector: factory}
}

type noClose struct{}

func (noClose) Close() error { return nil }

// DefaultInspector returns the engine API client when use_api is set and
// otherwise the CLI engine found at executable.
func DefaultInspector(p Params) (Inspector, io.Closer, error) {
	if p.UseAPI {
		api, err := container.NewDockerAPIInspector("")
		if err != nil {
			return nil, nil, err
		}
		return api, api, nil
	}

	path, err := ansible.GetBinPath(p.Executable)
	if err != nil {
		return nil, nil, issue.NewErrorContext().
			WithOperation("locate container engine").
			WithResource(p.Executable).
			WithIssue(issue.ContainerEngineNotFoundId).
			Wrap(err).
			BuildError()
	}
	if strings.Contains(filepath.Base(path), "docker") {
		return container.NewDockerEngineAt(path), noClose{}, nil
	}
	return container.NewPodmanEngineAt(path), noClose{}, nil
}

// Run executes the module for one invocation. It only reads engine state,
// so check mode runs it unchanged.
func (m *Module) Run(ctx context.Context, args *ansible.Args) *Result {
	result := &Result{Containers: []json.RawMessage{}}
	result.AnsibleFacts.PodmanContainers = result.Containers

	if err := Spec.Validate(args.Params); err != nil {
		result.FailWith(err)
		return result
	}

	var p Params
	if err := args.Decode(&p); err != nil {
		result.FailWith(err)
		return result
	}
	if p.Executable == "" {
		p.Executable = DefaultExecutable
	}

	inspector, closer, err := m.newInspector(p)
	if err != nil {
		result.FailWith(err)
		return result
	}
	defer closer.Close()

	if err := Gather(ctx, inspector, p.Name, result); err != nil {
		result.FailWith(err)
	}
	return result
}

// Gather fills result with the inspection records for names, or for every
// container when names is empty. A failed or empty inspect leaves the
// containers empty and keeps the raw output for diagnosis; only an
// unparseable successful inspect is an error.
func Gather(ctx context.Context, inspector Inspector, names []string, result *Result) error {
	if len(names) == 0 {
		listed, err := inspector.ListContainers(ctx, container.ListOptions{All: true})
		if err != nil {
			return err
		}
		names = container.ParseIDs(listed.Stdout)
		if len(names) == 0 {
			result.Stdout, result.Stderr = listed.Stdout, listed.Stderr
			return nil
		}
	}

	inspected, err := inspector.Inspect(ctx, names...)
	if err != nil {
		return err
	}
	result.Stdout, result.Stderr = inspected.Stdout, inspected.Stderr
	if inspected.Stdout == "" || !inspected.Succeeded() {
		return nil
	}

	records, err := container.ParseInspect(inspected.Stdout)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("parse container inspect output").
			WithIssue(issue.InspectOutputMalformedId).
			Wrap(err).
			BuildError()
	}
	result.Containers = records
	result.AnsibleFacts.PodmanContainers = records
	return nil
}
