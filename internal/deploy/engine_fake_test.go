// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tripleo/tripleo-containers/internal/container"
)

type (
	fakeContainer struct {
		ID     string
		Name   string
		Image  string
		Labels map[string]string
	}

	// fakeEngine keeps containers and images in memory and renders the same
	// argument vectors as the CLI engines.
	fakeEngine struct {
		mu         sync.Mutex
		args       *container.BaseCLIEngine
		containers []*fakeContainer
		images     map[string]bool
		commands   [][]string
		runs       []container.RunOptions
		execs      []container.ExecOptions

		runExit  map[string]int
		rmExit   map[string]int
		pullExit map[string]int
		listExit int
	}
)

var _ container.Engine = (*fakeEngine)(nil)

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		args:     container.NewBaseCLIEngine("/usr/bin/podman"),
		images:   map[string]bool{},
		runExit:  map[string]int{},
		rmExit:   map[string]int{},
		pullExit: map[string]int{},
	}
}

func (f *fakeEngine) factory() EngineFactory {
	return func(container.EngineType) (container.Engine, error) { return f, nil }
}

// seed adds an existing container without recording a command.
func (f *fakeEngine) seed(name, image string, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers = append(f.containers, &fakeContainer{ID: "id-" + name, Name: name, Image: image, Labels: labels})
}

func (f *fakeEngine) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, c := range f.containers {
		names = append(names, c.Name)
	}
	slices.Sort(names)
	return names
}

func (f *fakeEngine) get(name string) *fakeContainer {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.containers {
		if c.Name == name || c.ID == name {
			return c
		}
	}
	return nil
}

func (f *fakeEngine) commandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.commands))
	for i, c := range f.commands {
		lines[i] = strings.Join(c[1:], " ")
	}
	return lines
}

func (f *fakeEngine) result(args []string, exit int, stdout, stderr string) *container.CommandResult {
	full := append([]string{"/usr/bin/podman"}, args...)
	f.commands = append(f.commands, full)
	return &container.CommandResult{Args: full, ExitCode: exit, Stdout: stdout, Stderr: stderr}
}

func (f *fakeEngine) Name() string       { return "podman" }
func (f *fakeEngine) BinaryPath() string { return "/usr/bin/podman" }
func (f *fakeEngine) Available() bool    { return true }

func (f *fakeEngine) Version(context.Context) (string, error) { return "4.9.4", nil }

func (f *fakeEngine) ListContainers(_ context.Context, opts container.ListOptions) (*container.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listExit != 0 {
		return f.result(f.args.ListArgs(opts), f.listExit, "", "Error: cannot connect to podman"), nil
	}

	var ids []string
	for _, c := range f.containers {
		if matchesFilters(c, opts.Filters) {
			ids = append(ids, c.ID)
		}
	}
	return f.result(f.args.ListArgs(opts), 0, strings.Join(ids, "\n"), ""), nil
}

func matchesFilters(c *fakeContainer, filters []string) bool {
	for _, filter := range filters {
		kv, ok := strings.CutPrefix(filter, "label=")
		if !ok {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		if c.Labels[k] != v {
			return false
		}
	}
	return true
}

func (f *fakeEngine) Inspect(_ context.Context, names ...string) (*container.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	type doc struct {
		ID     string `json:"Id"`
		Name   string `json:"Name"`
		Config struct {
			Labels map[string]string `json:"Labels"`
		} `json:"Config"`
	}
	var docs []doc
	for _, name := range names {
		for _, c := range f.containers {
			if c.ID == name || c.Name == name {
				d := doc{ID: c.ID, Name: c.Name}
				d.Config.Labels = c.Labels
				docs = append(docs, d)
			}
		}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}
	return f.result(f.args.InspectArgs(names...), 0, string(data), ""), nil
}

func (f *fakeEngine) RunContainer(_ context.Context, opts container.RunOptions) (*container.CommandResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, opts)
	if code := f.runExit[opts.Name]; code != 0 {
		return f.result(f.args.RunArgs(opts), code, "", fmt.Sprintf("Error: cannot start %s", opts.Name)), nil
	}
	f.containers = append(f.containers, &fakeContainer{ID: "id-" + opts.Name, Name: opts.Name, Image: opts.Image, Labels: opts.Labels})
	return f.result(f.args.RunArgs(opts), 0, "id-"+opts.Name+"\n", ""), nil
}

func (f *fakeEngine) ExecContainer(_ context.Context, opts container.ExecOptions) (*container.CommandResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, opts)
	for _, c := range f.containers {
		if c.Name == opts.Container {
			return f.result(f.args.ExecArgs(opts), 0, "", ""), nil
		}
	}
	return f.result(f.args.ExecArgs(opts), 125, "", "Error: no container with name or ID "+opts.Container+" found"), nil
}

func (f *fakeEngine) RemoveContainer(_ context.Context, name string, force bool) (*container.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code := f.rmExit[name]; code != 0 {
		return f.result(f.args.RemoveArgs(name, force), code, "", "Error: cannot remove "+name), nil
	}
	f.containers = slices.DeleteFunc(f.containers, func(c *fakeContainer) bool { return c.Name == name || c.ID == name })
	return f.result(f.args.RemoveArgs(name, force), 0, name+"\n", ""), nil
}

func (f *fakeEngine) ImageExists(_ context.Context, image string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images[image], nil
}

func (f *fakeEngine) PullImage(_ context.Context, image string) (*container.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code := f.pullExit[image]; code != 0 {
		return f.result(f.args.PullArgs(image), code, "", "Error: initializing source "+image+": manifest unknown"), nil
	}
	f.images[image] = true
	return f.result(f.args.PullArgs(image), 0, "", ""), nil
}
