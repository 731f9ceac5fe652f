// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tripleo/tripleo-containers/internal/container"
)

// ActionExec marks a spec that runs a command in another container instead
// of starting one.
const ActionExec = "exec"

// ErrInvalidContainerSpec is the sentinel wrapped by InvalidContainerSpecError.
var ErrInvalidContainerSpec = errors.New("invalid container spec")

type (
	// ContainerSpec is the typed view of one ConfigSet entry.
	ContainerSpec struct {
		Image       string            `json:"image"`
		Action      string            `json:"action"`
		Command     Command           `json:"command"`
		Entrypoint  string            `json:"entrypoint"`
		Environment Environment       `json:"environment"`
		EnvFile     StringList        `json:"env_file"`
		Net         string            `json:"net"`
		Pid         string            `json:"pid"`
		Ipc         string            `json:"ipc"`
		Uts         string            `json:"uts"`
		Privileged  bool              `json:"privileged"`
		User        string            `json:"user"`
		Restart     string            `json:"restart"`
		Hostname    string            `json:"hostname"`
		WorkingDir  string            `json:"working_dir"`
		Ulimit      StringList        `json:"ulimit"`
		CapAdd      StringList        `json:"cap_add"`
		CapDrop     StringList        `json:"cap_drop"`
		SecurityOpt StringList        `json:"security_opt"`
		MemLimit    Scalar            `json:"mem_limit"`
		CPUShares   int               `json:"cpu_shares"`
		CPUSetCPUs  Scalar            `json:"cpuset_cpus"`
		StopSignal  string            `json:"stop_signal"`
		TTY         bool              `json:"tty"`
		Interactive bool              `json:"interactive"`
		Detach      *bool             `json:"detach"`
		Remove      bool              `json:"remove"`
		StartOrder  int               `json:"start_order"`
		Labels      map[string]Scalar `json:"labels"`
		Volumes     StringList        `json:"volumes"`
		Ports       StringList        `json:"ports"`
		ExtraHosts  StringList        `json:"extra_hosts"`
		Healthcheck *Healthcheck      `json:"healthcheck"`
	}

	// Healthcheck holds the test command of a spec's health check.
	Healthcheck struct {
		Test Command `json:"test"`
	}

	// Command accepts a whitespace-separated string or a list of arguments.
	Command []string

	// StringList accepts a single string or a list of strings.
	StringList []string

	// Environment accepts a list of KEY=VALUE strings or a mapping.
	Environment []string

	// Scalar accepts a string, number or bool and keeps its text form.
	Scalar string

	// InvalidContainerSpecError reports why a named spec cannot be used.
	InvalidContainerSpecError struct {
		Name   string
		Reason string
	}
)

func (e *InvalidContainerSpecError) Error() string {
	return fmt.Sprintf("invalid container spec %q: %s", e.Name, e.Reason)
}

func (e *InvalidContainerSpecError) Unwrap() error { return ErrInvalidContainerSpec }

// DecodeSpec converts a raw spec into a ContainerSpec and validates it.
func DecodeSpec(name string, raw map[string]any) (*ContainerSpec, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, &InvalidContainerSpecError{Name: name, Reason: err.Error()}
	}
	var spec ContainerSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, &InvalidContainerSpecError{Name: name, Reason: err.Error()}
	}

	switch {
	case spec.Action == ActionExec:
		if len(spec.Command) < 2 {
			return nil, &InvalidContainerSpecError{Name: name, Reason: "exec requires a command of the form [container, cmd...]"}
		}
	case spec.Action != "":
		return nil, &InvalidContainerSpecError{Name: name, Reason: fmt.Sprintf("unknown action %q", spec.Action)}
	case spec.Image == "":
		return nil, &InvalidContainerSpecError{Name: name, Reason: "image is required"}
	}
	return &spec, nil
}

// IsExec reports whether the spec runs a command in another container.
func (s *ContainerSpec) IsExec() bool { return s.Action == ActionExec }

// RunOptions builds engine run options. Scope labels are applied on top of
// the spec's own labels.
func (s *ContainerSpec) RunOptions(name string, scope map[string]string, logDir string, healthcheckDisabled bool) container.RunOptions {
	labels := make(map[string]string, len(s.Labels)+len(scope))
	for k, v := range s.Labels {
		labels[k] = string(v)
	}
	for k, v := range scope {
		labels[k] = v
	}

	detach := true
	if s.Detach != nil {
		detach = *s.Detach
	}

	opts := container.RunOptions{
		Name:          name,
		Image:         s.Image,
		Command:       s.Command,
		Entrypoint:    s.Entrypoint,
		Detach:        detach,
		Remove:        s.Remove,
		Env:           s.Environment,
		EnvFiles:      s.EnvFile,
		Labels:        labels,
		Volumes:       s.Volumes,
		Ports:         s.Ports,
		Net:           s.Net,
		Pid:           s.Pid,
		Ipc:           s.Ipc,
		Uts:           s.Uts,
		Privileged:    s.Privileged,
		User:          s.User,
		Restart:       s.Restart,
		Hostname:      s.Hostname,
		WorkDir:       s.WorkingDir,
		Ulimits:       s.Ulimit,
		CapAdd:        s.CapAdd,
		CapDrop:       s.CapDrop,
		SecurityOpt:   s.SecurityOpt,
		Memory:        string(s.MemLimit),
		CPUShares:     s.CPUShares,
		CPUSetCPUs:    string(s.CPUSetCPUs),
		StopSignal:    s.StopSignal,
		TTY:           s.TTY,
		Interactive:   s.Interactive,
		StdoutLogDir:  logDir,
		ExtraHosts:    s.ExtraHosts,
		NoHealthcheck: healthcheckDisabled,
	}
	if !healthcheckDisabled && s.Healthcheck != nil {
		opts.HealthCmd = s.Healthcheck.Cmd()
	}
	return opts
}

// ExecOptions builds engine exec options; the first command element names
// the target container.
func (s *ContainerSpec) ExecOptions() container.ExecOptions {
	return container.ExecOptions{
		Container:  s.Command[0],
		Command:    s.Command[1:],
		User:       s.User,
		Env:        s.Environment,
		WorkDir:    s.WorkingDir,
		Privileged: s.Privileged,
	}
}

// Cmd returns the health check as a single shell command, dropping a
// leading CMD or CMD-SHELL marker.
func (h *Healthcheck) Cmd() string {
	test := h.Test
	if len(test) > 0 && (test[0] == "CMD" || test[0] == "CMD-SHELL") {
		test = test[1:]
	}
	return strings.Join(test, " ")
}

func (c *Command) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*c = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = strings.Fields(s)
		return nil
	}
	var list []Scalar
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("command must be a string or a list: %w", err)
	}
	*c = scalarsToStrings(list)
	return nil
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*l = nil
		return nil
	}
	var s Scalar
	if err := json.Unmarshal(data, &s); err == nil {
		*l = StringList{string(s)}
		return nil
	}
	var list []Scalar
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected a string or a list: %w", err)
	}
	*l = scalarsToStrings(list)
	return nil
}

func (e *Environment) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*e = nil
		return nil
	}
	var m map[string]Scalar
	if err := json.Unmarshal(data, &m); err == nil {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		env := make(Environment, 0, len(m))
		for _, k := range keys {
			env = append(env, k+"="+string(m[k]))
		}
		*e = env
		return nil
	}
	var list []Scalar
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("environment must be a list or a mapping: %w", err)
	}
	*e = scalarsToStrings(list)
	return nil
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		*s = Scalar(x)
	case float64:
		*s = Scalar(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*s = Scalar(strconv.FormatBool(x))
	case nil:
		*s = ""
	default:
		return fmt.Errorf("expected a scalar, got %s", strings.TrimSpace(string(data)))
	}
	return nil
}

func isNull(data []byte) bool {
	return strings.TrimSpace(string(data)) == "null"
}

func scalarsToStrings(in []Scalar) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
