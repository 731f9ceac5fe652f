// SPDX-License-Identifier: MPL-2.0

package ansible

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/tripleo/tripleo-containers/internal/issue"
)

const (
	internalPrefix = "_ansible_"
	// wrapperKey is used by new-style modules; binary modules normally
	// receive the parameters at the top level.
	wrapperKey = "ANSIBLE_MODULE_ARGS"
)

// ErrInvalidArgsFile is returned when the arguments file is not a JSON object.
var ErrInvalidArgsFile = errors.New("invalid module arguments file")

// Args holds the parameters a task passed to a module, split from the
// controller's _ansible_* bookkeeping keys.
type Args struct {
	Params   map[string]any
	Internal map[string]any
}

// LoadArgs reads and parses the arguments file Ansible hands to binary modules.
func LoadArgs(path string) (*Args, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read module arguments").
			WithResource(path).
			WithIssue(issue.ArgsFileInvalidId).
			Wrap(err).
			BuildError()
	}
	args, err := ParseArgs(data)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse module arguments").
			WithResource(path).
			WithSuggestion("The file must contain a single JSON object").
			WithIssue(issue.ArgsFileInvalidId).
			Wrap(err).
			BuildError()
	}
	return args, nil
}

// ParseArgs splits a JSON object into module parameters and internal keys.
// Parameters explicitly set to null are treated as unset.
func ParseArgs(data []byte) (*Args, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgsFile, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidArgsFile)
	}
	if wrapped, ok := raw[wrapperKey].(map[string]any); ok && len(raw) == 1 {
		raw = wrapped
	}

	args := &Args{Params: map[string]any{}, Internal: map[string]any{}}
	for k, v := range raw {
		switch {
		case strings.HasPrefix(k, internalPrefix):
			args.Internal[strings.TrimPrefix(k, internalPrefix)] = v
		case v == nil:
		default:
			args.Params[k] = v
		}
	}
	return args, nil
}

// NewArgs builds Args from parameters assembled in code, e.g. CLI flags.
func NewArgs(params map[string]any) *Args {
	args := &Args{Params: map[string]any{}, Internal: map[string]any{}}
	for k, v := range params {
		if v != nil {
			args.Params[k] = v
		}
	}
	return args
}

// CheckMode reports whether the task runs with --check.
func (a *Args) CheckMode() bool {
	b, _ := a.Internal["check_mode"].(bool)
	return b
}

// Verbosity returns the controller's -v count.
func (a *Args) Verbosity() int {
	f, _ := a.Internal["verbosity"].(float64)
	return int(f)
}

// Decode converts the parameters into v through their JSON form.
func (a *Args) Decode(v any) error {
	data, err := json.Marshal(a.Params)
	if err != nil {
		return fmt.Errorf("encode module parameters: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode module parameters: %w", err)
	}
	return nil
}

// ModuleArgs returns a copy of the parameters for the invocation block.
func (a *Args) ModuleArgs() map[string]any {
	return maps.Clone(a.Params)
}
