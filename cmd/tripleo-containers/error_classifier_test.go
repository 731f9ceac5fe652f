// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tripleo/tripleo-containers/internal/ansible"
	"github.com/tripleo/tripleo-containers/internal/container"
	"github.com/tripleo/tripleo-containers/internal/issue"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	linked := issue.NewErrorContext().
		WithOperation("run container").
		WithIssue(issue.ContainerRunFailedId).
		Wrap(errors.New("exec: not found")).
		BuildError()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{"linked issue wins", linked, issue.ContainerRunFailedId},
		{"invalid params", &ansible.InvalidParamsError{Module: "paunch", Reason: "missing required arguments: config_id"}, issue.ModuleParamsInvalidId},
		{"args file", fmt.Errorf("%w: expected a JSON object", ansible.ErrInvalidArgsFile), issue.ArgsFileInvalidId},
		{"binary not found", &ansible.BinNotFoundError{Name: "podman"}, issue.ContainerEngineNotFoundId},
		{"no engine", &container.EngineNotAvailableError{Engine: "any", Reason: "none"}, issue.ContainerEngineNotFoundId},
		{"malformed inspect", fmt.Errorf("%w: bad", container.ErrMalformedInspect), issue.InspectOutputMalformedId},
		{"unknown", errors.New("boom"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyError(tt.err); got != tt.want {
				t.Errorf("classifyError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderIssueHelp_Nil(t *testing.T) {
	t.Parallel()

	if got := renderIssueHelp(nil); got != "" {
		t.Errorf("renderIssueHelp(nil) = %q, want empty", got)
	}
	if got := renderIssueHelp(errors.New("boom")); got != "" {
		t.Errorf("unclassified errors have no help, got %q", got)
	}
}
