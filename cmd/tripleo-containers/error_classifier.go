// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/tripleo/tripleo-containers/internal/ansible"
	"github.com/tripleo/tripleo-containers/internal/container"
	"github.com/tripleo/tripleo-containers/internal/issue"
)

// classifyError maps a failure to the issue catalog entry that explains it.
// An issue linked by an ActionableError wins; otherwise the sentinel decides.
// It returns 0 when no entry applies.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}

	switch {
	case errors.Is(err, ansible.ErrInvalidParams):
		return issue.ModuleParamsInvalidId
	case errors.Is(err, ansible.ErrInvalidArgsFile):
		return issue.ArgsFileInvalidId
	case errors.Is(err, ansible.ErrBinNotFound), errors.Is(err, container.ErrNoEngineAvailable):
		return issue.ContainerEngineNotFoundId
	case errors.Is(err, container.ErrMalformedInspect):
		return issue.InspectOutputMalformedId
	}
	return 0
}
