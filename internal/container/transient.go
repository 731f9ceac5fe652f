// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// transientMarkers are engine messages that usually succeed on retry:
// rootless Podman races, OCI runtime hiccups, registry network errors and
// overlay storage races.
var transientMarkers = []string{
	"ping_group_range",
	"OCI runtime error",
	"Temporary failure resolving",
	"Could not resolve host",
	"connection timed out",
	"connection refused",
	"connection reset by peer",
	"TLS handshake timeout",
	"error creating overlay mount",
	"error mounting layer",
}

// IsTransientError reports whether err is a transient container engine error
// that may succeed on retry.
//
// Context cancellation and deadline errors are explicitly non-transient because
// retrying a cancelled operation is never useful.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Exit code 125 is a generic engine failure, often storage or cgroup trouble.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 125 {
		return true
	}

	return containsTransientMarker(err.Error())
}

// IsTransientResult reports whether a failed command looks transient.
func IsTransientResult(result *CommandResult) bool {
	if result == nil || result.Succeeded() {
		return false
	}
	if result.ExitCode == 125 {
		return true
	}
	return containsTransientMarker(result.Stderr)
}

func containsTransientMarker(msg string) bool {
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
