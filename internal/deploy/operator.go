// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"context"
	"slices"
	"strings"

	"github.com/tripleo/tripleo-containers/internal/container"
)

// Default label values.
const (
	DefaultManagedBy = "paunch"

	labelConfigID      = "config_id"
	labelContainerName = "container_name"
	labelManagedBy     = "managed_by"
	labelConfigData    = "config_data"
)

type (
	// Operator applies and cleans up container configuration sets.
	Operator interface {
		Apply(ctx context.Context, req ApplyRequest) (*Output, error)
		Cleanup(ctx context.Context, req CleanupRequest) (*Output, error)
	}

	// ApplyRequest describes one apply call.
	ApplyRequest struct {
		// ConfigIDs scope the whole batch; they are joined into one config_id label.
		ConfigIDs []string
		Configs   ConfigSet
		ManagedBy string
		// Labels are added to every started container.
		Labels              map[string]string
		ContainerCLI        container.EngineType
		ContainerLogPath    string
		HealthcheckDisabled bool
		Log                 LogConfig
	}

	// CleanupRequest describes one cleanup call.
	CleanupRequest struct {
		ConfigIDs    []string
		ManagedBy    string
		ContainerCLI container.EngineType
		Log          LogConfig
	}

	// Output is what an operation reports: the commands it ran and their
	// messages, plus the last non-zero exit code.
	Output struct {
		Stdout []string
		Stderr []string
		RC     int
	}
)

// ScopeID joins config IDs into the single config_id label value used by Apply.
func ScopeID(ids []string) string {
	return strings.Join(ids, ",")
}

// InScope reports whether a config_id label written by ScopeID shares an ID
// with ids.
func InScope(label string, ids []string) bool {
	if label == "" {
		return false
	}
	for part := range strings.SplitSeq(label, ",") {
		if slices.Contains(ids, part) {
			return true
		}
	}
	return false
}

func (o *Output) out(line string) { o.Stdout = append(o.Stdout, line) }

func (o *Output) fail(rc int, msg string) {
	if msg = strings.TrimSpace(msg); msg != "" {
		o.Stderr = append(o.Stderr, msg)
	}
	if rc == 0 {
		rc = 1
	}
	o.RC = rc
}
