// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"slices"
	"testing"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got := getVersionString(); got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q", got)
		}
	})
}

func TestDispatchArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		argv []string
		want []string
	}{
		{"paunch module", []string{"/tmp/ansible-tmp/paunch", "/tmp/args"}, []string{"paunch", "/tmp/args"}},
		{"container info module", []string{"podman_container_info", "/tmp/args"}, []string{"podman-container-info", "/tmp/args"}},
		{"tool name", []string{"/usr/bin/tripleo-containers", "config", "show"}, []string{"config", "show"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := dispatchArgs(tt.argv); !slices.Equal(got, tt.want) {
				t.Errorf("dispatchArgs(%v) = %v, want %v", tt.argv, got, tt.want)
			}
		})
	}
}
