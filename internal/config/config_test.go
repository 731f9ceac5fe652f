// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tripleo/tripleo-containers/internal/issue"
)

// isolatedOptions points both search directories at empty temp dirs so the
// host's /etc/tripleo-containers never leaks into a test.
func isolatedOptions(t *testing.T) (LoadOptions, string, string) {
	t.Helper()
	userDir := t.TempDir()
	systemDir := t.TempDir()
	return LoadOptions{ConfigDirPath: userDir, SystemDirPath: systemDir}, userDir, systemDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.ContainerCLI != ContainerCLIPodman {
		t.Errorf("ContainerCLI = %q, want podman", cfg.ContainerCLI)
	}
	if cfg.ManagedBy != "paunch" {
		t.Errorf("ManagedBy = %q, want paunch", cfg.ManagedBy)
	}
	if cfg.LogFile != "/var/log/paunch.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.ContainerLogStdoutPath != "/var/log/containers/stdouts" {
		t.Errorf("ContainerLogStdoutPath = %q", cfg.ContainerLogStdoutPath)
	}
	if !cfg.Debug {
		t.Error("Debug should default to true")
	}
	if cfg.HealthcheckDisabled {
		t.Error("HealthcheckDisabled should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	opts, _, _ := isolatedOptions(t)
	cfg, path, err := NewProvider().LoadWithSource(t.Context(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected no source file, got %q", path)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_UserCUEFile(t *testing.T) {
	t.Parallel()

	opts, userDir, _ := isolatedOptions(t)
	writeFile(t, filepath.Join(userDir, "config.cue"), `
container_cli: "docker"
managed_by: "tripleo-Undercloud"
debug: false
`)

	cfg, path, err := NewProvider().LoadWithSource(t.Context(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(userDir, "config.cue") {
		t.Errorf("source = %q", path)
	}
	if cfg.ContainerCLI != ContainerCLIDocker || cfg.ManagedBy != "tripleo-Undercloud" || cfg.Debug {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.LogFile != "/var/log/paunch.log" {
		t.Errorf("unset field should keep default, got %q", cfg.LogFile)
	}
}

func TestLoad_SystemTOMLFile(t *testing.T) {
	t.Parallel()

	opts, _, systemDir := isolatedOptions(t)
	writeFile(t, filepath.Join(systemDir, "config.toml"), `
log_file = "/var/log/tripleo/paunch.log"
healthcheck_disabled = true
`)

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogFile != "/var/log/tripleo/paunch.log" || !cfg.HealthcheckDisabled {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_UserDirWinsOverSystemDir(t *testing.T) {
	t.Parallel()

	opts, userDir, systemDir := isolatedOptions(t)
	writeFile(t, filepath.Join(userDir, "config.toml"), `managed_by = "user"`)
	writeFile(t, filepath.Join(systemDir, "config.cue"), `managed_by: "system"`)

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ManagedBy != "user" {
		t.Errorf("ManagedBy = %q, want user", cfg.ManagedBy)
	}
}

func TestLoad_CUEPreferredOverTOMLInSameDir(t *testing.T) {
	t.Parallel()

	opts, userDir, _ := isolatedOptions(t)
	writeFile(t, filepath.Join(userDir, "config.toml"), `managed_by = "toml"`)
	writeFile(t, filepath.Join(userDir, "config.cue"), `managed_by: "cue"`)

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ManagedBy != "cue" {
		t.Errorf("ManagedBy = %q, want cue", cfg.ManagedBy)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown cli", "config.cue", `container_cli: "lxc"`},
		{"unknown field", "config.cue", `registry: "quay.io"`},
		{"wrong type", "config.cue", `debug: "yes"`},
		{"empty managed_by", "config.cue", `managed_by: ""`},
		{"toml unknown cli", "config.toml", `container_cli = "rkt"`},
		{"toml unknown field", "config.toml", `color = "auto"`},
		{"cue syntax", "config.cue", `container_cli: `},
		{"toml syntax", "config.toml", `container_cli = `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts, userDir, _ := isolatedOptions(t)
			writeFile(t, filepath.Join(userDir, tt.file), tt.content)

			_, err := NewProvider().Load(t.Context(), opts)
			if err == nil {
				t.Fatal("expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected ActionableError, got %T", err)
			}
			if ae.Issue != issue.ToolConfigLoadFailedId {
				t.Errorf("Issue = %d, want ToolConfigLoadFailedId", ae.Issue)
			}
		})
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.cue")
	writeFile(t, path, `container_log_stdout_path: "/srv/stdouts"`)

	cfg, source, err := NewProvider().LoadWithSource(t.Context(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != path || cfg.ContainerLogStdoutPath != "/srv/stdouts" {
		t.Errorf("unexpected result %q %+v", source, cfg)
	}
}

func TestLoad_CustomPath_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue")})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := NewProvider().Load(canceled, LoadOptions{}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	opts, userDir, _ := isolatedOptions(t)
	writeFile(t, filepath.Join(userDir, "config.cue"), `managed_by: "file"`)
	t.Setenv("TRIPLEO_CONTAINERS_MANAGED_BY", "env")
	t.Setenv("TRIPLEO_CONTAINERS_DEBUG", "false")

	cfg, err := NewProvider().Load(t.Context(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ManagedBy != "env" {
		t.Errorf("ManagedBy = %q, want env", cfg.ManagedBy)
	}
	if cfg.Debug {
		t.Error("Debug should be overridden to false")
	}
}

func TestLoad_EnvOverrideInvalid(t *testing.T) {
	opts, _, _ := isolatedOptions(t)
	t.Setenv("TRIPLEO_CONTAINERS_CONTAINER_CLI", "lxc")

	_, err := NewProvider().Load(t.Context(), opts)
	if !errors.Is(err, ErrInvalidContainerCLI) {
		t.Fatalf("expected ErrInvalidContainerCLI, got %v", err)
	}
}

func TestConfigDir_UsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != "/tmp/xdg/tripleo-containers" {
		t.Errorf("ConfigDir() = %q", dir)
	}
}

func TestCreateDefaultConfig_RoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated config should load: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("generated config differs from defaults: %+v", cfg)
	}

	// Second call keeps the existing file.
	writeFile(t, path, `managed_by: "edited"`)
	if _, err := CreateDefaultConfig(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `managed_by: "edited"` {
		t.Errorf("existing config was overwritten: %q", data)
	}
}

func TestGenerateTOML_Loads(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ContainerCLI = ContainerCLIDocker
	out, err := GenerateTOML(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, out)
	loaded, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated TOML should load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}
