// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tripleo/tripleo-containers/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "tripleo-containers"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// EnvPrefix prefixes environment overrides, e.g. TRIPLEO_CONTAINERS_DEBUG.
	EnvPrefix = "TRIPLEO_CONTAINERS"
	// SystemConfigDir is searched after the user config directory.
	SystemConfigDir = "/etc/tripleo-containers"

	// maxConfigSize bounds config files read from disk.
	maxConfigSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns $XDG_CONFIG_HOME/tripleo-containers, defaulting to
// ~/.config/tripleo-containers.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading and returns the
// path of the file that was used, or "" when only defaults applied.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("container_cli", string(defaults.ContainerCLI))
	v.SetDefault("managed_by", defaults.ManagedBy)
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("container_log_stdout_path", defaults.ContainerLogStdoutPath)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("healthcheck_disabled", defaults.HealthcheckDisabled)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	resolvedPath := opts.ConfigFilePath
	if resolvedPath != "" {
		if !fileExists(resolvedPath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'tripleo-containers config show' to see the default configuration").
				WithIssue(issue.ToolConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", resolvedPath)).
				BuildError()
		}
	} else {
		dirs, err := searchDirs(opts)
		if err != nil {
			return nil, "", err
		}
		resolvedPath = findConfigFile(dirs)
	}

	if resolvedPath != "" {
		if err := loadFileIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE or TOML syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithIssue(issue.ToolConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check the " + EnvPrefix + "_* environment variables").
			WithIssue(issue.ToolConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func searchDirs(opts LoadOptions) ([]string, error) {
	userDir := opts.ConfigDirPath
	if userDir == "" {
		var err error
		if userDir, err = ConfigDir(); err != nil {
			return nil, err
		}
	}
	systemDir := opts.SystemDirPath
	if systemDir == "" {
		systemDir = SystemConfigDir
	}
	return []string{userDir, systemDir}, nil
}

// findConfigFile returns the first config.cue or config.toml found in dirs.
func findConfigFile(dirs []string) string {
	for _, dir := range dirs {
		for _, ext := range []string{"cue", "toml"} {
			path := filepath.Join(dir, ConfigFileName+"."+ext)
			if fileExists(path) {
				return path
			}
		}
	}
	return ""
}

// loadFileIntoViper validates a CUE or TOML file against the #Config schema
// and merges its contents into Viper.
func loadFileIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigSize {
		return fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	var userValue cue.Value
	if strings.HasSuffix(path, ".toml") {
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("invalid TOML: %w", err)
		}
		userValue = ctx.Encode(raw)
	} else {
		userValue = ctx.CompileBytes(data, cue.Filename(path))
	}
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func formatCUEError(err error) error {
	return fmt.Errorf("schema validation failed:\n%s", strings.TrimSpace(cueerrors.Details(err, nil)))
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config.cue into dir unless one exists,
// and returns its path.
func CreateDefaultConfig(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(dir, ConfigFileName+".cue")
	if fileExists(cfgPath) {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// tripleo-containers configuration\n")
	sb.WriteString("// Values here apply when a task leaves the matching module parameter unset.\n\n")
	fmt.Fprintf(&sb, "container_cli: %q\n", cfg.ContainerCLI)
	fmt.Fprintf(&sb, "managed_by: %q\n", cfg.ManagedBy)
	fmt.Fprintf(&sb, "log_file: %q\n", cfg.LogFile)
	fmt.Fprintf(&sb, "container_log_stdout_path: %q\n", cfg.ContainerLogStdoutPath)
	fmt.Fprintf(&sb, "debug: %v\n", cfg.Debug)
	fmt.Fprintf(&sb, "healthcheck_disabled: %v\n", cfg.HealthcheckDisabled)

	return sb.String()
}

// GenerateTOML generates the TOML equivalent of GenerateCUE.
func GenerateTOML(cfg *Config) (string, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config as TOML: %w", err)
	}
	return string(data), nil
}
