// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ContainerCLIPodman drives containers through podman.
	ContainerCLIPodman ContainerCLI = "podman"
	// ContainerCLIDocker drives containers through docker.
	ContainerCLIDocker ContainerCLI = "docker"
)

var (
	// ErrInvalidContainerCLI is returned when a ContainerCLI value is not recognized.
	ErrInvalidContainerCLI = errors.New("invalid container cli")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerCLI names the container command line tool.
	ContainerCLI string

	// InvalidContainerCLIError is returned when a ContainerCLI value is not recognized.
	// It wraps ErrInvalidContainerCLI for errors.Is() compatibility.
	InvalidContainerCLIError struct {
		Value ContainerCLI
	}

	// InvalidConfigError collects every field that failed validation.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the defaults applied to module parameters a task leaves unset.
	Config struct {
		ContainerCLI           ContainerCLI `json:"container_cli" mapstructure:"container_cli" toml:"container_cli"`
		ManagedBy              string       `json:"managed_by" mapstructure:"managed_by" toml:"managed_by"`
		LogFile                string       `json:"log_file" mapstructure:"log_file" toml:"log_file"`
		ContainerLogStdoutPath string       `json:"container_log_stdout_path" mapstructure:"container_log_stdout_path" toml:"container_log_stdout_path"`
		Debug                  bool         `json:"debug" mapstructure:"debug" toml:"debug"`
		HealthcheckDisabled    bool         `json:"healthcheck_disabled" mapstructure:"healthcheck_disabled" toml:"healthcheck_disabled"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ContainerCLI:           ContainerCLIPodman,
		ManagedBy:              "paunch",
		LogFile:                "/var/log/paunch.log",
		ContainerLogStdoutPath: "/var/log/containers/stdouts",
		Debug:                  true,
		HealthcheckDisabled:    false,
	}
}

func (c ContainerCLI) String() string { return string(c) }

// Validate returns nil if the ContainerCLI is podman or docker.
func (c ContainerCLI) Validate() error {
	switch c {
	case ContainerCLIPodman, ContainerCLIDocker:
		return nil
	default:
		return &InvalidContainerCLIError{Value: c}
	}
}

func (e *InvalidContainerCLIError) Error() string {
	return fmt.Sprintf("invalid container cli %q (valid: podman, docker)", e.Value)
}

func (e *InvalidContainerCLIError) Unwrap() error { return ErrInvalidContainerCLI }

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks every field and reports all failures at once.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ContainerCLI.Validate(); err != nil {
		errs = append(errs, err)
	}
	for name, value := range map[string]string{
		"managed_by":                c.ManagedBy,
		"log_file":                  c.LogFile,
		"container_log_stdout_path": c.ContainerLogStdoutPath,
	} {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", name))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
