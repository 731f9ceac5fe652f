// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for tripleo-containers.
//
// The same binary serves as both Ansible binary modules: when invoked under
// the name paunch or podman_container_info it runs that module against the
// arguments file Ansible passes and prints the result document on stdout.
// Invoked as tripleo-containers it exposes the modules as subcommands along
// with helpers for the tool configuration.
package cmd
