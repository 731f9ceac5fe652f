// SPDX-License-Identifier: MPL-2.0

// Package ansible implements the binary-module side of the Ansible module
// protocol: loading the JSON arguments file, validating parameters against
// an embedded CUE schema, locating executables and emitting the JSON result.
package ansible
