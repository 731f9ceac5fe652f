// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions. Issue entries hold Markdown guidance for well-known failure
// classes; the CLI renders them with glamour in verbose mode.
package issue
