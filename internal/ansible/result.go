// SPDX-License-Identifier: MPL-2.0

package ansible

import (
	"encoding/json"
	"fmt"
	"io"
)

type (
	// Common holds the result keys Ansible interprets for every module.
	Common struct {
		Changed    bool        `json:"changed"`
		Failed     bool        `json:"failed,omitempty"`
		Skipped    bool        `json:"skipped,omitempty"`
		Msg        string      `json:"msg,omitempty"`
		Warnings   []string    `json:"warnings,omitempty"`
		Invocation *Invocation `json:"invocation,omitempty"`

		err error
	}

	// Invocation echoes the parameters the module ran with.
	Invocation struct {
		ModuleArgs map[string]any `json:"module_args"`
	}

	// Outcome is implemented by every module result.
	Outcome interface {
		IsFailed() bool
		Err() error
	}
)

// IsFailed reports whether the result marks the task as failed.
func (c *Common) IsFailed() bool { return c.Failed }

// FailWith marks the result failed with err's message and keeps err for
// the caller's diagnostics. It is not part of the result document.
func (c *Common) FailWith(err error) {
	c.Failed = true
	c.Msg = err.Error()
	c.err = err
}

// Err returns the error passed to FailWith, if any.
func (c *Common) Err() error { return c.err }

// Warn appends a message to the warnings Ansible shows after the task.
func (c *Common) Warn(msg string) {
	c.Warnings = append(c.Warnings, msg)
}

// Fail returns a failed result carrying msg.
func Fail(msg string) *Common {
	return &Common{Failed: true, Msg: msg}
}

// Emit writes the result as the single JSON document Ansible reads from stdout.
func Emit(w io.Writer, result any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode module result: %w", err)
	}
	return nil
}
