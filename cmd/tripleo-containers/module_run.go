// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tripleo/tripleo-containers/internal/ansible"
)

// errModuleFailed is wrapped by the ExitError returned when a module result is failed.
var errModuleFailed = errors.New("module reported failure")

type (
	// paramFlag binds a CLI flag to the module parameter it sets.
	paramFlag struct {
		flag  string
		param string
	}

	// moduleFunc runs one module invocation.
	moduleFunc func(ctx context.Context, args *ansible.Args, logger *log.Logger) ansible.Outcome
)

// flagParams collects the parameters whose flags were set explicitly.
func flagParams(cmd *cobra.Command, bindings []paramFlag) map[string]any {
	fs := cmd.Flags()
	params := map[string]any{}
	for _, b := range bindings {
		f := fs.Lookup(b.flag)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "bool":
			v, _ := fs.GetBool(b.flag)
			params[b.param] = v
		case "stringSlice":
			v, _ := fs.GetStringSlice(b.flag)
			params[b.param] = v
		default:
			params[b.param] = f.Value.String()
		}
	}
	return params
}

// moduleArgs loads the arguments file when one is given and fills in any
// parameter it leaves unset from the flags.
func moduleArgs(argsFile string, fromFlags map[string]any, check bool) (*ansible.Args, error) {
	if argsFile == "" {
		args := ansible.NewArgs(fromFlags)
		if check {
			args.Internal["check_mode"] = true
		}
		return args, nil
	}

	args, err := ansible.LoadArgs(argsFile)
	if err != nil {
		return nil, err
	}
	for k, v := range fromFlags {
		if _, ok := args.Params[k]; !ok {
			args.Params[k] = v
		}
	}
	if _, ok := args.Internal["check_mode"]; !ok && check {
		args.Internal["check_mode"] = true
	}
	return args, nil
}

// moduleLogger writes module diagnostics to stderr. Stdout is reserved for
// the result document.
func moduleLogger(w io.Writer, name string, verbose bool, verbosity int) *log.Logger {
	level := log.WarnLevel
	if verbose || verbosity >= 3 {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{Prefix: name, Level: level})
}

// runModule runs a module and prints its result. Any failure, including an
// unreadable arguments file, still produces a result document.
func (app *App) runModule(cmd *cobra.Command, name string, flags *rootFlags, args *ansible.Args, argsErr error, run moduleFunc) error {
	if argsErr != nil {
		if flags.verbose {
			if help := renderIssueHelp(argsErr); help != "" {
				fmt.Fprint(app.stderr, help)
			}
		}
		if err := ansible.Emit(app.stdout, ansible.Fail(argsErr.Error())); err != nil {
			return &ExitError{Code: 1, Err: err}
		}
		return &ExitError{Code: 1, Err: fmt.Errorf("%s: %w", name, argsErr)}
	}

	logger := moduleLogger(app.stderr, name, flags.verbose, args.Verbosity())
	result := run(cmd.Context(), args, logger)
	if err := ansible.Emit(app.stdout, result); err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	if result.IsFailed() {
		if flags.verbose {
			if help := renderIssueHelp(result.Err()); help != "" {
				fmt.Fprint(app.stderr, help)
			}
		}
		return &ExitError{Code: 1, Err: fmt.Errorf("%s: %w", name, errModuleFailed)}
	}
	return nil
}
