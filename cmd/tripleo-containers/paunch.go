// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tripleo/tripleo-containers/internal/ansible"
	"github.com/tripleo/tripleo-containers/internal/config"
	"github.com/tripleo/tripleo-containers/internal/module/paunch"
)

var paunchFlags = []paramFlag{
	{"config", "config"},
	{"config-id", "config_id"},
	{"action", "action"},
	{"container-cli", "container_cli"},
	{"container-log-stdout-path", "container_log_stdout_path"},
	{"healthcheck-disabled", "healthcheck_disabled"},
	{"managed-by", "managed_by"},
	{"debug", "debug"},
	{"log-file", "log_file"},
}

func newPaunchCommand(app *App, flags *rootFlags) *cobra.Command {
	var check bool

	paunchCmd := &cobra.Command{
		Use:   "paunch [ARGS_FILE]",
		Short: "Apply or clean up a container config set",
		Long: `Apply or clean up the containers of one or more config_ids.

With ARGS_FILE the parameters are read from the JSON file Ansible writes
for binary modules; flags fill in whatever the file leaves unset.
Parameters the task omits default to the tool configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			var argsFile string
			if len(argv) == 1 {
				argsFile = argv[0]
			}
			args, err := moduleArgs(argsFile, flagParams(cmd, paunchFlags), check)
			return app.runModule(cmd, paunch.ModuleName, flags, args, err,
				func(ctx context.Context, args *ansible.Args, logger *log.Logger) ansible.Outcome {
					defaults := app.toolDefaults(ctx, flags)
					return paunch.New(app.Operator, defaults, paunch.WithLogger(logger)).Run(ctx, args)
				})
		},
	}

	fs := paunchCmd.Flags()
	fs.String("config", "", "config set file or directory of hashed-*.json files")
	fs.StringSlice("config-id", nil, "config_id(s) to apply or clean up")
	fs.String("action", paunch.ActionApply, "apply or cleanup")
	fs.String("container-cli", "", "container engine (podman or docker)")
	fs.String("container-log-stdout-path", "", "directory for container stdout logs")
	fs.Bool("healthcheck-disabled", false, "create containers without healthchecks")
	fs.String("managed-by", "", "value of the managed_by label")
	fs.Bool("debug", false, "log at debug level to the log file")
	fs.String("log-file", "", "file the operation logs to")
	fs.BoolVar(&check, "check", false, "run in check mode")

	return paunchCmd
}

// toolDefaults loads the tool configuration. A broken configuration is
// reported on stderr and the built-in defaults apply, so the module still
// answers with a result document.
func (app *App) toolDefaults(ctx context.Context, flags *rootFlags) *config.Config {
	cfg, err := app.Config.Load(ctx, flags.loadOptions())
	if err != nil {
		fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, flags.verbose))
		return config.DefaultConfig()
	}
	return cfg
}
