// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tripleo/tripleo-containers/internal/ansible"
	"github.com/tripleo/tripleo-containers/internal/module/containerinfo"
)

var containerInfoFlags = []paramFlag{
	{"executable", "executable"},
	{"name", "name"},
	{"use-api", "use_api"},
}

func newContainerInfoCommand(app *App, flags *rootFlags) *cobra.Command {
	var check bool

	infoCmd := &cobra.Command{
		Use:     "podman-container-info [ARGS_FILE]",
		Aliases: []string{containerinfo.ModuleName},
		Short:   "Gather container inspection records",
		Long: `Gather the inspection records of the named containers, or of every
container when no name is given.

With ARGS_FILE the parameters are read from the JSON file Ansible writes
for binary modules; flags fill in whatever the file leaves unset.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			var argsFile string
			if len(argv) == 1 {
				argsFile = argv[0]
			}
			args, err := moduleArgs(argsFile, flagParams(cmd, containerInfoFlags), check)
			return app.runModule(cmd, containerinfo.ModuleName, flags, args, err,
				func(ctx context.Context, args *ansible.Args, logger *log.Logger) ansible.Outcome {
					result := containerinfo.New(app.Inspectors).Run(ctx, args)
					if result.Failed {
						logger.Debug("container info failed", "msg", result.Msg, "stderr", result.Stderr)
					}
					return result
				})
		},
	}

	fs := infoCmd.Flags()
	fs.String("executable", containerinfo.DefaultExecutable, "container engine executable")
	fs.StringSlice("name", nil, "containers to inspect (default all)")
	fs.Bool("use-api", false, "query the engine API socket instead of the CLI")
	fs.BoolVar(&check, "check", false, "run in check mode")

	return infoCmd
}
