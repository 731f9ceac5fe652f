// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/tripleo/tripleo-containers/internal/config"
	"github.com/tripleo/tripleo-containers/internal/issue"
	"github.com/tripleo/tripleo-containers/internal/module/containerinfo"
	"github.com/tripleo/tripleo-containers/internal/module/paunch"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// moduleCommands maps the names Ansible installs the binary under to
	// the subcommand serving that module.
	moduleCommands = map[string]string{
		paunch.ModuleName:        "paunch",
		containerinfo.ModuleName: "podman-container-info",
	}
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	toolConfig string
	verbose    bool
}

func (f *rootFlags) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: f.toolConfig}
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Ansible binary modules for TripleO containers",
		Long: TitleStyle.Render(config.AppName) + SubtitleStyle.Render(" - Ansible binary modules for TripleO containers") + `

The binary implements two Ansible modules. Installed (or symlinked) under the
module name it reads the arguments file Ansible passes and prints the result
document on stdout:

  paunch ARGS_FILE                  apply or clean up a container config set
  podman_container_info ARGS_FILE   gather container inspection records

` + SubtitleStyle.Render("Examples:") + `
  tripleo-containers paunch --config /var/lib/tripleo-config/step1 --config-id tripleo_step1
  tripleo-containers paunch --action cleanup --config-id tripleo_step1
  tripleo-containers podman-container-info --name haproxy
  tripleo-containers config show`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose diagnostics on stderr")
	rootCmd.PersistentFlags().StringVar(&flags.toolConfig, "tool-config", "",
		"tool config file (default is $XDG_CONFIG_HOME/tripleo-containers/config.cue, then /etc/tripleo-containers)")

	rootCmd.AddCommand(newPaunchCommand(app, flags))
	rootCmd.AddCommand(newContainerInfoCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// dispatchArgs returns the command-line arguments for the root command.
// When the binary runs under a module name the matching subcommand is
// prepended, so "paunch ARGS_FILE" behaves like "tripleo-containers paunch ARGS_FILE".
func dispatchArgs(argv []string) []string {
	if len(argv) == 0 {
		return nil
	}
	if sub, ok := moduleCommands[filepath.Base(argv[0])]; ok {
		return append([]string{sub}, argv[1:]...)
	}
	return argv[1:]
}

// Execute builds the production App and runs the command selected by os.Args.
// It is called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))
	rootCmd.SetArgs(dispatchArgs(os.Args))

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their own formatting; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssueHelp returns the catalog help for err, or "" when there is none.
func renderIssueHelp(err error) string {
	if err == nil {
		return ""
	}
	entry := issue.Get(classifyError(err))
	if entry == nil {
		return ""
	}
	rendered, renderErr := entry.Render("dark")
	if renderErr != nil {
		return ""
	}
	return rendered
}
