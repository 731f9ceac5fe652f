// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tripleo/tripleo-containers/internal/config"
)

// newConfigCommand creates the `tripleo-containers config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tripleo-containers configuration",
		Long: `Manage tripleo-containers configuration.

The configuration supplies defaults for module parameters a task leaves
unset. It is read from the first of:
  - $XDG_CONFIG_HOME/tripleo-containers/config.cue (or config.toml)
  - /etc/tripleo-containers/config.cue (or config.toml)
Environment variables TRIPLEO_CONTAINERS_<KEY> override file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfig(cmd, flags)
		},
	})

	var dir string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.initConfig(dir)
		},
	}
	initCmd.Flags().StringVar(&dir, "dir", "", "directory to create config.cue in (default is the user config directory)")
	cfgCmd.AddCommand(initCmd)

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE or TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.dumpConfig(cmd, flags, format)
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", "cue", "output format (cue or toml)")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func (app *App) showConfig(cmd *cobra.Command, flags *rootFlags) error {
	cfg, source, err := app.Config.LoadWithSource(cmd.Context(), flags.loadOptions())
	if err != nil {
		if flags.verbose {
			if help := renderIssueHelp(err); help != "" {
				fmt.Fprint(app.stderr, help)
			}
		}
		return err
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)

	if source != "" {
		fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("Config file"), source)
	} else {
		fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(app.stdout)

	rows := []struct{ key, value string }{
		{"container_cli", string(cfg.ContainerCLI)},
		{"managed_by", cfg.ManagedBy},
		{"log_file", cfg.LogFile},
		{"container_log_stdout_path", cfg.ContainerLogStdoutPath},
		{"debug", fmt.Sprintf("%v", cfg.Debug)},
		{"healthcheck_disabled", fmt.Sprintf("%v", cfg.HealthcheckDisabled)},
	}
	for _, r := range rows {
		fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render(r.key), SuccessStyle.Render(r.value))
	}
	return nil
}

func (app *App) initConfig(dir string) error {
	if dir == "" {
		cfgDir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		dir = cfgDir
	}

	path, err := config.CreateDefaultConfig(dir)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func (app *App) dumpConfig(cmd *cobra.Command, flags *rootFlags, format string) error {
	cfg, err := app.Config.Load(cmd.Context(), flags.loadOptions())
	if err != nil {
		return err
	}

	switch format {
	case "cue":
		fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	case "toml":
		out, err := config.GenerateTOML(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(app.stdout, out)
	default:
		return fmt.Errorf("unknown format %q (valid: cue, toml)", format)
	}
	return nil
}
