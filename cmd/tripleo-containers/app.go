// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/tripleo/tripleo-containers/internal/config"
	"github.com/tripleo/tripleo-containers/internal/deploy"
	"github.com/tripleo/tripleo-containers/internal/module/containerinfo"
)

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive
	// an App reference and delegate module work through it.
	App struct {
		Config     ConfigProvider
		Operator   deploy.Operator
		Inspectors containerinfo.InspectorFactory
		stdout     io.Writer
		stderr     io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     ConfigProvider
		Operator   deploy.Operator
		Inspectors containerinfo.InspectorFactory
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// ConfigProvider loads the tool configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
		LoadWithSource(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Operator == nil {
		deps.Operator = deploy.NewRunner()
	}
	if deps.Inspectors == nil {
		deps.Inspectors = containerinfo.DefaultInspector
	}

	return &App{
		Config:     deps.Config,
		Operator:   deps.Operator,
		Inspectors: deps.Inspectors,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
}
