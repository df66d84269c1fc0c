// Package version registers the version command.
package version

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/meta"
	"github.com/theokoles7/parcus/pkg/registration"
	"github.com/theokoles7/parcus/pkg/update"
)

const ID = "version"

type Config struct {
	configuration.Base
}

func NewConfig() *Config {
	return &Config{Base: configuration.Base{
		ParserID:   ID,
		ParserHelp: "Display package version information.",
	}}
}

func (c *Config) DefineFlags(fs *pflag.FlagSet) {
	fs.Bool("check", false, "Check GitHub for a newer release")
}

func Register(root *registration.Registries) error {
	registration.RegisterCommand(root.Commands, ID, NewConfig(), "meta")(EntryPoint(os.Stdout, update.NewChecker("")))
	return nil
}

func EntryPoint(out io.Writer, checker *update.Checker) registration.EntryPoint {
	return func(ctx context.Context, params registration.Params) (any, error) {
		meta.PrintBanner(out)
		fmt.Fprintf(out, "%s %s (commit %s, built %s)\n", meta.Title, meta.Version, meta.Commit, meta.BuildDate)

		if !params.Bool("check") {
			return meta.Version, nil
		}

		status, err := checker.Check(ctx, meta.Version)
		if err != nil {
			return nil, err
		}
		if status.Available {
			fmt.Fprintln(out, color.YellowString("New version available: %s -> %s", status.Current, status.Latest))
			if status.URL != "" {
				fmt.Fprintln(out, status.URL)
			}
		} else {
			fmt.Fprintln(out, color.GreenString("You are already running the latest version (%s)", status.Current))
		}
		return status, nil
	}
}
