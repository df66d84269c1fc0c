// Package list registers the list command, which prints the ids registered
// in one registry, optionally narrowed to entries carrying every given tag.
package list

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/registration"
)

const ID = "list"

var Registries = []string{registration.CommandsID, registration.DatasetsID, registration.ModelsID}

type Config struct {
	configuration.Base
}

func NewConfig() *Config {
	return &Config{Base: configuration.Base{
		ParserID:   ID,
		ParserHelp: "List registered commands, datasets or models.",
	}}
}

func (c *Config) DefineFlags(fs *pflag.FlagSet) {
	fs.String("registry", registration.DatasetsID, fmt.Sprintf("Registry to list (%s)", strings.Join(Registries, ", ")))
	fs.StringArray("tag", nil, "Only list entries carrying this tag (repeatable)")
}

func Register(root *registration.Registries) error {
	registration.RegisterCommand(root.Commands, ID, NewConfig(), "meta")(EntryPoint(root, os.Stdout))
	return nil
}

type lister interface {
	List(tags ...string) []string
}

func EntryPoint(root *registration.Registries, out io.Writer) registration.EntryPoint {
	return func(_ context.Context, params registration.Params) (any, error) {
		name := params.String("registry")
		if name == "" {
			name = registration.DatasetsID
		}
		if err := configuration.Choice("registry", name, Registries...); err != nil {
			return nil, err
		}

		var r lister
		switch name {
		case registration.CommandsID:
			r = root.Commands
		case registration.DatasetsID:
			r = root.Datasets
		case registration.ModelsID:
			r = root.Models
		}

		tags := params.Strings("tag")
		ids := r.List(tags...)
		if len(ids) == 0 {
			fmt.Fprintln(out, color.YellowString("No %s match tags %s", name, strings.Join(tags, ", ")))
			return ids, nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return ids, nil
	}
}
