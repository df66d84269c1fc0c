package core

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/theokoles7/parcus/pkg/configuration"
)

const DatasetTitle = "dataset-id"

// Config is the argument schema shared by every model family. Its command
// selects a dataset, so it nests the datasets registry under itself.
type Config struct {
	configuration.Base
	Parameters        []string
	DefaultParameters string
	Datasets          configuration.Provider
}

type Selection struct {
	Parameters  string
	Temperature float64
	ServedModel string
}

func NewConfig(id, help string, parameters []string, datasets configuration.Provider) *Config {
	return &Config{
		Base: configuration.Base{
			ParserID:   id,
			ParserHelp: help,
			Title:      DatasetTitle,
			TitleHelp:  "Dataset with which model will execute action",
		},
		Parameters:        parameters,
		DefaultParameters: parameters[0],
		Datasets:          datasets,
	}
}

func (c *Config) DefineFlags(fs *pflag.FlagSet) {
	fs.StringP("parameters", "p", c.DefaultParameters,
		fmt.Sprintf("Model parameter count (%s)", strings.Join(c.Parameters, ", ")))
	fs.Float64("temperature", 0, "Sampling temperature (0 decodes greedily)")
	fs.String("served-model", "", "Model name the inference server knows this model by, if not its hub path")
}

func (c *Config) RegisterSubcommands(cmd *cobra.Command) error {
	if c.Datasets == nil {
		return &configuration.SubcommandNotConfiguredError{ParserID: c.ParserID}
	}
	return c.Datasets.RegisterConfigurations(cmd)
}

func (c *Config) Resolve(values map[string]any) (Selection, error) {
	sel := Selection{Parameters: c.DefaultParameters}
	if p, ok := values["parameters"].(string); ok && p != "" {
		sel.Parameters = p
	}
	if err := configuration.Choice("parameters", sel.Parameters, c.Parameters...); err != nil {
		return Selection{}, err
	}

	sel.Temperature, _ = values["temperature"].(float64)
	if sel.Temperature < 0 {
		return Selection{}, fmt.Errorf("%w: --temperature must not be negative", configuration.ErrConfiguration)
	}
	sel.ServedModel, _ = values["served_model"].(string)
	return sel, nil
}

// ID names one member of a family, like "llama-8b".
func (s Selection) ID(family string) string {
	return family + "-" + strings.ToLower(s.Parameters)
}
