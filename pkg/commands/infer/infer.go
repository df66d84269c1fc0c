// Package infer registers the infer command: run a model over a dataset at
// one or more token budgets.
package infer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/theokoles7/parcus/pkg/configuration"
	datasets "github.com/theokoles7/parcus/pkg/datasets/core"
	"github.com/theokoles7/parcus/pkg/experiment"
	"github.com/theokoles7/parcus/pkg/hub"
	"github.com/theokoles7/parcus/pkg/inference"
	models "github.com/theokoles7/parcus/pkg/models/core"
	"github.com/theokoles7/parcus/pkg/registration"
	"github.com/theokoles7/parcus/pkg/results"
)

const (
	ID         = "infer"
	ModelTitle = "model-name"
)

type Config struct {
	configuration.Base
	Models configuration.Provider
}

func NewConfig(models configuration.Provider) *Config {
	return &Config{
		Base: configuration.Base{
			ParserID:   ID,
			ParserHelp: "Run model inference on a dataset.",
			Title:      ModelTitle,
			TitleHelp:  "Model who will infer dataset",
		},
		Models: models,
	}
}

func (c *Config) DefineFlags(fs *pflag.FlagSet) {
	fs.IntSliceP("token-budget", "t", nil,
		"Maximum number of new tokens the model may generate per sample; repeat or comma-separate for several (unconstrained when omitted)")
	fs.String("preset", "", fmt.Sprintf("Named budget sweep (%s)", strings.Join(experiment.PresetNames(), ", ")))
	fs.String("output", "output", "Directory inference results are written to")
	fs.IntP("seed", "s", 1, "Random number generation seed")
	fs.Int("workers", 0, "Concurrent generations (0 uses inference.workers from config)")
}

func (c *Config) RegisterSubcommands(cmd *cobra.Command) error {
	if c.Models == nil {
		return &configuration.SubcommandNotConfiguredError{ParserID: c.ParserID}
	}
	return c.Models.RegisterConfigurations(cmd)
}

// Runner is what infer needs from an experiment orchestrator.
type Runner interface {
	Run(ctx context.Context, opts experiment.RunOptions) (*experiment.RunResult, error)
}

// Environment builds the collaborators of one infer invocation.
type Environment struct {
	Rows    datasets.RowSource
	Backend models.Backend
	Runner  Runner
	Close   func() error
}

type Setup func(ctx context.Context, params registration.Params) (*Environment, error)

// DefaultSetup reads the configuration named by --config and connects the
// hub, the inference server and every enabled result sink.
func DefaultSetup(ctx context.Context, params registration.Params) (*Environment, error) {
	orch, err := experiment.NewOrchestrator(ctx, params.String("config"))
	if err != nil {
		return nil, err
	}
	cfg := orch.GetConfig()
	return &Environment{
		Rows:    hub.New(cfg.Hub),
		Backend: inference.New(cfg.Inference),
		Runner:  orch,
		Close:   orch.Close,
	}, nil
}

func Register(root *registration.Registries) error {
	registration.RegisterCommand(root.Commands, ID, NewConfig(root.Models), "experiment")(EntryPoint(root, DefaultSetup, os.Stdout))
	return nil
}

func EntryPoint(root *registration.Registries, setup Setup, out io.Writer) registration.EntryPoint {
	return func(ctx context.Context, params registration.Params) (any, error) {
		modelID := params.String(configuration.Dest(ModelTitle))
		datasetID := params.String(configuration.Dest(models.DatasetTitle))
		if modelID == "" || datasetID == "" {
			return nil, fmt.Errorf("%w: infer requires a model and a dataset", configuration.ErrConfiguration)
		}

		budgets, err := experiment.ResolveBudgets(params.Ints("token_budget"), params.String("preset"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", configuration.ErrConfiguration, err)
		}

		env, err := setup(ctx, params)
		if err != nil {
			return nil, err
		}
		if env.Close != nil {
			defer env.Close()
		}

		dataset, err := root.Datasets.Load(ctx, datasetID, env.Rows, params)
		if err != nil {
			return nil, err
		}
		model, err := root.Models.Load(ctx, modelID, env.Backend, params)
		if err != nil {
			return nil, err
		}

		res, err := env.Runner.Run(ctx, experiment.RunOptions{
			Model:     model,
			Dataset:   dataset,
			Budgets:   budgets,
			Workers:   params.Int("workers"),
			OutputDir: params.String("output"),
		})
		if err != nil {
			return nil, err
		}

		fmt.Fprintln(out)
		if err := results.WriteTable(out, res.Summaries); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "\nResults written to %s\n", res.OutputPath)
		return res, nil
	}
}
