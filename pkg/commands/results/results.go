// Package results registers the results command, which shows per-budget
// accuracy of stored runs.
package results

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/theokoles7/parcus/pkg/config"
	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/registration"
	store "github.com/theokoles7/parcus/pkg/results"
)

const ID = "results"

type Config struct {
	configuration.Base
}

func NewConfig() *Config {
	return &Config{Base: configuration.Base{
		ParserID:   ID,
		ParserHelp: "Show per-budget accuracy of stored experiment runs.",
	}}
}

func (c *Config) DefineFlags(fs *pflag.FlagSet) {
	fs.String("model", "", "Only show runs of this model, e.g. llama-8b")
	fs.String("dataset", "", "Only show runs on this dataset")
	fs.String("run", "", "Only show the run with this id")
}

// Querier reads budget summaries back out of a results store.
type Querier interface {
	IsEnabled() bool
	Summaries(ctx context.Context, f store.Filter) ([]store.Summary, error)
	Close() error
}

type Open func(ctx context.Context, params registration.Params) (Querier, error)

// OpenStore connects to the results database configured by --config.
func OpenStore(ctx context.Context, params registration.Params) (Querier, error) {
	manager := config.NewManager(params.String("config"))
	if err := manager.LoadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	s, err := store.New(ctx, &manager.GetConfig().Database)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func Register(root *registration.Registries) error {
	registration.RegisterCommand(root.Commands, ID, NewConfig(), "experiment")(EntryPoint(OpenStore, os.Stdout))
	return nil
}

func EntryPoint(open Open, out io.Writer) registration.EntryPoint {
	return func(ctx context.Context, params registration.Params) (any, error) {
		db, err := open(ctx, params)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		if !db.IsEnabled() {
			return nil, errors.New("database is not enabled, set database.enabled in config.yaml")
		}

		summaries, err := db.Summaries(ctx, store.Filter{
			Model:   params.String("model"),
			Dataset: params.String("dataset"),
			RunID:   params.String("run"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query database: %w", err)
		}

		if len(summaries) == 0 {
			fmt.Fprintln(out, color.YellowString("[INF] No stored runs match."))
			return summaries, nil
		}

		if err := store.WriteTable(out, summaries); err != nil {
			return nil, err
		}
		fmt.Fprintln(out, color.GreenString("\nTotal rows: %d", len(summaries)))
		return summaries, nil
	}
}
