// Package gsm8k registers the GSM8K grade school math dataset.
package gsm8k

import (
	"context"
	"fmt"
	"strings"

	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/datasets/core"
	"github.com/theokoles7/parcus/pkg/hub"
	"github.com/theokoles7/parcus/pkg/registration"
)

const ID = "gsm8k"

func NewConfig() *core.Config {
	return &core.Config{
		Base: configuration.Base{
			ParserID:   ID,
			ParserHelp: "GSM8K grade school math reasoning dataset.",
		},
		Path:          "openai/gsm8k",
		Subsets:       []string{"main", "socratic"},
		DefaultSubset: "main",
		Splits:        []string{"train", "test"},
		DefaultSplit:  "test",
		Shortcuts: []core.Shortcut{
			{Flag: "main", Key: "subset", Value: "main"},
			{Flag: "socratic", Key: "subset", Value: "socratic"},
			{Flag: "train", Key: "split", Value: "train"},
			{Flag: "test", Key: "split", Value: "test"},
		},
	}
}

func Register(root *registration.Registries) error {
	registration.RegisterDataset(root.Datasets, ID, NewConfig(), "math", "open-ended")(New)
	return nil
}

func New(ctx context.Context, src core.RowSource, params registration.Params) (core.Dataset, error) {
	sel, err := NewConfig().Resolve(params)
	if err != nil {
		return nil, err
	}
	ds, err := core.Load(ctx, src, core.Options{
		ID:         ID,
		Spec:       sel.Spec,
		NumSamples: sel.NumSamples,
		Scorer:     core.NumericScorer{},
		Build:      Build,
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// Build reads the final answer from the text after the last "####" of the
// worked solution.
func Build(row hub.Row) (core.Sample, error) {
	question, err := core.StringField(row, "question")
	if err != nil {
		return core.Sample{}, err
	}
	answer, err := core.StringField(row, "answer")
	if err != nil {
		return core.Sample{}, err
	}

	parts := strings.Split(answer, "####")
	truth := strings.TrimSpace(parts[len(parts)-1])

	return core.Sample{
		Question: question,
		Prompt: fmt.Sprintf("Solve the following math problem and show your work. "+
			"Present your final numeric answer in the format #### ANSWER.\nQuestion: %s", question),
		GroundTruth: truth,
	}, nil
}
