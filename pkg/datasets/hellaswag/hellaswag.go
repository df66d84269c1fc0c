// Package hellaswag registers the HellaSwag commonsense completion dataset.
package hellaswag

import (
	"context"
	"fmt"

	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/datasets/core"
	"github.com/theokoles7/parcus/pkg/hub"
	"github.com/theokoles7/parcus/pkg/registration"
)

const ID = "hellaswag"

func NewConfig() *core.Config {
	return &core.Config{
		Base: configuration.Base{
			ParserID:   ID,
			ParserHelp: "HellaSwag commonsense sentence completion dataset.",
		},
		Path:         "Rowan/hellaswag",
		Splits:       []string{"train", "validation", "test"},
		DefaultSplit: "validation",
		Shortcuts: []core.Shortcut{
			{Flag: "train", Key: "split", Value: "train"},
			{Flag: "validation", Key: "split", Value: "validation"},
			{Flag: "test", Key: "split", Value: "test"},
		},
	}
}

func Register(root *registration.Registries) error {
	registration.RegisterDataset(root.Datasets, ID, NewConfig(), "commonsense", "multiple-choice")(New)
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
		Scorer:     core.ChoiceScorer{},
		Build:      Build,
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// Build labels the candidate endings A to D. The hub serves the label as a
// string; test split rows carry an empty one and are rejected.
func Build(row hub.Row) (core.Sample, error) {
	ctx, err := core.StringField(row, "ctx")
	if err != nil {
		return core.Sample{}, err
	}
	endings, err := core.StringsField(row, "endings")
	if err != nil {
		return core.Sample{}, err
	}
	label, err := core.IntField(row, "label")
	if err != nil {
		return core.Sample{}, err
	}
	if label >= len(endings) {
		return core.Sample{}, fmt.Errorf("label %d out of range for %d endings", label, len(endings))
	}
	truth, err := core.Letter(label)
	if err != nil {
		return core.Sample{}, err
	}

	return core.Sample{
		Question: ctx,
		Prompt: fmt.Sprintf("Choose the most plausible continuation and provide your reasoning. "+
			"Present your final answer as a single letter in the format #### ANSWER.\n"+
			"Context: %s\n\n%s", ctx, core.LetterChoices(endings)),
		GroundTruth: truth,
		Choices:     endings,
	}, nil
}
