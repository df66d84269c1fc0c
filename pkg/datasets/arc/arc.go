// Package arc registers the AI2 Reasoning Challenge science dataset.
package arc

import (
	"context"
	"fmt"

	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/datasets/core"
	"github.com/theokoles7/parcus/pkg/hub"
	"github.com/theokoles7/parcus/pkg/registration"
)

const ID = "arc"

func NewConfig() *core.Config {
	return &core.Config{
		Base: configuration.Base{
			ParserID:   ID,
			ParserHelp: "ARC Challenge science reasoning dataset.",
		},
		Path:          "allenai/ai2_arc",
		Subsets:       []string{"ARC-Challenge", "ARC-Easy"},
		DefaultSubset: "ARC-Challenge",
		Splits:        []string{"train", "validation", "test"},
		DefaultSplit:  "test",
		Shortcuts: []core.Shortcut{
			{Flag: "challenge", Key: "subset", Value: "ARC-Challenge"},
			{Flag: "easy", Key: "subset", Value: "ARC-Easy"},
			{Flag: "train", Key: "split", Value: "train"},
			{Flag: "validation", Key: "split", Value: "validation"},
			{Flag: "test", Key: "split", Value: "test"},
		},
	}
}

func Register(root *registration.Registries) error {
	registration.RegisterDataset(root.Datasets, ID, NewConfig(), "science", "multiple-choice")(New)
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

func Build(row hub.Row) (core.Sample, error) {
	question, err := core.StringField(row, "question")
	if err != nil {
		return core.Sample{}, err
	}
	choices, err := core.MapField(row, "choices")
	if err != nil {
		return core.Sample{}, err
	}
	labels, err := core.StringsField(choices, "label")
	if err != nil {
		return core.Sample{}, err
	}
	texts, err := core.StringsField(choices, "text")
	if err != nil {
		return core.Sample{}, err
	}
	if len(labels) != len(texts) {
		return core.Sample{}, fmt.Errorf("%d choice labels for %d choices", len(labels), len(texts))
	}
	answerKey, err := core.StringField(row, "answerKey")
	if err != nil {
		return core.Sample{}, err
	}

	return core.Sample{
		Question: question,
		Prompt: fmt.Sprintf("Answer the following question and provide your reasoning. "+
			"Present your final answer as a single letter in the format #### ANSWER.\n"+
			"Question: %s\n\n%s", question, core.FormatChoices(labels, texts)),
		GroundTruth: answerKey,
		Choices:     texts,
	}, nil
}
