// Package mmlu registers the Massive Multitask Language Understanding
// benchmark.
package mmlu

import (
	"context"
	"fmt"

	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/datasets/core"
	"github.com/theokoles7/parcus/pkg/hub"
	"github.com/theokoles7/parcus/pkg/registration"
)

const ID = "mmlu"

// Subjects lists every MMLU configuration on the hub. "all" concatenates them.
var Subjects = []string{
	"all", "abstract_algebra", "anatomy", "astronomy", "business_ethics",
	"clinical_knowledge", "college_biology", "college_chemistry",
	"college_computer_science", "college_mathematics", "college_medicine",
	"college_physics", "computer_security", "conceptual_physics",
	"econometrics", "electrical_engineering", "elementary_mathematics",
	"formal_logic", "global_facts", "high_school_biology",
	"high_school_chemistry", "high_school_computer_science",
	"high_school_european_history", "high_school_geography",
	"high_school_government_and_politics", "high_school_macroeconomics",
	"high_school_mathematics", "high_school_microeconomics",
	"high_school_physics", "high_school_psychology",
	"high_school_statistics", "high_school_us_history",
	"high_school_world_history", "human_aging", "human_sexuality",
	"international_law", "jurisprudence", "logical_fallacies",
	"machine_learning", "management", "marketing", "medical_genetics",
	"miscellaneous", "moral_disputes", "moral_scenarios", "nutrition",
	"philosophy", "prehistory", "professional_accounting",
	"professional_law", "professional_medicine", "professional_psychology",
	"public_relations", "security_studies", "sociology",
	"us_foreign_policy", "virology", "world_religions",
}

func NewConfig() *core.Config {
	return &core.Config{
		Base: configuration.Base{
			ParserID:   ID,
			ParserHelp: "MMLU multi-domain knowledge and reasoning dataset.",
		},
		Path:          "cais/mmlu",
		Subsets:       Subjects,
		DefaultSubset: "all",
		Splits:        []string{"test", "validation", "dev", "auxiliary_train"},
		DefaultSplit:  "test",
	}
}

func Register(root *registration.Registries) error {
	registration.RegisterDataset(root.Datasets, ID, NewConfig(), "knowledge", "multiple-choice")(New)
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
	choices, err := core.StringsField(row, "choices")
	if err != nil {
		return core.Sample{}, err
	}
	answer, err := core.IntField(row, "answer")
	if err != nil {
		return core.Sample{}, err
	}
	if answer >= len(choices) {
		return core.Sample{}, fmt.Errorf("answer %d out of range for %d choices", answer, len(choices))
	}
	truth, err := core.Letter(answer)
	if err != nil {
		return core.Sample{}, err
	}

	return core.Sample{
		Question: question,
		Prompt: fmt.Sprintf("Answer the following question and provide your reasoning. "+
			"Present your final answer as a single letter in the format #### ANSWER.\n"+
			"Question: %s\n\n%s", question, core.LetterChoices(choices)),
		GroundTruth: truth,
		Choices:     choices,
	}, nil
}
