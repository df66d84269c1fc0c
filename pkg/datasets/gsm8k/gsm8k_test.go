package gsm8k

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theokoles7/parcus/pkg/hub"
	"github.com/theokoles7/parcus/pkg/registration"
)

type fakeRows struct {
	spec hub.Spec
	rows []hub.Row
}

func (f *fakeRows) Fetch(_ context.Context, spec hub.Spec, _ int) ([]hub.Row, error) {
	f.spec = spec
	return f.rows, nil
}

func TestBuild(t *testing.T) {
	sample, err := Build(hub.Row{
		"question": "Natalia sold 48 clips in April and half as many in May. How many in total?",
		"answer":   "In May she sold 48/2 = 24.\n48 + 24 = 72\n#### 72",
	})
	require.NoError(t, err)

	assert.Equal(t, "72", sample.GroundTruth)
	assert.Contains(t, sample.Prompt, "#### ANSWER")
	assert.Contains(t, sample.Prompt, "Question: Natalia sold 48 clips")

	_, err = Build(hub.Row{"question": "missing answer"})
	assert.Error(t, err)
}

func TestRegisterAndLoad(t *testing.T) {
	root := registration.NewRegistries(nil, func(root *registration.Registries) []registration.Module {
		return []registration.Module{{Name: ID, Register: func() error { return Register(root) }}}
	}, nil)

	assert.Equal(t, []string{ID}, root.Datasets.List("math", "open-ended"))

	src := &fakeRows{rows: []hub.Row{{"question": "1+1?", "answer": "#### 2"}}}
	ds, err := root.Datasets.Load(context.Background(), ID, src, registration.Params{"socratic": true, "split": "train"})
	require.NoError(t, err)

	assert.Equal(t, hub.Spec{Path: "openai/gsm8k", Subset: "socratic", Split: "train"}, src.spec)
	assert.Equal(t, 1, ds.Len())

	predicted, ok := ds.ExtractAnswer("1 plus 1 is 2.\n#### 2")
	require.True(t, ok)
	assert.True(t, ds.CheckAnswer(predicted, "2"))
}
