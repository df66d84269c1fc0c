package experiment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theokoles7/parcus/pkg/config"
	datasets "github.com/theokoles7/parcus/pkg/datasets/core"
	"github.com/theokoles7/parcus/pkg/hub"
	"github.com/theokoles7/parcus/pkg/metrics"
	models "github.com/theokoles7/parcus/pkg/models/core"
	"github.com/theokoles7/parcus/pkg/results"
)

type arithmetic struct {
	datasets.NumericScorer
	samples []datasets.Sample
}

func newArithmetic(n int) *arithmetic {
	d := &arithmetic{}
	for i := 0; i < n; i++ {
		d.samples = append(d.samples, datasets.Sample{
			Index:       i,
			Question:    "q" + strings.Repeat("?", i),
			Prompt:      "p" + strings.Repeat("!", i),
			GroundTruth: "4",
		})
	}
	return d
}

func (d *arithmetic) ID() string { return "arithmetic" }
func (d *arithmetic) Spec() hub.Spec { return hub.Spec{Path: "local/arithmetic", Split: "test"} }
func (d *arithmetic) Len() int { return len(d.samples) }
func (d *arithmetic) Samples() []datasets.Sample { return d.samples }
func (d *arithmetic) Sample(i int) (datasets.Sample, error) { return d.samples[i], nil }

// thinker answers correctly once it gets 64 tokens and fails on "p!!".
type thinker struct {
	mu    sync.Mutex
	calls int
}

func (m *thinker) ID() string   { return "thinker" }
func (m *thinker) Path() string { return "local/thinker" }

func (m *thinker) Generate(_ context.Context, prompt string, budget int) (models.Generation, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if prompt == "p!!" {
		return models.Generation{}, errors.New("server unavailable")
	}
	if budget != results.Unconstrained && budget < 64 {
		return models.Generation{Text: "Let me think step by", Tokens: budget, Truncated: true}, nil
	}
	return models.Generation{Text: "2 + 2 = 4\n#### 4", Tokens: 40}, nil
}

type fakeStore struct {
	run       results.Run
	records   []results.Record
	summaries []results.Summary
	err       error
}

func (s *fakeStore) IsEnabled() bool { return true }
func (s *fakeStore) Close() error    { return nil }

func (s *fakeStore) SaveRun(_ context.Context, run results.Run, records []results.Record, summaries []results.Summary) error {
	s.run, s.records, s.summaries = run, records, summaries
	return s.err
}

type fakeIndexer struct{ files []string }

func (i *fakeIndexer) IndexJSONLinesFile(_ context.Context, filename string) (int, error) {
	i.files = append(i.files, filename)
	records, err := ReadJSONLines(filename)
	return len(records), err
}

type failingUploader struct{}

func (failingUploader) UploadFile(context.Context, string) (string, error) {
	return "", errors.New("access denied")
}

func fixedID() string { return "run-1" }

func TestRunRecordsEveryBudget(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{}
	indexer := &fakeIndexer{}
	model := &thinker{}

	o := New(config.Defaults(), WithRunID(fixedID), WithStore(store), WithIndexer(indexer))
	res, err := o.Run(context.Background(), RunOptions{
		Model:     model,
		Dataset:   newArithmetic(4),
		Budgets:   []int{32, 128},
		Workers:   3,
		OutputDir: dir,
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 8, model.calls)
	require.Len(t, res.Records, 8)

	for i, r := range res.Records {
		assert.Equal(t, i%4, r.ProblemID)
		if i < 4 {
			assert.Equal(t, 32, r.Budget)
		} else {
			assert.Equal(t, 128, r.Budget)
		}
	}

	short, long := res.Records[0], res.Records[4]
	assert.False(t, short.Correct)
	assert.True(t, short.Truncated)
	assert.Empty(t, short.Predicted)
	assert.True(t, long.Correct)
	assert.Equal(t, "4", long.Predicted)
	assert.Equal(t, 40, long.TokensUsed)

	failed := res.Records[2]
	assert.Equal(t, "server unavailable", failed.Error)
	assert.False(t, failed.Correct)

	require.Len(t, res.Summaries, 2)
	assert.Equal(t, 0.0, res.Summaries[0].Accuracy)
	assert.Equal(t, 0.75, res.Summaries[1].Accuracy)
	assert.Equal(t, 1, res.Summaries[1].Errors)
	assert.Equal(t, 40.0, res.Summaries[1].MeanTokens)

	assert.Equal(t, filepath.Join(dir, "thinker_arithmetic_run-1.jsonl"), res.OutputPath)
	written, err := ReadJSONLines(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, res.Records, written)

	assert.Equal(t, "run-1", store.run.ID)
	assert.Equal(t, 8, store.run.Samples)
	assert.Len(t, store.summaries, 2)
	assert.Equal(t, []string{res.OutputPath}, indexer.files)
}

func TestRunDefaultsToUnconstrained(t *testing.T) {
	o := New(config.Defaults(), WithRunID(fixedID))
	res, err := o.Run(context.Background(), RunOptions{
		Model:     &thinker{},
		Dataset:   newArithmetic(2),
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, res.Summaries, 1)
	assert.Equal(t, results.Unconstrained, res.Summaries[0].Budget)
	assert.Equal(t, 1.0, res.Summaries[0].Accuracy)
}

func TestRunCollectsSinkErrors(t *testing.T) {
	cfg := config.Defaults()
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "parcus.prom")
	collector := metrics.New()

	o := New(cfg,
		WithRunID(fixedID),
		WithStore(&fakeStore{err: errors.New("disk full")}),
		WithUploader(failingUploader{}),
		WithMetrics(collector),
	)
	res, err := o.Run(context.Background(), RunOptions{
		Model:     &thinker{},
		Dataset:   newArithmetic(1),
		Budgets:   []int{64},
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, res.Errors, 2)
	assert.ErrorContains(t, res.Errors[0], "disk full")
	assert.ErrorContains(t, res.Errors[1], "access denied")

	body, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(body), `parcus_accuracy_ratio{budget="64",dataset="arithmetic",model="thinker"} 1`)
}

func TestRunRequiresModelAndDataset(t *testing.T) {
	o := New(nil)
	_, err := o.Run(context.Background(), RunOptions{Dataset: newArithmetic(1)})
	assert.Error(t, err)
	_, err = o.Run(context.Background(), RunOptions{Model: &thinker{}})
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(config.Defaults(), WithRunID(fixedID))
	_, err := o.Run(ctx, RunOptions{
		Model:     &thinker{},
		Dataset:   newArithmetic(50),
		Budgets:   []int{64},
		OutputDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := []results.Record{
		{Model: "m", Dataset: "d", Budget: 64, Correct: true, TokensUsed: 10},
		{Model: "m", Dataset: "d", Budget: 64, TokensUsed: 30},
		{Model: "m", Dataset: "d", Budget: 32, Error: "boom"},
	}

	summaries := Summarize("r", started, records)
	require.Len(t, summaries, 2)

	first := summaries[0]
	assert.Equal(t, 64, first.Budget)
	assert.Equal(t, 2, first.Samples)
	assert.Equal(t, 0.5, first.Accuracy)
	assert.InDelta(t, 20.0, first.MeanTokens, 1e-9)
	assert.InDelta(t, 10.0, first.StdTokens, 1e-9)
	assert.Equal(t, started, first.StartedAt)

	second := summaries[1]
	assert.Equal(t, 32, second.Budget)
	assert.Equal(t, 1, second.Errors)
	assert.Zero(t, second.Accuracy)
	assert.Zero(t, second.MeanTokens)
}

func TestResolveBudgets(t *testing.T) {
	got, err := ResolveBudgets(nil, "")
	require.NoError(t, err)
	assert.Equal(t, []int{results.Unconstrained}, got)

	got, err = ResolveBudgets([]int{512, 64, 64}, "")
	require.NoError(t, err)
	assert.Equal(t, []int{64, 512}, got)

	got, err = ResolveBudgets(nil, "cliff")
	require.NoError(t, err)
	assert.Equal(t, []int{96, 112, 128, 144, 160, 176, 192, 208, 224, 240, 256}, got)

	got, err = ResolveBudgets([]int{100}, "Main")
	require.NoError(t, err)
	assert.Equal(t, []int{32, 64, 100, 128, 256, 512, 1024, 2048}, got)

	_, err = ResolveBudgets(nil, "tiny")
	assert.ErrorContains(t, err, "cliff, main")

	_, err = ResolveBudgets([]int{-1}, "")
	assert.Error(t, err)
}
