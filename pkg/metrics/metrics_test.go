package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theokoles7/parcus/pkg/results"
)

func TestObserveRecord(t *testing.T) {
	c := New()

	c.ObserveRecord(results.Record{Model: "m", Dataset: "d", Budget: 64, Correct: true, TokensUsed: 40})
	c.ObserveRecord(results.Record{Model: "m", Dataset: "d", Budget: 64, TokensUsed: 64})
	c.ObserveRecord(results.Record{Model: "m", Dataset: "d", Budget: 64, Error: "timeout"})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Samples.WithLabelValues("m", "d", "64", "correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Samples.WithLabelValues("m", "d", "64", "incorrect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Samples.WithLabelValues("m", "d", "64", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.Tokens))
}

func TestObserveSummary(t *testing.T) {
	c := New()
	c.ObserveSummary(results.Summary{Model: "m", Dataset: "d", Budget: 128, Accuracy: 0.75, MeanTokens: 90})

	expected := `
# HELP parcus_accuracy_ratio Fraction of samples answered correctly in the latest run
# TYPE parcus_accuracy_ratio gauge
parcus_accuracy_ratio{budget="128",dataset="d",model="m"} 0.75
`
	require.NoError(t, testutil.CollectAndCompare(c.Accuracy, strings.NewReader(expected)))
	assert.Equal(t, 90.0, testutil.ToFloat64(c.MeanTokens.WithLabelValues("m", "d", "128")))
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.ObserveRun("m", "d", 90*time.Second, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "parcus.prom")
	require.NoError(t, c.WriteTextfile(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), `parcus_run_duration_seconds{dataset="d",model="m"} 90`)
	assert.Contains(t, string(body), `parcus_last_run_timestamp_seconds{dataset="d",model="m"} 1.7e+09`)
}
