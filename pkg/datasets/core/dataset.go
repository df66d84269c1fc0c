// Package core holds what every benchmark dataset shares: loading rows from
// the hub, the sample shape, and answer scoring.
package core

import (
	"context"
	"fmt"

	"github.com/theokoles7/parcus/pkg/hub"
	"github.com/theokoles7/parcus/pkg/logging"
)

type RowSource interface {
	Fetch(ctx context.Context, spec hub.Spec, limit int) ([]hub.Row, error)
}

type Sample struct {
	Index       int      `json:"index"`
	Question    string   `json:"question"`
	Prompt      string   `json:"prompt"`
	GroundTruth string   `json:"ground_truth"`
	Choices     []string `json:"choices,omitempty"`
}

type Dataset interface {
	Scorer
	ID() string
	Spec() hub.Spec
	Len() int
	Samples() []Sample
	Sample(i int) (Sample, error)
}

// BuildFunc turns one raw row into a sample.
type BuildFunc func(row hub.Row) (Sample, error)

type Options struct {
	ID         string
	Spec       hub.Spec
	NumSamples int
	Scorer     Scorer
	Build      BuildFunc
}

type Base struct {
	Scorer
	id      string
	spec    hub.Spec
	samples []Sample
}

func Load(ctx context.Context, src RowSource, opts Options) (*Base, error) {
	if src == nil {
		return nil, fmt.Errorf("no row source configured for dataset %s", opts.ID)
	}
	if opts.Build == nil || opts.Scorer == nil {
		return nil, fmt.Errorf("dataset %s is missing a sample builder or scorer", opts.ID)
	}

	log := logging.Get(opts.ID)
	log.Infof("Loading %s (limit %d)", opts.Spec, opts.NumSamples)

	rows, err := src.Fetch(ctx, opts.Spec, opts.NumSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", opts.ID, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to load %s: %w", opts.ID, hub.ErrEmpty)
	}

	samples := make([]Sample, 0, len(rows))
	for i, row := range rows {
		sample, err := opts.Build(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", opts.ID, i, err)
		}
		sample.Index = i
		samples = append(samples, sample)
	}

	log.Infof("Loaded %d samples from %s", len(samples), opts.Spec)

	return &Base{
		Scorer:  opts.Scorer,
		id:      opts.ID,
		spec:    opts.Spec,
		samples: samples,
	}, nil
}

func (b *Base) ID() string { return b.id }

func (b *Base) Spec() hub.Spec { return b.spec }

func (b *Base) Len() int { return len(b.samples) }

func (b *Base) Samples() []Sample {
	out := make([]Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

func (b *Base) Sample(i int) (Sample, error) {
	if i < 0 || i >= len(b.samples) {
		return Sample{}, fmt.Errorf("sample %d out of range [0, %d)", i, len(b.samples))
	}
	return b.samples[i], nil
}

func (b *Base) String() string {
	return fmt.Sprintf("%s dataset (path = %s, subset = %s, split = %s, n = %d)",
		b.id, b.spec.Path, b.spec.Subset, b.spec.Split, len(b.samples))
}
