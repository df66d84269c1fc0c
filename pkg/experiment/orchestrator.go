// Package experiment runs a model over a dataset at a series of token
// budgets and records how accuracy changes as the budget shrinks.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/theokoles7/parcus/pkg/config"
	datasets "github.com/theokoles7/parcus/pkg/datasets/core"
	"github.com/theokoles7/parcus/pkg/elastic"
	"github.com/theokoles7/parcus/pkg/logging"
	"github.com/theokoles7/parcus/pkg/metrics"
	models "github.com/theokoles7/parcus/pkg/models/core"
	"github.com/theokoles7/parcus/pkg/results"
	"github.com/theokoles7/parcus/pkg/storage"
)

type Store interface {
	IsEnabled() bool
	SaveRun(ctx context.Context, run results.Run, records []results.Record, summaries []results.Summary) error
	Close() error
}

type Indexer interface {
	IndexJSONLinesFile(ctx context.Context, filename string) (int, error)
}

type Uploader interface {
	UploadFile(ctx context.Context, localPath string) (string, error)
}

type Orchestrator struct {
	config   *config.Config
	logger   *logrus.Entry
	store    Store
	indexer  Indexer
	uploader Uploader
	metrics  *metrics.Collector
	newID    func() string
}

type Option func(*Orchestrator)

func WithStore(s Store) Option { return func(o *Orchestrator) { o.store = s } }

func WithIndexer(i Indexer) Option { return func(o *Orchestrator) { o.indexer = i } }

func WithUploader(u Uploader) Option { return func(o *Orchestrator) { o.uploader = u } }

func WithMetrics(c *metrics.Collector) Option { return func(o *Orchestrator) { o.metrics = c } }

func WithRunID(fn func() string) Option { return func(o *Orchestrator) { o.newID = fn } }

func New(cfg *config.Config, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.Defaults()
	}
	o := &Orchestrator{
		config: cfg,
		logger: logging.Get("experiment"),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewOrchestrator loads the configuration at configPath and connects every
// sink it enables. A sink that cannot be reached is logged and left out.
func NewOrchestrator(ctx context.Context, configPath string) (*Orchestrator, error) {
	manager := config.NewManager(configPath)
	if err := manager.LoadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := manager.GetConfig()
	log := logging.Get("experiment")

	var opts []Option

	if cfg.Database.Enabled {
		store, err := results.New(ctx, &cfg.Database)
		if err != nil {
			log.Warnf("Database initialization failed: %v", err)
		} else {
			opts = append(opts, WithStore(store))
		}
	}

	if cfg.Elastic.Enabled {
		client, err := elastic.New(cfg.Elastic)
		if err != nil {
			log.Warnf("Elasticsearch initialization failed: %v", err)
		} else {
			opts = append(opts, WithIndexer(client))
		}
	}

	if cfg.Storage.Enabled {
		uploader, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			log.Warnf("Object storage initialization failed: %v", err)
		} else {
			opts = append(opts, WithUploader(uploader))
		}
	}

	if cfg.Metrics.Enabled {
		opts = append(opts, WithMetrics(metrics.New()))
	}

	return New(cfg, opts...), nil
}

func (o *Orchestrator) GetConfig() *config.Config {
	return o.config
}

func (o *Orchestrator) Close() error {
	if o.store != nil {
		return o.store.Close()
	}
	return nil
}

type RunOptions struct {
	Model     models.Model
	Dataset   datasets.Dataset
	Budgets   []int
	Workers   int
	OutputDir string
}

type RunResult struct {
	RunID      string
	Model      string
	Dataset    string
	OutputPath string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Records    []results.Record
	Summaries  []results.Summary
	Errors     []error
}

type job struct {
	slot   int
	budget int
	sample datasets.Sample
}

// Run evaluates every sample of the dataset at every budget. Records come
// back ordered by budget, then by problem. A failed generation is recorded
// on its sample and does not stop the run. Failures of the optional sinks
// end up in RunResult.Errors.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Model == nil {
		return nil, errors.New("no model to evaluate")
	}
	if opts.Dataset == nil {
		return nil, errors.New("no dataset to evaluate on")
	}

	budgets := opts.Budgets
	if len(budgets) == 0 {
		budgets = []int{results.Unconstrained}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = max(o.config.Inference.Workers, 1)
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = o.config.Output.Dir
	}

	result := &RunResult{
		RunID:     o.newID(),
		Model:     opts.Model.ID(),
		Dataset:   opts.Dataset.ID(),
		StartTime: time.Now().UTC(),
		Errors:    []error{},
	}
	log := o.logger.WithField("run", result.RunID)

	samples := opts.Dataset.Samples()
	log.Infof("Evaluating %s on %d %s samples at %d budgets with %d workers",
		result.Model, len(samples), result.Dataset, len(budgets), workers)

	records, err := o.evaluate(ctx, log, result, opts, samples, budgets, workers)
	if err != nil {
		return nil, err
	}

	result.EndTime = time.Now().UTC()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Records = records
	result.Summaries = Summarize(result.RunID, result.StartTime, records)

	for _, s := range result.Summaries {
		log.Infof("%s: accuracy %.2f%% (%d/%d), mean tokens %.1f ± %.1f, %d errors",
			budgetLabel(s.Budget), s.Accuracy*100, s.Correct, s.Samples, s.MeanTokens, s.StdTokens, s.Errors)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s_%s_%s.jsonl", result.Model, result.Dataset, result.RunID))
	if err := WriteJSONLines(path, records); err != nil {
		return nil, fmt.Errorf("failed to write results: %w", err)
	}
	result.OutputPath = path
	log.Infof("Results written to %s", path)

	o.publish(ctx, log, result)
	return result, nil
}

func (o *Orchestrator) evaluate(ctx context.Context, log *logrus.Entry, result *RunResult, opts RunOptions, samples []datasets.Sample, budgets []int, workers int) ([]results.Record, error) {
	records := make([]results.Record, len(samples)*len(budgets))
	jobs := make(chan job)

	var done atomic.Int64
	total := int64(len(records))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				records[j.slot] = o.evaluateSample(ctx, result, opts, j)
				if n := done.Add(1); n%100 == 0 || n == total {
					log.Debugf("Evaluated %d/%d generations", n, total)
				}
			}
		}()
	}

feed:
	for bi, budget := range budgets {
		for si, sample := range samples {
			select {
			case jobs <- job{slot: bi*len(samples) + si, budget: budget, sample: sample}:
			case <-ctx.Done():
				break feed
			}
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s interrupted: %w", result.RunID, err)
	}
	return records, nil
}

func (o *Orchestrator) evaluateSample(ctx context.Context, result *RunResult, opts RunOptions, j job) results.Record {
	record := results.Record{
		RunID:       result.RunID,
		Model:       result.Model,
		Dataset:     result.Dataset,
		ProblemID:   j.sample.Index,
		Question:    j.sample.Question,
		GroundTruth: j.sample.GroundTruth,
		Budget:      j.budget,
	}

	gen, err := opts.Model.Generate(ctx, j.sample.Prompt, j.budget)
	if err != nil {
		o.logger.Warnf("Problem %d at %s failed: %v", j.sample.Index, budgetLabel(j.budget), err)
		record.Error = err.Error()
		return record
	}

	record.Generated = gen.Text
	record.TokensUsed = gen.Tokens
	record.Truncated = gen.Truncated

	if predicted, ok := opts.Dataset.ExtractAnswer(gen.Text); ok {
		record.Predicted = predicted
		record.Correct = opts.Dataset.CheckAnswer(predicted, j.sample.GroundTruth)
	}
	return record
}

func (o *Orchestrator) publish(ctx context.Context, log *logrus.Entry, result *RunResult) {
	if o.store != nil && o.store.IsEnabled() {
		run := results.Run{
			ID:         result.RunID,
			Model:      result.Model,
			Dataset:    result.Dataset,
			Samples:    len(result.Records),
			StartedAt:  result.StartTime,
			FinishedAt: result.EndTime,
		}
		if err := o.store.SaveRun(ctx, run, result.Records, result.Summaries); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("saving run failed: %w", err))
			log.Warnf("Failed to save run in database: %v", err)
		}
	}

	if o.indexer != nil {
		n, err := o.indexer.IndexJSONLinesFile(ctx, result.OutputPath)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("indexing failed: %w", err))
			log.Warnf("Failed to index results: %v", err)
		} else {
			log.Infof("Indexed %d records", n)
		}
	}

	if o.uploader != nil {
		location, err := o.uploader.UploadFile(ctx, result.OutputPath)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("upload failed: %w", err))
			log.Warnf("Failed to upload results: %v", err)
		} else {
			log.Infof("Uploaded results to %s", location)
		}
	}

	if o.metrics != nil {
		for _, r := range result.Records {
			o.metrics.ObserveRecord(r)
		}
		for _, s := range result.Summaries {
			o.metrics.ObserveSummary(s)
		}
		o.metrics.ObserveRun(result.Model, result.Dataset, result.Duration, result.EndTime)

		if path := o.config.Metrics.Textfile; path != "" {
			if err := o.metrics.WriteTextfile(path); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("writing metrics failed: %w", err))
				log.Warnf("Failed to write metrics: %v", err)
			}
		}
	}
}
