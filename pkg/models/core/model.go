// Package core defines the model abstraction the experiment drives and the
// backend contract used to reach an inference server.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/theokoles7/parcus/pkg/logging"
)

var ErrNoBackend = errors.New("no inference backend configured")

type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
	Seed        int
}

type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
}

type Backend interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// Generation is one response together with the number of tokens it used.
type Generation struct {
	Text      string
	Tokens    int
	Truncated bool
}

type Model interface {
	ID() string
	Path() string
	Generate(ctx context.Context, prompt string, budget int) (Generation, error)
}

type Options struct {
	Temperature float64
	Seed        int
}

type Base struct {
	id      string
	path    string
	backend Backend
	opts    Options
	log     *logrus.Entry
}

func New(id, path string, backend Backend, opts Options) (*Base, error) {
	if backend == nil {
		return nil, fmt.Errorf("model %s: %w", id, ErrNoBackend)
	}
	if path == "" {
		return nil, fmt.Errorf("model %s has no path", id)
	}
	return &Base{
		id:      id,
		path:    path,
		backend: backend,
		opts:    opts,
		log:     logging.Get(id),
	}, nil
}

func (m *Base) ID() string { return m.id }

func (m *Base) Path() string { return m.path }

// Generate completes prompt with at most budget new tokens. A budget of zero
// or less leaves generation length to the server.
func (m *Base) Generate(ctx context.Context, prompt string, budget int) (Generation, error) {
	req := Request{
		Model:       m.path,
		Prompt:      prompt,
		Temperature: m.opts.Temperature,
		Seed:        m.opts.Seed,
	}
	if budget > 0 {
		req.MaxTokens = budget
	}

	completion, err := m.backend.Complete(ctx, req)
	if err != nil {
		return Generation{}, fmt.Errorf("%s generation failed: %w", m.id, err)
	}

	gen := Generation{
		Text:      strings.TrimSpace(completion.Text),
		Tokens:    completion.CompletionTokens,
		Truncated: completion.FinishReason == "length",
	}
	m.log.Debugf("generated %d tokens (budget %d)", gen.Tokens, budget)
	return gen, nil
}

func (m *Base) String() string {
	return fmt.Sprintf("%s model (%s)", m.id, m.path)
}
