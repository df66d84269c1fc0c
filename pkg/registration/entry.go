package registration

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theokoles7/parcus/pkg/configuration"
	datasets "github.com/theokoles7/parcus/pkg/datasets/core"
	models "github.com/theokoles7/parcus/pkg/models/core"
)

type Kind int

const (
	KindCommand Kind = iota
	KindDataset
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindDataset:
		return "dataset"
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

// EntryPoint runs a command with the arguments parsed for it.
type EntryPoint func(ctx context.Context, params Params) (any, error)

type DatasetFactory func(ctx context.Context, src datasets.RowSource, params Params) (datasets.Dataset, error)

type ModelFactory func(ctx context.Context, backend models.Backend, params Params) (models.Model, error)

// Entry is implemented only by CommandEntry, DatasetEntry and ModelEntry.
type Entry interface {
	ID() string
	Kind() Kind
	Tags() []string
	HasTag(tag string) bool
	Config() configuration.Config
	RegisterConfiguration(parent *cobra.Command) (*cobra.Command, error)

	sealed()
}

type entry struct {
	id     string
	kind   Kind
	tags   []string
	config configuration.Config
}

func newEntry(kind Kind, id string, config configuration.Config, tags []string) (entry, error) {
	if strings.TrimSpace(id) == "" {
		return entry{}, fmt.Errorf("%w: entry id must not be empty", ErrRegistration)
	}
	return entry{
		id:     id,
		kind:   kind,
		tags:   normalizeTags(tags),
		config: config,
	}, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func (e *entry) ID() string { return e.id }

func (e *entry) Kind() Kind { return e.kind }

func (e *entry) Tags() []string { return slices.Clone(e.tags) }

func (e *entry) HasTag(tag string) bool { return slices.Contains(e.tags, tag) }

func (e *entry) Config() configuration.Config { return e.config }

func (e *entry) RegisterConfiguration(parent *cobra.Command) (*cobra.Command, error) {
	if e.config == nil {
		return nil, &ParserNotConfiguredError{EntryID: e.id}
	}
	return configuration.Attach(e.config, parent)
}

func (e *entry) String() string {
	return fmt.Sprintf("%s entry %v", e.id, e.tags)
}

func (e *entry) sealed() {}

type CommandEntry struct {
	entry
	entryPoint EntryPoint
}

func (e *CommandEntry) EntryPoint() EntryPoint { return e.entryPoint }

type DatasetEntry struct {
	entry
	factory DatasetFactory
}

func (e *DatasetEntry) Factory() DatasetFactory { return e.factory }

type ModelEntry struct {
	entry
	factory ModelFactory
}

func (e *ModelEntry) Factory() ModelFactory { return e.factory }
