package registration

import (
	"context"

	datasets "github.com/theokoles7/parcus/pkg/datasets/core"
	models "github.com/theokoles7/parcus/pkg/models/core"
)

const (
	CommandsID = "commands"
	DatasetsID = "datasets"
	ModelsID   = "models"
)

type CommandRegistry struct {
	*Registry[*CommandEntry]
}

func NewCommandRegistry(modules ...Module) *CommandRegistry {
	return &CommandRegistry{newRegistry(CommandsID, createCommand, modules)}
}

func createCommand(id string, f Fields) (*CommandEntry, error) {
	base, err := newEntry(KindCommand, id, f.Config, f.Tags)
	if err != nil {
		return nil, err
	}
	return &CommandEntry{entry: base, entryPoint: f.EntryPoint}, nil
}

// Dispatch runs the entry point registered under id with params and returns
// whatever it returns.
func (r *CommandRegistry) Dispatch(ctx context.Context, id string, params Params) (any, error) {
	e, err := r.Entry(id)
	if err != nil {
		return nil, err
	}
	if e.entryPoint == nil {
		return nil, &EntryPointNotConfiguredError{EntryID: id, RegistryID: r.id}
	}

	r.log.Debugf("Dispatching %s", id)
	return e.entryPoint(ctx, params)
}

type DatasetRegistry struct {
	*Registry[*DatasetEntry]
}

func NewDatasetRegistry(modules ...Module) *DatasetRegistry {
	return &DatasetRegistry{newRegistry(DatasetsID, createDataset, modules)}
}

func createDataset(id string, f Fields) (*DatasetEntry, error) {
	base, err := newEntry(KindDataset, id, f.Config, f.Tags)
	if err != nil {
		return nil, err
	}
	return &DatasetEntry{entry: base, factory: f.Dataset}, nil
}

// Load constructs the dataset registered under id from rows read through src.
func (r *DatasetRegistry) Load(ctx context.Context, id string, src datasets.RowSource, params Params) (datasets.Dataset, error) {
	e, err := r.Entry(id)
	if err != nil {
		return nil, err
	}
	if e.factory == nil {
		return nil, &EntryPointNotConfiguredError{EntryID: id, RegistryID: r.id}
	}

	r.log.Debugf("Loading dataset %s", id)
	return e.factory(ctx, src, params)
}

type ModelRegistry struct {
	*Registry[*ModelEntry]
}

func NewModelRegistry(modules ...Module) *ModelRegistry {
	return &ModelRegistry{newRegistry(ModelsID, createModel, modules)}
}

func createModel(id string, f Fields) (*ModelEntry, error) {
	base, err := newEntry(KindModel, id, f.Config, f.Tags)
	if err != nil {
		return nil, err
	}
	return &ModelEntry{entry: base, factory: f.Model}, nil
}

// Load constructs the model registered under id on top of backend.
func (r *ModelRegistry) Load(ctx context.Context, id string, backend models.Backend, params Params) (models.Model, error) {
	e, err := r.Entry(id)
	if err != nil {
		return nil, err
	}
	if e.factory == nil {
		return nil, &EntryPointNotConfiguredError{EntryID: id, RegistryID: r.id}
	}

	r.log.Debugf("Loading model %s", id)
	return e.factory(ctx, backend, params)
}

// Registries is the composition root handed to every module.
type Registries struct {
	Commands *CommandRegistry
	Datasets *DatasetRegistry
	Models   *ModelRegistry
}

// Namespace lists the modules of one registry. It receives the root so
// modules can reach sibling registries.
type Namespace func(root *Registries) []Module

func NewRegistries(commands, datasets, models Namespace) *Registries {
	root := &Registries{}
	root.Commands = NewCommandRegistry(modulesOf(commands, root)...)
	root.Datasets = NewDatasetRegistry(modulesOf(datasets, root)...)
	root.Models = NewModelRegistry(modulesOf(models, root)...)
	return root
}

func modulesOf(ns Namespace, root *Registries) []Module {
	if ns == nil {
		return nil
	}
	return ns(root)
}
