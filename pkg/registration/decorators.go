package registration

import (
	"github.com/theokoles7/parcus/pkg/configuration"
)

// RegisterCommand returns a function that registers its argument as the entry
// point of command id and hands it back unchanged. It panics if the command
// cannot be registered, so it belongs in a Module's Register function.
func RegisterCommand(r *CommandRegistry, id string, cfg configuration.Config, tags ...string) func(EntryPoint) EntryPoint {
	return func(fn EntryPoint) EntryPoint {
		if err := r.Register(id, WithEntryPoint(fn), WithConfig(cfg), WithTags(tags...)); err != nil {
			panic(err)
		}
		return fn
	}
}

func RegisterDataset(r *DatasetRegistry, id string, cfg configuration.Config, tags ...string) func(DatasetFactory) DatasetFactory {
	return func(fn DatasetFactory) DatasetFactory {
		if err := r.Register(id, WithDataset(fn), WithConfig(cfg), WithTags(tags...)); err != nil {
			panic(err)
		}
		return fn
	}
}

func RegisterModel(r *ModelRegistry, id string, cfg configuration.Config, tags ...string) func(ModelFactory) ModelFactory {
	return func(fn ModelFactory) ModelFactory {
		if err := r.Register(id, WithModel(fn), WithConfig(cfg), WithTags(tags...)); err != nil {
			panic(err)
		}
		return fn
	}
}
