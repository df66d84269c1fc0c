package registration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theokoles7/parcus/pkg/configuration"
	datasets "github.com/theokoles7/parcus/pkg/datasets/core"
	"github.com/theokoles7/parcus/pkg/hub"
	models "github.com/theokoles7/parcus/pkg/models/core"
)

type flagConfig struct {
	configuration.Base
	flag string
}

func newFlagConfig(name, flag string) *flagConfig {
	return &flagConfig{Base: configuration.Base{ParserID: name, ParserHelp: name + " help"}, flag: flag}
}

func (c *flagConfig) DefineFlags(fs *pflag.FlagSet) {
	if c.flag != "" {
		fs.Int(c.flag, 0, "test flag")
	}
}

func noop(context.Context, Params) (any, error) { return nil, nil }

type demoDataset struct {
	datasets.NumericScorer
	n int
}

func (d *demoDataset) ID() string                         { return "demo" }
func (d *demoDataset) Spec() hub.Spec                     { return hub.Spec{} }
func (d *demoDataset) Len() int                           { return d.n }
func (d *demoDataset) Samples() []datasets.Sample         { return nil }
func (d *demoDataset) Sample(int) (datasets.Sample, error) { return datasets.Sample{}, nil }

func TestDispatch_InvokesEntryPointOnce(t *testing.T) {
	commands := NewCommandRegistry()

	calls := 0
	var received Params
	require.NoError(t, commands.Register("version", WithEntryPoint(func(_ context.Context, p Params) (any, error) {
		calls++
		received = p
		return "0.0.0", nil
	})))

	params := Params{"check": true}
	result, err := commands.Dispatch(context.Background(), "version", params)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0", result)
	assert.Equal(t, 1, calls)
	assert.Equal(t, params, received)

	_, err = commands.Dispatch(context.Background(), "unknown", nil)
	var notFound *EntryNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "unknown", notFound.EntryID)
	assert.Equal(t, CommandsID, notFound.RegistryID)
	assert.Equal(t, 1, calls)
}

func TestDispatch_PropagatesEntryPointError(t *testing.T) {
	commands := NewCommandRegistry()
	cause := errors.New("boom")
	require.NoError(t, commands.Register("fail", WithEntryPoint(func(context.Context, Params) (any, error) {
		return nil, cause
	})))

	_, err := commands.Dispatch(context.Background(), "fail", Params{})
	assert.Same(t, cause, err)
}

func TestDispatch_WithoutEntryPoint(t *testing.T) {
	commands := NewCommandRegistry()
	require.NoError(t, commands.Register("bare", WithConfig(newFlagConfig("bare", ""))))

	_, err := commands.Dispatch(context.Background(), "bare", Params{})

	var notConfigured *EntryPointNotConfiguredError
	require.ErrorAs(t, err, &notConfigured)
	assert.Equal(t, "bare", notConfigured.EntryID)
}

func TestDatasetLoad_ForwardsParams(t *testing.T) {
	registry := NewDatasetRegistry()
	require.NoError(t, registry.Register("demo", WithDataset(func(_ context.Context, _ datasets.RowSource, p Params) (datasets.Dataset, error) {
		return &demoDataset{n: p.Int("n")}, nil
	})))

	ds, err := registry.Load(context.Background(), "demo", nil, Params{"n": 5})
	require.NoError(t, err)

	demo, ok := ds.(*demoDataset)
	require.True(t, ok)
	assert.Equal(t, 5, demo.n)
}

func TestModelLoad_PropagatesConstructionErrors(t *testing.T) {
	registry := NewModelRegistry()
	cause := errors.New("unsupported parameter count")
	require.NoError(t, registry.Register("gemma", WithModel(func(context.Context, models.Backend, Params) (models.Model, error) {
		return nil, cause
	})))
	require.NoError(t, registry.Register("empty"))

	_, err := registry.Load(context.Background(), "gemma", nil, Params{})
	assert.Same(t, cause, err)

	_, err = registry.Load(context.Background(), "empty", nil, Params{})
	assert.ErrorAs(t, err, new(*EntryPointNotConfiguredError))
}

func TestRegister_DuplicateKeepsFirst(t *testing.T) {
	commands := NewCommandRegistry()
	first := newFlagConfig("x", "first")

	require.NoError(t, commands.Register("x", WithConfig(first), WithEntryPoint(noop)))
	err := commands.Register("x", WithConfig(newFlagConfig("x", "second")), WithEntryPoint(noop))

	var duplicate *DuplicateEntryError
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, "x", duplicate.EntryID)
	assert.Equal(t, CommandsID, duplicate.RegistryID)

	assert.Equal(t, 1, commands.Len())
	e, err := commands.Entry("x")
	require.NoError(t, err)
	assert.Same(t, first, e.Config())
}

func TestRegister_RejectsEmptyID(t *testing.T) {
	commands := NewCommandRegistry()
	err := commands.Register("  ", WithEntryPoint(noop))
	assert.ErrorIs(t, err, ErrRegistration)
	assert.Zero(t, commands.Len())
}

func TestList_FiltersByAllTags(t *testing.T) {
	registry := NewDatasetRegistry()
	require.NoError(t, registry.Register("first", WithTags("tag-a", "tag-b")))
	require.NoError(t, registry.Register("second", WithTags("tag-b")))
	require.NoError(t, registry.Register("third", WithTags("tag-a")))

	assert.ElementsMatch(t, []string{"first", "third"}, registry.List("tag-a"))
	assert.Equal(t, []string{"first"}, registry.List("tag-a", "tag-b"))
	assert.Equal(t, []string{"first", "second", "third"}, registry.List())
	assert.Empty(t, registry.List("tag-c"))
}

func TestEnsureLoaded_EmptyNamespace(t *testing.T) {
	registry := NewModelRegistry()

	assert.False(t, registry.Loaded())
	assert.Empty(t, registry.List())
	assert.True(t, registry.Loaded())
}

func TestEnsureLoaded_RunsEachModuleOnce(t *testing.T) {
	var calls atomic.Int32
	var commands *CommandRegistry
	commands = NewCommandRegistry(Module{Name: "version", Register: func() error {
		calls.Add(1)
		return commands.Register("version", WithEntryPoint(noop))
	}})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, commands.Contains("version"))
		}()
	}
	wg.Wait()

	commands.EnsureLoaded()
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, commands.Loaded())
}

func TestEnsureLoaded_SkipsFailingModules(t *testing.T) {
	var commands *CommandRegistry
	register := func(id string) func() error {
		return func() error { return commands.Register(id, WithEntryPoint(noop)) }
	}

	commands = NewCommandRegistry(
		Module{Name: "good", Register: register("good")},
		Module{Name: "broken", Register: func() error { return errors.New("import failed") }},
		Module{Name: "panics", Register: func() error { panic("bad init") }},
		Module{Name: "empty"},
		Module{Name: "clash", Register: func() error {
			RegisterCommand(commands, "good", nil)(noop)
			return nil
		}},
		Module{Name: "later", Register: register("later")},
	)

	assert.Equal(t, []string{"good", "later"}, commands.List())
	assert.True(t, commands.Loaded())

	failures := commands.Failures()
	require.Len(t, failures, 4)

	var moduleErr *ModuleError
	require.ErrorAs(t, failures[0], &moduleErr)
	assert.Equal(t, "broken", moduleErr.Module)
	assert.ErrorAs(t, failures[3], new(*DuplicateEntryError))
}

func TestLookup_RequiresLoadedRegistry(t *testing.T) {
	commands := NewCommandRegistry()
	require.NoError(t, commands.Register("version", WithEntryPoint(noop)))

	_, err := commands.Lookup("version")
	var notLoaded *RegistryNotLoadedError
	require.ErrorAs(t, err, &notLoaded)
	assert.Equal(t, CommandsID, notLoaded.RegistryID)
	assert.False(t, commands.Loaded())

	commands.EnsureLoaded()
	e, err := commands.Lookup("version")
	require.NoError(t, err)
	assert.Equal(t, "version", e.ID())
}

func TestRegisterConfigurations_BuildsCommandTree(t *testing.T) {
	commands := NewCommandRegistry()
	require.NoError(t, commands.Register("alpha", WithConfig(newFlagConfig("alpha", "count")), WithEntryPoint(noop)))
	require.NoError(t, commands.Register("beta", WithConfig(newFlagConfig("beta", "")), WithEntryPoint(noop)))

	root := &cobra.Command{Use: "parcus"}
	require.NoError(t, commands.RegisterConfigurations(root))

	children := root.Commands()
	require.Len(t, children, 2)
	alpha, _, err := root.Find([]string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, CommandsID, alpha.Annotations[configuration.AnnotationRegistry])
	assert.Equal(t, "alpha", alpha.Annotations[configuration.AnnotationEntry])
	assert.NotNil(t, alpha.Flags().Lookup("count"))
}

func TestRegisterConfigurations_EntryWithoutConfig(t *testing.T) {
	commands := NewCommandRegistry()
	require.NoError(t, commands.Register("bare", WithEntryPoint(noop)))

	err := commands.RegisterConfigurations(&cobra.Command{Use: "parcus"})

	var notConfigured *ParserNotConfiguredError
	require.ErrorAs(t, err, &notConfigured)
	assert.Equal(t, "bare", notConfigured.EntryID)
	assert.Equal(t, CommandsID, notConfigured.RegistryID)
}

func TestDecorators_ReturnArgumentUnchanged(t *testing.T) {
	commands := NewCommandRegistry()
	calls := 0
	fn := func(context.Context, Params) (any, error) {
		calls++
		return calls, nil
	}

	decorated := RegisterCommand(commands, "count", newFlagConfig("count", ""), "meta")(fn)

	out, err := decorated(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out)

	out, err = commands.Dispatch(context.Background(), "count", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	e, err := commands.Entry("count")
	require.NoError(t, err)
	assert.True(t, e.HasTag("meta"))

	assert.Panics(t, func() {
		RegisterCommand(commands, "count", nil)(fn)
	})
}

func TestDatasetAndModelDecorators(t *testing.T) {
	root := NewRegistries(nil, func(root *Registries) []Module {
		return []Module{{Name: "demo", Register: func() error {
			RegisterDataset(root.Datasets, "demo", nil, "math")(func(context.Context, datasets.RowSource, Params) (datasets.Dataset, error) {
				return &demoDataset{n: 1}, nil
			})
			return nil
		}}}
	}, func(root *Registries) []Module {
		return []Module{{Name: "stub", Register: func() error {
			RegisterModel(root.Models, "stub", nil)(func(context.Context, models.Backend, Params) (models.Model, error) {
				return nil, nil
			})
			return nil
		}}}
	})

	assert.Equal(t, []string{"demo"}, root.Datasets.List("math"))
	assert.Equal(t, []string{"stub"}, root.Models.List())
	assert.Zero(t, root.Commands.Len())
}

func TestEntry_TagsAreNormalized(t *testing.T) {
	registry := NewDatasetRegistry()
	require.NoError(t, registry.Register("arc", WithTags("science", " science", "", "multiple-choice")))

	e, err := registry.Entry("arc")
	require.NoError(t, err)
	assert.Equal(t, []string{"science", "multiple-choice"}, e.Tags())
	assert.Equal(t, KindDataset, e.Kind())

	tags := e.Tags()
	tags[0] = "mutated"
	assert.True(t, e.HasTag("science"))
}

func TestErrors_BelongToRegistrationFamily(t *testing.T) {
	errs := []error{
		&DuplicateEntryError{EntryID: "x", RegistryID: "commands"},
		&EntryNotFoundError{EntryID: "x", RegistryID: "commands"},
		&EntryPointNotConfiguredError{EntryID: "x"},
		&ParserNotConfiguredError{EntryID: "x"},
		&RegistryNotLoadedError{RegistryID: "commands"},
		&ModuleError{Module: "broken", RegistryID: "commands", Err: errors.New("boom")},
	}
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrRegistration, err.Error())
	}

	assert.Equal(t, `entry "x" is already registered in commands registry`, errs[0].Error())
	assert.Equal(t, `entry "x" not registered in commands registry`, errs[1].Error())
}

func TestRegistry_String(t *testing.T) {
	commands := NewCommandRegistry()
	require.NoError(t, commands.Register("version", WithEntryPoint(noop)))
	assert.Equal(t, "commands registry (1 entries)", commands.String())
}

func TestEntry_MissingIDFails(t *testing.T) {
	commands := NewCommandRegistry()

	e, err := commands.Entry("nope")
	var notFound *EntryNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.EntryID)
	assert.Nil(t, e)
}

func TestEntry_String(t *testing.T) {
	commands := NewCommandRegistry()
	require.NoError(t, commands.Register("version", WithEntryPoint(noop), WithTags("meta")))

	e, err := commands.Entry("version")
	require.NoError(t, err)
	assert.Equal(t, "version entry [meta]", e.String())
}
