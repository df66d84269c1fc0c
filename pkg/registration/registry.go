// Package registration maps identifiers to the commands, datasets and models
// parcus can run, and wires them into the command line.
//
// A registry is populated lazily. It is constructed with the list of Modules
// in its namespace and runs each of them once, on the first operation that
// needs a complete view. Modules register entries with Register or with the
// RegisterCommand, RegisterDataset and RegisterModel helpers.
package registration

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/logging"
)

// Fields carries everything a registry may store in an entry. Which fields
// matter depends on the registry.
type Fields struct {
	Config     configuration.Config
	Tags       []string
	EntryPoint EntryPoint
	Dataset    DatasetFactory
	Model      ModelFactory
}

type Option func(*Fields)

func WithConfig(cfg configuration.Config) Option {
	return func(f *Fields) { f.Config = cfg }
}

func WithTags(tags ...string) Option {
	return func(f *Fields) { f.Tags = append(f.Tags, tags...) }
}

func WithEntryPoint(fn EntryPoint) Option {
	return func(f *Fields) { f.EntryPoint = fn }
}

func WithDataset(fn DatasetFactory) Option {
	return func(f *Fields) { f.Dataset = fn }
}

func WithModel(fn ModelFactory) Option {
	return func(f *Fields) { f.Model = fn }
}

// Module is one unit of a registry's namespace. Register is expected to add
// entries to the registry and is called at most once. It must not query the
// registry it is loading into.
type Module struct {
	Name     string
	Register func() error
}

type createFunc[E Entry] func(id string, f Fields) (E, error)

type Registry[E Entry] struct {
	id     string
	create createFunc[E]
	log    *logrus.Entry

	mu      sync.RWMutex
	entries map[string]E
	order   []string

	loadMu   sync.Mutex
	loaded   atomic.Bool
	modules  []Module
	failures []error
}

func newRegistry[E Entry](id string, create createFunc[E], modules []Module) *Registry[E] {
	return &Registry[E]{
		id:      id,
		create:  create,
		log:     logging.Get(id + "-registry"),
		entries: make(map[string]E),
		modules: modules,
	}
}

func (r *Registry[E]) ID() string { return r.id }

func (r *Registry[E]) Loaded() bool { return r.loaded.Load() }

// Register creates an entry from opts and stores it under id. It never
// replaces an existing entry and does not trigger loading.
func (r *Registry[E]) Register(id string, opts ...Option) error {
	var fields Fields
	for _, opt := range opts {
		opt(&fields)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return &DuplicateEntryError{EntryID: id, RegistryID: r.id}
	}

	e, err := r.create(id, fields)
	if err != nil {
		return fmt.Errorf("failed to register %q in %s registry: %w", id, r.id, err)
	}

	r.entries[id] = e
	r.order = append(r.order, id)
	r.log.Debugf("Registered entry %s", e.ID())
	return nil
}

// Entry returns the entry registered under id, loading the registry first.
func (r *Registry[E]) Entry(id string) (E, error) {
	r.EnsureLoaded()
	return r.lookup(id)
}

// Lookup is Entry for call sites that must not trigger loading. It fails
// with RegistryNotLoadedError until the registry has been loaded.
func (r *Registry[E]) Lookup(id string) (E, error) {
	if !r.Loaded() {
		var zero E
		return zero, &RegistryNotLoadedError{RegistryID: r.id}
	}
	return r.lookup(id)
}

func (r *Registry[E]) lookup(id string) (E, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()

	if !ok {
		r.log.Errorf("Entry %q not registered", id)
		return e, &EntryNotFoundError{EntryID: id, RegistryID: r.id}
	}
	r.log.Debugf("Located entry %s", id)
	return e, nil
}

// List returns, in registration order, the ids of entries carrying every one
// of tags. With no tags it returns all ids.
func (r *Registry[E]) List(tags ...string) []string {
	r.EnsureLoaded()

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if hasAll(r.entries[id], tags) {
			ids = append(ids, id)
		}
	}
	return ids
}

func hasAll(e Entry, tags []string) bool {
	for _, tag := range tags {
		if !e.HasTag(tag) {
			return false
		}
	}
	return true
}

// Entries returns a copy of the registry's contents.
func (r *Registry[E]) Entries() map[string]E {
	r.EnsureLoaded()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]E, len(r.entries))
	for id, e := range r.entries {
		out[id] = e
	}
	return out
}

func (r *Registry[E]) Contains(id string) bool {
	r.EnsureLoaded()

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[id]
	return ok
}

func (r *Registry[E]) Len() int {
	r.EnsureLoaded()

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// RegisterConfigurations attaches one sub-command per entry under parent, in
// registration order.
func (r *Registry[E]) RegisterConfigurations(parent *cobra.Command) error {
	r.EnsureLoaded()

	r.mu.RLock()
	snapshot := make([]E, 0, len(r.order))
	for _, id := range r.order {
		snapshot = append(snapshot, r.entries[id])
	}
	r.mu.RUnlock()

	group := parent.Annotations[configuration.AnnotationGroup]
	for _, e := range snapshot {
		cmd, err := e.RegisterConfiguration(parent)
		if err != nil {
			var notConfigured *ParserNotConfiguredError
			if errors.As(err, &notConfigured) {
				notConfigured.RegistryID = r.id
			}
			return err
		}
		cmd.Annotations[configuration.AnnotationRegistry] = r.id
		cmd.Annotations[configuration.AnnotationEntry] = e.ID()
		if group != "" {
			cmd.GroupID = group
		}
		r.log.Debugf("Registered configuration for %s", e.ID())
	}
	return nil
}

// EnsureLoaded runs every module of the registry's namespace once. A module
// that fails or panics is logged and skipped. Calls after the first are
// no-ops.
func (r *Registry[E]) EnsureLoaded() {
	if r.loaded.Load() {
		return
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if r.loaded.Load() {
		return
	}

	r.log.Debugf("Loading %d modules", len(r.modules))
	for _, m := range r.modules {
		if err := r.loadModule(m); err != nil {
			r.failures = append(r.failures, err)

			var duplicate *DuplicateEntryError
			if errors.As(err, &duplicate) {
				r.log.WithError(err).Errorf("Duplicate registration while loading %s", m.Name)
			} else {
				r.log.WithError(err).Warnf("Error loading %s", m.Name)
			}
			continue
		}
		r.log.Debugf("Loaded %s", m.Name)
	}

	r.loaded.Store(true)
	r.log.Debugf("Registry loaded with %d entries", r.count())
}

func (r *Registry[E]) loadModule(m Module) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			cause, ok := rec.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", rec)
			}
			err = &ModuleError{Module: m.Name, RegistryID: r.id, Err: cause}
		}
	}()

	if m.Register == nil {
		return &ModuleError{Module: m.Name, RegistryID: r.id, Err: errors.New("module has no register function")}
	}
	if err := m.Register(); err != nil {
		return &ModuleError{Module: m.Name, RegistryID: r.id, Err: err}
	}
	return nil
}

// Failures returns the module errors recorded while loading.
func (r *Registry[E]) Failures() []error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	return slices.Clone(r.failures)
}

func (r *Registry[E]) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry[E]) String() string {
	return fmt.Sprintf("%s registry (%d entries)", r.id, r.count())
}
