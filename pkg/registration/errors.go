package registration

import (
	"errors"
	"fmt"
)

// ErrRegistration matches every error raised by a registry.
var ErrRegistration = errors.New("registration error")

type DuplicateEntryError struct {
	EntryID    string
	RegistryID string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("entry %q is already registered in %s registry", e.EntryID, e.RegistryID)
}

func (e *DuplicateEntryError) Is(target error) bool { return target == ErrRegistration }

type EntryNotFoundError struct {
	EntryID    string
	RegistryID string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("entry %q not registered in %s registry", e.EntryID, e.RegistryID)
}

func (e *EntryNotFoundError) Is(target error) bool { return target == ErrRegistration }

type EntryPointNotConfiguredError struct {
	EntryID    string
	RegistryID string
}

func (e *EntryPointNotConfiguredError) Error() string {
	return fmt.Sprintf("entry %q was not registered with an entry point", e.EntryID)
}

func (e *EntryPointNotConfiguredError) Is(target error) bool { return target == ErrRegistration }

type ParserNotConfiguredError struct {
	EntryID    string
	RegistryID string
}

func (e *ParserNotConfiguredError) Error() string {
	return fmt.Sprintf("entry %q was not registered with an argument parser configuration", e.EntryID)
}

func (e *ParserNotConfiguredError) Is(target error) bool { return target == ErrRegistration }

type RegistryNotLoadedError struct {
	RegistryID string
}

func (e *RegistryNotLoadedError) Error() string {
	return fmt.Sprintf("operation requires that the %s registry is loaded", e.RegistryID)
}

func (e *RegistryNotLoadedError) Is(target error) bool { return target == ErrRegistration }

// ModuleError reports a module that failed while the registry was loading.
type ModuleError struct {
	Module     string
	RegistryID string
	Err        error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s failed to load into %s registry: %v", e.Module, e.RegistryID, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }

func (e *ModuleError) Is(target error) bool { return target == ErrRegistration }
