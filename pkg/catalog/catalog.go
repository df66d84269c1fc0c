// Package catalog assembles the registries of everything parcus ships.
package catalog

import (
	"github.com/theokoles7/parcus/pkg/commands"
	"github.com/theokoles7/parcus/pkg/datasets"
	"github.com/theokoles7/parcus/pkg/models"
	"github.com/theokoles7/parcus/pkg/registration"
)

// New returns unloaded registries; each loads its namespace on first use.
func New() *registration.Registries {
	return registration.NewRegistries(commands.Modules, datasets.Modules, models.Modules)
}
