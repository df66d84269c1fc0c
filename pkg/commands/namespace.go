// Package commands lists the top-level commands of the parcus CLI.
package commands

import (
	"github.com/theokoles7/parcus/pkg/commands/bumpversion"
	"github.com/theokoles7/parcus/pkg/commands/infer"
	"github.com/theokoles7/parcus/pkg/commands/list"
	"github.com/theokoles7/parcus/pkg/commands/results"
	"github.com/theokoles7/parcus/pkg/commands/version"
	"github.com/theokoles7/parcus/pkg/registration"
)

func Modules(root *registration.Registries) []registration.Module {
	return []registration.Module{
		{Name: "bumpversion", Register: func() error { return bumpversion.Register(root) }},
		{Name: "infer", Register: func() error { return infer.Register(root) }},
		{Name: "list", Register: func() error { return list.Register(root) }},
		{Name: "results", Register: func() error { return results.Register(root) }},
		{Name: "version", Register: func() error { return version.Register(root) }},
	}
}
