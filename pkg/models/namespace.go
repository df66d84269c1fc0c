// Package models lists the model families parcus can drive.
package models

import (
	"github.com/theokoles7/parcus/pkg/models/gemma"
	"github.com/theokoles7/parcus/pkg/models/llama"
	"github.com/theokoles7/parcus/pkg/models/qwen"
	"github.com/theokoles7/parcus/pkg/registration"
)

func Modules(root *registration.Registries) []registration.Module {
	return []registration.Module{
		{Name: "gemma", Register: func() error { return gemma.Register(root) }},
		{Name: "llama", Register: func() error { return llama.Register(root) }},
		{Name: "qwen", Register: func() error { return qwen.Register(root) }},
	}
}
