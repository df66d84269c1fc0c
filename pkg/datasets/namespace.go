// Package datasets lists the benchmark datasets parcus can evaluate on.
package datasets

import (
	"github.com/theokoles7/parcus/pkg/datasets/arc"
	"github.com/theokoles7/parcus/pkg/datasets/gsm8k"
	"github.com/theokoles7/parcus/pkg/datasets/hellaswag"
	"github.com/theokoles7/parcus/pkg/datasets/mmlu"
	"github.com/theokoles7/parcus/pkg/datasets/truthfulqa"
	"github.com/theokoles7/parcus/pkg/registration"
)

// Modules returns one module per dataset package, in the order they appear
// on the command line.
func Modules(root *registration.Registries) []registration.Module {
	return []registration.Module{
		{Name: "arc", Register: func() error { return arc.Register(root) }},
		{Name: "gsm8k", Register: func() error { return gsm8k.Register(root) }},
		{Name: "hellaswag", Register: func() error { return hellaswag.Register(root) }},
		{Name: "mmlu", Register: func() error { return mmlu.Register(root) }},
		{Name: "truthfulqa", Register: func() error { return truthfulqa.Register(root) }},
	}
}
