// Package llama registers Meta's instruction-tuned Llama models. Each
// parameter count is pinned to the release that introduced it.
package llama

import (
	"context"
	"fmt"

	"github.com/theokoles7/parcus/pkg/models/core"
	"github.com/theokoles7/parcus/pkg/registration"
)

const ID = "llama"

var Parameters = []string{"1B", "3B", "8B", "70B"}

var versions = map[string]string{
	"1B":  "3.2",
	"3B":  "3.2",
	"8B":  "3.1",
	"70B": "3.3",
}

func Register(root *registration.Registries) error {
	registration.RegisterModel(root.Models, ID, core.NewConfig(ID, "LLaMA model family.", Parameters, root.Datasets), "meta", "instruct")(New)
	return nil
}

func Path(parameters string) string {
	return fmt.Sprintf("meta-llama/Llama-%s-%s-Instruct", versions[parameters], parameters)
}

func New(_ context.Context, backend core.Backend, params registration.Params) (core.Model, error) {
	sel, err := core.NewConfig(ID, "", Parameters, nil).Resolve(params)
	if err != nil {
		return nil, err
	}

	path := Path(sel.Parameters)
	if sel.ServedModel != "" {
		path = sel.ServedModel
	}
	m, err := core.New(sel.ID(ID), path, backend, core.Options{Temperature: sel.Temperature, Seed: params.Int("seed")})
	if err != nil {
		return nil, err
	}
	return m, nil
}
