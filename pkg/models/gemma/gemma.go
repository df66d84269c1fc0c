// Package gemma registers Google's instruction-tuned Gemma 3 models.
package gemma

import (
	"context"
	"fmt"
	"strings"

	"github.com/theokoles7/parcus/pkg/models/core"
	"github.com/theokoles7/parcus/pkg/registration"
)

const ID = "gemma"

var Parameters = []string{"1B", "4B", "12B", "27B"}

func Register(root *registration.Registries) error {
	registration.RegisterModel(root.Models, ID, core.NewConfig(ID, "Gemma model family.", Parameters, root.Datasets), "google", "instruct")(New)
	return nil
}

func Path(parameters string) string {
	return fmt.Sprintf("google/gemma-3-%s-it", strings.ToLower(parameters))
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
