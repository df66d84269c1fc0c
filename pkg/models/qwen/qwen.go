// Package qwen registers Alibaba's Qwen2.5 instruct models.
package qwen

import (
	"context"
	"fmt"

	"github.com/theokoles7/parcus/pkg/models/core"
	"github.com/theokoles7/parcus/pkg/registration"
)

const ID = "qwen"

var Parameters = []string{"0.5B", "1.5B", "3B", "7B", "32B", "72B"}

func Register(root *registration.Registries) error {
	registration.RegisterModel(root.Models, ID, core.NewConfig(ID, "Qwen model family.", Parameters, root.Datasets), "alibaba", "instruct")(New)
	return nil
}

func Path(parameters string) string {
	return fmt.Sprintf("Qwen/Qwen2.5-%s-Instruct", parameters)
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
