package qwen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theokoles7/parcus/pkg/models/core"
	"github.com/theokoles7/parcus/pkg/registration"
)

type nopBackend struct{}

func (nopBackend) Complete(context.Context, core.Request) (*core.Completion, error) {
	return &core.Completion{}, nil
}

func TestNew_EveryParameterCount(t *testing.T) {
	for _, parameters := range Parameters {
		t.Run(parameters, func(t *testing.T) {
			m, err := New(context.Background(), nopBackend{}, registration.Params{"parameters": parameters})
			require.NoError(t, err)
			assert.Equal(t, "Qwen/Qwen2.5-"+parameters+"-Instruct", m.Path())
		})
	}
}
