package core

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theokoles7/parcus/pkg/configuration"
)

type stubProvider struct {
	names []string
}

func (p *stubProvider) RegisterConfigurations(parent *cobra.Command) error {
	for _, name := range p.names {
		parent.AddCommand(&cobra.Command{Use: name})
	}
	return nil
}

func TestConfig_AttachNestsDatasets(t *testing.T) {
	cfg := NewConfig("qwen", "Qwen family.", []string{"0.5B", "7B"}, &stubProvider{names: []string{"gsm8k", "arc"}})

	cmd, err := configuration.Attach(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, "dataset_id", cmd.Annotations[configuration.AnnotationDest])
	assert.Len(t, cmd.Commands(), 2)
	flag := cmd.PersistentFlags().ShorthandLookup("p")
	require.NotNil(t, flag)
	assert.Equal(t, "0.5B", flag.DefValue)
}

func TestConfig_WithoutDatasets(t *testing.T) {
	_, err := configuration.Attach(NewConfig("qwen", "", []string{"7B"}, nil), nil)
	assert.ErrorIs(t, err, configuration.ErrConfiguration)
}

func TestConfig_Resolve(t *testing.T) {
	cfg := NewConfig("llama", "", []string{"1B", "8B"}, nil)

	sel, err := cfg.Resolve(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "1B", sel.Parameters)
	assert.Equal(t, "llama-1b", sel.ID("llama"))

	sel, err = cfg.Resolve(map[string]any{"parameters": "8B", "temperature": 0.7, "served_model": "local-llama"})
	require.NoError(t, err)
	assert.Equal(t, Selection{Parameters: "8B", Temperature: 0.7, ServedModel: "local-llama"}, sel)

	_, err = cfg.Resolve(map[string]any{"parameters": "405B"})
	assert.ErrorIs(t, err, configuration.ErrConfiguration)

	_, err = cfg.Resolve(map[string]any{"temperature": -1.0})
	assert.ErrorIs(t, err, configuration.ErrConfiguration)
}
