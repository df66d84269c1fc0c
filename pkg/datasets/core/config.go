package core

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/theokoles7/parcus/pkg/configuration"
	"github.com/theokoles7/parcus/pkg/hub"
)

// Shortcut is a boolean flag that selects Value for the subset or split
// flag named by Key, like --socratic for --subset socratic.
type Shortcut struct {
	Flag  string
	Key   string
	Value string
}

// Config is the argument schema shared by every dataset.
type Config struct {
	configuration.Base
	Path          string
	Subsets       []string
	DefaultSubset string
	Splits        []string
	DefaultSplit  string
	Shortcuts     []Shortcut
}

// Selection is what a parsed dataset command line resolves to.
type Selection struct {
	Spec       hub.Spec
	NumSamples int
}

func (c *Config) DefineFlags(fs *pflag.FlagSet) {
	if len(c.Subsets) > 0 {
		fs.String("subset", c.DefaultSubset, fmt.Sprintf("Dataset subset being loaded (%s)", choices(c.Subsets)))
	}
	fs.String("split", c.DefaultSplit, fmt.Sprintf("Dataset split being loaded (%s)", choices(c.Splits)))
	for _, s := range c.Shortcuts {
		fs.Bool(s.Flag, false, fmt.Sprintf("Use %s %s", s.Value, s.Key))
	}
	fs.IntP("num-samples", "n", 0, "Limit the number of samples loaded from dataset (0 loads all)")
}

// Resolve turns parsed values into the hub split to read. Shortcut flags win
// over --subset and --split.
func (c *Config) Resolve(values map[string]any) (Selection, error) {
	subset := stringValue(values, "subset", c.DefaultSubset)
	split := stringValue(values, "split", c.DefaultSplit)

	for _, s := range c.Shortcuts {
		if on, _ := values[strings.ReplaceAll(s.Flag, "-", "_")].(bool); !on {
			continue
		}
		switch s.Key {
		case "subset":
			subset = s.Value
		case "split":
			split = s.Value
		}
	}

	if len(c.Subsets) > 0 {
		if err := configuration.Choice("subset", subset, c.Subsets...); err != nil {
			return Selection{}, err
		}
	} else {
		subset = ""
	}
	if err := configuration.Choice("split", split, c.Splits...); err != nil {
		return Selection{}, err
	}

	n, _ := values["num_samples"].(int)
	if n < 0 {
		return Selection{}, fmt.Errorf("%w: --num-samples must not be negative", configuration.ErrConfiguration)
	}

	return Selection{
		Spec:       hub.Spec{Path: c.Path, Subset: subset, Split: split},
		NumSamples: n,
	}, nil
}

func stringValue(values map[string]any, key, fallback string) string {
	if s, ok := values[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func choices(values []string) string {
	if len(values) > 6 {
		return strings.Join(values[:6], ", ") + ", ..."
	}
	return strings.Join(values, ", ")
}
