package registration

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/theokoles7/parcus/pkg/configuration"
)

// Params is the typed bag of parsed arguments forwarded to entry points and
// constructors. Keys are flag names with "-" replaced by "_".
type Params map[string]any

func Key(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// ParamsFromFlags collects every flag in fs, set or defaulted.
func ParamsFromFlags(fs *pflag.FlagSet) Params {
	p := Params{}
	fs.VisitAll(func(f *pflag.Flag) {
		p[Key(f.Name)] = flagValue(fs, f)
	})
	return p
}

// ParamsFromCommand collects the flags visible to cmd and, for every
// ancestor that selects a sub-command, the name of the selected child.
func ParamsFromCommand(cmd *cobra.Command) Params {
	p := ParamsFromFlags(cmd.Flags())
	for c := cmd; c.HasParent(); c = c.Parent() {
		if dest := c.Parent().Annotations[configuration.AnnotationDest]; dest != "" {
			p[dest] = c.Name()
		}
	}
	return p
}

func flagValue(fs *pflag.FlagSet, f *pflag.Flag) any {
	var (
		v   any
		err error
	)
	switch f.Value.Type() {
	case "string":
		v, err = fs.GetString(f.Name)
	case "bool":
		v, err = fs.GetBool(f.Name)
	case "int":
		v, err = fs.GetInt(f.Name)
	case "count":
		v, err = fs.GetCount(f.Name)
	case "float64":
		v, err = fs.GetFloat64(f.Name)
	case "duration":
		v, err = fs.GetDuration(f.Name)
	case "intSlice":
		v, err = fs.GetIntSlice(f.Name)
	case "stringSlice":
		v, err = fs.GetStringSlice(f.Name)
	case "stringArray":
		v, err = fs.GetStringArray(f.Name)
	default:
		return f.Value.String()
	}
	if err != nil {
		return f.Value.String()
	}
	return v
}

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Params) Int(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (p Params) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

func (p Params) Float(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (p Params) Duration(key string) time.Duration {
	v, _ := p[key].(time.Duration)
	return v
}

func (p Params) Ints(key string) []int {
	v, _ := p[key].([]int)
	return v
}

func (p Params) Strings(key string) []string {
	v, _ := p[key].([]string)
	return v
}

// With returns a copy of p with key set to value.
func (p Params) With(key string, value any) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[key] = value
	return out
}

func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
