package experiment

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/theokoles7/parcus/pkg/results"
)

var Presets = map[string][]int{
	"main":  {32, 64, 128, 256, 512, 1024, 2048},
	"cliff": steps(96, 256, 16),
}

func steps(from, to, step int) []int {
	var out []int
	for b := from; b <= to; b += step {
		out = append(out, b)
	}
	return out
}

func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveBudgets merges explicit budgets with a named preset into an
// ascending, duplicate-free list. With neither it returns a single
// unconstrained budget.
func ResolveBudgets(budgets []int, preset string) ([]int, error) {
	out := make([]int, 0, len(budgets))

	if preset != "" {
		values, ok := Presets[strings.ToLower(preset)]
		if !ok {
			return nil, fmt.Errorf("unknown budget preset %q (choose from %s)", preset, strings.Join(PresetNames(), ", "))
		}
		out = append(out, values...)
	}

	for _, b := range budgets {
		if b < 0 {
			return nil, fmt.Errorf("token budget must not be negative, got %d", b)
		}
		out = append(out, b)
	}

	if len(out) == 0 {
		return []int{results.Unconstrained}, nil
	}

	slices.Sort(out)
	return slices.Compact(out), nil
}

func budgetLabel(b int) string {
	if b == results.Unconstrained {
		return "unconstrained"
	}
	return fmt.Sprintf("%d tokens", b)
}
