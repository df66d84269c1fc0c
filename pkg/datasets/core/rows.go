package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theokoles7/parcus/pkg/hub"
)

var Letters = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

func Field(row hub.Row, key string) (any, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing field %q", key)
	}
	return v, nil
}

func StringField(row hub.Row, key string) (string, error) {
	v, err := Field(row, key)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	default:
		return fmt.Sprint(s), nil
	}
}

func IntField(row hub.Row, key string) (int, error) {
	v, err := Field(row, key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("field %q is not an integer: %w", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("field %q is not an integer", key)
	}
}

func MapField(row hub.Row, key string) (hub.Row, error) {
	v, err := Field(row, key)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		if r, ok := v.(hub.Row); ok {
			return r, nil
		}
		return nil, fmt.Errorf("field %q is not an object", key)
	}
	return m, nil
}

func StringsField(row hub.Row, key string) ([]string, error) {
	v, err := Field(row, key)
	if err != nil {
		return nil, err
	}
	switch items := v.(type) {
	case []string:
		return items, nil
	case []any:
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = fmt.Sprint(item)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q is not a list", key)
	}
}

// Letter maps a zero-based choice index to its answer letter.
func Letter(i int) (string, error) {
	if i < 0 || i >= len(Letters) {
		return "", fmt.Errorf("choice index %d out of range", i)
	}
	return Letters[i], nil
}

func FormatChoices(labels, texts []string) string {
	lines := make([]string, 0, len(texts))
	for i, text := range texts {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		lines = append(lines, fmt.Sprintf("%s. %s", label, text))
	}
	return strings.Join(lines, "\n")
}

func LetterChoices(texts []string) string {
	n := min(len(texts), len(Letters))
	return FormatChoices(Letters[:n], texts[:n])
}
