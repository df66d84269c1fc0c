package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Scorer pulls a final answer out of a model response and checks it against
// the ground truth.
type Scorer interface {
	ExtractAnswer(response string) (string, bool)
	CheckAnswer(predicted, truth string) bool
}

const (
	number    = `-?\d+(?:,\d{3})*(?:\.\d+)?`
	Tolerance = 1e-4
)

var (
	hashAnswer   = regexp.MustCompile(`####\s*(.+)`)
	hashNumber   = regexp.MustCompile(`####\s*\$?(` + number + `)`)
	phraseNumber = regexp.MustCompile(`(?:the answer is|answer:|final answer:)\s*\$?(` + number + `)`)
	boxedNumber  = regexp.MustCompile(`\\boxed\{\$?(` + number + `)\}`)
	anyNumber    = regexp.MustCompile(number)

	hashChoice   = regexp.MustCompile(`####\s*\(?([A-Za-z])\b`)
	phraseChoice = regexp.MustCompile(`(?:the answer is|answer:|final answer:)\s*\(?([a-z])\b`)
	lineChoice   = regexp.MustCompile(`(?m)^\s*\(?([A-H])[\.\)]`)
)

// ExtractHashAnswer returns the text following the first "####" marker.
func ExtractHashAnswer(response string) (string, bool) {
	m := hashAnswer.FindStringSubmatch(response)
	if m == nil {
		return "", false
	}
	answer := strings.TrimSpace(m[1])
	return answer, answer != ""
}

type NumericScorer struct{}

// ExtractAnswer tries the "####" marker, an "answer is" phrase, a \boxed{}
// value and finally the last number in the response.
func (NumericScorer) ExtractAnswer(response string) (string, bool) {
	if m := hashNumber.FindStringSubmatch(response); m != nil {
		return stripNumber(m[1]), true
	}
	if m := phraseNumber.FindStringSubmatch(strings.ToLower(response)); m != nil {
		return stripNumber(m[1]), true
	}
	if m := boxedNumber.FindStringSubmatch(response); m != nil {
		return stripNumber(m[1]), true
	}
	if all := anyNumber.FindAllString(response, -1); len(all) > 0 {
		return stripNumber(all[len(all)-1]), true
	}
	return "", false
}

func (NumericScorer) CheckAnswer(predicted, truth string) bool {
	p, err := strconv.ParseFloat(stripNumber(predicted), 64)
	if err != nil {
		return false
	}
	t, err := strconv.ParseFloat(stripNumber(truth), 64)
	if err != nil {
		return false
	}
	return math.Abs(p-t) < Tolerance
}

func stripNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	return strings.TrimSuffix(s, ".")
}

type ChoiceScorer struct{}

func (ChoiceScorer) ExtractAnswer(response string) (string, bool) {
	if m := hashChoice.FindStringSubmatch(response); m != nil {
		return strings.ToUpper(m[1]), true
	}
	if m := phraseChoice.FindStringSubmatch(strings.ToLower(response)); m != nil {
		return strings.ToUpper(m[1]), true
	}
	if all := lineChoice.FindAllStringSubmatch(response, -1); len(all) > 0 {
		return all[len(all)-1][1], true
	}
	return "", false
}

func (ChoiceScorer) CheckAnswer(predicted, truth string) bool {
	p := strings.ToUpper(strings.TrimSpace(predicted))
	return p != "" && p == strings.ToUpper(strings.TrimSpace(truth))
}

type TextScorer struct{}

func (TextScorer) ExtractAnswer(response string) (string, bool) {
	if answer, ok := ExtractHashAnswer(response); ok {
		return firstLine(answer), true
	}
	lines := strings.Split(strings.TrimSpace(response), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line, true
		}
	}
	return "", false
}

// CheckAnswer accepts a prediction whose normalized text equals or contains
// the normalized truth.
func (TextScorer) CheckAnswer(predicted, truth string) bool {
	p, t := Normalize(predicted), Normalize(truth)
	if p == "" || t == "" {
		return false
	}
	return p == t || strings.Contains(p, t)
}

// Normalize lowercases s, drops punctuation and collapses whitespace.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
