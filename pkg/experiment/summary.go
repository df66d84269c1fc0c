package experiment

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/theokoles7/parcus/pkg/results"
)

// Summarize groups records by budget, in the order budgets first appear, and
// computes accuracy plus the mean and population standard deviation of the
// tokens used. Failed generations count against accuracy but not tokens.
func Summarize(runID string, startedAt time.Time, records []results.Record) []results.Summary {
	index := make(map[int]int)
	var summaries []results.Summary
	var tokens [][]float64

	for _, r := range records {
		i, ok := index[r.Budget]
		if !ok {
			i = len(summaries)
			index[r.Budget] = i
			summaries = append(summaries, results.Summary{
				RunID:     runID,
				Model:     r.Model,
				Dataset:   r.Dataset,
				Budget:    r.Budget,
				StartedAt: startedAt,
			})
			tokens = append(tokens, nil)
		}

		s := &summaries[i]
		s.Samples++
		switch {
		case r.Error != "":
			s.Errors++
			continue
		case r.Correct:
			s.Correct++
		}
		tokens[i] = append(tokens[i], float64(r.TokensUsed))
	}

	for i := range summaries {
		s := &summaries[i]
		if s.Samples > 0 {
			s.Accuracy = float64(s.Correct) / float64(s.Samples)
		}
		if len(tokens[i]) > 0 {
			s.MeanTokens, s.StdTokens = stat.PopMeanStdDev(tokens[i], nil)
		}
	}
	return summaries
}
