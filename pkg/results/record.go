package results

import "time"

// Unconstrained is the budget recorded for generations with no token limit.
const Unconstrained = 0

// Record is the outcome of one sample at one budget. It is the line format of
// a run's JSONL file.
type Record struct {
	RunID       string `json:"run_id"`
	Model       string `json:"model"`
	Dataset     string `json:"dataset"`
	ProblemID   int    `json:"problem_id"`
	Question    string `json:"question"`
	GroundTruth string `json:"ground_truth"`
	Generated   string `json:"generated"`
	Predicted   string `json:"predicted"`
	Correct     bool   `json:"correct"`
	TokensUsed  int    `json:"tokens_used"`
	Budget      int    `json:"budget"`
	Truncated   bool   `json:"truncated"`
	Error       string `json:"error,omitempty"`
}

type Run struct {
	ID         string
	Model      string
	Dataset    string
	Samples    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary aggregates the records of one run at one budget.
type Summary struct {
	RunID      string    `json:"run_id"`
	Model      string    `json:"model"`
	Dataset    string    `json:"dataset"`
	Budget     int       `json:"budget"`
	Samples    int       `json:"samples"`
	Correct    int       `json:"correct"`
	Errors     int       `json:"errors"`
	Accuracy   float64   `json:"accuracy"`
	MeanTokens float64   `json:"mean_tokens"`
	StdTokens  float64   `json:"std_tokens"`
	StartedAt  time.Time `json:"started_at"`
}

type Filter struct {
	Model   string
	Dataset string
	RunID   string
}
