package results

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// WriteTable prints summaries as an aligned table, colouring accuracy from
// red to green.
func WriteTable(out io.Writer, summaries []Summary) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, color.CyanString("RUN\tMODEL\tDATASET\tBUDGET\tACCURACY\tCORRECT\tERRORS\tMEAN_TOKENS\tSTARTED"))
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%d\t%.1f ± %.1f\t%s\n",
			shortID(s.RunID),
			s.Model,
			s.Dataset,
			Budget(s.Budget),
			accuracyColor(s.Accuracy)("%.2f%%", s.Accuracy*100),
			s.Correct, s.Samples,
			s.Errors,
			s.MeanTokens, s.StdTokens,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

// Budget renders a budget for display.
func Budget(b int) string {
	if b == Unconstrained {
		return "none"
	}
	return strconv.Itoa(b)
}

func accuracyColor(acc float64) func(string, ...interface{}) string {
	switch {
	case acc >= 0.75:
		return color.GreenString
	case acc >= 0.4:
		return color.YellowString
	default:
		return color.RedString
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
