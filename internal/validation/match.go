package validation

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// MatchPercentage scores how closely output matches expected, line by line,
// as a value in [0, 100]. Trailing whitespace on each line is ignored.
func MatchPercentage(output, expected string) float64 {
	a := normalizeLines(output)
	b := normalizeLines(expected)
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	matcher := difflib.NewMatcher(a, b)
	return matcher.Ratio() * 100
}

func normalizeLines(text string) []string {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return lines
}
