package aider

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	tokensLine   = regexp.MustCompile(`(?i)tokens:\s*(.+)`)
	tokensSent   = regexp.MustCompile(`(?i)([\d.,]+)\s*([km]?)\s+sent`)
	tokensRecv   = regexp.MustCompile(`(?i)([\d.,]+)\s*([km]?)\s+received`)
	appliedEdit  = regexp.MustCompile(`^Applied edit to (.+?)\s*$`)
	ansiSequence = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
)

// report is what aider's console output tells us about a run.
type report struct {
	tokens int
	files  []string
}

// parseOutput sums every "Tokens: 2.3k sent, 150 received" line and collects
// the files named by "Applied edit to" lines, in order, without duplicates.
func parseOutput(out string) report {
	var r report
	seen := map[string]struct{}{}
	for _, line := range strings.Split(ansiSequence.ReplaceAllString(out, ""), "\n") {
		line = strings.TrimSpace(line)
		if m := tokensLine.FindStringSubmatch(line); m != nil {
			if s := tokensSent.FindStringSubmatch(m[1]); s != nil {
				r.tokens += parseCount(s[1], s[2])
			}
			if s := tokensRecv.FindStringSubmatch(m[1]); s != nil {
				r.tokens += parseCount(s[1], s[2])
			}
			continue
		}
		if m := appliedEdit.FindStringSubmatch(line); m != nil {
			file := m[1]
			if _, ok := seen[file]; !ok {
				seen[file] = struct{}{}
				r.files = append(r.files, file)
			}
		}
	}
	return r
}

// parseCount turns "2.3" with suffix "k" into 2300.
func parseCount(number, suffix string) int {
	value, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(suffix) {
	case "k":
		value *= 1_000
	case "m":
		value *= 1_000_000
	}
	return int(value + 0.5)
}
