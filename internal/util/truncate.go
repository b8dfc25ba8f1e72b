package util

import (
	"strings"
	"unicode/utf8"
)

// TruncateBytes cuts input to at most maxBytes, backing off to the previous
// character boundary so the result stays valid UTF-8.
func TruncateBytes(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(input) <= maxBytes {
		return input, false
	}
	for maxBytes > 0 && !utf8.RuneStart(input[maxBytes]) {
		maxBytes--
	}
	return input[:maxBytes], true
}

// TruncateLinesAndBytes keeps whole lines until either limit would be
// exceeded. byteCount includes the newlines that would join the kept lines.
func TruncateLinesAndBytes(lines []string, maxLines int, maxBytes int) (out []string, truncated bool, byteCount int) {
	if maxLines <= 0 && maxBytes <= 0 {
		return lines, false, len(strings.Join(lines, "\n"))
	}
	for _, line := range lines {
		if maxLines > 0 && len(out) >= maxLines {
			return out, true, byteCount
		}
		cost := len(line)
		if len(out) > 0 {
			cost++
		}
		if maxBytes > 0 && byteCount+cost > maxBytes {
			return out, true, byteCount
		}
		byteCount += cost
		out = append(out, line)
	}
	return out, false, byteCount
}

// Preview limits text to maxLines and maxBytes for log and report output.
func Preview(text string, maxLines int, maxBytes int) string {
	if text == "" {
		return ""
	}
	trimmed, _, _ := TruncateLinesAndBytes(strings.Split(text, "\n"), maxLines, maxBytes)
	return strings.Join(trimmed, "\n")
}
