package util

import "regexp"

var (
	keyValuePattern = regexp.MustCompile(`(?i)(api_key|apikey|secret|token|password|access_key|private_key)\s*[:=]\s*([^\s"']+)`)
	privateKeyBlock = regexp.MustCompile(`(?is)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)
	jwtPattern      = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.?[a-zA-Z0-9_-]*`)
	// sk-ant-api03-..., sk-proj-..., and classic sk-... keys.
	skPattern     = regexp.MustCompile(`(?i)sk-(?:[a-z0-9]+-){0,2}[a-z0-9_-]{20,}`)
	githubPattern = regexp.MustCompile(`\b(?:ghp|gho|ghs|ghu|github_pat)_[A-Za-z0-9_]{20,}`)
	bearerPattern = regexp.MustCompile(`(?i)(authorization:\s*bearer)\s+[^\s"']+`)
)

// RedactSecrets removes likely secrets from text before it is shown, logged,
// or handed to a model.
func RedactSecrets(input string) string {
	out := keyValuePattern.ReplaceAllString(input, `$1=[REDACTED]`)
	out = privateKeyBlock.ReplaceAllString(out, "[REDACTED PRIVATE KEY]")
	out = jwtPattern.ReplaceAllString(out, "[REDACTED JWT]")
	out = skPattern.ReplaceAllString(out, "[REDACTED KEY]")
	out = githubPattern.ReplaceAllString(out, "[REDACTED TOKEN]")
	out = bearerPattern.ReplaceAllString(out, "$1 [REDACTED]")
	return out
}
