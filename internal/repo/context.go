package repo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vishkar/internal/util"
)

// Limits controls digest size.
type Limits struct {
	ContextMaxBytes int
	MaxFileBytes    int
}

// FileSnippet holds a path and snippet text.
type FileSnippet struct {
	Path      string
	Snippet   string
	Truncated bool
}

// Digest summarizes a repository so a coding tool can be primed with it.
type Digest struct {
	Root      string
	TopLevel  []string
	Manifests []string
	Snippets  []FileSnippet
	Warnings  []string
	Bytes     int
}

// manifests are read head-first, in this order, until the byte budget runs out.
var manifests = []struct {
	name  string
	lines int
}{
	{"README.md", 60},
	{"go.mod", 40},
	{"pyproject.toml", 60},
	{"package.json", 60},
	{"Cargo.toml", 40},
	{"Makefile", 60},
	{"Dockerfile", 40},
}

// BuildDigest gathers top-level layout, manifest snippets, and the head of
// each scoped file. Denylisted files are never read.
func BuildDigest(root string, scoped []string, limits Limits) (Digest, error) {
	d := Digest{Root: root}

	entries, err := os.ReadDir(root)
	if err != nil {
		return d, fmt.Errorf("read repo root: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == ".git" {
			continue
		}
		if entry.IsDir() {
			name += "/"
		}
		d.TopLevel = append(d.TopLevel, name)
	}
	sort.Strings(d.TopLevel)

	for _, m := range manifests {
		path := filepath.Join(root, m.name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		d.Manifests = append(d.Manifests, m.name)
		d.readSnippet(m.name, path, m.lines, limits)
	}

	for _, file := range scoped {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if IsDenylisted(path) {
			d.Warnings = append(d.Warnings, fmt.Sprintf("%s is denylisted and was not read.", file))
			continue
		}
		d.readSnippet(file, path, 120, limits)
	}

	if _, err := os.Stat(filepath.Join(root, ".env")); err == nil {
		d.Warnings = append(d.Warnings, "Detected .env but contents are excluded by denylist policy.")
	}
	return d, nil
}

func (d *Digest) readSnippet(name, path string, maxLines int, limits Limits) {
	raw, cut, err := readFirstLines(path, maxLines, limits.MaxFileBytes)
	if err != nil {
		d.Warnings = append(d.Warnings, fmt.Sprintf("%s could not be read: %v", name, err))
		return
	}
	d.addSnippet(path, raw, cut, limits)
}

func (d *Digest) addSnippet(path string, raw string, cut bool, limits Limits) {
	if raw == "" {
		return
	}
	rel, err := filepath.Rel(d.Root, path)
	if err != nil {
		rel = path
	}
	redacted := util.RedactSecrets(raw)
	truncated := cut
	if limits.ContextMaxBytes > 0 {
		remaining := limits.ContextMaxBytes - d.Bytes
		if remaining <= 0 {
			return
		}
		var budgetCut bool
		redacted, budgetCut = util.TruncateBytes(redacted, remaining)
		truncated = truncated || budgetCut
	}
	d.Bytes += len(redacted)
	d.Snippets = append(d.Snippets, FileSnippet{Path: rel, Snippet: redacted, Truncated: truncated})
}

// defaultReadLimit caps how much of a file is read when no per-file limit is set.
const defaultReadLimit = 1 << 20

// readFirstLines returns up to maxLines lines from the head of path, read
// within maxBytes. A line that does not fit is cut at a character boundary
// rather than dropped, so minified files still contribute a snippet.
func readFirstLines(path string, maxLines int, maxBytes int) (string, bool, error) {
	if IsDenylisted(path) {
		return "", false, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer file.Close()

	limit := maxBytes
	if limit <= 0 {
		limit = defaultReadLimit
	}
	data, err := io.ReadAll(io.LimitReader(file, int64(limit)+1))
	if err != nil {
		return "", false, err
	}
	text, truncated := util.TruncateBytes(string(data), limit)
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return strings.Join(lines, "\n"), truncated, nil
}

// Summary renders the digest as prompt context.
func (d Digest) Summary() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Repo root: %s\n", d.Root))
	if len(d.TopLevel) > 0 {
		b.WriteString("Top-level entries:\n")
		for _, entry := range d.TopLevel {
			b.WriteString("- ")
			b.WriteString(entry)
			b.WriteString("\n")
		}
	}
	if len(d.Manifests) > 0 {
		b.WriteString("Manifests: ")
		b.WriteString(strings.Join(d.Manifests, ", "))
		b.WriteString("\n")
	}
	for _, snip := range d.Snippets {
		b.WriteString(fmt.Sprintf("--- %s", snip.Path))
		if snip.Truncated {
			b.WriteString(" (truncated)")
		}
		b.WriteString(" ---\n")
		b.WriteString(snip.Snippet)
		b.WriteString("\n")
	}
	if len(d.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, warning := range d.Warnings {
			b.WriteString("- ")
			b.WriteString(warning)
			b.WriteString("\n")
		}
	}
	return b.String()
}
