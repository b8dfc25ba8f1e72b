package validation

import (
	"encoding/json"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// syntaxCheckers maps a file extension to a parser that rejects malformed content.
var syntaxCheckers = map[string]func(path string, data []byte) error{
	".go": func(path string, data []byte) error {
		_, err := parser.ParseFile(token.NewFileSet(), path, data, parser.AllErrors)
		return err
	},
	".json": func(path string, data []byte) error {
		if !json.Valid(data) {
			var v any
			return json.Unmarshal(data, &v)
		}
		return nil
	},
	".yaml": checkYAML,
	".yml":  checkYAML,
	".toml": func(path string, data []byte) error {
		var v map[string]any
		_, err := toml.Decode(string(data), &v)
		return err
	},
}

func checkYAML(path string, data []byte) error {
	var v any
	return yaml.Unmarshal(data, &v)
}

// SupportsSyntax reports whether the file extension has a syntax checker.
func SupportsSyntax(path string) bool {
	_, ok := syntaxCheckers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ParseFiles parses each file with a known extension. Files without a
// checker and files that no longer exist are skipped. It returns how many
// files were checked and the problems found.
func ParseFiles(workDir string, files []string) (int, []string) {
	checked := 0
	var problems []string
	for _, file := range files {
		check, ok := syntaxCheckers[strings.ToLower(filepath.Ext(file))]
		if !ok {
			continue
		}
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			problems = append(problems, fmt.Sprintf("%s: %v", file, err))
			continue
		}
		checked++
		if err := check(path, data); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", file, err))
		}
	}
	return checked, problems
}
