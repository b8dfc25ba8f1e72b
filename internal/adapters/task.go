package adapters

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vishkar/internal/repo"
)

// CheckTask rejects tasks that can never succeed: an empty prompt, a scoped
// file that does not exist, or a file that must never be handed to a tool.
// Every returned error is permanent.
func CheckTask(task Task, workDir string) error {
	if strings.TrimSpace(task.Prompt) == "" {
		return Permanent(errors.New("prompt is required"))
	}
	for _, file := range task.Files {
		if strings.TrimSpace(file) == "" {
			return Permanent(errors.New("empty file path in scope"))
		}
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		if repo.IsDenylisted(path) {
			return Permanentf("file is denylisted: %s", file)
		}
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Permanentf("file not found: %s", file)
			}
			return Permanent(fmt.Errorf("stat %s: %w", file, err))
		}
		if info.IsDir() {
			return Permanentf("file is a directory: %s", file)
		}
	}
	return nil
}
