// Package workspace detects which files an external tool changed by
// comparing git worktree status before and after it ran.
package workspace

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
)

// Snapshot records the dirty files of a worktree and a content hash of each,
// so a file that was already dirty and is edited again is still detected.
type Snapshot struct {
	root   string
	hashes map[string]string
}

// Root returns the worktree root, or "" for an empty snapshot.
func (s Snapshot) Root() string { return s.root }

// Take snapshots the git worktree containing dir. Outside a git repository it
// returns an empty snapshot and ok=false.
func Take(dir string) (snap Snapshot, ok bool, err error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("open git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("worktree status: %w", err)
	}

	root := wt.Filesystem.Root()
	base, err := filepath.Abs(dir)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("resolve dir: %w", err)
	}
	snap = Snapshot{root: root, hashes: make(map[string]string, len(status))}
	for path, st := range status {
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		abs := filepath.Join(root, filepath.FromSlash(path))
		rel, err := filepath.Rel(base, abs)
		if err != nil {
			rel = abs
		}
		snap.hashes[filepath.ToSlash(rel)] = hashFile(abs)
	}
	return snap, true, nil
}

// Changed lists paths, relative to the directory passed to Take and sorted,
// whose state differs between before and after.
func Changed(before, after Snapshot) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	for path, hash := range after.hashes {
		if prev, ok := before.hashes[path]; !ok || prev != hash {
			add(path)
		}
	}
	for path := range before.hashes {
		if _, ok := after.hashes[path]; !ok {
			add(path)
		}
	}
	sort.Strings(out)
	return out
}

func hashFile(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return "missing"
	}
	defer file.Close()
	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "unreadable"
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
