package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vishkar/internal/util"
)

// processWaitDelay bounds how long Wait keeps draining pipes after the
// process group has been killed.
const processWaitDelay = 2 * time.Second

// Invocation describes one external process launch.
type Invocation struct {
	Binary string
	Args   []string
	Dir    string
	Env    map[string]string
	Stdin  string
}

// ProcessResult is the captured outcome of a finished process.
type ProcessResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// RunProcess starts inv and waits for it. When ctx is done the whole process
// group is killed, so tools that spawn children do not outlive the call.
// A non-zero exit is returned as a recoverable error alongside the captured
// output; a missing executable is permanent.
func RunProcess(ctx context.Context, inv Invocation) (ProcessResult, error) {
	if strings.TrimSpace(inv.Binary) == "" {
		return ProcessResult{}, Permanent(errors.New("binary is required"))
	}
	dir, err := resolveWorkDir(inv.Dir)
	if err != nil {
		return ProcessResult{}, Permanent(err)
	}

	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args...)
	cmd.Dir = dir
	cmd.Env = MergeEnv(os.Environ(), inv.Env)
	cmd.WaitDelay = processWaitDelay
	setProcessGroup(cmd)
	if inv.Stdin != "" {
		cmd.Stdin = strings.NewReader(inv.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	result := ProcessResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return result, fmt.Errorf("%s: %w", inv.Binary, ErrTimeout)
		}
		return result, Permanent(fmt.Errorf("%s: %w", inv.Binary, ctxErr))
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		detail := strings.TrimSpace(util.RedactSecrets(result.Stderr))
		detail, _ = util.TruncateBytes(detail, 2048)
		if detail == "" {
			return result, Recoverable(fmt.Errorf("%s exited with status %d", inv.Binary, result.ExitCode))
		}
		return result, Recoverable(fmt.Errorf("%s exited with status %d: %s", inv.Binary, result.ExitCode, detail))
	}
	result.ExitCode = -1
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return result, Permanent(fmt.Errorf("start %s: %w", inv.Binary, err))
	}
	return result, Recoverable(fmt.Errorf("start %s: %w", inv.Binary, err))
}

// LookPath reports whether binary can be executed.
func LookPath(binary string) (string, bool) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", false
	}
	return path, true
}

// MergeEnv overlays overrides onto base, replacing entries with the same name.
// Overrides are appended in sorted key order.
func MergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	merged := make([]string, 0, len(base)+len(overrides))
	for _, entry := range base {
		key := entry
		if idx := strings.IndexByte(entry, '='); idx >= 0 {
			key = entry[:idx]
		}
		if _, ok := overrides[key]; ok {
			continue
		}
		merged = append(merged, entry)
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		merged = append(merged, key+"="+overrides[key])
	}
	return merged
}

func resolveWorkDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve working dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat working dir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working dir is not a directory: %s", abs)
	}
	return abs, nil
}

// ProbeVersion reports whether binary is on PATH and answers --version
// successfully within timeout.
func ProbeVersion(ctx context.Context, binary string, timeout time.Duration) bool {
	if _, ok := LookPath(binary); !ok {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := RunProcess(ctx, Invocation{Binary: binary, Args: []string{"--version"}})
	return err == nil
}
