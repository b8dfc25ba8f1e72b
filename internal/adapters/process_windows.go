//go:build windows

package adapters

import "os/exec"

// setProcessGroup keeps the default behavior on Windows: cancellation kills
// the direct child only.
func setProcessGroup(cmd *exec.Cmd) {}
