//go:build !unix

package runner

import "os/exec"

// setProcessGroup is a no-op where process groups are unavailable;
// exec.CommandContext still kills the direct child on cancellation.
func setProcessGroup(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) error { return nil }
