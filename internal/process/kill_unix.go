//go:build !windows

// Package process terminates browser process trees left behind by the PDF
// renderer.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, which
// takes the Chrome helpers down with the browser.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
