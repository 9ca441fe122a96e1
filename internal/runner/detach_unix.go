//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// detach puts the child in its own process group so a terminal interrupt
// aimed at docpipe does not reach it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
