//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// killGroup puts cmd in its own process group and makes cancellation kill
// the whole group, so helpers the tool spawned die with it.
func killGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
