//go:build windows

package executor

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// setProcAttr is a no-op on Windows (no process groups)
func setProcAttr(cmd *exec.Cmd) {}

// killProcessTree kills the process and its children using taskkill
func killProcessTree(pid int, process *os.Process, force bool) error {
	args := []string{"/T", "/PID", strconv.Itoa(pid)}
	if force {
		args = append([]string{"/F"}, args...)
	}
	if err := exec.Command("taskkill", args...).Run(); err != nil {
		if force {
			return process.Kill()
		}
		return process.Signal(os.Interrupt)
	}
	return nil
}

// processAlive reports whether pid names a live process.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	out, err := exec.Command("tasklist", "/FI", "PID eq "+strconv.Itoa(pid), "/NH").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), strconv.Itoa(pid))
}
