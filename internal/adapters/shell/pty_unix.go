//go:build !windows

package shell

import "syscall"

// ptySysProcAttr makes the child a session leader controlling the pty.
func ptySysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true, Setctty: true}
}
