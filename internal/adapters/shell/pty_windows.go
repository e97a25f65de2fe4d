//go:build windows

package shell

import "syscall"

func ptySysProcAttr() *syscall.SysProcAttr {
	return nil
}
