//go:build !unix

package daemon

import (
	"os"
	"syscall"
)

func alive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}

func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return ErrProcessGone
	}
	return p.Kill()
}

func detachAttr() *syscall.SysProcAttr {
	return nil
}
