//go:build !windows

package sysexec

import (
	"golang.org/x/sys/unix"
)

// IsRoot reports whether the process runs with an effective UID of 0.
func IsRoot() bool {
	return unix.Geteuid() == 0
}

// Writable reports whether the current user can create files in dir.
func Writable(dir string) bool {
	return unix.Access(dir, unix.W_OK) == nil
}
