//go:build windows

package sysexec

// IsRoot always reports false; sudo is not available on Windows.
func IsRoot() bool { return false }

// Writable always reports true so callers never try to escalate.
func Writable(string) bool { return true }
