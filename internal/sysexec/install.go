package sysexec

import (
	"context"
	"fmt"
	"os"
)

// SudoInstaller moves staged files into system-owned paths with mv, chown,
// and chmod run as privileged commands.
type SudoInstaller struct {
	Runner Runner
	Owner  string
	// Copy leaves the source in place (cp instead of mv).
	Copy bool
}

// NewSudoInstaller returns an installer that leaves files owned by root.
func NewSudoInstaller(runner Runner) *SudoInstaller {
	return &SudoInstaller{Runner: runner, Owner: "root:root"}
}

func (s *SudoInstaller) InstallFile(ctx context.Context, src, dst string, mode os.FileMode) error {
	move := "mv"
	if s.Copy {
		move = "cp"
	}
	owner := s.Owner
	if owner == "" {
		owner = "root:root"
	}
	steps := [][]string{
		{move, src, dst},
		{"chown", owner, dst},
		{"chmod", fmt.Sprintf("%04o", mode.Perm()), dst},
	}
	for _, args := range steps {
		_, err := s.Runner.Run(ctx, Command{
			Name:       args[0],
			Args:       args[1:],
			Privileged: true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
