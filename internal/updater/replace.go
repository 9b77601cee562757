package updater

import (
	"fmt"
	"os"
	"path/filepath"
)

// replaceBinary swaps targetPath for binaryBody with a rename in the same
// directory, so the running process keeps its old inode.
func replaceBinary(targetPath string, binaryBody []byte) error {
	tmpPath, err := stageBinary(filepath.Dir(targetPath), binaryBody, binaryMode(targetPath))
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := os.Rename(tmpPath, targetPath); err != nil {
		return fmt.Errorf("failed to replace executable %s: %w", targetPath, err)
	}
	return nil
}

// stageBinary writes binaryBody to a new temp file in dir with mode.
func stageBinary(dir string, binaryBody []byte, mode os.FileMode) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging dir %s: %w", dir, err)
	}
	tmpFile, err := os.CreateTemp(dir, ".ollama-update-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	fail := func(format string, err error) (string, error) {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf(format, err)
	}
	if _, err := tmpFile.Write(binaryBody); err != nil {
		return fail("failed to write update binary: %w", err)
	}
	if err := tmpFile.Chmod(mode); err != nil {
		return fail("failed to set executable permissions on update binary: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fail("failed to sync update binary: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize update binary: %w", err)
	}
	return tmpPath, nil
}

func binaryMode(targetPath string) os.FileMode {
	if info, err := os.Stat(targetPath); err == nil {
		return info.Mode().Perm()
	}
	return 0o755
}
