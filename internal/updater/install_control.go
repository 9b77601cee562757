package updater

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AssertSelfUpdateSupported returns an error when the binary at binaryPath
// is owned by another install method that would be confused by an in-place
// replacement. OLLAMA_UPDATE_ALLOW_UNMANAGED_UPDATE=1 bypasses the check.
func AssertSelfUpdateSupported(binaryPath string) error {
	if strings.TrimSpace(os.Getenv("OLLAMA_UPDATE_ALLOW_UNMANAGED_UPDATE")) == "1" {
		return nil
	}

	targetPath, err := resolveBinaryPath(binaryPath)
	if err != nil {
		return err
	}

	switch {
	case isGoBuildCachePath(targetPath):
		return fmt.Errorf("self-update is not supported for binaries started with `go run`")
	case isHomebrewInstallPath(targetPath):
		return fmt.Errorf("self-update is not supported for Homebrew installs; use `brew upgrade %s`", projectName)
	case isGoInstallPath(targetPath):
		return fmt.Errorf("self-update is not supported for `go install` builds; rerun `go install github.com/draeician/ollama-update/cmd/ollama-update@latest`")
	}
	return nil
}

func isGoBuildCachePath(binaryPath string) bool {
	path := filepath.ToSlash(filepath.Clean(binaryPath))
	return strings.Contains(path, "/go-build")
}

func isHomebrewInstallPath(binaryPath string) bool {
	path := filepath.ToSlash(filepath.Clean(binaryPath))
	return strings.Contains(path, "/Cellar/"+projectName+"/")
}

func isGoInstallPath(binaryPath string) bool {
	dir := filepath.Clean(filepath.Dir(binaryPath))
	for _, goBin := range goBinDirs() {
		if dir == filepath.Clean(goBin) {
			return true
		}
	}
	return false
}

func goBinDirs() []string {
	var dirs []string
	if gobin := strings.TrimSpace(os.Getenv("GOBIN")); gobin != "" {
		dirs = append(dirs, gobin)
	}
	gopath := strings.TrimSpace(os.Getenv("GOPATH"))
	if gopath == "" {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			gopath = filepath.Join(home, "go")
		}
	}
	for _, p := range filepath.SplitList(gopath) {
		if p != "" {
			dirs = append(dirs, filepath.Join(p, "bin"))
		}
	}
	return dirs
}
