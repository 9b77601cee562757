// Package installer fetches and runs the upstream ollama install script.
package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/draeician/ollama-update/internal/httpclient"
	"github.com/draeician/ollama-update/internal/sysexec"
)

// Service installs ollama, optionally pinned to a version.
type Service interface {
	Install(ctx context.Context, version string) error
}

// Installer downloads the script to ScriptPath and runs it elevated. The
// version is passed through VersionEnv, which the script reads.
type Installer struct {
	URL        string
	ScriptPath string
	VersionEnv string
	HTTP       *httpclient.Client
	Runner     sysexec.Runner
	Logger     *log.Logger
	// DryRun skips the download and leaves reporting the script invocation
	// to Runner.
	DryRun bool
}

func (i *Installer) Install(ctx context.Context, version string) error {
	if i.DryRun {
		i.logger().Debug("dry run, installer not downloaded", "url", i.URL)
		return i.Run(ctx, version)
	}
	if err := i.Download(ctx); err != nil {
		return err
	}
	return i.Run(ctx, version)
}

// Download replaces ScriptPath with a fresh copy of the script, mode 0755.
func (i *Installer) Download(ctx context.Context) error {
	client := i.HTTP
	if client == nil {
		client = httpclient.New()
	}

	resp, err := client.DoCtx(ctx, http.MethodGet, i.URL, nil)
	if err != nil {
		return fmt.Errorf("downloading installer: %w", err)
	}
	if err := resp.Err("downloading installer"); err != nil {
		return err
	}
	if len(resp.Body) == 0 {
		return fmt.Errorf("downloading installer: %s returned an empty script", i.URL)
	}

	if err := writeExecutable(i.ScriptPath, resp.Body); err != nil {
		return fmt.Errorf("saving installer: %w", err)
	}
	i.logger().Debug("installer downloaded", "url", i.URL, "path", i.ScriptPath, "bytes", len(resp.Body))
	return nil
}

// Run executes the downloaded script through the privileged runner with the
// terminal attached, since the script prints progress and may prompt.
func (i *Installer) Run(ctx context.Context, version string) error {
	cmd := sysexec.Command{
		Name:        i.ScriptPath,
		Privileged:  true,
		Interactive: true,
	}
	if version != "" {
		cmd.Env = []string{i.VersionEnv + "=" + version}
	}
	i.logger().Debug("running installer", "script", i.ScriptPath, "version", version)
	if _, err := i.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("running installer: %w", err)
	}
	return nil
}

func (i *Installer) logger() *log.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return log.New(io.Discard)
}

func writeExecutable(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
