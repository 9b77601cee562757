// Package service keeps the ollama systemd unit carrying the directives
// ollama-update manages.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/draeician/ollama-update/internal/unitfile"
)

// ReadError means the unit file could not be read; no patch was attempted.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading unit file %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError means the patched unit could not be staged or moved into place.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing unit file %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// FileInstaller moves a staged file into a system-owned location.
type FileInstaller interface {
	InstallFile(ctx context.Context, src, dst string, mode os.FileMode) error
}

// Result describes the outcome of Patcher.Apply.
type Result struct {
	Path     string
	Changed  bool
	Inserted []string
	// Sections maps each inserted directive to the section it landed in.
	Sections map[string]string
	// Content is the patched unit; set only when Changed.
	Content []byte
}

// Patcher reads, patches, and replaces a unit file.
type Patcher struct {
	// WorkDir is the unprivileged directory patched units are staged in.
	WorkDir   string
	Installer FileInstaller
	// Validate refuses to install a unit that no longer parses.
	Validate bool
	// DryRun stops after computing the patch.
	DryRun bool
	Logger *log.Logger
}

// Apply ensures the unit at path contains every directive. The file is read
// fresh on every call and only written when something was inserted.
func (p *Patcher) Apply(ctx context.Context, path string, directives []string) (Result, error) {
	logger := p.logger()

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path}, &ReadError{Path: path, Err: err}
	}

	lines := unitfile.SplitLines(data)
	missing := unitfile.Missing(lines, directives)
	patched, changed := unitfile.Patch(lines, directives)
	if !changed {
		logger.Debug("unit file already up to date", "path", path)
		return Result{Path: path}, nil
	}

	content := unitfile.JoinLines(patched)
	result := Result{
		Path:     path,
		Changed:  true,
		Inserted: missing,
		Sections: make(map[string]string, len(missing)),
		Content:  content,
	}
	for _, directive := range missing {
		result.Sections[directive] = unitfile.SectionOf(patched, directive)
	}

	// Only breakage introduced by the patch is fatal. Units systemd accepts
	// but the parser does not, such as bare directive lines or very long
	// Environment= lines, are patched as they are.
	if p.Validate {
		if err := unitfile.Validate(data); err != nil {
			logger.Debug("unit file does not parse before patching, skipping validation", "path", path, "err", err)
		} else if err := unitfile.Validate(content); err != nil {
			return result, &WriteError{Path: path, Err: err}
		}
	}

	if p.DryRun {
		logger.Debug("dry run, unit file not written", "path", path, "inserted", len(missing))
		return result, nil
	}

	staged, err := p.stage(path, content)
	if err != nil {
		return result, &WriteError{Path: path, Err: err}
	}
	defer func() { _ = os.Remove(staged) }()

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := p.Installer.InstallFile(ctx, staged, path, mode); err != nil {
		return result, &WriteError{Path: path, Err: err}
	}

	logger.Info("unit file updated", "path", path, "inserted", len(missing))
	return result, nil
}

func (p *Patcher) stage(path string, content []byte) (string, error) {
	dir := p.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating work dir: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return tmpPath, nil
}

func (p *Patcher) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.New(io.Discard)
}
