package cli

import (
	"context"
	"time"

	"github.com/draeician/ollama-update/internal/display"
	"github.com/draeician/ollama-update/internal/httpclient"
	"github.com/draeician/ollama-update/internal/logging"
	"github.com/draeician/ollama-update/internal/ollama"
	"github.com/draeician/ollama-update/internal/sysexec"
)

const versionCheckTimeout = 10 * time.Second

// VersionChecker compares the local client against a server.
type VersionChecker interface {
	Check(ctx context.Context, host string) ollama.Report
}

// checkerFactory builds the checker. It always runs commands for real,
// since asking for versions changes nothing.
var checkerFactory = func(ctx context.Context) VersionChecker {
	return &ollama.Checker{
		Runner: sysexec.NewExecRunner(logging.FromContext(ctx)),
		HTTP:   httpclient.NewWithTimeout(versionCheckTimeout),
	}
}

// checkVersions warns when OLLAMA_HOST points at a server whose version
// differs from the local client. Failures are reported, never returned.
func checkVersions(ctx context.Context, host string) display.VersionCheckJSON {
	logger := logging.FromContext(ctx)
	report := checkerFactory(ctx).Check(ctx, host)

	check := display.VersionCheckJSON{
		Host:          host,
		ClientVersion: report.ClientVersion,
		ServerVersion: report.ServerVersion,
		Match:         report.Match(),
	}
	for _, err := range []error{report.ClientErr, report.ServerErr} {
		if err != nil {
			logger.Warn("version check", "host", host, "err", err)
			check.Errors = append(check.Errors, err.Error())
		}
	}

	if !human() {
		return check
	}
	display.Warning(outWriter, "OLLAMA_HOST is set to %s; using a remote Ollama server", host)
	if report.ClientErr == nil {
		display.Step(outWriter, "Client version: %s", report.ClientVersion)
	}
	if report.ServerErr == nil {
		display.Step(outWriter, "Server version: %s", report.ServerVersion)
	}
	switch {
	case report.ClientErr != nil || report.ServerErr != nil:
		display.Warning(outWriter, "Could not compare client and server versions")
	case check.Match:
		display.Success(outWriter, "Client and server versions match")
	default:
		display.Warning(outWriter, "Client (%s) and server (%s) versions differ", report.ClientVersion, report.ServerVersion)
	}
	return check
}
