// Package ollama talks to the installed ollama client and server to compare
// their versions.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/draeician/ollama-update/internal/httpclient"
	"github.com/draeician/ollama-update/internal/sysexec"
)

const DefaultPort = "11434"

// Report is the outcome of a client/server version comparison. Errors are
// recorded rather than returned because a failed lookup is only a warning.
type Report struct {
	Host          string
	ServerURL     string
	ClientVersion string
	ClientErr     error
	ServerVersion string
	ServerErr     error
}

// Match reports whether both versions are known and equal.
func (r Report) Match() bool {
	if r.ClientVersion == "" || r.ServerVersion == "" {
		return false
	}
	c, s := "v"+r.ClientVersion, "v"+r.ServerVersion
	if semver.IsValid(c) && semver.IsValid(s) {
		return semver.Compare(c, s) == 0
	}
	return r.ClientVersion == r.ServerVersion
}

// Checker looks up versions. The client binary is run through Runner and the
// server is queried over HTTP.
type Checker struct {
	Runner sysexec.Runner
	HTTP   *httpclient.Client
	// Binary is the client executable; defaults to "ollama".
	Binary string
}

// Check compares the local client against the server at host, which takes
// any form OLLAMA_HOST accepts.
func (c *Checker) Check(ctx context.Context, host string) Report {
	report := Report{Host: host}
	report.ClientVersion, report.ClientErr = c.ClientVersion(ctx)

	base, err := ServerURL(host)
	if err != nil {
		report.ServerErr = err
		return report
	}
	report.ServerURL = base
	report.ServerVersion, report.ServerErr = c.ServerVersion(ctx, base)
	return report
}

// ClientVersion runs `ollama --version` and extracts the client version.
func (c *Checker) ClientVersion(ctx context.Context) (string, error) {
	binary := c.Binary
	if binary == "" {
		binary = "ollama"
	}
	out, err := c.Runner.Run(ctx, sysexec.Command{Name: binary, Args: []string{"--version"}})
	if err != nil {
		return "", fmt.Errorf("getting client version: %w", err)
	}
	v := ParseClientVersion(string(out))
	if v == "" {
		return "", fmt.Errorf("getting client version: no version in %q", strings.TrimSpace(string(out)))
	}
	return v, nil
}

// ServerVersion queries GET <base>/api/version.
func (c *Checker) ServerVersion(ctx context.Context, base string) (string, error) {
	client := c.HTTP
	if client == nil {
		client = httpclient.New()
	}
	var body struct {
		Version string `json:"version"`
	}
	resp, err := client.GetJSONCtx(ctx, strings.TrimSuffix(base, "/")+"/api/version", &body)
	if err != nil {
		return "", fmt.Errorf("getting server version: %w", err)
	}
	if err := resp.Err("getting server version"); err != nil {
		return "", err
	}
	if resp.JSONErr != nil {
		return "", fmt.Errorf("getting server version: %w", resp.JSONErr)
	}
	if body.Version == "" {
		return "", errors.New("getting server version: response has no version")
	}
	return strings.TrimPrefix(body.Version, "v"), nil
}

// ParseClientVersion extracts the client version from `ollama --version`
// output. When the client and server differ ollama prints a separate
// "client version is" warning, which wins over the first version found.
func ParseClientVersion(output string) string {
	first := ""
	for _, line := range strings.Split(output, "\n") {
		v := lastVersion(line)
		if v == "" {
			continue
		}
		if strings.Contains(line, "client version") {
			return v
		}
		if first == "" {
			first = v
		}
	}
	return first
}

func lastVersion(line string) string {
	fields := strings.Fields(line)
	for i := len(fields) - 1; i >= 0; i-- {
		v := strings.TrimPrefix(fields[i], "v")
		if semver.IsValid("v" + v) {
			return v
		}
	}
	return ""
}

// ServerURL turns an OLLAMA_HOST value into a base URL. A missing scheme
// means http, a missing port means 11434, and the unspecified address is
// reached over loopback.
func ServerURL(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", errors.New("empty OLLAMA_HOST")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("parsing OLLAMA_HOST %q: %w", host, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("parsing OLLAMA_HOST %q: no host", host)
	}

	hostname, port := u.Hostname(), u.Port()
	if port == "" {
		port = DefaultPort
		if u.Scheme == "https" {
			port = "443"
		}
	}
	switch hostname {
	case "0.0.0.0":
		hostname = "127.0.0.1"
	case "::":
		hostname = "::1"
	}
	u.Host = net.JoinHostPort(hostname, port)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
