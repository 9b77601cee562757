// Package updater replaces the running ollama-update binary with a newer
// GitHub release.
package updater

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"

	"github.com/draeician/ollama-update/internal/httpclient"
	"github.com/draeician/ollama-update/internal/releases"
	"github.com/draeician/ollama-update/internal/sysexec"
)

const (
	defaultOwner       = "draeician"
	defaultRepo        = "ollama-update"
	defaultAPIBaseURL  = "https://api.github.com"
	projectName        = "ollama-update"
	checksumsAssetName = "checksums.txt"
	defaultTimeout     = 60 * time.Second
)

// Service is the interface used by the CLI update command.
type Service interface {
	Check(ctx context.Context, req CheckRequest) (CheckResult, error)
	Apply(ctx context.Context, req ApplyRequest) (ApplyResult, error)
}

// FileInstaller moves a staged file over a path the current user cannot
// write, typically through sudo.
type FileInstaller interface {
	InstallFile(ctx context.Context, src, dst string, mode os.FileMode) error
}

// Client checks GitHub releases and applies binary updates.
type Client struct {
	Owner      string
	Repo       string
	APIBaseURL string
	Token      string
	HTTP       *httpclient.Client
	// Elevated installs the new binary when its directory is not writable.
	Elevated FileInstaller
	// WorkDir stages binaries handed to Elevated.
	WorkDir string
	// Writable reports whether a directory can be written without
	// elevation. Defaults to sysexec.Writable.
	Writable func(dir string) bool
	Logger   *log.Logger
}

// CheckRequest configures update-check behavior.
type CheckRequest struct {
	CurrentVersion string
	TargetVersion  string
	OS             string
	Arch           string
}

// CheckResult describes update availability for this platform.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	TargetVersion   string
	UpdateAvailable bool
	IsDowngrade     bool
	ReleaseName     string
	ReleaseNotes    string
	ReleaseURL      string
	AssetName       string
	AssetURL        string
	ChecksumsURL    string
	OS              string
	Arch            string
}

// ApplyRequest controls installation of a previously checked update.
type ApplyRequest struct {
	Check          CheckResult
	BinaryPath     string
	AllowDowngrade bool
}

// ApplyResult is the result of applying an update.
type ApplyResult struct {
	Updated bool
	// Identical means the release binary matches the installed one byte for
	// byte, so nothing was copied.
	Identical  bool
	Elevated   bool
	OldVersion string
	NewVersion string
	BinaryPath string
}

type githubRelease struct {
	TagName string               `json:"tag_name"`
	Name    string               `json:"name"`
	Body    string               `json:"body"`
	HTMLURL string               `json:"html_url"`
	Assets  []githubReleaseAsset `json:"assets"`
}

type githubReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// NewClient creates a GitHub-backed updater client for owner/repo.
func NewClient(apiBaseURL, owner, repo string) *Client {
	return &Client{
		Owner:      owner,
		Repo:       repo,
		APIBaseURL: apiBaseURL,
		Token:      strings.TrimSpace(os.Getenv("OLLAMA_UPDATE_GITHUB_TOKEN")),
		HTTP:       httpclient.NewWithTimeout(defaultTimeout),
	}
}

// Check checks GitHub releases and returns whether an update is available.
func (c *Client) Check(ctx context.Context, req CheckRequest) (CheckResult, error) {
	osName := req.OS
	if osName == "" {
		osName = runtime.GOOS
	}
	arch := req.Arch
	if arch == "" {
		arch = runtime.GOARCH
	}

	release, err := c.fetchRelease(ctx, req.TargetVersion)
	if err != nil {
		return CheckResult{}, err
	}

	archive, sums, err := pickAssets(release, osName, arch)
	if err != nil {
		return CheckResult{}, err
	}
	updateAvailable, isDowngrade := compareRelease(req.CurrentVersion, release.TagName, req.TargetVersion != "")

	return CheckResult{
		CurrentVersion:  req.CurrentVersion,
		LatestVersion:   release.TagName,
		TargetVersion:   release.TagName,
		UpdateAvailable: updateAvailable,
		IsDowngrade:     isDowngrade,
		ReleaseName:     release.Name,
		ReleaseNotes:    release.Body,
		ReleaseURL:      release.HTMLURL,
		AssetName:       archive.Name,
		AssetURL:        archive.BrowserDownloadURL,
		ChecksumsURL:    sums.BrowserDownloadURL,
		OS:              osName,
		Arch:            arch,
	}, nil
}

// Apply downloads, verifies, and replaces the current binary.
func (c *Client) Apply(ctx context.Context, req ApplyRequest) (ApplyResult, error) {
	check := req.Check
	if !check.UpdateAvailable {
		return ApplyResult{
			Updated:    false,
			OldVersion: check.CurrentVersion,
			NewVersion: check.TargetVersion,
		}, nil
	}
	if check.IsDowngrade && !req.AllowDowngrade {
		return ApplyResult{}, fmt.Errorf("refusing downgrade from %s to %s without explicit approval", check.CurrentVersion, check.TargetVersion)
	}

	checksumsBody, err := c.download(ctx, check.ChecksumsURL)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("failed to download checksums: %w", err)
	}

	expectedChecksum, ok := parseChecksums(checksumsBody)[check.AssetName]
	if !ok {
		return ApplyResult{}, fmt.Errorf("checksums file does not contain %s", check.AssetName)
	}

	archiveBody, err := c.download(ctx, check.AssetURL)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("failed to download release asset: %w", err)
	}
	if err := verifySHA256(archiveBody, expectedChecksum); err != nil {
		return ApplyResult{}, err
	}

	binaryBody, err := extractBinary(check.AssetName, archiveBody)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("failed to extract binary from archive: %w", err)
	}

	targetPath, err := resolveBinaryPath(req.BinaryPath)
	if err != nil {
		return ApplyResult{}, err
	}

	result := ApplyResult{
		OldVersion: check.CurrentVersion,
		NewVersion: check.TargetVersion,
		BinaryPath: targetPath,
	}
	if identicalToFile(targetPath, binaryBody) {
		c.logger().Debug("release binary identical to installed binary", "path", targetPath)
		result.Identical = true
		return result, nil
	}

	writable := c.Writable
	if writable == nil {
		writable = sysexec.Writable
	}
	if c.Elevated == nil || writable(filepath.Dir(targetPath)) {
		if err := replaceBinary(targetPath, binaryBody); err != nil {
			return ApplyResult{}, err
		}
	} else {
		if err := c.replaceElevated(ctx, targetPath, binaryBody); err != nil {
			return ApplyResult{}, err
		}
		result.Elevated = true
	}

	c.logger().Info("binary replaced", "path", targetPath, "version", check.TargetVersion, "elevated", result.Elevated)
	result.Updated = true
	return result, nil
}

func (c *Client) replaceElevated(ctx context.Context, targetPath string, binaryBody []byte) error {
	staged, err := stageBinary(c.WorkDir, binaryBody, binaryMode(targetPath))
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(staged) }()

	if err := c.Elevated.InstallFile(ctx, staged, targetPath, binaryMode(targetPath)); err != nil {
		return fmt.Errorf("failed to replace executable %s: %w", targetPath, err)
	}
	return nil
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(io.Discard)
}

func identicalToFile(path string, body []byte) bool {
	current, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return sha256.Sum256(current) == sha256.Sum256(body)
}

func (c *Client) fetchRelease(ctx context.Context, targetVersion string) (*githubRelease, error) {
	apiBase := strings.TrimSuffix(strings.TrimSpace(c.APIBaseURL), "/")
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	owner := strings.TrimSpace(c.Owner)
	if owner == "" {
		owner = defaultOwner
	}
	repo := strings.TrimSpace(c.Repo)
	if repo == "" {
		repo = defaultRepo
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest", apiBase, owner, repo)
	if targetVersion != "" {
		tag := targetVersion
		if !strings.HasPrefix(tag, "v") {
			tag = "v" + tag
		}
		endpoint = fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", apiBase, owner, repo, url.PathEscape(tag))
	}

	var rel githubRelease
	if err := c.getJSON(ctx, endpoint, &rel); err != nil {
		return nil, err
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("release metadata missing tag_name")
	}
	return &rel, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	resp, err := c.httpClient().GetJSONCtx(ctx, rawURL, out, httpclient.WithGitHubAPI(c.Token))
	if err != nil {
		return err
	}
	if err := resp.Err("GitHub API request"); err != nil {
		return err
	}
	if resp.JSONErr != nil {
		return fmt.Errorf("failed to parse release metadata: %w", resp.JSONErr)
	}
	return nil
}

func (c *Client) download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.httpClient().DoCtx(ctx, http.MethodGet, rawURL, nil, httpclient.WithBearer(c.Token))
	if err != nil {
		return nil, err
	}
	if err := resp.Err("download"); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) httpClient() *httpclient.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return httpclient.NewWithTimeout(defaultTimeout)
}

// pickAssets finds the release archive for osName/arch and the checksums
// file covering it. Only linux and darwin on amd64 or arm64 are published.
func pickAssets(release *githubRelease, osName, arch string) (archive, sums githubReleaseAsset, err error) {
	if arch != "amd64" && arch != "arm64" {
		return archive, sums, fmt.Errorf("unsupported architecture for self-update: %s", arch)
	}
	if osName != "linux" && osName != "darwin" {
		return archive, sums, fmt.Errorf("unsupported OS for self-update: %s", osName)
	}

	want := assetName(osName, arch)
	marker := "_" + osName + "_" + arch
	for _, asset := range release.Assets {
		switch {
		case asset.Name == want:
			archive = asset
		case archive.Name == "" && strings.HasPrefix(asset.Name, projectName+"_") &&
			strings.Contains(asset.Name, marker) && strings.HasSuffix(asset.Name, ".tar.gz"):
			archive = asset
		case asset.Name == checksumsAssetName:
			sums = asset
		case sums.Name == "" && strings.HasSuffix(asset.Name, "_checksums.txt"):
			sums = asset
		}
	}
	if archive.Name == "" {
		return archive, sums, fmt.Errorf("release %s does not include an asset for %s/%s", release.TagName, osName, arch)
	}
	if sums.Name == "" {
		return archive, sums, fmt.Errorf("release %s does not include %s", release.TagName, checksumsAssetName)
	}
	return archive, sums, nil
}

func assetName(osName, arch string) string {
	return fmt.Sprintf("%s_%s_%s.tar.gz", projectName, osName, arch)
}

// parseChecksums reads a sha256sum listing into a map of file name to hex
// digest. Binary-mode entries ("*name") are accepted.
func parseChecksums(content []byte) map[string]string {
	sums := make(map[string]string)
	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		sums[strings.TrimPrefix(fields[1], "*")] = fields[0]
	}
	return sums
}

func verifySHA256(content []byte, expectedHex string) error {
	expected := strings.ToLower(strings.TrimSpace(expectedHex))
	sum := sha256.Sum256(content)
	if actual := hex.EncodeToString(sum[:]); expected != actual {
		return fmt.Errorf("checksum mismatch for release asset: expected %s, got %s", expected, actual)
	}
	return nil
}

// extractBinary returns the ollama-update entry of a .tar.gz release asset.
func extractBinary(name string, archiveBody []byte) ([]byte, error) {
	if !strings.HasSuffix(name, ".tar.gz") {
		return nil, fmt.Errorf("unsupported archive format for asset %s", name)
	}
	gz, err := gzip.NewReader(bytes.NewReader(archiveBody))
	if err != nil {
		return nil, err
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("binary %s not found in %s", projectName, name)
		}
		if err != nil {
			return nil, err
		}
		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != projectName {
			continue
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return nil, fmt.Errorf("archive entry %s is empty", header.Name)
		}
		return body, nil
	}
}

func resolveBinaryPath(override string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return override, nil
	}
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate current executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return path, nil
}

// compareRelease decides whether tag should replace current. Without a
// pinned version only newer releases count. A pinned version counts whenever
// it differs, and a lower pin is reported as a downgrade. Versions that are
// not semver, such as "dev" builds, always update unless the strings match.
func compareRelease(current, tag string, pinned bool) (available, downgrade bool) {
	cur := "v" + releases.StripV(current)
	next := "v" + releases.StripV(tag)
	if !semver.IsValid(cur) || !semver.IsValid(next) {
		return cur == "v" || cur != next, false
	}
	c := semver.Compare(cur, next)
	if !pinned {
		return c < 0, false
	}
	return c != 0, c > 0
}
