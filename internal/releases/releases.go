// Package releases lists the published ollama versions on GitHub.
package releases

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/draeician/ollama-update/internal/httpclient"
)

const defaultAPIBaseURL = "https://api.github.com"

// Release is one published version. Version has any leading "v" removed.
type Release struct {
	Version     string
	Tag         string
	Name        string
	Prerelease  bool
	PublishedAt time.Time
	URL         string
}

// ListOptions narrows a listing.
type ListOptions struct {
	// StableOnly drops prereleases and drafts.
	StableOnly bool
	// Limit caps the number of releases returned; zero means no cap.
	Limit int
}

// Lister lists releases newest first, in the order the API returns them.
type Lister interface {
	List(ctx context.Context, opts ListOptions) ([]Release, error)
}

// Client lists releases of Owner/Repo from the GitHub REST API.
type Client struct {
	Owner      string
	Repo       string
	APIBaseURL string
	Token      string
	HTTP       *httpclient.Client
}

type githubRelease struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
}

// NewClient returns a client for owner/repo. The GitHub token, if any, is
// read from OLLAMA_UPDATE_GITHUB_TOKEN.
func NewClient(apiBaseURL, owner, repo string) *Client {
	return &Client{
		Owner:      owner,
		Repo:       repo,
		APIBaseURL: apiBaseURL,
		Token:      strings.TrimSpace(os.Getenv("OLLAMA_UPDATE_GITHUB_TOKEN")),
		HTTP:       httpclient.New(),
	}
}

func (c *Client) List(ctx context.Context, opts ListOptions) ([]Release, error) {
	apiBase := strings.TrimSuffix(strings.TrimSpace(c.APIBaseURL), "/")
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases", apiBase, url.PathEscape(c.Owner), url.PathEscape(c.Repo))
	if opts.Limit > 0 && !opts.StableOnly && opts.Limit <= 100 {
		endpoint += fmt.Sprintf("?per_page=%d", opts.Limit)
	}

	client := c.HTTP
	if client == nil {
		client = httpclient.New()
	}

	var raw []githubRelease
	resp, err := client.GetJSONCtx(ctx, endpoint, &raw, httpclient.WithGitHubAPI(c.Token))
	if err != nil {
		return nil, fmt.Errorf("fetching releases: %w", err)
	}
	if err := resp.Err("fetching releases"); err != nil {
		return nil, err
	}
	if resp.JSONErr != nil {
		return nil, fmt.Errorf("parsing releases: %w", resp.JSONErr)
	}

	return filter(raw, opts), nil
}

func filter(raw []githubRelease, opts ListOptions) []Release {
	out := make([]Release, 0, len(raw))
	for _, r := range raw {
		if r.TagName == "" {
			continue
		}
		if opts.StableOnly && (r.Prerelease || r.Draft) {
			continue
		}
		out = append(out, Release{
			Version:     StripV(r.TagName),
			Tag:         r.TagName,
			Name:        r.Name,
			Prerelease:  r.Prerelease,
			PublishedAt: r.PublishedAt,
			URL:         r.HTMLURL,
		})
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}

// StripV removes every leading "v" from a tag, as the version shown to users
// and passed to the installer never carries one.
func StripV(tag string) string {
	return strings.TrimLeft(strings.TrimSpace(tag), "v")
}
