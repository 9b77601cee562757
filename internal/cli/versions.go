package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/draeician/ollama-update/internal/config"
	"github.com/draeician/ollama-update/internal/display"
	"github.com/draeician/ollama-update/internal/releases"
)

var (
	versionsStable bool
	versionsLimit  int
)

var releasesFactory = func(cfg config.Config) releases.Lister {
	return releases.NewClient(cfg.Releases.APIBaseURL, cfg.Releases.Owner, cfg.Releases.Repo)
}

var versionsCmd = &cobra.Command{
	Use:     "versions",
	Aliases: []string{"list-versions"},
	Short:   "List Ollama releases available to install",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersions(cmd.Context())
	},
}

func init() {
	versionsCmd.Flags().BoolVar(&versionsStable, "stable", false, "Hide prereleases")
	versionsCmd.Flags().IntVarP(&versionsLimit, "limit", "l", 0, "Show at most this many versions")
}

func runVersions(ctx context.Context) error {
	cfg := config.Get()
	lister := releasesFactory(cfg)
	opts := releases.ListOptions{StableOnly: versionsStable, Limit: versionsLimit}

	var list []releases.Release
	fetch := func() error {
		var err error
		list, err = lister.List(ctx, opts)
		return err
	}

	var err error
	if display.SpinnerShouldShow(quiet, jsonOutput, !isTerminal()) {
		err = display.SpinnerDo("Fetching Ollama releases", fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return fmt.Errorf("listing releases: %w", err)
	}

	repo := cfg.Releases.Owner + "/" + cfg.Releases.Repo
	if jsonOutput {
		res := display.VersionsJSON{Repository: repo, Versions: make([]display.ReleaseJSON, 0, len(list))}
		for _, r := range list {
			rj := display.ReleaseJSON{Version: r.Version, Tag: r.Tag, Prerelease: r.Prerelease, URL: r.URL}
			if !r.PublishedAt.IsZero() {
				rj.PublishedAt = r.PublishedAt.Format(time.RFC3339)
			}
			res.Versions = append(res.Versions, rj)
		}
		return emitJSON(res)
	}

	if quiet {
		for _, r := range list {
			outln(r.Version)
		}
		return nil
	}

	if len(list) == 0 {
		out("No releases found for %s\n", repo)
		return nil
	}

	tbl := &display.Table{
		Title:   "Available Ollama versions",
		Headers: []string{"Version", "Type", "Published"},
		NoColor: noColor,
	}
	for _, r := range list {
		published := ""
		if !r.PublishedAt.IsZero() {
			published = r.PublishedAt.Format("2006-01-02")
		}
		if r.Prerelease {
			tbl.AccentRow(r.Version, "prerelease", published)
		} else {
			tbl.Row(r.Version, "stable", published)
		}
	}
	outln(tbl.String())
	display.Hint(outWriter, "Install one with: ollama-update --set-version <version>")
	return nil
}
