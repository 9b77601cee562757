package display

// StepJSON reports one step of the update flow.
type StepJSON struct {
	Ran     bool   `json:"ran"`
	OK      bool   `json:"ok"`
	Skipped string `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// InsertedDirectiveJSON is one directive added to the unit file.
type InsertedDirectiveJSON struct {
	Directive string `json:"directive"`
	Section   string `json:"section,omitempty"`
}

// PatchResultJSON represents the outcome of patching the unit file.
type PatchResultJSON struct {
	UnitFile string                  `json:"unit_file"`
	Changed  bool                    `json:"changed"`
	DryRun   bool                    `json:"dry_run,omitempty"`
	Inserted []InsertedDirectiveJSON `json:"inserted"`
	Error    string                  `json:"error,omitempty"`
}

// VersionCheckJSON represents the client/server version comparison.
type VersionCheckJSON struct {
	Host          string   `json:"host"`
	ClientVersion string   `json:"client_version,omitempty"`
	ServerVersion string   `json:"server_version,omitempty"`
	Match         bool     `json:"match"`
	Errors        []string `json:"errors,omitempty"`
}

// RunResultJSON is the JSON output of the default update command.
type RunResultJSON struct {
	Version      string            `json:"version,omitempty"`
	DryRun       bool              `json:"dry_run,omitempty"`
	Install      StepJSON          `json:"install"`
	VersionCheck *VersionCheckJSON `json:"version_check,omitempty"`
	Patch        PatchResultJSON   `json:"patch"`
	Restart      StepJSON          `json:"restart"`
	Success      bool              `json:"success"`
}

// ReleaseJSON is one ollama release.
type ReleaseJSON struct {
	Version     string `json:"version"`
	Tag         string `json:"tag"`
	Prerelease  bool   `json:"prerelease"`
	PublishedAt string `json:"published_at,omitempty"`
	URL         string `json:"url,omitempty"`
}

// VersionsJSON is the JSON output of the versions command.
type VersionsJSON struct {
	Repository string        `json:"repository"`
	Versions   []ReleaseJSON `json:"versions"`
}

// SetupResultJSON is the JSON output of the setup command.
type SetupResultJSON struct {
	Username       string `json:"username"`
	SudoersFile    string `json:"sudoers_file,omitempty"`
	BinaryPath     string `json:"binary_path,omitempty"`
	CompletionFile string `json:"completion_file,omitempty"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// UpdateStatusJSON is the JSON output of the self-update command.
type UpdateStatusJSON struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	TargetVersion   string `json:"target_version"`
	UpdateAvailable bool   `json:"update_available"`
	IsDowngrade     bool   `json:"is_downgrade"`
	Updated         bool   `json:"updated"`
	Identical       bool   `json:"identical,omitempty"`
	Elevated        bool   `json:"elevated,omitempty"`
	BinaryPath      string `json:"binary_path,omitempty"`
	Asset           string `json:"asset,omitempty"`
	ReleaseURL      string `json:"release_url,omitempty"`
}

// ActionResultJSON is a generic success/message response.
type ActionResultJSON struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
