package binary

import "fmt"

// Pipeline stages reported in ToolError and download_error events.
const (
	StageSelectFile       = "select_file"
	StageParseFilename    = "parse_filename"
	StageDownloadVerify   = "download_verify"
	StageReleaseVerify    = "release_verify"
	StageCanonicalPath    = "canonical_path"
	StagePostInstallCheck = "post_install_check"
)

// ToolInfo describes one helper tool in the manifest.
type ToolInfo struct {
	Version string               `json:"version"`
	Files   map[string]*FileInfo `json:"files"`
}

// FileInfo describes the platform-specific payload for a tool.
type FileInfo struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
	// Entry is the path inside a single-file archive to extract as the
	// canonical binary. Empty means the format default.
	Entry string `json:"entry,omitempty"`
	// Sig is an optional detached-signature URL checked against an
	// operator-provided keyring.
	Sig    string      `json:"sig,omitempty"`
	Bundle *BundleInfo `json:"bundle,omitempty"`
}

// BundleInfo describes an archive whose payload is a folder structure
// that gets flattened into the installation directory.
type BundleInfo struct {
	KeepFolder    bool   `json:"keepFolder,omitempty"`
	FolderName    string `json:"folderName,omitempty"`
	Entry         string `json:"entry"`
	RenameEntryTo string `json:"renameEntryTo,omitempty"`
}

// Metadata is the persisted ledger of installed tool versions.
type Metadata struct {
	Versions map[string]string `json:"versions"`
	IsLocked bool              `json:"isLocked"`
}

// ToolError records where in the pipeline a tool failed. It doubles as
// the download_error event payload.
type ToolError struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
	Stage   string `json:"stage"`
	Reason  string `json:"error"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s@%s failed at %s: %s", e.Tool, e.Version, e.Stage, e.Reason)
}

// Result aggregates one install run. Error is set only when persisting
// the ledger itself failed.
type Result struct {
	RunID     string      `json:"runId,omitempty"`
	Successes []string    `json:"successes"`
	Failures  []ToolError `json:"failures"`
	Error     string      `json:"error,omitempty"`
}

// CheckResult is the read-only preview of what Ensure would do.
type CheckResult struct {
	// Tools lists the tools that need installing.
	Tools []string `json:"tools"`
	// AllTools lists every tool installable on this platform.
	AllTools []string `json:"allTools"`
}

// HelperToolStatus is one row of the tool status listing.
type HelperToolStatus struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Installed bool   `json:"installed"`
}

// ManualToolInfo carries what a user needs to install a tool by hand.
type ManualToolInfo struct {
	URL    string `json:"url"`
	BinDir string `json:"binDir"`
}

// ToolStart is the download_start event payload.
type ToolStart struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
}

// ToolProgress is the download_progress event payload. Total is zero
// when the payload size is unknown.
type ToolProgress struct {
	Tool     string `json:"tool"`
	Total    uint64 `json:"total"`
	Received uint64 `json:"received"`
}

// ToolComplete is the download_complete event payload.
type ToolComplete struct {
	Tool string `json:"tool"`
}
