package binary

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/xidear/youtube-dl-gui/internal/platform"
)

// planEntry is one tool scheduled for installation.
type planEntry struct {
	name string
	info *ToolInfo
}

// selectFile picks the file descriptor for a platform key. An exact key
// match wins; otherwise the first entry sharing the key's OS prefix is
// used as a same-OS/different-arch fallback (keys are scanned in sorted
// order so the fallback is deterministic). Returns nil when the platform
// is unsupported; callers decide whether that is an error.
func selectFile(files map[string]*FileInfo, key string) (string, *FileInfo) {
	if file, ok := files[key]; ok {
		return key, file
	}

	osPrefix := platform.OSOf(key)
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if platform.OSOf(k) == osPrefix {
			return k, files[k]
		}
	}
	return "", nil
}

// canonicalPath returns the install location for a tool's executable:
// {binDir}/{tool} on POSIX, {binDir}/{tool}.exe on Windows.
func canonicalPath(binDir, tool string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(binDir, tool+".exe")
	}
	return filepath.Join(binDir, tool)
}

// buildPlan diffs the manifest against the ledger and the filesystem.
// A tool is planned iff a file exists for the platform key and either
// the recorded version differs from the manifest version or the
// canonical binary is missing on disk. Order follows the manifest.
func buildPlan(manifest *Manifest, meta *Metadata, binDir, key string, allow []string) []planEntry {
	var allowed map[string]bool
	if allow != nil {
		allowed = make(map[string]bool, len(allow))
		for _, name := range allow {
			allowed[name] = true
		}
	}

	var plan []planEntry
	for _, name := range manifest.Tools.Names() {
		if allowed != nil && !allowed[name] {
			continue
		}

		info, _ := manifest.Tools.Get(name)
		if _, file := selectFile(info.Files, key); file == nil {
			continue
		}

		versionOK := meta.Versions[name] == info.Version
		_, statErr := os.Stat(canonicalPath(binDir, name))

		if !versionOK || statErr != nil {
			plan = append(plan, planEntry{name: name, info: info})
		}
	}
	return plan
}
