// Package platform resolves the running OS and architecture to the
// platform keys used by the helper-tool manifest, and detects host
// details for startup diagnostics.
//
// Manifest keys have the form "{os}-{arch}" with the original tool
// vendors' naming: "linux-x86_64", "darwin-aarch64", "windows-x86_64".
// Detection of Linux distribution details uses gopsutil and degrades
// gracefully when unavailable.
package platform

import "context"

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "windows"
	Arch     string // GOARCH value ("amd64", "arm64", ...)
	Platform string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Detector detects platform information.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// Key returns the manifest platform key for this platform.
func (i *Info) Key() string {
	return makeKey(i.OS, i.Arch)
}
