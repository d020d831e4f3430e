package platform

import (
	"runtime"
	"strings"
)

// archNames maps GOARCH values to the architecture tokens used in
// manifest platform keys. Helper tool vendors publish releases under
// the traditional names, not Go's.
var archNames = map[string]string{
	"amd64": "x86_64",
	"arm64": "aarch64",
	"386":   "x86",
	"arm":   "armv7",
}

// makeKey builds a "{os}-{arch}" manifest key from GOOS/GOARCH values.
// macOS is keyed as "darwin"; unknown architectures keep the GOARCH name.
func makeKey(goos, goarch string) string {
	os := goos
	if os == "macos" {
		os = "darwin"
	}
	arch := goarch
	if mapped, ok := archNames[goarch]; ok {
		arch = mapped
	}
	return os + "-" + arch
}

// Key returns the manifest platform key for the running process.
func Key() string {
	return makeKey(runtime.GOOS, runtime.GOARCH)
}

// OSOf returns the OS prefix of a platform key (the text before the
// first separator). Used for same-OS fallback matching.
func OSOf(key string) string {
	prefix, _, _ := strings.Cut(key, "-")
	return prefix
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}
