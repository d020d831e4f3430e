package binary

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSelectFile(t *testing.T) {
	files := map[string]*FileInfo{
		"linux-x86_64":   {URL: "https://example.com/linux-amd64"},
		"darwin-x86_64":  {URL: "https://example.com/darwin-amd64"},
		"darwin-aarch64": {URL: "https://example.com/darwin-arm64"},
	}

	tests := []struct {
		name    string
		key     string
		wantKey string
	}{
		{"exact match", "linux-x86_64", "linux-x86_64"},
		{"exact match arm mac", "darwin-aarch64", "darwin-aarch64"},
		{"same os fallback", "linux-aarch64", "linux-x86_64"},
		{"fallback is deterministic", "darwin-armv7", "darwin-aarch64"},
		{"no match", "windows-x86_64", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotKey, file := selectFile(files, tt.key)
			if gotKey != tt.wantKey {
				t.Errorf("selectFile(%q) key = %q, want %q", tt.key, gotKey, tt.wantKey)
			}
			if (file == nil) != (tt.wantKey == "") {
				t.Errorf("selectFile(%q) file = %v", tt.key, file)
			}
		})
	}
}

func testManifest(t *testing.T, tools ...string) *Manifest {
	t.Helper()
	manifest := &Manifest{GeneratedAt: "2026-08-12T09:30:00Z"}
	for _, name := range tools {
		manifest.Tools.Set(name, &ToolInfo{
			Version: "1.0",
			Files: map[string]*FileInfo{
				"linux-x86_64": {
					URL:    "https://example.com/" + name,
					SHA256: checksumHex([]byte(name)),
				},
			},
		})
	}
	return manifest
}

func touchCanonical(t *testing.T, binDir, tool string) {
	t.Helper()
	if err := os.WriteFile(canonicalPath(binDir, tool), []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestBuildPlan(t *testing.T) {
	binDir := t.TempDir()
	manifest := testManifest(t, "yt-dlp", "ffmpeg", "ffprobe")
	touchCanonical(t, binDir, "ffmpeg")

	meta := &Metadata{Versions: map[string]string{
		"ffmpeg":  "1.0", // current and on disk: skipped
		"ffprobe": "0.9", // stale version
	}}

	plan := buildPlan(manifest, meta, binDir, "linux-x86_64", nil)

	want := []string{"yt-dlp", "ffprobe"}
	if len(plan) != len(want) {
		t.Fatalf("plan length = %d, want %d", len(plan), len(want))
	}
	for i, name := range want {
		if plan[i].name != name {
			t.Errorf("plan[%d] = %q, want %q", i, plan[i].name, name)
		}
	}
}

func TestBuildPlanMissingBinary(t *testing.T) {
	binDir := t.TempDir()
	manifest := testManifest(t, "yt-dlp")

	// Version matches but the canonical binary is gone.
	meta := &Metadata{Versions: map[string]string{"yt-dlp": "1.0"}}

	plan := buildPlan(manifest, meta, binDir, "linux-x86_64", nil)
	if len(plan) != 1 || plan[0].name != "yt-dlp" {
		t.Errorf("plan = %v, want reinstall of yt-dlp", plan)
	}
}

func TestBuildPlanAllowFilter(t *testing.T) {
	binDir := t.TempDir()
	manifest := testManifest(t, "yt-dlp", "ffmpeg", "ffprobe")
	meta := &Metadata{Versions: map[string]string{}}

	plan := buildPlan(manifest, meta, binDir, "linux-x86_64", []string{"ffmpeg"})
	if len(plan) != 1 || plan[0].name != "ffmpeg" {
		t.Errorf("plan = %v, want only ffmpeg", plan)
	}

	// An empty non-nil allow list plans nothing.
	plan = buildPlan(manifest, meta, binDir, "linux-x86_64", []string{})
	if len(plan) != 0 {
		t.Errorf("plan = %v, want empty", plan)
	}
}

func TestBuildPlanSkipsUnsupportedPlatform(t *testing.T) {
	binDir := t.TempDir()
	manifest := testManifest(t, "yt-dlp")
	meta := &Metadata{Versions: map[string]string{}}

	plan := buildPlan(manifest, meta, binDir, "windows-x86_64", nil)
	if len(plan) != 0 {
		t.Errorf("plan = %v, want empty for unsupported platform", plan)
	}
}

func TestCanonicalPath(t *testing.T) {
	got := canonicalPath(filepath.Join("home", "bin"), "yt-dlp")
	if filepath.Dir(got) != filepath.Join("home", "bin") {
		t.Errorf("canonicalPath dir = %q", filepath.Dir(got))
	}
	base := filepath.Base(got)
	if base != "yt-dlp" && base != "yt-dlp.exe" {
		t.Errorf("canonicalPath base = %q", base)
	}
}
