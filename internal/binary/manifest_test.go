package binary

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseManifestPreservesOrder(t *testing.T) {
	data := []byte(`{
		"generatedAt": "2026-08-12T09:30:00Z",
		"tools": {
			"zeta": {"version": "1", "files": {}},
			"alpha": {"version": "2", "files": {}},
			"mid": {"version": "3", "files": {}}
		}
	}`)

	manifest, err := parseManifest(data)
	if err != nil {
		t.Fatalf("parseManifest() error = %v", err)
	}

	got := manifest.Tools.Names()
	want := []string{"zeta", "alpha", "mid"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestToolMapRoundTrip(t *testing.T) {
	var m ToolMap
	m.Set("yt-dlp", &ToolInfo{Version: "2026.08.10", Files: map[string]*FileInfo{}})
	m.Set("ffmpeg", &ToolInfo{Version: "7.1.1", Files: map[string]*FileInfo{}})
	m.Set("AtomicParsley", &ToolInfo{Version: "1", Files: map[string]*FileInfo{}})

	data, err := json.Marshal(&m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	ytIdx := strings.Index(string(data), "yt-dlp")
	ffIdx := strings.Index(string(data), "ffmpeg")
	apIdx := strings.Index(string(data), "AtomicParsley")
	if ytIdx < 0 || ffIdx < 0 || apIdx < 0 {
		t.Fatalf("marshaled output missing tools: %s", data)
	}
	if !(ytIdx < ffIdx && ffIdx < apIdx) {
		t.Errorf("marshaled order not preserved: %s", data)
	}

	var back ToolMap
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Len() != 3 {
		t.Errorf("Len() = %d, want 3", back.Len())
	}
	info, ok := back.Get("ffmpeg")
	if !ok || info.Version != "7.1.1" {
		t.Errorf("Get(ffmpeg) = %+v, %v", info, ok)
	}
}

func TestToolMapSetReplaces(t *testing.T) {
	var m ToolMap
	m.Set("yt-dlp", &ToolInfo{Version: "1"})
	m.Set("yt-dlp", &ToolInfo{Version: "2"})

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	info, _ := m.Get("yt-dlp")
	if info.Version != "2" {
		t.Errorf("Version = %q, want 2", info.Version)
	}
}

func TestParseManifestRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "not json"},
		{"tools is array", `{"generatedAt": "x", "tools": []}`},
		{"tool value wrong type", `{"generatedAt": "x", "tools": {"a": 7}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseManifest([]byte(tt.data)); err == nil {
				t.Error("parseManifest() expected error, got nil")
			}
		})
	}
}

func TestEmbeddedManifestParses(t *testing.T) {
	manifest, err := parseManifest(embeddedManifest)
	if err != nil {
		t.Fatalf("parseManifest(embedded) error = %v", err)
	}
	if manifest.Tools.Len() == 0 {
		t.Fatal("embedded manifest has no tools")
	}
	if manifest.GeneratedAt == "" {
		t.Error("embedded manifest missing generatedAt")
	}

	for _, name := range manifest.Tools.Names() {
		info, _ := manifest.Tools.Get(name)
		if info.Version == "" {
			t.Errorf("tool %s has no version", name)
		}
		for key, file := range info.Files {
			if file.URL == "" {
				t.Errorf("tool %s key %s has no url", name, key)
			}
			if len(file.SHA256) != 64 {
				t.Errorf("tool %s key %s sha256 length = %d, want 64", name, key, len(file.SHA256))
			}
		}
	}
}
