package binary

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMetadataMissingFile(t *testing.T) {
	meta, err := loadMetadata(filepath.Join(t.TempDir(), "metadata.json"))
	if err != nil {
		t.Fatalf("loadMetadata() error = %v", err)
	}
	if meta.Versions == nil {
		t.Fatal("Versions not initialized")
	}
	if len(meta.Versions) != 0 || meta.IsLocked {
		t.Errorf("expected empty unlocked ledger, got %+v", meta)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")

	meta := &Metadata{
		Versions: map[string]string{"yt-dlp": "2026.08.10", "ffmpeg": "7.1.1"},
		IsLocked: true,
	}
	if err := saveMetadata(path, meta); err != nil {
		t.Fatalf("saveMetadata() error = %v", err)
	}

	got, err := loadMetadata(path)
	if err != nil {
		t.Fatalf("loadMetadata() error = %v", err)
	}
	if got.Versions["yt-dlp"] != "2026.08.10" || got.Versions["ffmpeg"] != "7.1.1" {
		t.Errorf("Versions = %v", got.Versions)
	}
	if !got.IsLocked {
		t.Error("IsLocked not persisted")
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

func TestLoadMetadataCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadMetadata(path); err == nil {
		t.Error("loadMetadata() expected error for corrupt file")
	}
}

func TestLoadMetadataNilVersions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(`{"isLocked": false}`), 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := loadMetadata(path)
	if err != nil {
		t.Fatalf("loadMetadata() error = %v", err)
	}
	if meta.Versions == nil {
		t.Error("Versions map not initialized for legacy ledger")
	}
}
