package binary

import (
	"encoding/json"
	"fmt"
	"os"
)

// metadataFile is the ledger filename inside the bin directory.
const metadataFile = "metadata.json"

// loadMetadata reads the ledger. A missing file yields an empty ledger;
// a present but unparseable file is an error.
func loadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Metadata{Versions: make(map[string]string)}, nil
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if meta.Versions == nil {
		meta.Versions = make(map[string]string)
	}
	return &meta, nil
}

// saveMetadata writes the whole ledger atomically: temp file in the same
// directory, then rename. Old content is never observable half-written.
func saveMetadata(path string, meta *Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write metadata temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename metadata temp file: %w", err)
	}

	return nil
}
