package binary

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
)

// Embedded manifest pinning helper tool versions to this application
// release. Loaded fresh per run, never fetched from the network.
//
//go:embed manifest.json
var embeddedManifest []byte

// Manifest is the versioned catalog of helper tools.
type Manifest struct {
	AppVersion  string  `json:"appVersion,omitempty"`
	GeneratedAt string  `json:"generatedAt"`
	Tools       ToolMap `json:"tools"`
}

// ToolMap is an ordered map of tool name to ToolInfo. JSON object order
// is preserved so listings and install plans are deterministic.
type ToolMap struct {
	names  []string
	byName map[string]*ToolInfo
}

// Len returns the number of tools.
func (m *ToolMap) Len() int {
	return len(m.names)
}

// Names returns the tool names in manifest order.
func (m *ToolMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Get returns the ToolInfo for a name.
func (m *ToolMap) Get(name string) (*ToolInfo, bool) {
	info, ok := m.byName[name]
	return info, ok
}

// Set appends or replaces a tool, preserving first-insertion order.
// Used by tests to build manifests programmatically.
func (m *ToolMap) Set(name string, info *ToolInfo) {
	if m.byName == nil {
		m.byName = make(map[string]*ToolInfo)
	}
	if _, exists := m.byName[name]; !exists {
		m.names = append(m.names, name)
	}
	m.byName[name] = info
}

// UnmarshalJSON decodes the tools object while recording key order.
func (m *ToolMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read tools: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("tools: expected object, got %v", tok)
	}

	m.names = nil
	m.byName = make(map[string]*ToolInfo)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read tool name: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("tools: expected string key, got %v", keyTok)
		}

		var info ToolInfo
		if err := dec.Decode(&info); err != nil {
			return fmt.Errorf("decode tool %s: %w", name, err)
		}
		m.Set(name, &info)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read tools: %w", err)
	}
	return nil
}

// MarshalJSON encodes the tools object in manifest order.
func (m *ToolMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range m.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.byName[name])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// parseManifest decodes manifest JSON.
func parseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}
