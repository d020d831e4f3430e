package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/xidear/youtube-dl-gui/internal/platform"
	"github.com/xidear/youtube-dl-gui/internal/runlock"
)

// ErrToolsFailed is returned by Ensure when at least one planned tool
// did not install. Per-tool details travel in the emitted events and
// the aggregate result, not in this error.
var ErrToolsFailed = errors.New("one or more tools failed to install")

// Manager orchestrates helper tool planning, acquisition, verification,
// and installation. Ensure and RedownloadAll are single-flight: a second
// concurrent call returns immediately as a no-op success.
type Manager struct {
	binDir       string
	platformKey  string
	acquirer     Acquirer
	extractor    *Extractor
	emitter      Emitter
	log          Logger
	manifestData []byte
	running      atomic.Bool
}

// Config holds configuration for the manager.
type Config struct {
	// BinDir is the tool installation directory. Required.
	BinDir string
	// Acquirer is the acquisition strategy. Defaults to a NetworkAcquirer;
	// embedded-release builds pass an EmbeddedAcquirer instead.
	Acquirer Acquirer
	// PlatformKey overrides the detected "{os}-{arch}" key (tests).
	PlatformKey string
	// ManifestData overrides the embedded manifest (tests).
	ManifestData []byte
	Emitter      Emitter
	Logger       Logger
}

// NewManager creates a new helper tool manager.
func NewManager(config Config) (*Manager, error) {
	if config.BinDir == "" {
		return nil, errors.New("BinDir is required")
	}
	if config.Emitter == nil {
		config.Emitter = NopEmitter{}
	}
	if config.Logger == nil {
		config.Logger = defaultLogger()
	}
	if config.PlatformKey == "" {
		config.PlatformKey = platform.Key()
	}
	if config.ManifestData == nil {
		config.ManifestData = embeddedManifest
	}
	if config.Acquirer == nil {
		config.Acquirer = NewNetworkAcquirer(NetworkOptions{
			BinDir:  config.BinDir,
			Emitter: config.Emitter,
			Logger:  config.Logger,
		})
	}

	return &Manager{
		binDir:       config.BinDir,
		platformKey:  config.PlatformKey,
		acquirer:     config.Acquirer,
		extractor:    NewExtractor(config.Logger),
		emitter:      config.Emitter,
		log:          config.Logger,
		manifestData: config.ManifestData,
	}, nil
}

// BinDir returns the tool installation directory.
func (m *Manager) BinDir() string {
	return m.binDir
}

// ToolPath returns the canonical path of a tool's executable.
func (m *Manager) ToolPath(tool string) string {
	return canonicalPath(m.binDir, tool)
}

// manifest parses the manifest fresh. Each run sees a consistent,
// immutable snapshot and nothing is cached across calls.
func (m *Manager) manifest() (*Manifest, error) {
	return parseManifest(m.manifestData)
}

func (m *Manager) metadataPath() string {
	return filepath.Join(m.binDir, metadataFile)
}

// Check previews what Ensure would install. Read-only: no downloads, no
// ledger writes, no events. A locked ledger freezes the tool set and
// yields empty lists.
func (m *Manager) Check() (*CheckResult, error) {
	if err := os.MkdirAll(m.binDir, 0o755); err != nil {
		return nil, fmt.Errorf("create bin dir: %w", err)
	}

	meta, err := loadMetadata(m.metadataPath())
	if err != nil {
		return nil, err
	}
	if meta.IsLocked {
		return &CheckResult{Tools: []string{}, AllTools: []string{}}, nil
	}

	manifest, err := m.manifest()
	if err != nil {
		return nil, err
	}

	allTools := make([]string, 0, manifest.Tools.Len())
	for _, name := range manifest.Tools.Names() {
		info, _ := manifest.Tools.Get(name)
		if _, file := selectFile(info.Files, m.platformKey); file != nil {
			allTools = append(allTools, name)
		}
	}

	plan := buildPlan(manifest, meta, m.binDir, m.platformKey, nil)
	tools := make([]string, 0, len(plan))
	for _, entry := range plan {
		tools = append(tools, entry.name)
	}

	return &CheckResult{Tools: tools, AllTools: allTools}, nil
}

// Ensure installs every planned tool. allow, when non-nil, restricts the
// plan to the named tools; useProxy enables GitHub proxy-mirror
// fallback. One tool's failure never aborts the rest; the ledger is
// persisted once at the end recording only the tools that installed.
// Returns ErrToolsFailed when any tool failed, or the ledger write error
// when persisting failed. Concurrent calls are a no-op success.
func (m *Manager) Ensure(ctx context.Context, allow []string, useProxy bool) error {
	if !m.running.CompareAndSwap(false, true) {
		m.log.Info("install run already in progress, skipping")
		return nil
	}
	defer m.running.Store(false)

	lock, err := m.acquireRunLock()
	if err != nil {
		return err
	}
	if lock == nil {
		return nil
	}
	defer lock.Release()

	return m.ensure(ctx, allow, useProxy)
}

// acquireRunLock takes the cross-process install lock. A held lock is
// the no-op success case, mirroring the in-process guard; nil, nil
// means skip the run.
func (m *Manager) acquireRunLock() (*runlock.Lock, error) {
	lock, err := runlock.Acquire(m.binDir)
	if err != nil {
		if errors.Is(err, runlock.ErrLockExists) {
			m.log.Info("another process is installing, skipping")
			return nil, nil
		}
		return nil, err
	}
	return lock, nil
}

// RedownloadAll clears the version ledger so every tool is re-planned,
// then runs a full install with proxy fallback enabled. A locked ledger
// is unlocked first. Concurrent calls are a no-op success.
func (m *Manager) RedownloadAll(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		m.log.Info("install run already in progress, skipping")
		return nil
	}
	defer m.running.Store(false)

	lock, err := m.acquireRunLock()
	if err != nil {
		return err
	}
	if lock == nil {
		return nil
	}
	defer lock.Release()

	if err := os.MkdirAll(m.binDir, 0o755); err != nil {
		return fmt.Errorf("create bin dir: %w", err)
	}

	meta, err := loadMetadata(m.metadataPath())
	if err != nil {
		return err
	}
	meta.Versions = make(map[string]string)
	meta.IsLocked = false
	if err := saveMetadata(m.metadataPath(), meta); err != nil {
		return err
	}

	return m.ensure(ctx, nil, true)
}

func (m *Manager) ensure(ctx context.Context, allow []string, useProxy bool) error {
	if err := os.MkdirAll(m.binDir, 0o755); err != nil {
		return fmt.Errorf("create bin dir: %w", err)
	}

	meta, err := loadMetadata(m.metadataPath())
	if err != nil {
		return err
	}
	if meta.IsLocked {
		m.log.Info("ledger is locked, leaving tool set frozen")
		return nil
	}

	manifest, err := m.manifest()
	if err != nil {
		return err
	}

	plan := buildPlan(manifest, meta, m.binDir, m.platformKey, allow)
	if len(plan) == 0 {
		return nil
	}

	runID := uuid.NewString()
	m.log.Info("install run started", "run_id", runID, "planned", len(plan), "platform", m.platformKey)

	successes := []string{}
	failures := []ToolError{}
	for _, entry := range plan {
		if toolErr := m.installTool(ctx, entry.name, entry.info, useProxy); toolErr != nil {
			m.log.Error("tool install failed",
				"run_id", runID, "tool", entry.name, "stage", toolErr.Stage, "error", toolErr.Reason)
			failures = append(failures, *toolErr)
			continue
		}
		meta.Versions[entry.name] = entry.info.Version
		successes = append(successes, entry.name)
		m.log.Info("tool installed", "run_id", runID, "tool", entry.name, "version", entry.info.Version)
	}

	meta.IsLocked = false

	if err := saveMetadata(m.metadataPath(), meta); err != nil {
		m.emitter.Emit(EventUpdateComplete, Result{
			RunID:     runID,
			Successes: successes,
			Failures:  failures,
			Error:     err.Error(),
		})
		return err
	}

	m.emitter.Emit(EventUpdateComplete, Result{
		RunID:     runID,
		Successes: successes,
		Failures:  failures,
	})

	if len(failures) > 0 {
		return ErrToolsFailed
	}
	return nil
}

// installTool runs the per-tool pipeline. Any failure is mapped to a
// stage-tagged ToolError, emitted immediately, and returned; it never
// propagates as a run-level error.
func (m *Manager) installTool(ctx context.Context, name string, info *ToolInfo, useProxy bool) *ToolError {
	_, file := selectFile(info.Files, m.platformKey)
	if file == nil {
		return m.failStage(name, info.Version, StageSelectFile, "no compatible file for current platform")
	}

	filename := file.URL[strings.LastIndex(file.URL, "/")+1:]
	if filename == "" {
		return m.failStage(name, info.Version, StageParseFilename, "missing file name in URL")
	}
	dest := filepath.Join(m.binDir, filename)
	canonical := canonicalPath(m.binDir, name)

	m.emitter.Emit(EventDownloadStart, ToolStart{Tool: name, Version: info.Version})

	if err := m.acquirer.Acquire(ctx, name, file, dest, useProxy); err != nil {
		if errors.Is(err, ErrNoEmbeddedBinaries) {
			return m.failStage(name, info.Version, m.acquirer.Stage(), err.Error())
		}
		return m.failStage(name, info.Version, m.acquirer.Stage(),
			manualInstallMessage(file.URL, canonical, m.binDir, err))
	}

	if err := m.extractor.Install(dest, file, name, canonical); err != nil {
		_ = os.Remove(dest)
		return m.failStage(name, info.Version, m.acquirer.Stage(), err.Error())
	}

	if _, err := os.Stat(canonical); err != nil {
		return m.failStage(name, info.Version, StagePostInstallCheck,
			fmt.Sprintf("canonical binary missing after install: %s", canonical))
	}

	m.emitter.Emit(EventDownloadComplete, ToolComplete{Tool: name})
	return nil
}

// failStage emits a download_error event and returns the matching
// ToolError.
func (m *Manager) failStage(name, version, stage, reason string) *ToolError {
	toolErr := &ToolError{Tool: name, Version: version, Stage: stage, Reason: reason}
	m.emitter.Emit(EventDownloadError, *toolErr)
	return toolErr
}

// manualInstallMessage renders the recovery instruction shown when every
// acquisition candidate failed.
func manualInstallMessage(url, canonical, binDir string, cause error) string {
	return fmt.Sprintf(
		"All download attempts failed (%v).\n\n"+
			"Manual installation:\n"+
			"1. Open in a browser: %s\n"+
			"2. Download, extract if needed, and place %s into:\n%s",
		cause, url, canonical, binDir)
}

// ListTools returns every tool name declared in the manifest, in
// manifest order.
func (m *Manager) ListTools() ([]string, error) {
	manifest, err := m.manifest()
	if err != nil {
		return nil, err
	}
	return manifest.Tools.Names(), nil
}

// ListToolsWithStatus returns the manifest tools installable on this
// platform with their pinned version and install state. Read-only.
func (m *Manager) ListToolsWithStatus() ([]HelperToolStatus, error) {
	manifest, err := m.manifest()
	if err != nil {
		return nil, err
	}

	meta, err := loadMetadata(m.metadataPath())
	if err != nil {
		return nil, err
	}

	out := []HelperToolStatus{}
	for _, name := range manifest.Tools.Names() {
		info, _ := manifest.Tools.Get(name)
		if _, file := selectFile(info.Files, m.platformKey); file == nil {
			continue
		}

		versionOK := meta.Versions[name] == info.Version
		_, statErr := os.Stat(canonicalPath(m.binDir, name))
		out = append(out, HelperToolStatus{
			Name:      name,
			Version:   info.Version,
			Installed: versionOK && statErr == nil,
		})
	}
	return out, nil
}

// RemoveTool drops a tool's ledger entry and deletes its installed
// binary so the next Ensure reinstalls it. Removing the file is
// best-effort.
func (m *Manager) RemoveTool(name string) error {
	meta, err := loadMetadata(m.metadataPath())
	if err != nil {
		return err
	}
	delete(meta.Versions, name)
	if err := saveMetadata(m.metadataPath(), meta); err != nil {
		return err
	}

	_ = os.Remove(canonicalPath(m.binDir, name))
	return nil
}

// ToolManualInfo returns the current platform's download URL and the
// installation directory for manual installs.
func (m *Manager) ToolManualInfo(name string) (*ManualToolInfo, error) {
	manifest, err := m.manifest()
	if err != nil {
		return nil, err
	}

	info, ok := manifest.Tools.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	_, file := selectFile(info.Files, m.platformKey)
	if file == nil {
		return nil, fmt.Errorf("no file for current platform: %s", name)
	}

	return &ManualToolInfo{URL: file.URL, BinDir: m.binDir}, nil
}
