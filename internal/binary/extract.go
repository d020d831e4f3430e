package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// archiveKind is the archive family of a downloaded payload, inferred
// from its filename extension.
type archiveKind int

const (
	archiveNone archiveKind = iota
	archiveZip
	archiveTarBz2
)

// archiveKindOf classifies a payload filename.
func archiveKindOf(name string) archiveKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		return archiveZip
	case ".bz2":
		return archiveTarBz2
	default:
		return archiveNone
	}
}

// archiveBaseName strips the archive extensions from a filename:
// "ffmpeg-win64.zip" -> "ffmpeg-win64", "x.tar.bz2" -> "x".
func archiveBaseName(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, ".tar")
}

// Extractor turns verified payloads into installed executables.
type Extractor struct {
	log Logger
}

// NewExtractor creates a new extractor.
func NewExtractor(log Logger) *Extractor {
	if log == nil {
		log = defaultLogger()
	}
	return &Extractor{log: log}
}

// Install places the verified payload at archivePath onto the canonical
// path. Raw payloads are renamed directly; single-entry archives have
// one file extracted; bundle archives are extracted to a scratch folder
// whose contents are hoisted into the canonical path's directory. The
// consumed archive is always removed.
func (e *Extractor) Install(archivePath string, file *FileInfo, tool, canonical string) error {
	destDir := filepath.Dir(canonical)

	switch kind := archiveKindOf(archivePath); kind {
	case archiveNone:
		if err := os.Rename(archivePath, canonical); err != nil {
			return fmt.Errorf("install raw payload: %w", err)
		}

	default:
		if file.Bundle != nil {
			bundleDir, err := e.extractBundle(kind, archivePath, destDir, file.Bundle)
			if err != nil {
				return err
			}
			if err := os.Remove(archivePath); err != nil {
				return fmt.Errorf("remove archive: %w", err)
			}
			if err := e.hoist(bundleDir, destDir); err != nil {
				return err
			}
		} else {
			if err := e.extractEntry(kind, archivePath, canonical, file.Entry, tool); err != nil {
				return err
			}
			if err := os.Remove(archivePath); err != nil {
				return fmt.Errorf("remove archive: %w", err)
			}
		}
	}

	return ensureExecutable(canonical)
}

// wantEntry decides whether an archive member is the one to extract.
// With an explicit entry, exact path match wins and a basename match is
// accepted for archives that wrap the entry in a folder. Without one,
// the member whose basename is the tool name (or tool.exe) is taken.
func wantEntry(name, entry, tool string) bool {
	name = path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if entry != "" {
		entry = path.Clean(strings.ReplaceAll(entry, "\\", "/"))
		return name == entry || path.Base(name) == path.Base(entry)
	}
	base := path.Base(name)
	return base == tool || base == tool+".exe"
}

// extractEntry extracts the single designated member to destPath.
func (e *Extractor) extractEntry(kind archiveKind, archivePath, destPath, entry, tool string) error {
	if kind == archiveZip {
		return e.extractZipEntry(archivePath, destPath, entry, tool)
	}
	return e.extractTarBz2Entry(archivePath, destPath, entry, tool)
}

func (e *Extractor) extractZipEntry(archivePath, destPath, entry, tool string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}
	defer zr.Close()

	var pick *zip.File
	var firstRegular *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if firstRegular == nil {
			firstRegular = f
		}
		if wantEntry(f.Name, entry, tool) {
			pick = f
			break
		}
	}
	if pick == nil && entry == "" {
		// Format default: a single-file archive yields its payload.
		pick = firstRegular
	}
	if pick == nil {
		return fmt.Errorf("entry %q not found in archive", entryLabel(entry, tool))
	}

	src, err := pick.Open()
	if err != nil {
		return fmt.Errorf("open archive entry: %w", err)
	}
	defer src.Close()

	return writeExtracted(destPath, src)
}

func (e *Extractor) extractTarBz2Entry(archivePath, destPath, entry, tool string) error {
	extractMatch := func(match func(name string) bool) (bool, error) {
		archiveFile, err := os.Open(archivePath)
		if err != nil {
			return false, fmt.Errorf("open archive: %w", err)
		}
		defer archiveFile.Close()

		tr := tar.NewReader(bzip2.NewReader(archiveFile))
		for {
			header, err := tr.Next()
			if err == io.EOF {
				return false, nil
			}
			if err != nil {
				return false, fmt.Errorf("read tar header: %w", err)
			}
			if header.Typeflag != tar.TypeReg {
				continue
			}
			if match(header.Name) {
				if err := writeExtracted(destPath, tr); err != nil {
					return false, err
				}
				return true, nil
			}
		}
	}

	found, err := extractMatch(func(name string) bool { return wantEntry(name, entry, tool) })
	if err != nil {
		return err
	}
	if !found && entry == "" {
		// Format default: fall back to the first regular member.
		found, err = extractMatch(func(string) bool { return true })
		if err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("entry %q not found in archive", entryLabel(entry, tool))
	}
	return nil
}

func entryLabel(entry, tool string) string {
	if entry != "" {
		return entry
	}
	return tool
}

// writeExtracted streams an archive member to destPath with executable
// permissions.
func writeExtracted(destPath string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write file: %w", err)
	}
	return out.Close()
}

// extractBundle extracts the bundle's folder into a scratch directory
// under destDir and applies the entry rename. It returns the scratch
// directory, ready to hoist.
func (e *Extractor) extractBundle(kind archiveKind, archivePath, destDir string, bundle *BundleInfo) (string, error) {
	folderName := bundle.FolderName
	if folderName == "" {
		folderName = archiveBaseName(archivePath)
	}

	var err error
	if kind == archiveZip {
		err = e.extractZipFolder(archivePath, destDir, folderName)
	} else {
		err = e.extractTarBz2Folder(archivePath, destDir, folderName)
	}
	if err != nil {
		return "", err
	}

	bundleDir := filepath.Join(destDir, folderName)
	if _, err := os.Stat(bundleDir); err != nil {
		return "", fmt.Errorf("bundle folder %q not found in archive", folderName)
	}

	if bundle.RenameEntryTo != "" {
		entryPath := filepath.Join(bundleDir, filepath.FromSlash(bundle.Entry))
		if _, err := os.Stat(entryPath); err != nil {
			return "", fmt.Errorf("bundle entry %q missing: %w", bundle.Entry, err)
		}
		renamed := filepath.Join(filepath.Dir(entryPath), bundle.RenameEntryTo)
		if err := os.Rename(entryPath, renamed); err != nil {
			return "", fmt.Errorf("rename bundle entry: %w", err)
		}
	}

	return bundleDir, nil
}

// extractZipFolder extracts every member under folderName/ into destDir.
func (e *Extractor) extractZipFolder(archivePath, destDir, folderName string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if !insideFolder(name, folderName) {
			continue
		}

		target, err := safeTarget(destDir, name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}

		src, err := f.Open()
		if err != nil {
			return fmt.Errorf("open archive entry: %w", err)
		}
		err = writeExtracted(target, src)
		src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extractTarBz2Folder extracts every member under folderName/ into
// destDir.
func (e *Extractor) extractTarBz2Folder(archivePath, destDir, folderName string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	tr := tar.NewReader(bzip2.NewReader(archiveFile))
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		name := strings.ReplaceAll(header.Name, "\\", "/")
		if !insideFolder(name, folderName) {
			continue
		}

		target, err := safeTarget(destDir, name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeExtracted(target, tr); err != nil {
				return err
			}
		case tar.TypeSymlink:
			_ = os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", target, err)
			}
		default:
			// Skip other types (devices, fifos, ...).
		}
	}
}

// insideFolder reports whether an archive member path is the named top
// folder or lives under it.
func insideFolder(name, folderName string) bool {
	name = path.Clean(name)
	return name == folderName || strings.HasPrefix(name, folderName+"/")
}

// safeTarget joins an archive member path onto destDir, rejecting path
// traversal.
func safeTarget(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path: %s", name)
	}
	return target, nil
}

// hoist moves every direct child of bundleDir up into destDir,
// overwriting same-named entries, then removes the emptied bundleDir.
// This is a flatten-one-level move, not a recursive merge.
func (e *Extractor) hoist(bundleDir, destDir string) error {
	entries, err := os.ReadDir(bundleDir)
	if err != nil {
		return fmt.Errorf("read bundle dir: %w", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for _, entry := range entries {
		src := filepath.Join(bundleDir, entry.Name())
		dst := filepath.Join(destDir, entry.Name())

		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("clear hoist target %s: %w", dst, err)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("hoist %s: %w", entry.Name(), err)
		}
	}

	if err := os.RemoveAll(bundleDir); err != nil {
		return fmt.Errorf("remove bundle dir: %w", err)
	}

	// A nested folderName ("pkg/bin") leaves empty scratch ancestors
	// behind; os.Remove refuses non-empty directories so this stops at
	// anything still in use.
	for dir := filepath.Dir(bundleDir); dir != filepath.Clean(destDir); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			break
		}
	}

	e.log.Debug("bundle hoisted", "from", bundleDir, "to", destDir, "entries", len(entries))
	return nil
}

// ensureExecutable adds execute permission when the canonical file has
// none. One-way: broader existing permissions are never narrowed. No-op
// on Windows and for missing files (the post-install check reports
// those).
func ensureExecutable(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if info.Mode().Perm()&0o111 != 0 {
		return nil
	}

	if err := os.Chmod(path, 0o755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
