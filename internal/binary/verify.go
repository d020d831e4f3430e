package binary

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// ErrChecksumMismatch is returned when a payload's digest does not match
// the manifest's expected digest.
var ErrChecksumMismatch = errors.New("sha256 mismatch")

// digestWriter tees written bytes into a SHA256 hasher, so payloads are
// hashed while they stream to disk.
type digestWriter struct {
	w io.Writer
	h hash.Hash
}

func newDigestWriter(w io.Writer) *digestWriter {
	return &digestWriter{w: w, h: sha256.New()}
}

func (d *digestWriter) Write(p []byte) (int, error) {
	d.h.Write(p)
	return d.w.Write(p)
}

// Sum returns the lowercase hex digest of everything written so far.
func (d *digestWriter) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

// checksumHex returns the lowercase hex SHA256 of a buffer.
func checksumHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// verifyDigest compares an actual digest to the manifest's expected one.
// The manifest is expected to carry lowercase hex; comparison tolerates
// case to be safe against hand-edited manifests.
func verifyDigest(actual, expected string) error {
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w: actual %s, expected %s", ErrChecksumMismatch, actual, expected)
	}
	return nil
}

// keyringPath returns where an operator-provided armored keyring for a
// tool lives. Signature checks are skipped when the file is absent.
func keyringPath(binDir, tool string) string {
	return filepath.Join(binDir, "keyrings", tool+".asc")
}

// loadKeyring reads an armored (or raw) OpenPGP keyring file.
func loadKeyring(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		if _, err := keyringFile.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind keyring: %w", err)
		}
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, errors.New("keyring is empty")
	}
	return keyring, nil
}

// verifyDetachedSignature checks a payload file against a detached
// signature using the keyring at keyringFile. Armored signatures are
// tried first, then binary.
func verifyDetachedSignature(payloadPath string, signature []byte, keyringFile string) error {
	keyring, err := loadKeyring(keyringFile)
	if err != nil {
		return err
	}

	payload, err := os.Open(payloadPath)
	if err != nil {
		return fmt.Errorf("open payload: %w", err)
	}
	defer payload.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, payload, bytes.NewReader(signature), nil)
	if err != nil {
		if _, seekErr := payload.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("rewind payload: %w", seekErr)
		}
		_, err = openpgp.CheckDetachedSignature(keyring, payload, bytes.NewReader(signature), nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}
