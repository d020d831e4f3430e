package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// githubPrefix is the direct-download host that proxy mirrors front.
	githubPrefix = "https://github.com/"
	// DefaultAttemptTimeout bounds each URL candidate. With one direct
	// URL and up to four proxies a tool spends at most ~50s offline.
	DefaultAttemptTimeout = 10 * time.Second
	// defaultUserAgent is sent with every download request.
	defaultUserAgent = "youtube-dl-gui/1.0"
	// downloadChunkSize is the read buffer used while streaming.
	downloadChunkSize = 64 * 1024
	// maxSignatureSize caps detached-signature downloads.
	maxSignatureSize = 1 << 20
)

// proxyEnvVar overrides the first proxy prefix tried after the direct URL.
const proxyEnvVar = "BINARIES_GH_PROXY"

// builtinProxies are tried, in order, after the direct URL and any
// user-supplied proxy when proxying is enabled.
var builtinProxies = []string{
	"https://gh-proxy.org",
	"https://hk.gh-proxy.org",
	"https://cdn.gh-proxy.org",
	"https://edgeone.gh-proxy.org",
}

// Acquirer obtains the verified raw payload for a tool's platform file
// and writes it to dest. Implementations must leave no partial dest file
// on failure and must clean up their own temp artifacts.
type Acquirer interface {
	Acquire(ctx context.Context, tool string, file *FileInfo, dest string, useProxy bool) error
	// Stage names the pipeline stage reported when acquisition fails.
	Stage() string
}

// NetworkAcquirer downloads payloads over HTTP with mirror fallback.
type NetworkAcquirer struct {
	client      *http.Client
	binDir      string
	emitter     Emitter
	log         Logger
	proxyPrefix string
	timeout     time.Duration
	userAgent   string
}

// NetworkOptions configures a NetworkAcquirer. Zero values get defaults.
type NetworkOptions struct {
	// BinDir is the tool installation directory (for keyring lookup).
	BinDir string
	// ProxyPrefix overrides the BINARIES_GH_PROXY environment variable.
	ProxyPrefix string
	// Timeout bounds each URL attempt. Defaults to DefaultAttemptTimeout.
	Timeout time.Duration
	Emitter Emitter
	Logger  Logger
}

// NewNetworkAcquirer creates a network acquisition strategy.
func NewNetworkAcquirer(opts NetworkOptions) *NetworkAcquirer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAttemptTimeout
	}
	if opts.Emitter == nil {
		opts.Emitter = NopEmitter{}
	}
	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}
	return &NetworkAcquirer{
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		binDir:      opts.BinDir,
		emitter:     opts.Emitter,
		log:         opts.Logger,
		proxyPrefix: opts.ProxyPrefix,
		timeout:     opts.Timeout,
		userAgent:   defaultUserAgent,
	}
}

// Stage implements Acquirer.
func (a *NetworkAcquirer) Stage() string {
	return StageDownloadVerify
}

// candidate pairs a payload URL with its matching signature URL, both
// rewritten through the same proxy prefix.
type candidate struct {
	url string
	sig string
}

// candidates builds the URL list: the direct URL first, then, only when
// proxying is enabled and the URL targets GitHub, the user proxy and the
// builtin proxies. Proxy URLs are "{prefix}/{original-url}".
func (a *NetworkAcquirer) candidates(file *FileInfo, useProxy bool) []candidate {
	out := []candidate{{url: file.URL, sig: file.Sig}}
	if !useProxy || !strings.HasPrefix(file.URL, githubPrefix) {
		return out
	}

	var prefixes []string
	custom := a.proxyPrefix
	if custom == "" {
		custom = os.Getenv(proxyEnvVar)
	}
	if custom = strings.TrimRight(strings.TrimSpace(custom), "/"); custom != "" {
		prefixes = append(prefixes, custom)
	}
	prefixes = append(prefixes, builtinProxies...)

	for _, prefix := range prefixes {
		c := candidate{url: prefix + "/" + file.URL}
		if file.Sig != "" {
			c.sig = prefix + "/" + file.Sig
		}
		out = append(out, c)
	}
	return out
}

// Acquire implements Acquirer. Candidates are tried in order, each under
// its own timeout so a hung connection cannot stall the run; the first
// fully verified download wins. When every candidate fails the last
// error is returned and no partial files remain.
func (a *NetworkAcquirer) Acquire(ctx context.Context, tool string, file *FileInfo, dest string, useProxy bool) error {
	var lastErr error

	for _, c := range a.candidates(file, useProxy) {
		attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
		err := a.attempt(attemptCtx, tool, c, file, dest)
		cancel()
		if err == nil {
			return nil
		}

		_ = os.Remove(dest + ".tmp")
		_ = os.Remove(dest)
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.New("download timeout")
		}
		a.log.Warn("download attempt failed", "tool", tool, "url", c.url, "error", err)
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("all download attempts failed: %w", lastErr)
}

// attempt performs one download: stream to a temp file while hashing,
// verify the digest (and signature when configured), then rename into
// place.
func (a *NetworkAcquirer) attempt(ctx context.Context, tool string, c candidate, file *FileInfo, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmpPath := dest + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	var total uint64
	if resp.ContentLength > 0 {
		total = uint64(resp.ContentLength)
	}

	dw := newDigestWriter(tmpFile)
	var received uint64
	buf := make([]byte, downloadChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := dw.Write(buf[:n]); err != nil {
				return fmt.Errorf("write payload: %w", err)
			}
			received += uint64(n)
			a.emitter.Emit(EventDownloadProgress, ToolProgress{Tool: tool, Total: total, Received: received})
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read payload: %w", readErr)
		}
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := verifyDigest(dw.Sum(), file.SHA256); err != nil {
		return err
	}

	if c.sig != "" {
		if err := a.checkSignature(ctx, tool, c.sig, tmpPath); err != nil {
			return err
		}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	cleanupNeeded = false
	return nil
}

// checkSignature fetches the detached signature and verifies the payload
// against the operator-provided keyring. No keyring on disk means the
// check is skipped; the digest remains the integrity gate.
func (a *NetworkAcquirer) checkSignature(ctx context.Context, tool, sigURL, payloadPath string) error {
	keyring := keyringPath(a.binDir, tool)
	if _, err := os.Stat(keyring); err != nil {
		a.log.Debug("no keyring for tool, skipping signature check", "tool", tool)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sigURL, nil)
	if err != nil {
		return fmt.Errorf("create signature request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("download signature: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signature download status code: %d", resp.StatusCode)
	}

	signature, err := io.ReadAll(io.LimitReader(resp.Body, maxSignatureSize))
	if err != nil {
		return fmt.Errorf("read signature: %w", err)
	}

	if err := verifyDetachedSignature(payloadPath, signature, keyring); err != nil {
		return err
	}

	a.log.Debug("signature verified", "tool", tool)
	return nil
}
