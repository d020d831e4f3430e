package binary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	name    string
	payload any
}

func (r *recordingEmitter) Emit(event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: event, payload: payload})
}

func (r *recordingEmitter) named(event string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.name == event {
			out = append(out, e)
		}
	}
	return out
}

func TestNetworkAcquirerSuccess(t *testing.T) {
	payload := []byte("the tool binary")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	binDir := t.TempDir()
	emitter := &recordingEmitter{}
	acquirer := NewNetworkAcquirer(NetworkOptions{BinDir: binDir, Emitter: emitter})

	dest := filepath.Join(binDir, "yt-dlp_linux")
	file := &FileInfo{URL: server.URL + "/yt-dlp_linux", SHA256: checksumHex(payload)}

	if err := acquirer.Acquire(context.Background(), "yt-dlp", file, dest, false); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("dest not written: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("dest content = %q", got)
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	progress := emitter.named(EventDownloadProgress)
	if len(progress) == 0 {
		t.Fatal("no progress events emitted")
	}
	last := progress[len(progress)-1].payload.(ToolProgress)
	if last.Received != uint64(len(payload)) {
		t.Errorf("final Received = %d, want %d", last.Received, len(payload))
	}
}

func TestNetworkAcquirerChecksumMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tampered"))
	}))
	defer server.Close()

	binDir := t.TempDir()
	acquirer := NewNetworkAcquirer(NetworkOptions{BinDir: binDir})

	dest := filepath.Join(binDir, "yt-dlp_linux")
	file := &FileInfo{URL: server.URL + "/yt-dlp_linux", SHA256: checksumHex([]byte("expected"))}

	err := acquirer.Acquire(context.Background(), "yt-dlp", file, dest, false)
	if err == nil {
		t.Fatal("Acquire() expected error")
	}
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("error %v does not wrap ErrChecksumMismatch", err)
	}

	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("dest left behind after failed verify")
	}
	if _, statErr := os.Stat(dest + ".tmp"); !os.IsNotExist(statErr) {
		t.Error("temp file left behind after failed verify")
	}
}

func TestNetworkAcquirerBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	binDir := t.TempDir()
	acquirer := NewNetworkAcquirer(NetworkOptions{BinDir: binDir})

	dest := filepath.Join(binDir, "tool")
	file := &FileInfo{URL: server.URL + "/tool", SHA256: checksumHex([]byte("x"))}

	err := acquirer.Acquire(context.Background(), "tool", file, dest, false)
	if err == nil {
		t.Fatal("Acquire() expected error")
	}
	if !strings.Contains(err.Error(), "all download attempts failed") {
		t.Errorf("error = %v, want wrapped attempt failure", err)
	}
}

func TestNetworkAcquirerTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	binDir := t.TempDir()
	acquirer := NewNetworkAcquirer(NetworkOptions{BinDir: binDir, Timeout: 50 * time.Millisecond})

	dest := filepath.Join(binDir, "tool")
	file := &FileInfo{URL: server.URL + "/tool", SHA256: checksumHex([]byte("x"))}

	start := time.Now()
	err := acquirer.Acquire(context.Background(), "tool", file, dest, false)
	if err == nil {
		t.Fatal("Acquire() expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Acquire() took %v, timeout not enforced", elapsed)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("dest left behind after timeout")
	}
}

func TestNetworkAcquirerRespectsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	binDir := t.TempDir()
	acquirer := NewNetworkAcquirer(NetworkOptions{BinDir: binDir})
	file := &FileInfo{URL: server.URL + "/tool", SHA256: checksumHex([]byte("x"))}

	err := acquirer.Acquire(ctx, "tool", file, filepath.Join(binDir, "tool"), false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
}

func TestCandidates(t *testing.T) {
	githubURL := "https://github.com/yt-dlp/yt-dlp/releases/download/v1/yt-dlp"

	t.Run("proxy disabled", func(t *testing.T) {
		a := NewNetworkAcquirer(NetworkOptions{})
		got := a.candidates(&FileInfo{URL: githubURL}, false)
		if len(got) != 1 || got[0].url != githubURL {
			t.Errorf("candidates = %v, want direct only", got)
		}
	})

	t.Run("non github url never proxied", func(t *testing.T) {
		a := NewNetworkAcquirer(NetworkOptions{})
		url := "https://example.com/tool"
		got := a.candidates(&FileInfo{URL: url}, true)
		if len(got) != 1 || got[0].url != url {
			t.Errorf("candidates = %v, want direct only", got)
		}
	})

	t.Run("github url gets builtin mirrors", func(t *testing.T) {
		a := NewNetworkAcquirer(NetworkOptions{})
		got := a.candidates(&FileInfo{URL: githubURL}, true)
		if len(got) != 1+len(builtinProxies) {
			t.Fatalf("candidates length = %d, want %d", len(got), 1+len(builtinProxies))
		}
		if got[0].url != githubURL {
			t.Errorf("first candidate = %q, want direct URL", got[0].url)
		}
		if got[1].url != builtinProxies[0]+"/"+githubURL {
			t.Errorf("second candidate = %q", got[1].url)
		}
	})

	t.Run("custom proxy tried before builtins", func(t *testing.T) {
		a := NewNetworkAcquirer(NetworkOptions{ProxyPrefix: "https://mirror.internal/"})
		got := a.candidates(&FileInfo{URL: githubURL}, true)
		if len(got) != 2+len(builtinProxies) {
			t.Fatalf("candidates length = %d, want %d", len(got), 2+len(builtinProxies))
		}
		if got[1].url != "https://mirror.internal/"+githubURL {
			t.Errorf("custom proxy candidate = %q", got[1].url)
		}
	})

	t.Run("proxy env variable", func(t *testing.T) {
		t.Setenv(proxyEnvVar, "https://env.mirror")
		a := NewNetworkAcquirer(NetworkOptions{})
		got := a.candidates(&FileInfo{URL: githubURL}, true)
		if got[1].url != "https://env.mirror/"+githubURL {
			t.Errorf("env proxy candidate = %q", got[1].url)
		}
	})

	t.Run("signature url rewritten alongside", func(t *testing.T) {
		a := NewNetworkAcquirer(NetworkOptions{ProxyPrefix: "https://mirror.internal"})
		got := a.candidates(&FileInfo{URL: githubURL, Sig: githubURL + ".sig"}, true)
		if got[1].sig != "https://mirror.internal/"+githubURL+".sig" {
			t.Errorf("proxied sig = %q", got[1].sig)
		}
	})
}

func TestNetworkAcquirerMirrorFallback(t *testing.T) {
	payload := []byte("mirrored payload")

	// The mirror receives "{prefix}/{original-url}" style paths; serve the
	// payload for anything, the way public gh proxies do.
	var mirrorHits int
	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mirrorHits++
		w.Write(payload)
	}))
	defer mirror.Close()

	binDir := t.TempDir()
	acquirer := NewNetworkAcquirer(NetworkOptions{
		BinDir:      binDir,
		ProxyPrefix: mirror.URL,
		Timeout:     2 * time.Second,
	})
	// Point the direct URL at a closed port so the first attempt fails
	// fast and the custom mirror is tried next.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	// Only github URLs fan out to mirrors; rewrite candidates manually by
	// exercising the attempt order through a github-shaped URL is not
	// possible against local servers, so verify the fallback loop itself:
	// first candidate dead, second candidate live.
	file := &FileInfo{URL: deadURL + "/tool", SHA256: checksumHex(payload)}
	dest := filepath.Join(binDir, "tool")

	cands := []candidate{
		{url: file.URL},
		{url: mirror.URL + "/tool"},
	}
	var lastErr error
	acquired := false
	for _, c := range cands {
		ctx, cancel := context.WithTimeout(context.Background(), acquirer.timeout)
		err := acquirer.attempt(ctx, "tool", c, file, dest)
		cancel()
		if err == nil {
			acquired = true
			break
		}
		lastErr = err
	}

	if !acquired {
		t.Fatalf("no candidate succeeded, last error = %v", lastErr)
	}
	if lastErr == nil {
		t.Error("dead candidate unexpectedly succeeded")
	}
	if mirrorHits != 1 {
		t.Errorf("mirror hits = %d, want 1", mirrorHits)
	}
	got, err := os.ReadFile(dest)
	if err != nil || string(got) != string(payload) {
		t.Errorf("dest = %q, %v", got, err)
	}
}
