package serve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/skip2/go-qrcode"
)

type upstream struct {
	*httptest.Server
	hits atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		switch r.URL.Path {
		case "/", "/index.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html>board</html>")
		case "/static/music/Foo Bar_HIT.mp3":
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = io.WriteString(w, "ID3")
		case "/echo":
			_, _ = io.WriteString(w, r.Method)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(u.Close)
	return u
}

func newCache(t *testing.T, up *upstream) *Cache {
	t.Helper()
	base, err := url.Parse(up.URL)
	if err != nil {
		t.Fatal(err)
	}
	return &Cache{Root: t.TempDir(), Name: CacheName, Upstream: base, Client: up.Client()}
}

func get(t *testing.T, c *Cache, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestCache_InstallThenServeOffline(t *testing.T) {
	up := newUpstream(t)
	c := newCache(t, up)

	if err := c.Install(context.Background(), []string{"./", "./index.html", "static/music/Foo Bar_HIT.mp3"}); err != nil {
		t.Fatalf("Install: %v", err)
	}
	up.Close()

	tests := []struct {
		path        string
		body        string
		contentType string
	}{
		{"/", "<html>board</html>", "text/html"},
		{"/index.html", "<html>board</html>", "text/html"},
		{"/static/music/Foo%20Bar_HIT.mp3", "ID3", "audio/mpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, c, tt.path)
			if rec.Code != http.StatusOK || rec.Body.String() != tt.body {
				t.Fatalf("got %d %q", rec.Code, rec.Body.String())
			}
			if rec.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
			}
			if rec.Header().Get("X-Cache") != "hit" {
				t.Errorf("served from %q, want cache hit", rec.Header().Get("X-Cache"))
			}
		})
	}
}

func TestCache_InstallReportsFailures(t *testing.T) {
	up := newUpstream(t)
	c := newCache(t, up)
	err := c.Install(context.Background(), []string{"./index.html", "missing.css"})
	if !errors.Is(err, errUpstreamStatus) {
		t.Fatalf("err = %v, want upstream status error", err)
	}
	// the good asset is still cached
	if _, _, ok := c.Lookup(&url.URL{Path: "/index.html"}); !ok {
		t.Error("index.html not cached after partial install")
	}
}

func TestCache_WriteBack(t *testing.T) {
	up := newUpstream(t)
	c := newCache(t, up)

	first := get(t, c, "/index.html")
	if first.Header().Get("X-Cache") != "miss" || first.Body.String() != "<html>board</html>" {
		t.Fatalf("first = %q %q", first.Header().Get("X-Cache"), first.Body.String())
	}
	hits := up.hits.Load()
	second := get(t, c, "/index.html")
	if second.Header().Get("X-Cache") != "hit" {
		t.Error("second request not served from cache")
	}
	if up.hits.Load() != hits {
		t.Error("cached request went upstream")
	}

	// errors are passed on but not cached
	if rec := get(t, c, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("missing asset = %d", rec.Code)
	}
	if _, _, ok := c.Lookup(&url.URL{Path: "/nope"}); ok {
		t.Error("404 response was cached")
	}
}

func TestCache_OfflineMiss(t *testing.T) {
	up := newUpstream(t)
	c := newCache(t, up)
	up.Close()
	if rec := get(t, c, "/index.html"); rec.Code != http.StatusBadGateway {
		t.Errorf("offline miss = %d, want 502", rec.Code)
	}
}

func TestCache_PassThroughNonGET(t *testing.T) {
	up := newUpstream(t)
	c := newCache(t, up)
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", nil))
	if rec.Body.String() != http.MethodPost {
		t.Errorf("body = %q", rec.Body.String())
	}
	if _, _, ok := c.Lookup(&url.URL{Path: "/echo"}); ok {
		t.Error("POST response was cached")
	}
}

func TestCache_Activate(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{CacheName, "djpult-cache-v0", "other"} {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	c := &Cache{Root: root, Name: CacheName}
	if err := c.Activate(); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != CacheName {
		t.Errorf("left %v", entries)
	}

	if err := (&Cache{Root: filepath.Join(root, "absent"), Name: CacheName}).Activate(); err != nil {
		t.Errorf("absent root: %v", err)
	}
}

func TestAssets(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.txt")
	if err := os.WriteFile(manifest, []byte("# extra\nstatic/logo.svg\n\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	music := filepath.Join(dir, "music")
	for _, name := range []string{"Foo_HIT.mp3", "notes.txt", "special_music/Timeout.mp3", "Special_Music/Walk_WALKON.mp3"} {
		p := filepath.Join(music, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	assets, err := Assets(manifest, music)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"./index.html", "static/logo.svg", "static/music/Foo_HIT.mp3", "static/special_music/Timeout.mp3", "static/Special_Music/Walk_WALKON.mp3"} {
		if !slices.Contains(assets, want) {
			t.Errorf("assets missing %q: %v", want, assets)
		}
	}
	if slices.Contains(assets, "static/music/Special_Music/Walk_WALKON.mp3") {
		t.Error("special folder matched case-sensitively")
	}
	if slices.Contains(assets, "static/music/notes.txt") {
		t.Error("non-audio file listed")
	}

	if _, err := Assets(filepath.Join(dir, "missing.txt"), ""); err == nil {
		t.Error("missing manifest accepted")
	}
}

func TestAssetPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"./", "/"},
		{"./index.html", "/index.html"},
		{"static/music/A B.mp3", "/static/music/A%20B.mp3"},
	}
	for _, tt := range tests {
		if got := assetPath(tt.in); got != tt.want {
			t.Errorf("assetPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestServeCommand(t *testing.T) {
	up := newUpstream(t)
	port := 45678

	params := &Params{
		Upstream:           up.URL,
		Port:               port,
		Host:               "localhost",
		CacheDir:           t.TempDir(),
		QR:                 true,
		ReadTimeoutMillis:  1000,
		WriteTimeoutMillis: 1000,
		IdleTimeoutMillis:  1000,
		MaxHeaderBytes:     1024,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- Run(ctx, params)
	}()

	// Wait for server to start
	time.Sleep(300 * time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/index.html", port))
	if err != nil {
		t.Fatalf("Failed to get index: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "<html>board</html>" {
		t.Errorf("Expected index content, got %s", string(body))
	}
	if resp.Header.Get("X-Cache") != "hit" {
		t.Errorf("index not pre-cached: %q", resp.Header.Get("X-Cache"))
	}

	cancel()
	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Errorf("Run did not exit")
	}
}

func TestWriteQR(t *testing.T) {
	const text = "http://192.168.1.20:8080"
	var out bytes.Buffer
	if err := WriteQR(&out, text); err != nil {
		t.Fatal(err)
	}

	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		t.Fatal(err)
	}
	bitmap := qr.Bitmap()
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != len(bitmap) {
		t.Fatalf("rendered %d rows, want %d", len(lines), len(bitmap))
	}
	for i, row := range bitmap {
		dark := strings.Count(lines[i], darkModule)
		light := strings.Count(lines[i], lightModule)
		if dark+light != len(row) {
			t.Errorf("row %d has %d modules, want %d", i, dark+light, len(row))
		}
		if want := lo.CountBy(row, func(b bool) bool { return b }); dark != want {
			t.Errorf("row %d has %d dark modules, want %d", i, dark, want)
		}
	}
}

func TestRun_InvalidUpstream(t *testing.T) {
	for _, u := range []string{"", "not a url", "/relative"} {
		if err := Run(context.Background(), &Params{Upstream: u}); err == nil {
			t.Errorf("upstream %q accepted", u)
		}
	}
}
