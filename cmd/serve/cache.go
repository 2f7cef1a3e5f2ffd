package serve

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CacheName is the current cache generation. Directories with any other
// name below the cache root are removed on activation.
const CacheName = "djpult-cache-v1"

// Cache is a disk cache of upstream GET responses, one body file plus a
// content-type sidecar per request path.
type Cache struct {
	Root     string
	Name     string
	Upstream *url.URL
	Client   *http.Client
	Logger   *slog.Logger
}

func (c *Cache) dir() string {
	return filepath.Join(c.Root, c.Name)
}

func (c *Cache) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *Cache) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// key names the cache entry of a request path and query.
func key(reqURL *url.URL) string {
	p := reqURL.EscapedPath()
	if p == "" {
		p = "/"
	}
	if reqURL.RawQuery != "" {
		p += "?" + reqURL.RawQuery
	}
	sum := sha256.Sum256([]byte(p))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) entry(reqURL *url.URL) (body, meta string) {
	k := key(reqURL)
	return filepath.Join(c.dir(), k), filepath.Join(c.dir(), k+".type")
}

// Lookup returns the cached body and content type of reqURL.
func (c *Cache) Lookup(reqURL *url.URL) ([]byte, string, bool) {
	bodyPath, metaPath := c.entry(reqURL)
	body, err := os.ReadFile(bodyPath)
	if err != nil {
		return nil, "", false
	}
	contentType, _ := os.ReadFile(metaPath)
	return body, string(contentType), true
}

// Store writes body under reqURL. The body is written to a temp file and
// renamed so readers never see a partial entry.
func (c *Cache) Store(reqURL *url.URL, body []byte, contentType string) error {
	if err := os.MkdirAll(c.dir(), 0o750); err != nil {
		return err
	}
	bodyPath, metaPath := c.entry(reqURL)
	if err := os.WriteFile(metaPath, []byte(contentType), 0o600); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir(), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), bodyPath)
}

// resolve maps a request path onto the upstream base.
func (c *Cache) resolve(reqURL *url.URL) *url.URL {
	u := *c.Upstream
	u.Path = path.Join("/", c.Upstream.Path, reqURL.Path)
	if strings.HasSuffix(reqURL.Path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawPath = ""
	u.RawQuery = reqURL.RawQuery
	return &u
}

var errUpstreamStatus = errors.New("upstream status")

// fetch requests reqURL from upstream and writes a 200 response back to
// the cache.
func (c *Cache) fetch(ctx context.Context, reqURL *url.URL) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(reqURL).String(), nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode == http.StatusOK {
		if err := c.Store(reqURL, body, resp.Header.Get("Content-Type")); err != nil {
			c.log().Warn("failed to write cache entry", "path", reqURL.Path, "error", err)
		}
	}
	return resp, body, nil
}

// Install pre-fetches every asset. All assets are attempted; the returned
// error joins the failures.
func (c *Cache) Install(ctx context.Context, assets []string) error {
	var errs []error
	for _, asset := range assets {
		reqURL, err := url.Parse(assetPath(asset))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", asset, err))
			continue
		}
		resp, _, err := c.fetch(ctx, reqURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", asset, err))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			errs = append(errs, fmt.Errorf("%s: %w %d", asset, errUpstreamStatus, resp.StatusCode))
		}
	}
	return errors.Join(errs...)
}

// assetPath turns a manifest entry like "./index.html" or
// "static/music/a b.mp3" into an escaped absolute request path.
func assetPath(asset string) string {
	p := "/" + strings.TrimPrefix(strings.TrimPrefix(asset, "."), "/")
	return (&url.URL{Path: p}).EscapedPath()
}

// Activate removes every cache generation other than the current one.
func (c *Cache) Activate() error {
	entries, err := os.ReadDir(c.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var errs []error
	for _, e := range entries {
		if !e.IsDir() || e.Name() == c.Name {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.Root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		c.log().Info("removed old cache", "name", e.Name())
	}
	return errors.Join(errs...)
}

// ServeHTTP answers GET requests cache-first, then from upstream. Other
// methods are passed to upstream without caching.
func (c *Cache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		c.passThrough(w, r)
		return
	}
	if body, contentType, ok := c.Lookup(r.URL); ok {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("X-Cache", "hit")
		_, _ = w.Write(body)
		return
	}

	resp, body, err := c.fetch(r.Context(), r.URL)
	if err != nil {
		http.Error(w, "offline and not cached", http.StatusBadGateway)
		return
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("X-Cache", "miss")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

func (c *Cache) passThrough(w http.ResponseWriter, r *http.Request) {
	req, err := http.NewRequestWithContext(r.Context(), r.Method, c.resolve(r.URL).String(), r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Header = r.Header.Clone()
	resp, err := c.client().Do(req)
	if err != nil {
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
