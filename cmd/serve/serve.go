package serve

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
	"github.com/xlthimolx/djpult/cmd/board/catalog"
	"github.com/xlthimolx/djpult/cmd/common"
)

// ShellAssets are the files of the board's web shell, always pre-fetched.
var ShellAssets = []string{
	"./",
	"./index.html",
	"./script.js",
	"./style.css",
	"./manifest.json",
	"./icon-192.png",
}

type Params struct {
	Upstream string `short:"u" help:"Base URL the assets are fetched from."`
	Manifest string `short:"m" optional:"true" help:"File listing one asset path per line, pre-fetched on start."`
	Music    string `optional:"true" help:"Music folder whose tracks are added to the pre-fetch list under static/."`
	Port     int    `short:"p" help:"Port to listen on." default:"8080"`
	Host     string `help:"Host interface to bind to." default:"localhost"`
	CacheDir string `optional:"true" help:"Cache root. Defaults to the user cache directory."`
	QR       bool   `long:"qr" optional:"true" help:"Print a QR code of the board URL for phones."`

	ReadTimeoutMillis  int64 `help:"Maximum duration for reading the entire request, including the body (ms)." default:"5000"`
	WriteTimeoutMillis int64 `help:"Maximum duration before timing out writes of the response (ms)." default:"60000"`
	IdleTimeoutMillis  int64 `help:"Maximum amount of time to wait for the next request when keep-alives are enabled (ms)." default:"120000"`
	MaxHeaderBytes     int   `help:"Maximum number of bytes the server will read parsing the request header's keys and values." default:"1048576"` // 1MB
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "serve",
		Short:       "Offline cache for the web board",
		Long:        "Serve the web board's assets from a local cache. On start every listed asset is fetched from upstream, older cache generations are removed, and requests are answered from the cache first, then from upstream.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(cmd.Context(), params); err != nil {
				common.Fail("serve", err)
			}
		},
	}.ToCobra()
}

// Assets builds the pre-fetch list: the shell, the manifest file entries
// and the tracks of the music folder.
func Assets(manifest, music string) ([]string, error) {
	assets := append([]string(nil), ShellAssets...)
	if manifest != "" {
		f, err := os.Open(manifest)
		if err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				assets = append(assets, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
	}
	if music != "" {
		files, err := catalog.Scan(music)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !catalog.IsAudio(f) {
				continue
			}
			if catalog.IsSpecialPath(f.RelPath) {
				assets = append(assets, "static/"+f.RelPath)
			} else {
				assets = append(assets, "static/music/"+f.RelPath)
			}
		}
	}
	return assets, nil
}

func Run(ctx context.Context, params *Params) error {
	if params.Upstream == "" {
		return errors.New("--upstream is required")
	}
	upstream, err := url.Parse(params.Upstream)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return fmt.Errorf("invalid upstream URL %q", params.Upstream)
	}
	assets, err := Assets(params.Manifest, params.Music)
	if err != nil {
		return err
	}

	root := params.CacheDir
	if root == "" {
		root = filepath.Join(common.CacheDir(), "assets")
	}
	cache := &Cache{
		Root:     root,
		Name:     CacheName,
		Upstream: upstream,
		Client:   &http.Client{Timeout: 30 * time.Second},
		Logger:   slog.Default(),
	}

	fmt.Printf("Caching %d assets from %s\n", len(assets), upstream)
	if err := cache.Install(ctx, assets); err != nil {
		// a partial cache still serves; missing entries are fetched on demand
		slog.Warn("some assets could not be cached", "error", err)
	}
	if err := cache.Activate(); err != nil {
		slog.Warn("failed to remove old caches", "error", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		cache.ServeHTTP(rw, r)

		// Log
		duration := time.Since(start)
		fmt.Printf("[%d] %s %s %s (%v)\n", rw.status, r.Method, r.URL.Path, rw.Header().Get("X-Cache"), duration)
	})

	addr := fmt.Sprintf("%s:%d", params.Host, params.Port)
	server := &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    time.Duration(params.ReadTimeoutMillis) * time.Millisecond,
		WriteTimeout:   time.Duration(params.WriteTimeoutMillis) * time.Millisecond,
		IdleTimeout:    time.Duration(params.IdleTimeoutMillis) * time.Millisecond,
		MaxHeaderBytes: params.MaxHeaderBytes,
	}

	// Handle graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("Serving %s at http://%s\n", cache.dir(), addr)
		if params.QR {
			if err := WriteQR(os.Stdout, "http://"+addr); err != nil {
				slog.Warn("failed to render qr code", "error", err)
			}
		}
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-serverErr:
		return err
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
