package site

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	DefaultAddr       = "127.0.0.1:5500"
	DefaultStaticAddr = "127.0.0.1:8000"
)

var scriptTag = []byte(`<script src="/livereload.js"></script>`)

// Server serves the site root. With a hub, HTML pages get the live-reload
// script injected; without one it is a plain file server.
type Server struct {
	root string
	hub  *Hub
}

func NewServer(root string, hub *Hub) *Server {
	return &Server{root: root, hub: hub}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	files := http.FileServer(http.Dir(s.root))

	if s.hub == nil {
		r.Handle("/*", files)
		return r
	}

	r.Get("/livereload", s.hub.ServeWs)
	r.Get("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = io.WriteString(w, reloadScript)
	})
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		if !s.serveHTML(w, req) {
			files.ServeHTTP(w, req)
		}
	})

	return r
}

// serveHTML answers requests for HTML files itself so it can inject the
// reload script. It reports false for anything it did not handle.
func (s *Server) serveHTML(w http.ResponseWriter, req *http.Request) bool {
	name := path.Clean("/" + req.URL.Path)
	if strings.HasSuffix(req.URL.Path, "/") {
		name = path.Join(name, IndexFile)
	}
	if path.Ext(name) != ".html" {
		return false
	}

	f, err := http.Dir(s.root).Open(name)
	if err != nil {
		return false
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	body, err := io.ReadAll(f)
	if err != nil {
		return false
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, req, path.Base(name), info.ModTime(), bytes.NewReader(InjectReloadScript(body)))

	return true
}

// InjectReloadScript places the script tag right before the last </body>,
// or appends it when the page has none.
func InjectReloadScript(page []byte) []byte {
	i := max(bytes.LastIndex(page, []byte("</body>")), bytes.LastIndex(page, []byte("</BODY>")))
	if i < 0 {
		return append(append([]byte{}, page...), scriptTag...)
	}

	out := make([]byte, 0, len(page)+len(scriptTag))
	out = append(out, page[:i]...)
	out = append(out, scriptTag...)
	return append(out, page[i:]...)
}

// ListenAndServe blocks until ctx is done or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
