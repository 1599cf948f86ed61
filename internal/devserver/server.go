// Package devserver serves a development build: static output, API proxy rules
// and single page application history fallback.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/carebundle/internal/bundle"
	httpmiddleware "github.com/wolfeidau/carebundle/internal/http"
)

// ErrNoDevServer indicates the build description has no dev server block
var ErrNoDevServer = errors.New("build description has no dev server, run in development mode")

// Server serves one DevServer block.
type Server struct {
	spec    bundle.DevServer
	handler http.Handler
}

// Option customises a Server.
type Option func(*options)

type options struct {
	transport      http.RoundTripper
	allowedOrigins []string
}

// WithProxyTransport sets the round tripper used by every proxy rule.
func WithProxyTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) {
		o.allowedOrigins = origins
	}
}

// FromDescription creates a server for the dev server block of d.
func FromDescription(d bundle.Description, logger zerolog.Logger, opts ...Option) (*Server, error) {
	spec, ok := d.DevServerSpec()
	if !ok {
		return nil, ErrNoDevServer
	}
	return New(spec, logger, opts...)
}

func New(spec bundle.DevServer, logger zerolog.Logger, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var proxies []proxyRoute
	for _, rule := range spec.Proxy {
		route, err := newProxyRoute(rule, o.transport, logger)
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, route)
	}

	var static http.Handler = http.FileServer(http.Dir(spec.ContentRoot))
	if spec.HistoryFallback {
		static = historyFallback(spec.ContentRoot, static)
	}

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range proxies {
			if p.rule.Matches(r.URL.Path) {
				p.proxy.ServeHTTP(w, r)
				return
			}
		}
		static.ServeHTTP(w, r)
	})

	if spec.Compress {
		handler = gzhttp.GzipHandler(handler)
	}

	if len(o.allowedOrigins) > 0 {
		handler = withCORS(o.allowedOrigins, handler)
	}

	return &Server{
		spec:    spec,
		handler: httpmiddleware.RequestLogger(logger)(handler),
	}, nil
}

// Addr is the listen address of the server.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.spec.Host, strconv.Itoa(s.spec.Port))
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := configureHTTPServer(s.Addr(), s.handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	zerolog.Ctx(ctx).Info().Str("addr", s.Addr()).Str("root", s.spec.ContentRoot).Msg("Starting dev server")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

type proxyRoute struct {
	rule  bundle.ProxyRule
	proxy *httputil.ReverseProxy
}

func newProxyRoute(rule bundle.ProxyRule, transport http.RoundTripper, logger zerolog.Logger) (proxyRoute, error) {
	target, err := url.Parse(rule.Target)
	if err != nil {
		return proxyRoute{}, fmt.Errorf("invalid proxy target %q: %w", rule.Target, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return proxyRoute{}, fmt.Errorf("invalid proxy target %q: scheme and host are required", rule.Target)
	}

	proxy := &httputil.ReverseProxy{
		Transport: transport,
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if !rule.ChangeOrigin {
				pr.Out.Host = pr.In.Host
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error().Err(err).Str("target", rule.Target).Str("path", r.URL.Path).Msg("Proxy request failed")
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	return proxyRoute{rule: rule, proxy: proxy}, nil
}

// withCORS lets pages served from other origins load the development bundles.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{httpmiddleware.RequestIDHeader},
	})
	return middleware.Handler(h)
}

// historyFallback serves index.html for page navigations to paths that do not
// exist on disk, so client side routes survive a reload.
func historyFallback(root string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isNavigation(r) {
			next.ServeHTTP(w, r)
			return
		}

		name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(name); err == nil {
			next.ServeHTTP(w, r)
			return
		}

		index, err := os.Open(filepath.Join(root, "index.html"))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		defer index.Close()

		info, err := index.Stat()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		http.ServeContent(w, r, "index.html", info.ModTime(), index)
	})
}

func isNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	if path.Ext(r.URL.Path) != "" {
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}
