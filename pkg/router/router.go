package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

const shutdownTimeout = 10 * time.Second

var (
	timeColor     = color.New(color.FgCyan)
	durationColor = color.New(color.FgBlue)
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

type Router struct {
	mux      *http.ServeMux
	routes   map[string]HandlerFunc // key = METHOD:PATH
	paths    map[string]bool        // track registered paths
	patterns []string               // wildcard paths in registration order
	out      io.Writer
}

func New() *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		routes: make(map[string]HandlerFunc),
		paths:  make(map[string]bool),
		out:    os.Stderr,
	}
	r.mux.HandleFunc("/", r.serve)
	return r
}

// SetOutput redirects the request log. A nil w silences it.
func (r *Router) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	r.out = w
}

func (r *Router) serve(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	if h, ok := r.routes[req.Method+":"+req.URL.Path]; ok {
		h(lrw, req)
	} else if h, status := r.match(req); h != nil {
		h(lrw, req)
	} else if status == http.StatusMethodNotAllowed {
		http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
	} else {
		http.Error(lrw, "Not Found", http.StatusNotFound)
	}

	fmt.Fprintf(r.out, "%s %s %s %s %s\n",
		timeColor.Sprintf("[%s]", start.Format("2006-01-02 15:04:05")),
		methodColor(req.Method).Sprint(req.Method),
		req.URL.Path,
		statusColor(lrw.statusCode).Sprint(lrw.statusCode),
		durationColor.Sprintf("(%v)", time.Since(start)),
	)
}

// match finds the first wildcard route matching the request. When only the
// path matches, status is 405.
func (r *Router) match(req *http.Request) (HandlerFunc, int) {
	status := http.StatusNotFound
	if r.paths[req.URL.Path] {
		status = http.StatusMethodNotAllowed
	}
	for _, pattern := range r.patterns {
		if !matchWildcardRoute(req.URL.Path, pattern) {
			continue
		}
		if h, ok := r.routes[req.Method+":"+pattern]; ok {
			return h, http.StatusOK
		}
		status = http.StatusMethodNotAllowed
	}
	return nil, status
}

// matchWildcardRoute checks if a request path matches a wildcard route pattern
func matchWildcardRoute(requestPath, routePattern string) bool {
	requestSegments := strings.Split(strings.Trim(requestPath, "/"), "/")
	routeSegments := strings.Split(strings.Trim(routePattern, "/"), "/")

	// A trailing wildcard matches any number of remaining segments
	if routeSegments[len(routeSegments)-1] == "*" {
		if len(requestSegments) < len(routeSegments)-1 {
			return false
		}
		for i := 0; i < len(routeSegments)-1; i++ {
			if requestSegments[i] != routeSegments[i] {
				return false
			}
		}
		return true
	}

	if len(requestSegments) != len(routeSegments) {
		return false
	}
	for i, routeSegment := range routeSegments {
		if routeSegment == "*" {
			continue
		}
		if requestSegments[i] != routeSegment {
			return false
		}
	}
	return true
}

// Param returns the request path segment at the position of the n-th
// wildcard (0-based) of pattern, or "" when absent.
func Param(req *http.Request, pattern string, n int) string {
	requestSegments := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	for i, seg := range strings.Split(strings.Trim(pattern, "/"), "/") {
		if seg != "*" {
			continue
		}
		if n == 0 {
			if i < len(requestSegments) {
				return requestSegments[i]
			}
			return ""
		}
		n--
	}
	return ""
}

// --- Register paths ---
func (r *Router) register(method, path string, handler HandlerFunc) {
	key := method + ":" + path
	r.routes[key] = handler
	if !r.paths[path] && strings.Contains(path, "*") {
		r.patterns = append(r.patterns, path)
	}
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc)   { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)  { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)   { r.register(http.MethodPut, path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc) { r.register(http.MethodPatch, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Getter methods for testing
func (r *Router) Routes() map[string]HandlerFunc {
	return r.routes
}

func (r *Router) Paths() map[string]bool {
	return r.paths
}

// ServeHTTP makes the router usable with httptest and custom servers.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// --- Start server ---

// Start serves on addr until ctx is done, then shuts down, waiting up to
// shutdownTimeout for in-flight requests.
func (r *Router) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: r.mux}
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(r.out, "Server started on %s\n", color.GreenString("http://%s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// --- Color helpers ---
func statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return color.New(color.FgGreen)
	case code >= 300 && code < 400:
		return color.New(color.FgCyan)
	case code >= 400 && code < 500:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func methodColor(method string) *color.Color {
	switch method {
	case http.MethodGet:
		return color.New(color.FgGreen)
	case http.MethodPost:
		return color.New(color.FgBlue)
	case http.MethodPut, http.MethodPatch:
		return color.New(color.FgYellow)
	case http.MethodDelete:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgCyan)
	}
}
