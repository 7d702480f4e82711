package adapter

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"

	"github.com/quiltlod/quilt/pipeline"
	"github.com/quiltlod/quilt/request"
)

// Server is the long-running HTTP adapter: one http.Handler per
// listening socket, driving every request through a shared Pipeline
// against a single configured engine, mirroring fcgi.c's accept loop
// generalised to net/http the way infogulch-xtemplate's
// Instance.ServeHTTP wraps its router in httpsnoop metrics.
type Server struct {
	Pipeline     *pipeline.Pipeline
	EngineName   string
	BaseURI      string
	DefaultLimit int
	Logger       *slog.Logger
}

// ServeHTTP builds a request, drives it through s.Pipeline, and writes
// the outcome back, capturing response metrics the way
// Instance.ServeHTTP does.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rid := uuid.NewString()
	log := s.logger().With(slog.String("requestid", rid))

	metrics := httpsnoop.CaptureMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.serve(log, w, r)
	}), w, r)

	log.Debug("request served",
		slog.Duration("duration", metrics.Duration),
		slog.Int("status", metrics.Code),
		slog.Int64("bytes", metrics.Written),
	)
}

func (s *Server) serve(log *slog.Logger, w http.ResponseWriter, r *http.Request) {
	a := newHTTPAdapter(w, r)
	req := request.New(r.Method, strings.TrimPrefix(r.URL.Path, "/"), r.URL.RawQuery)
	req.Host = r.Host
	req.UserAgent = r.Header.Get("User-Agent")
	req.Referer = r.Header.Get("Referer")
	req.BaseURI = s.BaseURI
	if s.DefaultLimit > 0 {
		req.DefaultLimit = s.DefaultLimit
	}

	if err := a.Begin(req); err != nil {
		log.Error("adapter begin", slog.Any("error", err))
	}

	body, _ := s.Pipeline.Run(r.Context(), req, r.Header.Get("Accept"), s.selectEngine)
	if err := WriteResponse(a, req, body); err != nil {
		log.Error("writing response", slog.Any("error", err))
	}

	if err := a.End(req); err != nil {
		log.Error("adapter end", slog.Any("error", err))
	}
}

func (s *Server) selectEngine(*request.Request) (string, bool) {
	return s.EngineName, s.EngineName != ""
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Listen opens a net.Listener for a fastcgi:socket config value:
// "file://<path>" for a Unix domain socket, "tcp://<addr>" or a bare
// "host:port" for TCP, mirroring fcgi.c's accept() over whichever
// socket type config_get("fastcgi:socket") names, minus the FastCGI
// wire protocol itself (spec.md §1 scopes that out; this listener
// speaks plain HTTP).
func Listen(socket string) (net.Listener, error) {
	switch {
	case strings.HasPrefix(socket, "file://"):
		path := strings.TrimPrefix(socket, "file://")
		os.Remove(path)
		return net.Listen("unix", path)
	case strings.HasPrefix(socket, "tcp://"):
		return net.Listen("tcp", strings.TrimPrefix(socket, "tcp://"))
	default:
		return net.Listen("tcp", socket)
	}
}

// httpAdapter implements Adapter over one http.ResponseWriter/Request pair.
type httpAdapter struct {
	w           http.ResponseWriter
	r           *http.Request
	headersSent bool
	status      int
}

func newHTTPAdapter(w http.ResponseWriter, r *http.Request) *httpAdapter {
	return &httpAdapter{w: w, r: r, status: http.StatusOK}
}

func (a *httpAdapter) Getenv(name string) (string, bool) {
	switch name {
	case "REQUEST_METHOD":
		return a.r.Method, true
	case "REQUEST_URI":
		return a.r.URL.RequestURI(), true
	case "HTTP_ACCEPT":
		v := a.r.Header.Get("Accept")
		return v, v != ""
	case "REMOTE_USER":
		u, _, ok := a.r.BasicAuth()
		return u, ok
	default:
		v := a.r.Header.Get(name)
		return v, v != ""
	}
}

func (a *httpAdapter) Getparam(name string) (string, bool) {
	values := a.r.URL.Query()
	if !values.Has(name) {
		return "", false
	}
	return values.Get(name), true
}

func (a *httpAdapter) GetparamMulti(name string) ([]string, bool) {
	values := a.r.URL.Query()
	vs, ok := values[name]
	return vs, ok
}

func (a *httpAdapter) Put(b []byte) error {
	a.beginBody()
	_, err := a.w.Write(b)
	return err
}

func (a *httpAdapter) Vprintf(format string, args ...any) error {
	a.beginBody()
	_, err := fmt.Fprintf(a.w, format, args...)
	return err
}

func (a *httpAdapter) Header(b []byte) error {
	if a.headersSent {
		return ErrHeaderAfterBody
	}
	return a.setHeaderLine(string(b))
}

func (a *httpAdapter) Headerf(format string, args ...any) error {
	if a.headersSent {
		return ErrHeaderAfterBody
	}
	return a.setHeaderLine(fmt.Sprintf(format, args...))
}

func (a *httpAdapter) setHeaderLine(line string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return fmt.Errorf("adapter: malformed header line %q", line)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if strings.EqualFold(key, "Status") {
		code, _, _ := strings.Cut(value, " ")
		if n, err := strconv.Atoi(code); err == nil {
			a.status = n
		}
		return nil
	}
	a.w.Header().Set(key, value)
	return nil
}

func (a *httpAdapter) Begin(*request.Request) error {
	a.headersSent = false
	return nil
}

func (a *httpAdapter) End(*request.Request) error {
	return nil
}

func (a *httpAdapter) beginBody() {
	if a.headersSent {
		return
	}
	a.headersSent = true
	a.w.WriteHeader(a.status)
}
