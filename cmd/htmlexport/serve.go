package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	htmlexport "github.com/alnah/go-htmlexport"
	"github.com/alnah/go-htmlexport/internal/registry"
)

// Server timeouts. Writes allow for a cold browser start plus the print.
const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 3 * time.Minute
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// contentTypes maps feature extensions to response media types.
var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// featureView is the JSON shape of a feature; handlers are not serialized.
type featureView struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Extension   string `json:"extension"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Tier        string `json:"tier"`
	Installed   bool   `json:"installed"`
}

// server exposes a frozen feature registry over HTTP.
type server struct {
	router  chi.Router
	reg     *registry.Registry
	log     *zap.Logger
	maxBody int64
}

// newServer wires the routes. reg must be frozen.
func newServer(reg *registry.Registry, log *zap.Logger, maxBody int64) *server {
	s := &server{reg: reg, log: log, maxBody: maxBody}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))

	r.Get("/healthz", s.handleHealth)
	r.Get("/features", s.handleFeatures)
	r.Post("/export/{feature}", s.handleExport)

	s.router = r
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *server) handleFeatures(w http.ResponseWriter, _ *http.Request) {
	list, err := s.reg.List()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]featureView, 0, len(list))
	for _, f := range list {
		views = append(views, featureView{
			Name:        f.Name,
			Label:       f.Label,
			Extension:   f.Extension,
			Description: f.Description,
			Kind:        string(f.Kind),
			Tier:        string(f.Tier),
			Installed:   f.Installed,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"features": views})
}

// handleExport runs the named feature on the request body.
func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "feature")
	f, err := s.reg.Get(name)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if f.Kind != registry.KindExportHandler || f.Handler == nil {
		jsonError(w, fmt.Sprintf("feature %q does not export", name), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, htmlexport.ErrInputTooLarge.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "reading body: "+err.Error(), http.StatusBadRequest)
		return
	}

	out, err := f.Handler(r.Context(), string(body))
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("export failed", zap.String("feature", name), zap.Error(err))
		}
		jsonError(w, err.Error(), status)
		return
	}

	ct, ok := contentTypes[f.Extension]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="export.%s"`, f.Extension))
	_, _ = w.Write(out)
}

// statusFor maps export errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, htmlexport.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, htmlexport.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, htmlexport.ErrFeatureNotInstalled):
		return http.StatusConflict
	case errors.Is(err, htmlexport.ErrPoolClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// runServe exports over HTTP until ctx is canceled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	sess, err := openSession(flags.common, env.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	workers := flags.workers
	if workers <= 0 {
		workers = sess.cfg.Serve.PoolSize
	}
	pool := htmlexport.NewExporterPool(htmlexport.ResolvePoolSize(workers), sess.serveOptions()...)
	defer func() {
		if err := pool.Close(); err != nil {
			sess.logger.Warn("closing exporters", zap.Error(err))
		}
	}()

	reg := registry.New()
	htmlexport.GetPoolFeatures(reg, pool, sess.plugins())
	reg.Freeze()

	addr := flags.addr
	if addr == "" {
		addr = sess.cfg.Serve.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	return serve(ctx, ln, newServer(reg, sess.logger, sess.cfg.MaxHTMLBytes()), sess.logger, pool.Size())
}

// serveOptions are the exporter options of the HTTP server. Request bodies
// come from the network, so local images are only read under the configured
// base directory, and not at all without one.
func (s *session) serveOptions() []htmlexport.Option {
	opts := s.exporterOptions(0)
	if s.cfg.Word.BaseDir == "" {
		opts = append(opts, htmlexport.WithLocalImages(false))
	}
	return opts
}

// serve runs handler on ln and shuts it down gracefully when ctx ends.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, log *zap.Logger, poolSize int) error {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving", zap.String("addr", ln.Addr().String()), zap.Int("pool_size", poolSize))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
