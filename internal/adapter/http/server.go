package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/hydrogen-audit-service/internal/domain"
	"github.com/couchcryptid/hydrogen-audit-service/internal/observability"
	"github.com/couchcryptid/hydrogen-audit-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// uploadField is the multipart form field carrying the report.
const uploadField = "pdf_file"

// Auditor scores an uploaded document.
type Auditor interface {
	Audit(ctx context.Context, source string, data []byte) (domain.Report, error)
}

// Server exposes the upload endpoint plus health, readiness, and metrics routes.
type Server struct {
	httpServer     *http.Server
	auditor        Auditor
	cache          *lru[string, domain.Report]
	maxUploadBytes int64
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// Option customizes a Server.
type Option func(*Server)

// WithMaxUploadBytes caps the request body size of uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) { s.maxUploadBytes = n }
}

// WithResultCache keeps the reports of the last n distinct documents so
// resubmissions are answered without rescoring. n <= 0 disables caching.
func WithResultCache(n int) Option {
	return func(s *Server) { s.cache = newReportCache(n) }
}

// NewServer creates an HTTP server with /upload_pdf, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, auditor Auditor, ready sharedobs.ReadinessChecker, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		auditor:        auditor,
		cache:          newReportCache(0),
		maxUploadBytes: 10 << 20,
		logger:         logger,
		metrics:        metrics,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("POST /upload_pdf", s.handleUpload)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleUpload accepts a multipart PDF and responds with the classified
// records as a JSON array.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("PDF exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, http.ErrMissingFile) && emptyFilePart(r):
			writeError(w, http.StatusBadRequest, "No file selected")
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, "No PDF file uploaded")
		default:
			writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		}
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "Invalid file type. Please upload a PDF")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}

	id := domain.DocumentID(data)
	if report, ok := s.cache.get(id); ok {
		s.metrics.ResultCache.WithLabelValues("hit").Inc()
		writeJSON(w, http.StatusOK, report.Results)
		return
	}
	s.metrics.ResultCache.WithLabelValues("miss").Inc()

	report, err := s.auditor.Audit(r.Context(), header.Filename, data)
	if err != nil {
		s.logger.Error("audit failed", "source", header.Filename, "error", err)
		if errors.Is(err, pipeline.ErrUnreadableDocument) {
			writeError(w, http.StatusUnprocessableEntity, "Error reading PDF: "+err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Error processing PDF: "+err.Error())
		return
	}

	s.cache.put(id, report)
	writeJSON(w, http.StatusOK, report.Results)
}

// emptyFilePart reports whether the upload field was sent without a file
// name. The multipart reader files such parts under form values, not files.
func emptyFilePart(r *http.Request) bool {
	if r.MultipartForm == nil {
		return false
	}
	_, ok := r.MultipartForm.Value[uploadField]
	return ok
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
