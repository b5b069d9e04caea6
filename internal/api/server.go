package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sublingo/internal/history"
	"sublingo/internal/logging"
	"sublingo/internal/project"
	"sublingo/internal/services"
)

// ProjectView is the read side of a project ledger.
type ProjectView interface {
	Snapshot() project.Document
	ExportReadiness() (bool, string)
	Progress() (int, int, float64)
	UnresolvedIndices() []int
	ResumableIndices() []int
	ResidualSourceScriptIndices(strict bool) []int
	Lines(indices []int) []project.Line
	Line(idx int) (project.Line, error)
}

// RunReader is the read side of the run history.
type RunReader interface {
	ListRuns(ctx context.Context, limit int) ([]history.Run, error)
	GetRun(ctx context.Context, id string) (*history.Run, error)
	BatchResults(ctx context.Context, runID string) ([]history.BatchResult, error)
	ProviderUsage(ctx context.Context, runID string) (map[string]int, error)
}

// Options wires the server to its data sources. Any of them may be nil.
type Options struct {
	Project ProjectView
	Runs    RunReader
	Tracker *Tracker
	Logger  *slog.Logger
}

// Server is the status HTTP server.
type Server struct {
	bind    string
	logger  *slog.Logger
	project ProjectView
	runs    RunReader
	tracker *Tracker
	router  chi.Router

	listener net.Listener
	server   *http.Server
}

// NewServer builds a server that will listen on bind.
func NewServer(bind string, opts Options) *Server {
	s := &Server{
		bind:    strings.TrimSpace(bind),
		logger:  logging.NewComponentLogger(opts.Logger, "api"),
		project: opts.Project,
		runs:    opts.Runs,
		tracker: opts.Tracker,
	}
	s.router = s.routes()
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/project", s.handleProject)
		r.Get("/progress", s.handleProgress)
		r.Get("/unresolved", s.handleUnresolved)
		r.Get("/residual", s.handleResidual)
		r.Get("/lines/{index}", s.handleLine)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{id}", s.handleRun)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the bind address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return services.Wrap(services.ErrConfiguration, "api", "start", "api bind address is empty", nil)
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := services.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("duration", time.Since(started)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requireProject(w http.ResponseWriter) bool {
	if s.project == nil {
		s.writeError(w, http.StatusNotFound, "no project loaded")
		return false
	}
	return true
}

func (s *Server) handleProject(w http.ResponseWriter, _ *http.Request) {
	if !s.requireProject(w) {
		return
	}
	ready, msg := s.project.ExportReadiness()
	s.writeJSON(w, http.StatusOK, FromDocument(s.project.Snapshot(), ready, msg))
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	var resp ProgressResponse
	if s.project != nil {
		resp.Completed, resp.Total, resp.Percent = s.project.Progress()
	}
	resp.Run = s.tracker.Status()
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnresolved(w http.ResponseWriter, r *http.Request) {
	if !s.requireProject(w) {
		return
	}
	indices := s.project.UnresolvedIndices()
	if queryFlag(r, "resumable") {
		indices = s.project.ResumableIndices()
	}
	s.writeJSON(w, http.StatusOK, FromLines(s.project.Lines(limitIndices(indices, queryLimit(r, 0)))))
}

func (s *Server) handleResidual(w http.ResponseWriter, r *http.Request) {
	if !s.requireProject(w) {
		return
	}
	indices := s.project.ResidualSourceScriptIndices(queryFlag(r, "strict"))
	s.writeJSON(w, http.StatusOK, FromLines(s.project.Lines(limitIndices(indices, queryLimit(r, 0)))))
}

func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	if !s.requireProject(w) {
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid line index")
		return
	}
	line, err := s.project.Line(idx)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, FromLines([]project.Line{line}).Lines[0])
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeJSON(w, http.StatusOK, RunsResponse{Runs: []Run{}})
		return
	}
	runs, err := s.runs.ListRuns(r.Context(), queryLimit(r, history.DefaultListLimit))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	resp := RunsResponse{Runs: make([]Run, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, FromRun(run))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, http.StatusNotFound, "run history unavailable")
		return
	}
	run, err := s.runs.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	batches, err := s.runs.BatchResults(r.Context(), run.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	usage, err := s.runs.ProviderUsage(r.Context(), run.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RunResponse{Run: FromRun(*run), Batches: FromBatchResults(batches), ProviderUsage: usage})
}

func queryLimit(r *http.Request, fallback int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func queryFlag(r *http.Request, name string) bool {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	return value == "1" || strings.EqualFold(value, "true")
}

func limitIndices(indices []int, limit int) []int {
	if limit > 0 && len(indices) > limit {
		return indices[:limit]
	}
	return indices
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
