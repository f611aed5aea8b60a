package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"tunegrab/internal/model"
)

// runner starts a download job and streams its progress events. Satisfied by
// pipeline.Orchestrator.
type runner interface {
	Run(ctx context.Context, job model.Job) <-chan model.Event
}

type Server struct {
	ctx    context.Context
	jobMgr *JobManager
	runner runner
	logger *log.Logger
}

func NewServer(ctx context.Context, jobMgr *JobManager, r runner, logger *log.Logger) *Server {
	return &Server{
		ctx:    ctx,
		jobMgr: jobMgr,
		runner: r,
		logger: logger,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/", http.FileServer(http.Dir("web/static")))

	// API endpoints
	mux.HandleFunc("/api/download", s.handleDownload)
	mux.HandleFunc("/api/jobs", s.handleListJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobAction)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
