package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"tunegrab/internal/model"
)

type JobResponse struct {
	ID          string    `json:"id"`
	Folder      string    `json:"folder"`
	Status      JobStatus `json:"status"`
	Completed   int       `json:"completed"`
	Total       int       `json:"total"`
	Detail      string    `json:"detail,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   string    `json:"created_at"`
	StartedAt   *string   `json:"started_at,omitempty"`
	CompletedAt *string   `json:"completed_at,omitempty"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.Job
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Folder == "" {
		http.Error(w, "Folder is required", http.StatusBadRequest)
		return
	}

	// One job per process; concurrent submissions are rejected rather than
	// queued, mirroring the orchestrator's own mutual exclusion.
	if s.jobMgr.HasActiveJob() {
		http.Error(w, "A job is already running", http.StatusConflict)
		return
	}

	job := s.jobMgr.CreateJob(req)
	s.logger.Info("created job", "id", job.ID, "folder", req.Folder, "tracks", len(req.Tracks))

	go s.processJob(job)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = s.jobToResponse(job)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from path: /api/jobs/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodGet && len(parts) == 1 {
		job, err := s.jobMgr.GetJob(parts[0])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.jobToResponse(job))
		return
	}

	http.Error(w, "Invalid request", http.StatusBadRequest)
}

// processJob runs the pipeline and mirrors its event stream into the job
// record, which in turn notifies WebSocket subscribers.
func (s *Server) processJob(job *Job) {
	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusRunning
	})

	finalStatus := StatusCompleted
	var finalErr string

	for ev := range s.runner.Run(s.ctx, job.Request) {
		update := ev
		s.jobMgr.UpdateJob(job.ID, func(j *Job) {
			j.Completed = update.Completed
			j.Total = update.Total
			j.Detail = update.Detail
		})

		switch ev.Status {
		case model.StatusSuspended, model.StatusLimitReached:
			finalStatus = StatusFailed
			finalErr = string(ev.Status)
		}
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Status = finalStatus
		j.Error = finalErr
	})

	s.logger.Info("job finished", "id", job.ID, "status", finalStatus)
}

func (s *Server) jobToResponse(job *Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		Folder:    job.Request.Folder,
		Status:    job.Status,
		Completed: job.Completed,
		Total:     job.Total,
		Detail:    job.Detail,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format("2006-01-02 15:04:05")
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format("2006-01-02 15:04:05")
		resp.CompletedAt = &completed
	}

	return resp
}
