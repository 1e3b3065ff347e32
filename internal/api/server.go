// Package api exposes scrape jobs and leads over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/lead-radar/internal/job"
	"github.com/sells-group/lead-radar/internal/model"
	"github.com/sells-group/lead-radar/internal/store"
	"github.com/sells-group/lead-radar/internal/telemetry"
)

// Jobs starts, polls and cancels scrape jobs.
type Jobs interface {
	StartJob(ctx context.Context, req job.StartRequest) (string, error)
	GetJobStatus(ctx context.Context, id string) (*model.JobSummary, error)
	CancelJob(id string) bool
	Running() []string
}

// Records lists persisted jobs and leads.
type Records interface {
	ListJobs(ctx context.Context, limit, offset int) ([]model.JobSummary, error)
	ListLeads(ctx context.Context, filter model.LeadFilter) ([]model.Lead, error)
}

// Server wires HTTP handlers for the job API.
type Server struct {
	jobs    Jobs
	records Records
	origins []string
}

// New constructs the API server.
func New(jobs Jobs, records Records) *Server {
	return &Server{jobs: jobs, records: records}
}

// WithCORS allows browser clients served from origins to call the API.
func (s *Server) WithCORS(origins []string) *Server {
	s.origins = origins
	return s
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "running_jobs": len(s.jobs.Running())})
	})

	r.Mount("/metrics", telemetry.Handler())

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", s.handleStartJob)
		r.Get("/", s.handleListJobs)
		r.Get("/{id}", s.handleGetJob)
		r.Post("/{id}/cancel", s.handleCancelJob)
	})
	r.Get("/leads", s.handleListLeads)
	return r
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req job.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.jobs.StartJob(r.Context(), req)
	if errors.Is(err, job.ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		zap.L().Error("api: start job", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start job")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	summary, err := s.jobs.GetJobStatus(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get job", zap.String("job_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read job")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": s.jobs.CancelJob(id)})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	jobs, err := s.records.ListJobs(r.Context(), limit, offset)
	if err != nil {
		zap.L().Error("api: list jobs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []model.JobSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.LeadFilter{
		City:     q.Get("city"),
		Category: q.Get("category"),
		JobID:    q.Get("job_id"),
	}
	for name, dst := range map[string]*int{
		"min_score": &filter.MinScore,
		"limit":     &filter.Limit,
		"offset":    &filter.Offset,
	} {
		v, err := intParam(q.Get(name))
		if err != nil {
			writeError(w, http.StatusBadRequest, name+" must be an integer")
			return
		}
		*dst = v
	}

	leads, err := s.records.ListLeads(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list leads", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
