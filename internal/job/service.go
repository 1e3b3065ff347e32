package job

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-radar/internal/model"
	"github.com/sells-group/lead-radar/internal/store"
	"github.com/sells-group/lead-radar/internal/telemetry"
)

// ErrInvalidRequest is returned by StartJob for a request that fails
// validation.
var ErrInvalidRequest = eris.New("job: invalid request")

// DefaultMaxLimit caps StartRequest.Limit when no other cap is configured.
const DefaultMaxLimit = 100

// StartRequest asks for a scrape of one city. An empty Category sweeps the
// default categories.
type StartRequest struct {
	City     string `json:"city"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit"`
}

// Validate checks field lengths and the limit range.
func (r StartRequest) Validate(maxLimit int) error {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	if n := utf8.RuneCountInString(r.City); n < 2 || n > 100 {
		return eris.Wrap(ErrInvalidRequest, "city must be 2 to 100 characters")
	}
	if n := utf8.RuneCountInString(r.Category); n != 0 && (n < 2 || n > 100) {
		return eris.Wrap(ErrInvalidRequest, "category must be 2 to 100 characters")
	}
	if r.Limit < 1 || r.Limit > maxLimit {
		return eris.Wrapf(ErrInvalidRequest, "limit must be between 1 and %d", maxLimit)
	}
	return nil
}

// Service starts, tracks and cancels background jobs.
type Service struct {
	store    store.Store
	runner   *Runner
	registry *Registry
	maxLimit int

	// base outlives the requests that start jobs.
	base context.Context

	mu   sync.Mutex
	done map[string]chan struct{}
}

// NewService creates a Service. The registry is owned by the caller.
func NewService(st store.Store, runner *Runner, registry *Registry, maxLimit int) *Service {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	return &Service{
		store:    st,
		runner:   runner,
		registry: registry,
		maxLimit: maxLimit,
		base:     context.Background(),
		done:     make(map[string]chan struct{}),
	}
}

// StartJob validates req, records a RUNNING job and scrapes it in the
// background. It returns the job id as soon as the record exists.
func (s *Service) StartJob(ctx context.Context, req StartRequest) (string, error) {
	if err := req.Validate(s.maxLimit); err != nil {
		return "", err
	}

	category := req.Category
	if category == "" {
		category = model.AllCategoriesLabel
	}
	job := &model.Job{City: req.City, Category: category}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return "", eris.Wrap(err, "job: create")
	}

	token := s.registry.Register(job.ID)
	done := make(chan struct{})
	s.mu.Lock()
	s.done[job.ID] = done
	s.mu.Unlock()

	telemetry.JobsStarted.Inc()
	go func() {
		defer func() {
			s.registry.Remove(job.ID)
			s.mu.Lock()
			delete(s.done, job.ID)
			s.mu.Unlock()
			close(done)
		}()
		s.runner.Run(s.base, job.ID, req, token)
	}()

	zap.L().Info("job: started", zap.String("job_id", job.ID), zap.String("city", req.City), zap.String("category", category))
	return job.ID, nil
}

// GetJobStatus returns the persisted progress of a job.
func (s *Service) GetJobStatus(ctx context.Context, id string) (*model.JobSummary, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return job.Summary(), nil
}

// CancelJob signals a live job. It returns false for unknown or finished
// jobs.
func (s *Service) CancelJob(id string) bool {
	ok := s.registry.Cancel(id)
	zap.L().Info("job: cancel requested", zap.String("job_id", id), zap.Bool("live", ok))
	return ok
}

// Wait blocks until the job's goroutine exits or ctx ends. Unknown ids
// return immediately.
func (s *Service) Wait(ctx context.Context, id string) error {
	s.mu.Lock()
	done, ok := s.done[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running returns the ids of live jobs.
func (s *Service) Running() []string {
	return s.registry.IDs()
}

// Shutdown cancels every live job and waits for them to record their
// terminal status.
func (s *Service) Shutdown(ctx context.Context) error {
	ids := s.registry.IDs()
	if len(ids) > 0 {
		zap.L().Info("job: cancelling live jobs", zap.Int("count", len(ids)))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		s.registry.cancel(id, ErrShutdown)
		g.Go(func() error {
			return s.Wait(gctx, id)
		})
	}
	return eris.Wrap(g.Wait(), "job: shutdown")
}
