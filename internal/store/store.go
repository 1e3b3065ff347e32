// Package store persists scrape jobs and leads.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-radar/internal/model"
)

var (
	// ErrNotFound is returned when a job does not exist.
	ErrNotFound = eris.New("store: not found")
	// ErrJobFinalized is returned when an update sets the finish time of a
	// job that already has one.
	ErrJobFinalized = eris.New("store: job already finalized")
)

const defaultListLimit = 100

// Store defines the persistence interface for jobs and leads.
type Store interface {
	// Jobs
	CreateJob(ctx context.Context, job *model.Job) error
	UpdateJob(ctx context.Context, id string, upd model.JobUpdate) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	ListJobs(ctx context.Context, limit, offset int) ([]model.JobSummary, error)

	// Leads. CreateLead reports false when a lead with the same name, city
	// and category already exists.
	CreateLead(ctx context.Context, lead *model.Lead) (bool, error)
	ListLeads(ctx context.Context, filter model.LeadFilter) ([]model.Lead, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// prepareLead fills generated and derived fields before insert.
func prepareLead(l *model.Lead) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if l.Status == "" {
		l.Status = model.LeadStatusNew
	}
	l.BusinessName = strings.TrimSpace(l.BusinessName)
	l.HasWebsite = l.WebsiteURL != ""
	l.HasInstagram = l.InstagramURL != ""
}

// prepareJob fills generated fields before insert.
func prepareJob(j *model.Job) {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.StartedAt.IsZero() {
		j.StartedAt = time.Now().UTC()
	}
	if j.Status == "" {
		j.Status = model.JobStatusRunning
	}
	if j.Errors == nil {
		j.Errors = []model.ScrapeError{}
	}
	j.ErrorsCount = len(j.Errors)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// nullString maps the empty string to SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
