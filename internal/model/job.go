package model

import "time"

// JobStatus represents the lifecycle state of a scrape job.
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

// AllCategoriesLabel is stored as the category of a job that sweeps the
// default category list.
const AllCategoriesLabel = "Todas las categorías"

// ScrapeError is one recorded failure inside a job. Business is empty when
// the failure is not attributable to a single business.
type ScrapeError struct {
	Business  string    `json:"business,omitempty"`
	Message   string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Job is a scrape run over one city and one or more categories.
type Job struct {
	ID          string        `json:"id"`
	City        string        `json:"city"`
	Category    string        `json:"category"`
	Status      JobStatus     `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at"`
	TotalFound  int           `json:"total_found"`
	TotalSaved  int           `json:"total_saved"`
	ErrorsCount int           `json:"errors_count"`
	Errors      []ScrapeError `json:"errors"`
}

// Summary returns the status view polled by collaborators.
func (j *Job) Summary() *JobSummary {
	return &JobSummary{
		ID:          j.ID,
		Status:      j.Status,
		City:        j.City,
		Category:    j.Category,
		TotalFound:  j.TotalFound,
		TotalSaved:  j.TotalSaved,
		ErrorsCount: j.ErrorsCount,
		StartedAt:   j.StartedAt,
		FinishedAt:  j.FinishedAt,
	}
}

// JobSummary is the progress snapshot of a job.
type JobSummary struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	City        string     `json:"city"`
	Category    string     `json:"category"`
	TotalFound  int        `json:"total_found"`
	TotalSaved  int        `json:"total_saved"`
	ErrorsCount int        `json:"errors_count"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`
}

// JobUpdate is a partial update of a job record. Nil fields are left
// untouched. A non-nil Errors replaces the stored list and its count.
type JobUpdate struct {
	Status     *JobStatus
	FinishedAt *time.Time
	TotalFound *int
	TotalSaved *int
	Errors     []ScrapeError
}
