package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-radar/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS scrape_jobs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateJob(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scrape_jobs`).
		WithArgs(pgxmock.AnyArg(), "Bogotá", "Panaderías", "RUNNING", pgxmock.AnyArg(), pgxmock.AnyArg(),
			0, 0, 0, []byte("[]")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	job := &model.Job{City: "Bogotá", Category: "Panaderías"}
	require.NoError(t, s.CreateJob(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobStatusRunning, job.Status)
	assert.False(t, job.StartedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateJob_Progress(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	found, saved := 12, 10

	mock.ExpectExec(`UPDATE scrape_jobs SET total_found = \$1, total_saved = \$2, errors = \$3, errors_count = \$4 WHERE id = \$5$`).
		WithArgs(12, 10, pgxmock.AnyArg(), 1, "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateJob(context.Background(), "job-1", model.JobUpdate{
		TotalFound: &found,
		TotalSaved: &saved,
		Errors:     []model.ScrapeError{{Business: "Café Luna", Message: "timeout"}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateJob_Finalize(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	status := model.JobStatusSuccess
	now := time.Now()

	mock.ExpectExec(`UPDATE scrape_jobs SET status = \$1, finished_at = \$2 WHERE id = \$3 AND finished_at IS NULL`).
		WithArgs("SUCCESS", pgxmock.AnyArg(), "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateJob(context.Background(), "job-1", model.JobUpdate{Status: &status, FinishedAt: &now})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateJob_AlreadyFinalized(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	status := model.JobStatusFailed
	now := time.Now()

	mock.ExpectExec(`UPDATE scrape_jobs SET .* AND finished_at IS NULL`).
		WithArgs("FAILED", pgxmock.AnyArg(), "job-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT 1 FROM scrape_jobs WHERE id = \$1`).
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows([]string{"one"}).AddRow(1))

	err := s.UpdateJob(context.Background(), "job-1", model.JobUpdate{Status: &status, FinishedAt: &now})
	assert.ErrorIs(t, err, ErrJobFinalized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateJob_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	found := 3

	mock.ExpectExec(`UPDATE scrape_jobs SET total_found = \$1 WHERE id = \$2`).
		WithArgs(3, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT 1 FROM scrape_jobs`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	err := s.UpdateJob(context.Background(), "missing", model.JobUpdate{TotalFound: &found})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateJob_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	require.NoError(t, s.UpdateJob(context.Background(), "job-1", model.JobUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetJob_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, city, category, status, started_at, finished_at, total_found, total_saved, errors_count, errors FROM scrape_jobs WHERE id = \$1`).
		WithArgs("nonexistent-job").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetJob(context.Background(), "nonexistent-job")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "get job")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`(?s)INSERT INTO leads .* ON CONFLICT \(business_name, city, category\) DO NOTHING`).
		WithArgs(pgxmock.AnyArg(), "Café Luna", "Bogotá", "Cafeterías",
			nil, "6013334455", nil, nil,
			false, false, 75, "NEW", nil, "job-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := s.CreateLead(context.Background(), &model.Lead{
		BusinessName:     "  Café Luna ",
		City:             "Bogotá",
		Category:         "Cafeterías",
		Phone:            "6013334455",
		OpportunityScore: 75,
		JobID:            "job-1",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateLead_Duplicate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := s.CreateLead(context.Background(), &model.Lead{BusinessName: "Café Luna", City: "Bogotá", Category: "Cafeterías"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeads_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM leads WHERE true AND city = \$1 AND category = \$2 AND opportunity_score >= \$3 ORDER BY opportunity_score DESC, created_at DESC LIMIT \$4 OFFSET \$5`).
		WithArgs("Bogotá", "Cafeterías", 50, 20, 40).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "business_name", "city", "category", "address", "phone", "website_url", "instagram_url",
			"has_website", "has_instagram", "opportunity_score", "status", "notes", "job_id", "created_at",
		}))

	leads, err := s.ListLeads(context.Background(), model.LeadFilter{
		City: "Bogotá", Category: "Cafeterías", MinScore: 50, Limit: 20, Offset: 40,
	})
	require.NoError(t, err)
	assert.Empty(t, leads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListJobs_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM scrape_jobs ORDER BY started_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(100, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "city", "category", "status", "started_at", "finished_at",
			"total_found", "total_saved", "errors_count", "errors",
		}))

	jobs, err := s.ListJobs(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
