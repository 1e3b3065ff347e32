package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-radar/internal/db"
	"github.com/sells-group/lead-radar/internal/model"
)

// PostgresStore implements Store using a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects to Postgres and returns a store over the pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. The caller keeps ownership of
// the pool; Close does not close it.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scrape_jobs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	city         TEXT NOT NULL,
	category     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'RUNNING',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at  TIMESTAMPTZ,
	total_found  INTEGER NOT NULL DEFAULT 0,
	total_saved  INTEGER NOT NULL DEFAULT 0,
	errors_count INTEGER NOT NULL DEFAULT 0,
	errors       JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	business_name     TEXT NOT NULL,
	city              TEXT NOT NULL,
	category          TEXT NOT NULL,
	address           TEXT,
	phone             TEXT,
	website_url       TEXT,
	instagram_url     TEXT,
	has_website       BOOLEAN NOT NULL DEFAULT false,
	has_instagram     BOOLEAN NOT NULL DEFAULT false,
	opportunity_score INTEGER NOT NULL DEFAULT 0,
	status            TEXT NOT NULL DEFAULT 'NEW',
	notes             TEXT,
	job_id            TEXT REFERENCES scrape_jobs(id),
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT leads_business_city_category_key UNIQUE (business_name, city, category)
);

CREATE INDEX IF NOT EXISTS idx_scrape_jobs_started_at ON scrape_jobs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_leads_city_category ON leads(city, category);
CREATE INDEX IF NOT EXISTS idx_leads_job_id ON leads(job_id);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(opportunity_score DESC);
`

const pgJobColumns = `id, city, category, status, started_at, finished_at, total_found, total_saved, errors_count, errors`

const pgLeadColumns = `id, business_name, city, category, address, phone, website_url, instagram_url,
	has_website, has_instagram, opportunity_score, status, notes, job_id, created_at`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *model.Job) error {
	prepareJob(job)
	errorsJSON, err := json.Marshal(job.Errors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal job errors")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scrape_jobs (`+pgJobColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.City, job.Category, string(job.Status), job.StartedAt, job.FinishedAt,
		job.TotalFound, job.TotalSaved, job.ErrorsCount, errorsJSON,
	)
	return eris.Wrapf(err, "postgres: insert job %s", job.ID)
}

func (s *PostgresStore) UpdateJob(ctx context.Context, id string, upd model.JobUpdate) error {
	var sets []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if upd.Status != nil {
		sets = append(sets, "status = "+arg(string(*upd.Status)))
	}
	if upd.FinishedAt != nil {
		sets = append(sets, "finished_at = "+arg(upd.FinishedAt.UTC()))
	}
	if upd.TotalFound != nil {
		sets = append(sets, "total_found = "+arg(*upd.TotalFound))
	}
	if upd.TotalSaved != nil {
		sets = append(sets, "total_saved = "+arg(*upd.TotalSaved))
	}
	if upd.Errors != nil {
		errorsJSON, err := json.Marshal(upd.Errors)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal job errors")
		}
		sets = append(sets, "errors = "+arg(errorsJSON), "errors_count = "+arg(len(upd.Errors)))
	}
	if len(sets) == 0 {
		return nil
	}

	query := `UPDATE scrape_jobs SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + arg(id)
	if upd.FinishedAt != nil {
		query += ` AND finished_at IS NULL`
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job %s", id)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var one int
	err = s.pool.QueryRow(ctx, `SELECT 1 FROM scrape_jobs WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrapf(ErrNotFound, "postgres: job %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: check job %s", id)
	}
	return eris.Wrapf(ErrJobFinalized, "postgres: job %s", id)
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := scanPostgresJob(s.pool.QueryRow(ctx,
		`SELECT `+pgJobColumns+` FROM scrape_jobs WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get job %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", id)
	}
	return job, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, limit, offset int) ([]model.JobSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgJobColumns+` FROM scrape_jobs ORDER BY started_at DESC LIMIT $1 OFFSET $2`,
		listLimit(limit), max(offset, 0),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var out []model.JobSummary
	for rows.Next() {
		job, err := scanPostgresJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		out = append(out, *job.Summary())
	}
	return out, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) (bool, error) {
	prepareLead(lead)
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO leads (`+pgLeadColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (business_name, city, category) DO NOTHING`,
		lead.ID, lead.BusinessName, lead.City, lead.Category,
		nullString(lead.Address), nullString(lead.Phone), nullString(lead.WebsiteURL), nullString(lead.InstagramURL),
		lead.HasWebsite, lead.HasInstagram, lead.OpportunityScore, string(lead.Status),
		nullString(lead.Notes), nullString(lead.JobID), lead.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: insert lead %q", lead.BusinessName)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter model.LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + pgLeadColumns + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.City != "" {
		query += fmt.Sprintf(` AND city = $%d`, argIdx)
		args = append(args, filter.City)
		argIdx++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argIdx)
		args = append(args, filter.Category)
		argIdx++
	}
	if filter.JobID != "" {
		query += fmt.Sprintf(` AND job_id = $%d`, argIdx)
		args = append(args, filter.JobID)
		argIdx++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(` AND opportunity_score >= $%d`, argIdx)
		args = append(args, filter.MinScore)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY opportunity_score DESC, created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var out []model.Lead
	for rows.Next() {
		var l model.Lead
		var address, phone, website, instagram, notes, jobID *string
		var status string
		if err := rows.Scan(&l.ID, &l.BusinessName, &l.City, &l.Category,
			&address, &phone, &website, &instagram,
			&l.HasWebsite, &l.HasInstagram, &l.OpportunityScore, &status,
			&notes, &jobID, &l.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		l.Status = model.LeadStatus(status)
		l.Address, l.Phone, l.WebsiteURL = deref(address), deref(phone), deref(website)
		l.InstagramURL, l.Notes, l.JobID = deref(instagram), deref(notes), deref(jobID)
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func scanPostgresJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	var status string
	var finished *time.Time
	var errorsJSON []byte

	if err := row.Scan(&j.ID, &j.City, &j.Category, &status, &j.StartedAt, &finished,
		&j.TotalFound, &j.TotalSaved, &j.ErrorsCount, &errorsJSON); err != nil {
		return nil, err
	}
	j.Status = model.JobStatus(status)
	if finished != nil {
		t := finished.UTC()
		j.FinishedAt = &t
	}
	j.StartedAt = j.StartedAt.UTC()
	j.Errors = []model.ScrapeError{}
	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &j.Errors); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal job errors")
		}
	}
	return &j, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Store = (*PostgresStore)(nil)
