package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-radar/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection keeps the pragmas in effect and serializes writers.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scrape_jobs (
	id           TEXT PRIMARY KEY,
	city         TEXT NOT NULL,
	category     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'RUNNING',
	started_at   DATETIME NOT NULL,
	finished_at  DATETIME,
	total_found  INTEGER NOT NULL DEFAULT 0,
	total_saved  INTEGER NOT NULL DEFAULT 0,
	errors_count INTEGER NOT NULL DEFAULT 0,
	errors       TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY,
	business_name     TEXT NOT NULL,
	city              TEXT NOT NULL,
	category          TEXT NOT NULL,
	address           TEXT,
	phone             TEXT,
	website_url       TEXT,
	instagram_url     TEXT,
	has_website       INTEGER NOT NULL DEFAULT 0,
	has_instagram     INTEGER NOT NULL DEFAULT 0,
	opportunity_score INTEGER NOT NULL DEFAULT 0,
	status            TEXT NOT NULL DEFAULT 'NEW',
	notes             TEXT,
	job_id            TEXT REFERENCES scrape_jobs(id),
	created_at        DATETIME NOT NULL,
	UNIQUE (business_name, city, category)
);

CREATE INDEX IF NOT EXISTS idx_scrape_jobs_started_at ON scrape_jobs(started_at);
CREATE INDEX IF NOT EXISTS idx_leads_city_category ON leads(city, category);
CREATE INDEX IF NOT EXISTS idx_leads_job_id ON leads(job_id);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(opportunity_score);
`

const sqliteJobColumns = `id, city, category, status, started_at, finished_at, total_found, total_saved, errors_count, errors`

const sqliteLeadColumns = `id, business_name, city, category, address, phone, website_url, instagram_url,
	has_website, has_instagram, opportunity_score, status, notes, job_id, created_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJob(ctx context.Context, job *model.Job) error {
	prepareJob(job)
	errorsJSON, err := json.Marshal(job.Errors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal job errors")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scrape_jobs (`+sqliteJobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.City, job.Category, string(job.Status), job.StartedAt, job.FinishedAt,
		job.TotalFound, job.TotalSaved, job.ErrorsCount, string(errorsJSON),
	)
	return eris.Wrapf(err, "sqlite: insert job %s", job.ID)
}

func (s *SQLiteStore) UpdateJob(ctx context.Context, id string, upd model.JobUpdate) error {
	var sets []string
	var args []any

	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.FinishedAt != nil {
		sets = append(sets, "finished_at = ?")
		args = append(args, upd.FinishedAt.UTC())
	}
	if upd.TotalFound != nil {
		sets = append(sets, "total_found = ?")
		args = append(args, *upd.TotalFound)
	}
	if upd.TotalSaved != nil {
		sets = append(sets, "total_saved = ?")
		args = append(args, *upd.TotalSaved)
	}
	if upd.Errors != nil {
		errorsJSON, err := json.Marshal(upd.Errors)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal job errors")
		}
		sets = append(sets, "errors = ?", "errors_count = ?")
		args = append(args, string(errorsJSON), len(upd.Errors))
	}
	if len(sets) == 0 {
		return nil
	}

	query := `UPDATE scrape_jobs SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)
	if upd.FinishedAt != nil {
		query += ` AND finished_at IS NULL`
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n > 0 {
		return nil
	}
	return s.missingJob(ctx, id)
}

// missingJob explains an update that matched no rows.
func (s *SQLiteStore) missingJob(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM scrape_jobs WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return eris.Wrapf(ErrNotFound, "sqlite: job %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: check job %s", id)
	}
	return eris.Wrapf(ErrJobFinalized, "sqlite: job %s", id)
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteJobColumns+` FROM scrape_jobs WHERE id = ?`, id,
	)
	job, err := scanSQLiteJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get job %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", id)
	}
	return job, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, limit, offset int) ([]model.JobSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteJobColumns+` FROM scrape_jobs ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		listLimit(limit), max(offset, 0),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var out []model.JobSummary
	for rows.Next() {
		job, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		out = append(out, *job.Summary())
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead) (bool, error) {
	prepareLead(lead)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (`+sqliteLeadColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (business_name, city, category) DO NOTHING`,
		lead.ID, lead.BusinessName, lead.City, lead.Category,
		nullString(lead.Address), nullString(lead.Phone), nullString(lead.WebsiteURL), nullString(lead.InstagramURL),
		lead.HasWebsite, lead.HasInstagram, lead.OpportunityScore, string(lead.Status),
		nullString(lead.Notes), nullString(lead.JobID), lead.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert lead %q", lead.BusinessName)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter model.LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + sqliteLeadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.JobID != "" {
		query += ` AND job_id = ?`
		args = append(args, filter.JobID)
	}
	if filter.MinScore > 0 {
		query += ` AND opportunity_score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY opportunity_score DESC, created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var out []model.Lead
	for rows.Next() {
		var l model.Lead
		var address, phone, website, instagram, notes, jobID sql.NullString
		if err := rows.Scan(&l.ID, &l.BusinessName, &l.City, &l.Category,
			&address, &phone, &website, &instagram,
			&l.HasWebsite, &l.HasInstagram, &l.OpportunityScore, &l.Status,
			&notes, &jobID, &l.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		l.Address, l.Phone, l.WebsiteURL = address.String, phone.String, website.String
		l.InstagramURL, l.Notes, l.JobID = instagram.String, notes.String, jobID.String
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteJob(row scannable) (*model.Job, error) {
	var j model.Job
	var finished sql.NullTime
	var errorsJSON string

	if err := row.Scan(&j.ID, &j.City, &j.Category, &j.Status, &j.StartedAt, &finished,
		&j.TotalFound, &j.TotalSaved, &j.ErrorsCount, &errorsJSON); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time.UTC()
		j.FinishedAt = &t
	}
	j.StartedAt = j.StartedAt.UTC()
	if err := json.Unmarshal([]byte(errorsJSON), &j.Errors); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal job errors")
	}
	if j.Errors == nil {
		j.Errors = []model.ScrapeError{}
	}
	return &j, nil
}

var _ Store = (*SQLiteStore)(nil)
