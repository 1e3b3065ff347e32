// Package job runs scrape jobs in the background and tracks their lifecycle.
package job

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-radar/internal/brands"
	"github.com/sells-group/lead-radar/internal/browser"
	"github.com/sells-group/lead-radar/internal/extract"
	"github.com/sells-group/lead-radar/internal/maps"
	"github.com/sells-group/lead-radar/internal/model"
	"github.com/sells-group/lead-radar/internal/resilience"
	"github.com/sells-group/lead-radar/internal/scoring"
	"github.com/sells-group/lead-radar/internal/social"
	"github.com/sells-group/lead-radar/internal/store"
	"github.com/sells-group/lead-radar/internal/telemetry"
)

var (
	// ErrCancelled ends a job that was cancelled through its token.
	ErrCancelled = eris.New("cancelled by user")
	// ErrShutdown ends a job that was cancelled because the process is
	// shutting down.
	ErrShutdown = eris.New("cancelled: server shutdown")
	// ErrDeadlineExceeded ends a job that ran past its configured timeout.
	ErrDeadlineExceeded = eris.New("job deadline exceeded")
)

const finalizeTimeout = 10 * time.Second

// Stages are the pipeline steps a Runner drives for every business.
type Stages struct {
	Searcher  *maps.Searcher
	Extractor *extract.Extractor
	Resolver  *social.Resolver
	Brands    *brands.Filter
}

// RunnerOptions tune a Runner.
type RunnerOptions struct {
	// Categories replace DefaultCategories for sweeps when non-empty.
	Categories []string
	Browser    browser.ContextOptions
	// Delay is the pause between businesses.
	Delay resilience.Jitter
	// Timeout bounds a whole job. Zero means no deadline.
	Timeout time.Duration
}

// Runner executes one job at a time per call to Run. A Runner is safe for
// concurrent use; each Run owns its own browser.
type Runner struct {
	store    store.Store
	launcher browser.Launcher
	stages   Stages
	opts     RunnerOptions
	now      func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(st store.Store, launcher browser.Launcher, stages Stages, opts RunnerOptions) *Runner {
	if stages.Brands == nil {
		stages.Brands = brands.Default()
	}
	return &Runner{store: st, launcher: launcher, stages: stages, opts: opts, now: time.Now}
}

// Categories returns the categories a request sweeps.
func (r *Runner) Categories(req StartRequest) []string {
	if req.Category != "" {
		return []string{req.Category}
	}
	if len(r.opts.Categories) > 0 {
		return r.opts.Categories
	}
	return DefaultCategories
}

// session is the browser a job drives. The page shows search results and
// detail pages; lookups open their own pages from browser.
type session struct {
	browser browser.Browser
	page    browser.Page
}

// progress accumulates the counters of a running job.
type progress struct {
	jobID  string
	req    StartRequest
	found  int
	saved  int
	errors []model.ScrapeError
	now    func() time.Time
}

func (p *progress) fail(business string, err error) {
	p.errors = append(p.errors, model.ScrapeError{
		Business:  business,
		Message:   err.Error(),
		Timestamp: p.now().UTC(),
	})
	telemetry.ScrapeErrors.Inc()
}

func (p *progress) update() model.JobUpdate {
	found, saved := p.found, p.saved
	return model.JobUpdate{TotalFound: &found, TotalSaved: &saved, Errors: p.snapshotErrors()}
}

func (p *progress) snapshotErrors() []model.ScrapeError {
	out := make([]model.ScrapeError, len(p.errors))
	copy(out, p.errors)
	return out
}

// Run scrapes the job and writes its terminal status. It never returns an
// error: every failure ends up in the job record.
func (r *Runner) Run(ctx context.Context, jobID string, req StartRequest, token *Token) {
	log := zap.L().With(zap.String("job_id", jobID), zap.String("city", req.City), zap.String("category", req.Category))
	log.Info("job: starting", zap.Int("limit", req.Limit))

	telemetry.JobsRunning.Inc()
	defer telemetry.JobsRunning.Dec()

	p := &progress{jobID: jobID, req: req, errors: []model.ScrapeError{}, now: r.now}

	runCtx, cancel := r.runContext(ctx, token)
	defer cancel()

	finished := false
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		log.Error("job: panic", zap.Any("panic", rec), zap.Stack("stack"))
		if !finished {
			r.finish(ctx, p, token, eris.Errorf("job: panic: %v", rec))
		}
	}()

	fatal := r.scrape(runCtx, p, token)
	finished = true
	r.finish(ctx, p, token, fatal)
}

// runContext derives the job context: cancelled with the token and bounded
// by the optional job timeout.
func (r *Runner) runContext(ctx context.Context, token *Token) (context.Context, context.CancelFunc) {
	var cancelTimeout context.CancelFunc = func() {}
	if r.opts.Timeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(ctx, r.opts.Timeout)
	}
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-token.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(); cancelTimeout() }
}

// checkpoint reports why the job must stop, if it must.
func checkpoint(ctx context.Context, token *Token) error {
	if token.Cancelled() {
		return ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrDeadlineExceeded
		}
		return err
	}
	return nil
}

func (r *Runner) scrape(ctx context.Context, p *progress, token *Token) error {
	if err := checkpoint(ctx, token); err != nil {
		return err
	}

	b, err := r.launcher.Launch(ctx, r.opts.Browser)
	if err != nil {
		if cerr := checkpoint(ctx, token); cerr != nil {
			return cerr
		}
		return eris.Wrap(err, "job: launch browser")
	}
	defer func() {
		if err := b.Close(); err != nil {
			zap.L().Warn("job: close browser", zap.String("job_id", p.jobID), zap.Error(err))
		}
	}()

	page, err := b.NewPage(ctx)
	if err != nil {
		if cerr := checkpoint(ctx, token); cerr != nil {
			return cerr
		}
		return eris.Wrap(err, "job: open page")
	}
	defer page.Close() //nolint:errcheck
	sess := &session{browser: b, page: page}

	categories := r.Categories(p.req)
	perCategory := PerCategoryLimit(p.req.Limit, len(categories), p.req.Category != "")

	for _, category := range categories {
		if p.saved >= p.req.Limit {
			break
		}
		if err := checkpoint(ctx, token); err != nil {
			return err
		}

		quota := min(perCategory, p.req.Limit-p.saved)
		if err := r.scrapeCategory(ctx, sess, p, token, category, quota); err != nil {
			return err
		}

		if err := r.store.UpdateJob(ctx, p.jobID, p.update()); err != nil {
			if cerr := checkpoint(ctx, token); cerr != nil {
				return cerr
			}
			return eris.Wrap(err, "job: write progress")
		}
	}
	return nil
}

func (r *Runner) scrapeCategory(ctx context.Context, sess *session, p *progress, token *Token, category string, quota int) error {
	log := zap.L().With(zap.String("job_id", p.jobID), zap.String("category", category))

	handles, err := r.stages.Searcher.Search(ctx, sess.page, p.req.City, category, quota)
	if err != nil {
		if cerr := checkpoint(ctx, token); cerr != nil {
			return cerr
		}
		log.Warn("job: search failed", zap.Error(err))
		p.fail("", eris.Wrapf(err, "category %s", category))
		return nil
	}
	p.found += len(handles)
	log.Info("job: processing category", zap.Int("handles", len(handles)), zap.Int("quota", quota))

	for i, handle := range handles {
		if err := checkpoint(ctx, token); err != nil {
			return err
		}
		if i > 0 {
			if err := r.opts.Delay.Sleep(ctx); err != nil {
				return checkpoint(ctx, token)
			}
		}
		r.processBusiness(ctx, sess, p, category, handle)
	}
	return nil
}

// processBusiness turns one place handle into a lead. Failures are recorded
// on the job and never stop it.
func (r *Runner) processBusiness(ctx context.Context, sess *session, p *progress, category, handle string) {
	log := zap.L().With(zap.String("job_id", p.jobID), zap.String("handle", handle))

	biz, err := r.stages.Extractor.Extract(ctx, sess.page, handle)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn("job: extract failed", zap.Error(err))
		p.fail("", eris.Wrapf(err, "place %s", handle))
		return
	}
	log = log.With(zap.String("business", biz.Name))

	if frag, ok := r.stages.Brands.Match(biz.Name, category); ok {
		log.Info("job: skipping known brand", zap.String("brand", frag))
		telemetry.LeadsSkipped.WithLabelValues(telemetry.SkipKnownBrand).Inc()
		return
	}

	var instagram string
	if r.stages.Resolver != nil {
		res, ok := r.stages.Resolver.Resolve(ctx, &social.Lookup{
			BusinessName: biz.Name,
			City:         p.req.City,
			Website:      biz.Website,
			Page:         sess.page,
			Browser:      sess.browser,
		})
		if ok {
			instagram = res.URL
			telemetry.SocialResolve.WithLabelValues(res.Layer).Inc()
		}
	}
	if ctx.Err() != nil {
		return
	}

	lead := &model.Lead{
		BusinessName: biz.Name,
		City:         p.req.City,
		Category:     category,
		Address:      biz.Address,
		Phone:        biz.Phone,
		WebsiteURL:   biz.Website,
		InstagramURL: instagram,
		OpportunityScore: scoring.Score(scoring.Signals{
			WebsiteURL:   biz.Website,
			HasInstagram: instagram != "",
			HasPhone:     biz.Phone != "",
		}),
		JobID: p.jobID,
	}
	created, err := r.store.CreateLead(ctx, lead)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn("job: save lead failed", zap.Error(err))
		p.fail(biz.Name, eris.Wrap(err, "job: save lead"))
		return
	}
	if !created {
		log.Debug("job: duplicate lead skipped")
		telemetry.LeadsSkipped.WithLabelValues(telemetry.SkipDuplicate).Inc()
		return
	}
	p.saved++
	telemetry.LeadsSaved.Inc()
	log.Debug("job: lead saved", zap.Int("score", lead.OpportunityScore))
}

// finish writes the terminal status exactly once.
func (r *Runner) finish(ctx context.Context, p *progress, token *Token, fatal error) {
	log := zap.L().With(zap.String("job_id", p.jobID))

	cause := token.seal()
	status := model.JobStatusSuccess
	switch {
	case cause != nil:
		status = model.JobStatusFailed
		p.fail("", cause)
	case errors.Is(fatal, ErrCancelled) || errors.Is(fatal, context.Canceled):
		status = model.JobStatusFailed
		p.fail("", ErrCancelled)
	case fatal != nil:
		status = model.JobStatusFailed
		p.fail("", fatal)
	}

	finished := r.now().UTC()
	upd := p.update()
	upd.Status = &status
	upd.FinishedAt = &finished

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := r.store.UpdateJob(writeCtx, p.jobID, upd); err != nil {
		log.Error("job: write terminal status", zap.String("status", string(status)), zap.Error(err))
	}
	telemetry.JobsFinished.WithLabelValues(string(status)).Inc()

	fields := []zap.Field{
		zap.String("status", string(status)),
		zap.Int("total_found", p.found),
		zap.Int("total_saved", p.saved),
		zap.Int("errors", len(p.errors)),
	}
	if status == model.JobStatusFailed {
		log.Error("job: failed", append(fields, zap.String("cause", p.errors[len(p.errors)-1].Message))...)
		return
	}
	log.Info("job: completed", fields...)
}
