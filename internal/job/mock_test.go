package job

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-radar/internal/model"
	"github.com/sells-group/lead-radar/internal/store"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateJob(ctx context.Context, job *model.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockStore) UpdateJob(ctx context.Context, id string, upd model.JobUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

func (m *mockStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (m *mockStore) ListJobs(ctx context.Context, limit, offset int) ([]model.JobSummary, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.JobSummary), args.Error(1)
}

func (m *mockStore) CreateLead(ctx context.Context, lead *model.Lead) (bool, error) {
	args := m.Called(ctx, lead)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ListLeads(ctx context.Context, filter model.LeadFilter) ([]model.Lead, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ store.Store = (*mockStore)(nil)

// --- Recording Store ---

// recordingStore wraps a real store and keeps every job update. failCreate
// can reject a lead before it is written; afterCreate runs after each
// created lead.
type recordingStore struct {
	store.Store

	mu          sync.Mutex
	updates     []model.JobUpdate
	created     int
	failCreate  func(lead *model.Lead) error
	afterCreate func(n int)
}

func (r *recordingStore) UpdateJob(ctx context.Context, id string, upd model.JobUpdate) error {
	r.mu.Lock()
	r.updates = append(r.updates, upd)
	r.mu.Unlock()
	return r.Store.UpdateJob(ctx, id, upd)
}

func (r *recordingStore) CreateLead(ctx context.Context, lead *model.Lead) (bool, error) {
	if r.failCreate != nil {
		if err := r.failCreate(lead); err != nil {
			return false, err
		}
	}
	created, err := r.Store.CreateLead(ctx, lead)
	if err != nil || !created {
		return created, err
	}
	r.mu.Lock()
	r.created++
	n, hook := r.created, r.afterCreate
	r.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return created, nil
}

func (r *recordingStore) Updates() []model.JobUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.JobUpdate(nil), r.updates...)
}
