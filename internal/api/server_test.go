package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-radar/internal/job"
	"github.com/sells-group/lead-radar/internal/model"
	"github.com/sells-group/lead-radar/internal/store"
)

type mockJobs struct {
	mock.Mock
}

func (m *mockJobs) StartJob(ctx context.Context, req job.StartRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockJobs) GetJobStatus(ctx context.Context, id string) (*model.JobSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.JobSummary), args.Error(1)
}

func (m *mockJobs) CancelJob(id string) bool {
	return m.Called(id).Bool(0)
}

func (m *mockJobs) Running() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

type mockRecords struct {
	mock.Mock
}

func (m *mockRecords) ListJobs(ctx context.Context, limit, offset int) ([]model.JobSummary, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.JobSummary), args.Error(1)
}

func (m *mockRecords) ListLeads(ctx context.Context, filter model.LeadFilter) ([]model.Lead, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

func newTestServer(t *testing.T) (*httptest.Server, *mockJobs, *mockRecords) {
	t.Helper()
	jobs, records := new(mockJobs), new(mockRecords)
	srv := httptest.NewServer(New(jobs, records).Router())
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		jobs.AssertExpectations(t)
		records.AssertExpectations(t)
	})
	return srv, jobs, records
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealth(t *testing.T) {
	srv, jobs, _ := newTestServer(t)
	jobs.On("Running").Return([]string{"job-1", "job-2"})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status      string `json:"status"`
		RunningJobs int    `json:"running_jobs"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.RunningJobs)
}

func TestHealth_Idle(t *testing.T) {
	srv, jobs, _ := newTestServer(t)
	jobs.On("Running").Return(nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, float64(0), body["running_jobs"])
}

func TestMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartJob(t *testing.T) {
	srv, jobs, _ := newTestServer(t)
	jobs.On("StartJob", mock.Anything, job.StartRequest{City: "Bogotá", Category: "Panaderías", Limit: 10}).
		Return("job-1", nil)

	resp, err := http.Post(srv.URL+"/jobs", "application/json",
		strings.NewReader(`{"city":"Bogotá","category":"Panaderías","limit":10}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "job-1", body["id"])
}

func TestStartJob_BadBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/jobs", "application/json", strings.NewReader(`{"city":`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartJob_Invalid(t *testing.T) {
	srv, jobs, _ := newTestServer(t)
	jobs.On("StartJob", mock.Anything, mock.Anything).
		Return("", eris.Wrap(job.ErrInvalidRequest, "limit must be between 1 and 100"))

	resp, err := http.Post(srv.URL+"/jobs", "application/json", strings.NewReader(`{"city":"Cali","limit":0}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Contains(t, body["error"], "limit must be between 1 and 100")
}

func TestStartJob_StoreError(t *testing.T) {
	srv, jobs, _ := newTestServer(t)
	jobs.On("StartJob", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	resp, err := http.Post(srv.URL+"/jobs", "application/json", strings.NewReader(`{"city":"Cali","limit":5}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.NotContains(t, body["error"], "connection refused")
}

func TestGetJob(t *testing.T) {
	srv, jobs, _ := newTestServer(t)
	jobs.On("GetJobStatus", mock.Anything, "job-1").Return(&model.JobSummary{
		ID: "job-1", Status: model.JobStatusRunning, City: "Bogotá", TotalFound: 12, TotalSaved: 9,
	}, nil)

	resp, err := http.Get(srv.URL + "/jobs/job-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.JobSummary
	decode(t, resp, &got)
	assert.Equal(t, model.JobStatusRunning, got.Status)
	assert.Equal(t, 12, got.TotalFound)
	assert.Equal(t, 9, got.TotalSaved)
}

func TestGetJob_NotFound(t *testing.T) {
	srv, jobs, _ := newTestServer(t)
	jobs.On("GetJobStatus", mock.Anything, "nope").Return(nil, eris.Wrap(store.ErrNotFound, "sqlite: get job nope"))

	resp, err := http.Get(srv.URL + "/jobs/nope")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelJob(t *testing.T) {
	srv, jobs, _ := newTestServer(t)
	jobs.On("CancelJob", "live").Return(true)
	jobs.On("CancelJob", "done").Return(false)

	for id, want := range map[string]bool{"live": true, "done": false} {
		resp, err := http.Post(srv.URL+"/jobs/"+id+"/cancel", "application/json", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]bool
		decode(t, resp, &body)
		assert.Equal(t, want, body["cancelled"], id)
	}
}

func TestListJobs(t *testing.T) {
	srv, _, records := newTestServer(t)
	records.On("ListJobs", mock.Anything, 20, 40).Return([]model.JobSummary{{ID: "job-1"}}, nil)

	resp, err := http.Get(srv.URL + "/jobs?limit=20&offset=40")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Jobs []model.JobSummary `json:"jobs"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Jobs, 1)
	assert.Equal(t, "job-1", body.Jobs[0].ID)
}

func TestListJobs_BadLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/jobs?limit=ten")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListLeads(t *testing.T) {
	srv, _, records := newTestServer(t)
	records.On("ListLeads", mock.Anything, model.LeadFilter{
		City: "Bogotá", Category: "Cafeterías", JobID: "job-1", MinScore: 50, Limit: 10,
	}).Return(nil, nil)

	resp, err := http.Get(srv.URL + "/leads?city=Bogot%C3%A1&category=Cafeter%C3%ADas&job_id=job-1&min_score=50&limit=10")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]json.RawMessage
	decode(t, resp, &body)
	assert.JSONEq(t, `[]`, string(body["leads"]))
}

func TestListLeads_BadMinScore(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/leads?min_score=high")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListLeads_StoreError(t *testing.T) {
	srv, _, records := newTestServer(t)
	records.On("ListLeads", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	resp, err := http.Get(srv.URL + "/leads")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	jobs, records := new(mockJobs), new(mockRecords)
	jobs.On("Running").Return(nil)
	srv := httptest.NewServer(New(jobs, records).WithCORS([]string{"https://dash.example.com"}).Router())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/jobs", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "https://dash.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close() //nolint:errcheck
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestNoCORSByDefault(t *testing.T) {
	srv, jobs, _ := newTestServer(t)
	jobs.On("Running").Return(nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dash.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
