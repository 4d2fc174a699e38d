package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examforge/examforge/internal/ledger"
	"github.com/examforge/examforge/internal/metrics"
	"github.com/examforge/examforge/internal/model"
	"github.com/examforge/examforge/internal/orchestrator"
	"github.com/examforge/examforge/internal/planner"
	"github.com/examforge/examforge/internal/policy"
	"github.com/examforge/examforge/internal/pool"
	"github.com/examforge/examforge/pkg/middleware"
)

type stubGenerator struct{}

func (stubGenerator) Produce(_ context.Context, section model.Section, difficulty model.Difficulty, count int) ([]model.Question, error) {
	items := make([]model.Question, count)
	for i := range items {
		items[i] = model.Question{
			ID:         fmt.Sprintf("gen-%d", i),
			Section:    section,
			Difficulty: difficulty,
			Source:     model.SourceGenerated,
		}
	}
	return items, nil
}

type api struct {
	handler http.Handler
	ledger  ledger.Ledger
	orch    *orchestrator.Orchestrator
}

func newAPI(t *testing.T) *api {
	t.Helper()

	led := ledger.NewMemoryLedger()
	pol := policy.New(policy.DefaultFreeCaps(), policy.DefaultPremiumCaps())
	pl := planner.New(pol, led, pool.NewMemoryPool(), stubGenerator{}, planner.Options{
		RetryDelay: time.Millisecond,
	})
	collector := metrics.NewCollector()
	orch := orchestrator.New(orchestrator.NewJobStore(), pl, pol, led, collector)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		orch.Shutdown(ctx)
	})

	router := NewRouter(
		NewJobHandler(orch),
		NewHealthHandler(nil, "test"),
		collector.Handler(),
		middleware.CORSConfig{
			AllowedOrigins: "*",
			AllowedMethods: "GET, POST, OPTIONS",
			AllowedHeaders: "Content-Type, X-User-ID, X-User-Role",
		},
	)

	return &api{handler: router.Handler(), ledger: led, orch: orch}
}

func (a *api) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *api) submit(t *testing.T, userID, body string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/v1/jobs", body, map[string]string{HeaderUserID: userID})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JobID)
	return resp.JobID
}

func (a *api) waitTerminal(t *testing.T, userID, jobID string) model.Job {
	t.Helper()

	var job model.Job
	require.Eventually(t, func() bool {
		rec := a.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, "", map[string]string{HeaderUserID: userID})
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
			return false
		}
		return job.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestSubmitAndPollJob(t *testing.T) {
	a := newAPI(t)

	jobID := a.submit(t, "u1", `{"sections": [{"section": "synonym", "count": 3}], "difficulty": "easy"}`)

	job := a.waitTerminal(t, "u1", jobID)
	assert.Equal(t, model.JobCompleted, job.Status)
	require.Len(t, job.Result, 1)
	assert.Len(t, job.Result[0].Items, 3)
	assert.Equal(t, 3, job.Result[0].FromGenerated)
}

func TestSubmitRejectsMalformedBody(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/jobs", `{"sections": [`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/jobs", `{"sections": []}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "invalid request")
}

func TestSubmitOverLimitReturns429(t *testing.T) {
	a := newAPI(t)

	day := model.DayKey(time.Now())
	_, _, err := a.ledger.CheckAndIncrement(context.Background(), "u1", model.SectionSynonym, day, 20, 20)
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/api/v1/jobs",
		`{"sections": [{"section": "synonym", "count": 5}]}`,
		map[string]string{HeaderUserID: "u1"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp LimitExceededResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.LimitExceeded)
	require.Len(t, resp.LimitsInfo.Sections, 1)
	assert.Equal(t, 20, resp.LimitsInfo.Sections[0].Used)
	assert.Equal(t, 0, resp.LimitsInfo.Sections[0].Remaining)
}

func TestStatusUnknownJobReturns404(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/jobs/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusHidesOtherUsersJobs(t *testing.T) {
	a := newAPI(t)

	jobID := a.submit(t, "u1", `{"sections": [{"section": "synonym", "count": 1}]}`)
	a.waitTerminal(t, "u1", jobID)

	rec := a.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, "", map[string]string{HeaderUserID: "u2"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "foreign jobs look like missing jobs")
}

func TestCancelEndpoint(t *testing.T) {
	a := newAPI(t)

	jobID := a.submit(t, "u1", `{"sections": [{"section": "synonym", "count": 1}]}`)

	rec := a.do(t, http.MethodPost, "/api/v1/jobs/"+jobID+"/cancel", "", map[string]string{HeaderUserID: "u1"})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/jobs/missing/cancel", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelHidesOtherUsersJobs(t *testing.T) {
	a := newAPI(t)

	jobID := a.submit(t, "u1", `{"sections": [{"section": "synonym", "count": 1}]}`)

	// Another user cannot cancel the job or learn that it exists.
	rec := a.do(t, http.MethodPost, "/api/v1/jobs/"+jobID+"/cancel", "", map[string]string{HeaderUserID: "u2"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "foreign jobs look like missing jobs")

	job := a.waitTerminal(t, "u1", jobID)
	assert.NotEqual(t, model.JobCancelled, job.Status)
}

func TestListJobsEndpoint(t *testing.T) {
	a := newAPI(t)

	jobID := a.submit(t, "u1", `{"sections": [{"section": "analogy", "count": 2}]}`)
	a.waitTerminal(t, "u1", jobID)

	rec := a.do(t, http.MethodGet, "/api/v1/jobs", "", map[string]string{HeaderUserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Jobs  []model.JobSummary `json:"jobs"`
		Total int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, jobID, resp.Jobs[0].ID)
}

func TestLimitsEndpoint(t *testing.T) {
	a := newAPI(t)

	day := model.DayKey(time.Now())
	_, _, err := a.ledger.CheckAndIncrement(context.Background(), "u1", model.SectionReading, day, 2, 5)
	require.NoError(t, err)

	rec := a.do(t, http.MethodGet, "/api/v1/limits", "", map[string]string{
		HeaderUserID: "u1",
		HeaderRole:   "free",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var info model.LimitsInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, day, info.Day)
	require.Len(t, info.Sections, len(model.AllSections))

	for _, sl := range info.Sections {
		if sl.Section == model.SectionReading {
			assert.Equal(t, 2, sl.Used)
			assert.Equal(t, 3, sl.Remaining)
		}
	}
}

func TestAnonymousSubmissionsShareQuota(t *testing.T) {
	a := newAPI(t)

	// No identity header at all: accounted under the shared anonymous key.
	rec := a.do(t, http.MethodPost, "/api/v1/jobs", `{"sections": [{"section": "writing", "count": 2}]}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	a.waitTerminal(t, "", resp.JobID)

	used, err := a.ledger.Usage(context.Background(), orchestrator.AnonymousUser, model.SectionWriting, model.DayKey(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 2, used)
}

func TestMethodNotAllowed(t *testing.T) {
	a := newAPI(t)

	assert.Equal(t, http.StatusMethodNotAllowed, a.do(t, http.MethodDelete, "/api/v1/jobs", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, a.do(t, http.MethodPost, "/api/v1/limits", "", nil).Code)
}

func TestHealthEndpoints(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "memory", health.Storage)

	rec = a.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newAPI(t)

	jobID := a.submit(t, "u1", `{"sections": [{"section": "synonym", "count": 1}]}`)
	a.waitTerminal(t, "u1", jobID)

	rec := a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "examforge_jobs_submitted_total 1")
}
