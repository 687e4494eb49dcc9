package control

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-easyapply-automation/internal/queue"
	"go-easyapply-automation/internal/safety"
	"go-easyapply-automation/internal/storage"
)

type fakeController struct {
	started int
	paused  int
	resumed int
}

func (f *fakeController) Process(ctx context.Context) { f.started++ }
func (f *fakeController) Pause()                      { f.paused++ }
func (f *fakeController) Resume(ctx context.Context)  { f.resumed++ }

func newTestServer(t *testing.T) (*Server, *queue.Queue, *fakeController, *safety.ActivityTracker) {
	t.Helper()
	q, err := queue.New(storage.NewMemoryStore(), 3)
	require.NoError(t, err)
	ctrl := &fakeController{}
	activity := safety.NewActivityTracker()
	return NewServer(q, ctrl, activity), q, ctrl, activity
}

func TestEnqueueAndStatus(t *testing.T) {
	srv, q, _, _ := newTestServer(t)
	router := srv.Router()

	body, _ := json.Marshal(enqueueRequest{
		Job: queue.JobRef{
			ID:           "job-1",
			URL:          "https://example.com/jobs/1",
			Title:        "Backend Engineer",
			HasEasyApply: true,
		},
		Priority: "high",
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/queue", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var item queue.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, queue.PriorityHigh, item.Priority)
	assert.Equal(t, 1, q.Len())

	//a duplicate is rejected with 409
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/queue", bytes.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status queue.StatusSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Pending)
}

func TestEnqueueRejectsBadBody(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/queue", bytes.NewReader([]byte("nope"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveAndClear(t *testing.T) {
	srv, q, _, _ := newTestServer(t)
	router := srv.Router()

	item, err := q.Enqueue(queue.JobRef{ID: "j1", URL: "https://example.com/1", HasEasyApply: true}, queue.PriorityNormal)
	require.NoError(t, err)
	_, err = q.Enqueue(queue.JobRef{ID: "j2", URL: "https://example.com/2", HasEasyApply: true}, queue.PriorityNormal)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/queue/"+item.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, q.Len())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/queue/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/queue/clear", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, q.Len())
}

func TestProcessorEndpoints(t *testing.T) {
	srv, _, ctrl, _ := newTestServer(t)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/processor/pause", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ctrl.paused)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/processor/resume", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ctrl.resumed)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/processor/start", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Eventually(t, func() bool { return ctrl.started == 1 }, time.Second, 10*time.Millisecond)
}

func TestActivityTouch(t *testing.T) {
	srv, _, _, activity := newTestServer(t)

	before := activity.Last()
	time.Sleep(5 * time.Millisecond)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/activity", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, activity.Last().After(before))
}

func TestHistoryLimit(t *testing.T) {
	srv, q, _, _ := newTestServer(t)
	router := srv.Router()

	for _, id := range []string{"a", "b", "c"} {
		item, err := q.Enqueue(queue.JobRef{ID: id, URL: "https://example.com/" + id, HasEasyApply: true}, queue.PriorityNormal)
		require.NoError(t, err)
		require.NoError(t, q.MarkCompleted(item.ID, time.Second))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []queue.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?limit=zap", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
