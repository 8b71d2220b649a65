package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "activity-store/internal/common/errors"
	"activity-store/internal/common/logger"
	"activity-store/pkg/activities"
)

// ==========================
// Mock Store Implementation
// ==========================

type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadRaw(ctx context.Context) (interface{}, error) {
	args := m.Called(ctx)
	return args.Get(0), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, a activities.Activities) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ==========================
// Handler Tests
// ==========================

func TestGetActivities(t *testing.T) {
	store := new(MockStore)
	store.On("LoadRaw", mock.Anything).Return(activities.Activities{"a1": map[string]interface{}{"name": "Run"}}, nil)
	h := NewHandler(store, logger.NewTestLogger(t))

	rec := serve(t, h, http.MethodGet, "/activities", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"a1":{"name":"Run"}}`, rec.Body.String())
	store.AssertExpectations(t)
}

func TestGetActivities_NonObjectRoot(t *testing.T) {
	store := new(MockStore)
	store.On("LoadRaw", mock.Anything).Return([]interface{}{json.Number("1"), "two"}, nil)
	h := NewHandler(store, logger.NewTestLogger(t))

	rec := serve(t, h, http.MethodGet, "/activities", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[1, "two"]`, rec.Body.String())
	store.AssertExpectations(t)
}

func TestGetActivities_StoreError(t *testing.T) {
	store := new(MockStore)
	store.On("LoadRaw", mock.Anything).Return(nil, apperrors.NewDataMalformedError("/x.json", fmt.Errorf("bad")))
	h := NewHandler(store, logger.NewTestLogger(t))

	rec := serve(t, h, http.MethodGet, "/activities", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ACTIVITY_DATA_MALFORMED", body["code"])
	assert.Equal(t, "Activity data file is malformed", body["message"])
}

func TestPutActivities(t *testing.T) {
	store := new(MockStore)
	want := activities.Activities{"a1": map[string]interface{}{"name": "Run", "duration": json.Number("30")}}
	store.On("Save", mock.Anything, want).Return(nil)
	h := NewHandler(store, logger.NewTestLogger(t))

	rec := serve(t, h, http.MethodPut, "/activities", `{"a1": {"name": "Run", "duration": 30}}`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	store.AssertExpectations(t)
}

func TestPutActivities_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{not json"},
		{name: "array", body: "[1,2]"},
		{name: "null", body: "null"},
		{name: "empty", body: ""},
		{name: "trailing garbage", body: `{"a1": 1} garbage`},
		{name: "two documents", body: `{} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			h := NewHandler(store, logger.NewTestLogger(t))

			rec := serve(t, h, http.MethodPut, "/activities", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_BODY", decodeBody(t, rec)["code"])
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestPutActivities_StoreError(t *testing.T) {
	store := new(MockStore)
	store.On("Save", mock.Anything, mock.Anything).Return(apperrors.NewIOFailedError("write", "/ro/x.json", fmt.Errorf("read-only file system")))
	h := NewHandler(store, logger.NewTestLogger(t))

	rec := serve(t, h, http.MethodPut, "/activities", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "ACTIVITY_IO_FAILED", decodeBody(t, rec)["code"])
}

func TestActivities_MethodNotAllowed(t *testing.T) {
	h := NewHandler(new(MockStore), logger.NewTestLogger(t))

	rec := serve(t, h, http.MethodDelete, "/activities", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, PUT", rec.Header().Get("Allow"))
}

func TestHealthAndReady(t *testing.T) {
	h := NewHandler(new(MockStore), logger.NewTestLogger(t))

	for path, state := range map[string]string{"/health": "healthy", "/ready": "ready"} {
		rec := serve(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, state, decodeBody(t, rec)["status"])
	}
}

func TestExtraRoute(t *testing.T) {
	h := NewHandler(new(MockStore), logger.NewTestLogger(t))
	h.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := serve(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRoundTripThroughRealStore(t *testing.T) {
	store := activities.NewStore(filepath.Join(t.TempDir(), activities.DataFileName), logger.NewTestLogger(t))
	h := NewHandler(store, logger.NewTestLogger(t))

	rec := serve(t, h, http.MethodGet, "/activities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	payload := `{"a1": {"name": "Run", "duration": 30, "tags": ["x", null]}}`
	rec = serve(t, h, http.MethodPut, "/activities", payload)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, h, http.MethodGet, "/activities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, payload, rec.Body.String())
}

func TestGetActivities_ArrayFileThroughRealStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), activities.DataFileName)
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Run"}, 2]`), 0o644))
	h := NewHandler(activities.NewStore(path, logger.NewTestLogger(t)), logger.NewTestLogger(t))

	rec := serve(t, h, http.MethodGet, "/activities", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name": "Run"}, 2]`, rec.Body.String())
}
