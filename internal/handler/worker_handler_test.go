package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campus-client/internal/worker"
)

func setupWorkerRouter(t *testing.T) (*gin.Engine, *worker.Registry, *worker.TrackingNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	notifier := worker.NewTrackingNotifier(logger)
	registry := worker.NewRegistry()
	w := worker.New(notifier, registry, logger)
	require.NoError(t, w.Install(t.Context()))
	require.NoError(t, w.Activate(t.Context()))

	h := NewWorkerHandler(w, registry, notifier, logger)

	r := gin.New()
	r.GET("/worker/state", h.GetState)
	r.POST("/worker/windows", h.AttachWindow)
	r.DELETE("/worker/windows/:windowId", h.DetachWindow)
	r.GET("/worker/notifications", h.ListNotifications)
	r.POST("/worker/notifications/:notificationId/click", h.Click)
	r.POST("/worker/notifications/:notificationId/closed", h.Closed)

	return r, registry, notifier
}

func TestWorkerState(t *testing.T) {
	r, _, _ := setupWorkerRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/worker/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"active"}`, rec.Body.String())
}

func TestAttachAndDetachWindow(t *testing.T) {
	r, registry, _ := setupWorkerRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/worker/windows",
		strings.NewReader(`{"url":"https://campus.example/feed"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		WindowID string `json:"window_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.WindowID)

	windows, err := registry.Windows(t.Context())
	require.NoError(t, err)
	assert.Len(t, windows, 1)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("DELETE", "/worker/windows/"+resp.WindowID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	windows, err = registry.Windows(t.Context())
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestAttachWindow_MissingURL(t *testing.T) {
	r, _, _ := setupWorkerRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/worker/windows", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClickRoutesToWindow(t *testing.T) {
	r, registry, _ := setupWorkerRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/worker/notifications/n1/click",
		strings.NewReader(`{"conversation_id":"42"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	windows, err := registry.Windows(t.Context())
	require.NoError(t, err)
	require.Len(t, windows, 1, "click with no matching window opens one")
	assert.Equal(t, "/messages/42", windows[0].URL())
}

func TestClosedIsSideEffectFree(t *testing.T) {
	r, registry, _ := setupWorkerRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/worker/notifications/n1/closed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	windows, err := registry.Windows(t.Context())
	require.NoError(t, err)
	assert.Empty(t, windows, "close without click must not open or focus anything")
}
