package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(store Store) *gin.Engine {
	h := NewHandler(store, nil)
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	router := gin.New()
	router.GET("/api/calendar/events", h.List)
	router.POST("/api/calendar/events", h.Create)
	router.DELETE("/api/calendar/events/:id", h.Delete)
	return router
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlerCreateListDelete(t *testing.T) {
	router := newTestRouter(NewMemoryStore())

	w := do(router, http.MethodPost, "/api/calendar/events",
		`{"title":"  Auditoría ISO ","start":"2026-03-10T08:00:00-05:00","end":"2026-03-10T10:00:00-05:00"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Data.ID)
	assert.Equal(t, "Auditoría ISO", created.Data.Title)
	assert.Equal(t, time.UTC, created.Data.Start.Location())
	assert.Equal(t, 13, created.Data.Start.Hour())

	w = do(router, http.MethodGet, "/api/calendar/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, created.Data.ID, listed.Data[0].ID)

	w = do(router, http.MethodDelete, "/api/calendar/events/"+created.Data.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodDelete, "/api/calendar/events/"+created.Data.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerCreate_Validation(t *testing.T) {
	router := newTestRouter(NewMemoryStore())

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"start":"2026-03-10T08:00:00Z","end":"2026-03-10T09:00:00Z"}`},
		{"blank title", `{"title":"   ","start":"2026-03-10T08:00:00Z","end":"2026-03-10T09:00:00Z"}`},
		{"end before start", `{"title":"x","start":"2026-03-10T09:00:00Z","end":"2026-03-10T08:00:00Z"}`},
		{"missing start", `{"title":"x","end":"2026-03-10T08:00:00Z"}`},
		{"malformed time", `{"title":"x","start":"mañana","end":"2026-03-10T08:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/calendar/events", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandlerCreate_ZeroLengthEvent(t *testing.T) {
	router := newTestRouter(NewMemoryStore())

	w := do(router, http.MethodPost, "/api/calendar/events",
		`{"title":"Recordatorio","start":"2026-03-10T08:00:00Z","end":"2026-03-10T08:00:00Z"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}
