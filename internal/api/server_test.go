package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/journal/internal/config"
	"github.com/pbaille/journal/internal/journal"
	"github.com/pbaille/journal/internal/logging"
)

func createTestServer(t *testing.T, log logging.Logger) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.DataPath = filepath.Join(t.TempDir(), "journal.json")

	j, err := journal.Open(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	s := New(j, ":0", log)
	s.now = func() time.Time { return time.Unix(1_000, 0) }
	return s
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestServer_Health(t *testing.T) {
	h := createTestServer(t, logging.Discard()).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Labels(t *testing.T) {
	h := createTestServer(t, logging.Discard()).Handler()

	w := do(t, h, http.MethodPost, "/labels", `{"short_name":"wrk","long_name":"Work"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":0,"short_name":"wrk","long_name":"Work"}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/labels", `{"short_name":"wrk","long_name":"Again"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/labels", `{"short_name":"","long_name":"Nameless"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/labels", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/labels", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Labels []journal.LabelView `json:"labels"`
	}](t, w)
	assert.Equal(t, []journal.LabelView{{ID: 0, ShortName: "wrk", LongName: "Work"}}, got.Labels)

	w = do(t, h, http.MethodDelete, "/labels/wrk", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodDelete, "/labels/wrk", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Entries(t *testing.T) {
	h := createTestServer(t, logging.Discard()).Handler()

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/labels", `{"short_name":"wrk","long_name":"Work"}`).Code)

	w := do(t, h, http.MethodPost, "/entries", `{"timestamp":100,"text":"start","labels":["wrk"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, journal.EntryView{Timestamp: 100, Text: "start", Labels: []string{"wrk"}}, decode[journal.EntryView](t, w))

	w = do(t, h, http.MethodPost, "/entries", `{"text":"now"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[journal.EntryView](t, w)
	assert.Equal(t, int64(1_000), created.Timestamp)
	require.NotNil(t, created.Duration)
	assert.Equal(t, int64(900), *created.Duration)

	w = do(t, h, http.MethodPost, "/entries", `{"timestamp":5,"text":"x","labels":["nope"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/entries/@100", "")
	require.Equal(t, http.StatusOK, w.Code)
	byTS := decode[journal.EntryView](t, w)
	assert.Equal(t, 1, byTS.Position)

	w = do(t, h, http.MethodGet, "/entries/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, byTS, decode[journal.EntryView](t, w))

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/entries/7", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/entries/abc", "").Code)

	w = do(t, h, http.MethodGet, "/entries?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Entries []journal.EntryView `json:"entries"`
	}](t, w)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "now", list.Entries[0].Text)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/entries?limit=-1", "").Code)

	w = do(t, h, http.MethodDelete, "/entries/@1000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "now", decode[journal.EntryView](t, w).Text)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/entries/@1000", "").Code)
}

func TestServer_TagAndUntag(t *testing.T) {
	h := createTestServer(t, logging.Discard()).Handler()

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/labels", `{"short_name":"a","long_name":"A"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/labels", `{"short_name":"b","long_name":"B"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/entries", `{"timestamp":10,"text":"t"}`).Code)

	w := do(t, h, http.MethodPost, "/entries/0/labels", `{"labels":["b","a"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a", "b"}, decode[journal.EntryView](t, w).Labels)

	w = do(t, h, http.MethodDelete, "/entries/@10/labels", `{"labels":["a"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"b"}, decode[journal.EntryView](t, w).Labels)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/entries/0/labels", `{"labels":["zzz"]}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/entries/3/labels", `{"labels":["a"]}`).Code)
}

func TestServer_Log(t *testing.T) {
	h := createTestServer(t, logging.Discard()).Handler()

	for _, body := range []string{
		`{"timestamp":100,"text":"a"}`,
		`{"timestamp":110,"text":"b"}`,
		`{"timestamp":125,"text":"c"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/entries", body).Code)
	}

	w := do(t, h, http.MethodGet, "/log?start=125&end=100", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Entries []journal.EntryView `json:"entries"`
	}](t, w)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "b", got.Entries[0].Text)
	require.NotNil(t, got.Entries[0].Duration)
	assert.Equal(t, int64(10), *got.Entries[0].Duration)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/log?start=x&end=1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/log?start=1", "").Code)
}

func TestServer_RequestID(t *testing.T) {
	var buf bytes.Buffer
	h := createTestServer(t, logging.New(&buf, slog.LevelInfo)).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	id := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "request_id="+id)
	assert.Contains(t, buf.String(), "status=200")

	r := httptest.NewRequest(http.MethodGet, "/entries/zz", nil)
	r.Header.Set("X-Request-ID", "caller-id")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "caller-id", w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), "status=400")
}
