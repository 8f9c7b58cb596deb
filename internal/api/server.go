package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/journal"
	"github.com/pbaille/journal/internal/logging"
)

// Server handles HTTP requests for the journal API
type Server struct {
	journal *journal.Journal
	addr    string
	log     logging.Logger
	now     func() time.Time
}

// New creates a new API server
func New(j *journal.Journal, addr string, log logging.Logger) *Server {
	return &Server{journal: j, addr: addr, log: log, now: time.Now}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Labels
	mux.HandleFunc("GET /labels", s.listLabels)
	mux.HandleFunc("POST /labels", s.addLabel)
	mux.HandleFunc("DELETE /labels/{short}", s.removeLabel)

	// Entries
	mux.HandleFunc("GET /entries", s.listEntries)
	mux.HandleFunc("POST /entries", s.addEntry)
	mux.HandleFunc("GET /entries/{id}", s.getEntry)
	mux.HandleFunc("DELETE /entries/{id}", s.removeEntry)
	mux.HandleFunc("POST /entries/{id}/labels", s.tagEntry)
	mux.HandleFunc("DELETE /entries/{id}/labels", s.untagEntry)

	mux.HandleFunc("GET /log", s.between)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return s.withRequestID(withCORS(mux))
}

// Run starts the HTTP server
func (s *Server) Run() error {
	s.log.Info(context.Background(), "starting server", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID tags every request with an id, echoed in X-Request-ID, and
// logs it once served
func (s *Server) withRequestID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)

		s.log.Info(r.Context(), "request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", s.now().Sub(start),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddLabelRequest is the request body for adding a label
type AddLabelRequest struct {
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
}

func (s *Server) listLabels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"labels": s.journal.Labels(r.Context()),
	})
}

func (s *Server) addLabel(w http.ResponseWriter, r *http.Request) {
	var req AddLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.journal.AddLabel(r.Context(), req.LongName, req.ShortName)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, journal.LabelView{
		ID:        id,
		ShortName: req.ShortName,
		LongName:  req.LongName,
	})
}

func (s *Server) removeLabel(w http.ResponseWriter, r *http.Request) {
	if err := s.journal.RemoveLabel(r.Context(), r.PathValue("short")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddEntryRequest is the request body for adding an entry. A missing
// timestamp means now.
type AddEntryRequest struct {
	Timestamp *int64   `json:"timestamp,omitempty"`
	Text      string   `json:"text"`
	Labels    []string `json:"labels,omitempty"`
}

// LabelsRequest is the request body for tagging and untagging an entry
type LabelsRequest struct {
	Labels []string `json:"labels"`
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": s.journal.Log(r.Context(), limit),
		"limit":   limit,
	})
}

func (s *Server) addEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ts := s.now().Unix()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	if err := s.journal.AddEntry(r.Context(), ts, req.Text, req.Labels); err != nil {
		writeDomainError(w, err)
		return
	}

	v, _ := s.journal.Entry(r.Context(), domain.ByTimestamp(ts))
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	v, found := s.journal.Entry(r.Context(), id)
	if !found {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	writeJSON(w, http.StatusOK, v)
}

func (s *Server) removeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	v, found, err := s.journal.RemoveEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	writeJSON(w, http.StatusOK, v)
}

func (s *Server) tagEntry(w http.ResponseWriter, r *http.Request) {
	s.relabel(w, r, s.journal.Tag)
}

func (s *Server) untagEntry(w http.ResponseWriter, r *http.Request) {
	s.relabel(w, r, s.journal.Untag)
}

func (s *Server) relabel(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id domain.EntryID, names []string) error) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	var req LabelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, found := s.journal.Entry(r.Context(), id); !found {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	if err := apply(r.Context(), id, req.Labels); err != nil {
		writeDomainError(w, err)
		return
	}

	v, _ := s.journal.Entry(r.Context(), id)
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) between(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := strconv.ParseInt(q.Get("start"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter 'start' must be a unix timestamp")
		return
	}
	end, err := strconv.ParseInt(q.Get("end"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter 'end' must be a unix timestamp")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": s.journal.Between(r.Context(), start, end),
		"start":   start,
		"end":     end,
	})
}

func entryID(w http.ResponseWriter, r *http.Request) (domain.EntryID, bool) {
	id, err := domain.ParseEntryID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.EntryID{}, false
	}
	return id, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
