// Package api serves stored segments over HTTP for the map frontend.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/micro2move/segment-cli/internal/export"
	"github.com/micro2move/segment-cli/internal/report"
	"github.com/micro2move/segment-cli/internal/segment"
	"github.com/micro2move/segment-cli/internal/store"
)

// MaxLimit caps the limit query parameter on /segments.
const MaxLimit = 5000

// Server exposes a read-only view of a SegmentStore.
type Server struct {
	store store.SegmentStore
	log   *zap.Logger
}

// NewServer creates a Server backed by st.
func NewServer(st store.SegmentStore) *Server {
	return &Server{
		store: st,
		log:   zap.L().With(zap.String("component", "api")),
	}
}

// Handler returns the router with CORS enabled for GET requests from any
// origin.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/segments", s.listSegments)
	r.Get("/segments.geojson", s.segmentsGeoJSON)
	r.Get("/segments/{id}", s.getSegment)
	r.Get("/stats", s.stats)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listSegments(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	segs, err := s.store.ListSegments(r.Context(), filter)
	if err != nil {
		s.fail(w, "list segments", err)
		return
	}
	writeJSON(w, http.StatusOK, segs)
}

func (s *Server) getSegment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	seg, err := s.store.GetSegment(r.Context(), id)
	if err != nil {
		s.fail(w, "get segment", err)
		return
	}
	if seg == nil {
		writeError(w, http.StatusNotFound, "segment not found")
		return
	}
	writeJSON(w, http.StatusOK, seg)
}

func (s *Server) segmentsGeoJSON(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	segs, err := s.store.ListSegments(r.Context(), filter)
	if err != nil {
		s.fail(w, "list segments", err)
		return
	}
	data, err := export.FeatureCollection(segs).MarshalJSON()
	if err != nil {
		s.fail(w, "encode geojson", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	segs, err := s.store.ListSegments(r.Context(), store.SegmentFilter{})
	if err != nil {
		s.fail(w, "list segments", err)
		return
	}
	writeJSON(w, http.StatusOK, report.Build(segs))
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

func parseFilter(r *http.Request) (store.SegmentFilter, error) {
	q := r.URL.Query()
	f := store.SegmentFilter{
		FacilityType: segment.FacilityType(q.Get("facility_type")),
		LocalArea:    q.Get("local_area"),
		Tag:          q.Get("tag"),
	}
	if f.FacilityType != "" && !f.FacilityType.Valid() {
		return f, badRequest("unknown facility_type " + strconv.Quote(string(f.FacilityType)))
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, badRequest("limit must be a positive integer")
		}
		f.Limit = min(n, MaxLimit)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
