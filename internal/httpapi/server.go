// Package httpapi exposes the ingestion and query contracts over HTTP for
// whatever front end renders the corpus. It serves JSON only; page rendering
// stays with the caller.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"briefing-mail-archive/internal/ingest"
	"briefing-mail-archive/internal/logging"
	"briefing-mail-archive/internal/query"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Ingester triggers one ingest-and-persist cycle on demand.
type Ingester interface {
	IngestAndPersist(now time.Time) (ingest.Stats, error)
}

type Server struct {
	engine   *query.Engine
	ingester Ingester
	pageSize int
}

func NewServer(engine *query.Engine, ingester Ingester, pageSize int) *Server {
	if pageSize < 1 {
		pageSize = query.DefaultPageSize
	}
	return &Server{
		engine:   engine,
		ingester: ingester,
		pageSize: pageSize,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/briefings", s.handleBriefings)
	r.Get("/api/dates", s.handleDates)
	r.Post("/api/refresh", s.handleRefresh)

	return r
}

// handleBriefings serves one page of the corpus. Bad or absent parameters
// fall back to defaults rather than erroring; the query engine clamps the
// page number itself.
func (s *Server) handleBriefings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := query.Page{Number: 1, Size: s.pageSize}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		page.Number = n
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil && n > 0 {
		page.Size = n
	}

	result := s.engine.QueryPage(query.Filter{
		Date:    q.Get("date"),
		Keyword: q.Get("keyword"),
	}, page)

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	dates := s.engine.ListAvailableDates()
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

// handleRefresh runs one ingestion cycle. A mailbox-side failure is reported
// as a diagnostic string; the stored corpus stays queryable regardless.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ingester.IngestAndPersist(time.Now())
	if err != nil {
		logging.Log.Errorf("Refresh failed: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":       err.Error(),
			"new_count":   0,
			"total_count": stats.TotalCount,
		})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Log.Errorf("Error encoding response: %v", err)
	}
}
