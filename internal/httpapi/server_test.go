package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"briefing-mail-archive/internal/ingest"
	"briefing-mail-archive/internal/models"
	"briefing-mail-archive/internal/query"
	"briefing-mail-archive/internal/store"
)

type fakeIngester struct {
	stats ingest.Stats
	err   error
	calls int
}

func (f *fakeIngester) IngestAndPersist(now time.Time) (ingest.Stats, error) {
	f.calls++
	return f.stats, f.err
}

func seededServer(t *testing.T, ingester Ingester) *Server {
	t.Helper()

	st := store.New(filepath.Join(t.TempDir(), "briefings.json"))
	records := []models.Record{
		{ID: "1", Subject: "Weekly Brief 2024-06-10", Content: "Hello"},
		{ID: "2", Subject: "Weekly Brief 2024-06-11", Content: "market news"},
	}
	if _, _, err := st.Merge(records); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	return NewServer(query.NewEngine(st), ingester, 10)
}

func getJSON(t *testing.T, handler http.Handler, target string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec
}

func TestHandleBriefings(t *testing.T) {
	srv := seededServer(t, &fakeIngester{})
	router := srv.Router()

	var res query.Result
	rec := getJSON(t, router, "/api/briefings", &res)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if res.Total != 2 || len(res.Items) != 2 {
		t.Fatalf("total = %d, items = %d; want 2/2", res.Total, len(res.Items))
	}
	if res.Items[0].ID != "2" {
		t.Errorf("first item = %q, want newest subject date first", res.Items[0].ID)
	}
}

func TestHandleBriefingsFilters(t *testing.T) {
	srv := seededServer(t, &fakeIngester{})
	router := srv.Router()

	t.Run("Date filter", func(t *testing.T) {
		var res query.Result
		getJSON(t, router, "/api/briefings?date=2024-06-10", &res)
		if res.Total != 1 || res.Items[0].Content != "Hello" {
			t.Errorf("date filter returned %+v, want the 06-10 record", res.Items)
		}
	})

	t.Run("Keyword filter is case-insensitive", func(t *testing.T) {
		var res query.Result
		getJSON(t, router, "/api/briefings?keyword=MARKET", &res)
		if res.Total != 1 || res.Items[0].ID != "2" {
			t.Errorf("keyword filter returned %+v, want record 2", res.Items)
		}
	})

	t.Run("Bad page parameter falls back to page 1", func(t *testing.T) {
		var res query.Result
		getJSON(t, router, "/api/briefings?page=banana", &res)
		if res.Page != 1 {
			t.Errorf("page = %d, want 1", res.Page)
		}
	})
}

func TestHandleDates(t *testing.T) {
	srv := seededServer(t, &fakeIngester{})
	router := srv.Router()

	var res struct {
		Dates []string `json:"dates"`
	}
	getJSON(t, router, "/api/dates", &res)

	if len(res.Dates) != 2 || res.Dates[0] != "2024-06-11" {
		t.Errorf("dates = %v, want [2024-06-11 2024-06-10]", res.Dates)
	}
}

func TestHandleRefresh(t *testing.T) {
	ingester := &fakeIngester{stats: ingest.Stats{NewCount: 3, TotalCount: 5}}
	srv := seededServer(t, ingester)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ingester.calls != 1 {
		t.Errorf("ingester called %d times, want 1", ingester.calls)
	}

	var stats ingest.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if stats.NewCount != 3 || stats.TotalCount != 5 {
		t.Errorf("stats = %+v, want 3 new / 5 total", stats)
	}
}

func TestHandleRefreshFailure(t *testing.T) {
	ingester := &fakeIngester{
		stats: ingest.Stats{TotalCount: 2},
		err:   errors.New("IMAP connection error (imap.example.com:993): refused"),
	}
	srv := seededServer(t, ingester)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("missing diagnostic string in error response")
	}
	if body["total_count"].(float64) != 2 {
		t.Errorf("total_count = %v, want the still-queryable stored total", body["total_count"])
	}
}
