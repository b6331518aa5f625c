// Package query implements the deterministic filter/sort/paginate view over
// the stored briefing corpus. Queries are pure and re-entrant; every call
// recomputes the subject dates from scratch.
package query

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"briefing-mail-archive/internal/models"
	"briefing-mail-archive/internal/store"
)

// DefaultPageSize is used when the caller requests a non-positive size.
const DefaultPageSize = 10

const dateLayout = "2006-01-02"

var subjectDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// epoch is the sentinel for subjects without a parsable embedded date.
var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// SubjectDate extracts the first YYYY-MM-DD substring of a subject line,
// falling back to the epoch sentinel when absent or unparsable.
func SubjectDate(subject string) time.Time {
	m := subjectDateRe.FindString(subject)
	if m == "" {
		return epoch
	}
	t, err := time.Parse(dateLayout, m)
	if err != nil {
		return epoch
	}
	return t
}

// Filter narrows the corpus; both conditions apply conjunctively.
type Filter struct {
	// Date is an exact subject-date day in YYYY-MM-DD form; empty matches all.
	Date string
	// Keyword is matched case-insensitively against subject and content.
	Keyword string
}

type Page struct {
	Number int
	Size   int
}

type Result struct {
	Items      []models.Record `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	// Dates holds the distinct non-sentinel subject dates, newest first.
	Dates []string `json:"dates"`
	// PageWindow is the run of up to five page numbers around the current
	// page, for callers building pagination controls.
	PageWindow []int `json:"page_window"`
}

// Query runs the filter/sort/paginate pass over an already-loaded record
// set. The input order is assumed to be the store's own (send-time
// descending), which the stable sort preserves among equal subject dates.
func Query(records []models.Record, f Filter, p Page) Result {
	type dated struct {
		rec  models.Record
		date time.Time
	}

	items := make([]dated, 0, len(records))
	facetSet := make(map[string]struct{})
	for _, r := range records {
		d := SubjectDate(r.Subject)
		items = append(items, dated{rec: r, date: d})
		if !d.Equal(epoch) {
			facetSet[d.Format(dateLayout)] = struct{}{}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[j].date.Before(items[i].date)
	})

	dates := make([]string, 0, len(facetSet))
	for d := range facetSet {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	keyword := strings.ToLower(f.Keyword)
	filtered := make([]dated, 0, len(items))
	for _, it := range items {
		if f.Date != "" && it.date.Format(dateLayout) != f.Date {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(it.rec.Subject), keyword) &&
			!strings.Contains(strings.ToLower(it.rec.Content), keyword) {
			continue
		}
		filtered = append(filtered, it)
	}

	size := p.Size
	if size < 1 {
		size = DefaultPageSize
	}

	total := len(filtered)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	page := p.Number
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}

	pageItems := make([]models.Record, 0, end-start)
	for _, it := range filtered[start:end] {
		pageItems = append(pageItems, it.rec)
	}

	return Result{
		Items:      pageItems,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		Dates:      dates,
		PageWindow: pageWindow(page, totalPages),
	}
}

// pageWindow mirrors the pagination controls of the original viewer: all
// pages when five or fewer exist, otherwise a five-wide run that sticks to
// the edges near the first and last pages.
func pageWindow(page, totalPages int) []int {
	var first, last int
	switch {
	case totalPages <= 5:
		first, last = 1, totalPages
	case page <= 3:
		first, last = 1, 5
	case page >= totalPages-2:
		first, last = totalPages-4, totalPages
	default:
		first, last = page-2, page+2
	}

	window := make([]int, 0, last-first+1)
	for n := first; n <= last; n++ {
		window = append(window, n)
	}
	return window
}

// Engine binds the pure query pass to the durable store.
type Engine struct {
	store *store.Store
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// QueryPage loads the current corpus and runs one query against it.
func (e *Engine) QueryPage(f Filter, p Page) Result {
	return Query(e.store.Load(), f, p)
}

// ListAvailableDates returns the distinct subject dates, newest first.
func (e *Engine) ListAvailableDates() []string {
	return Query(e.store.Load(), Filter{}, Page{Number: 1, Size: DefaultPageSize}).Dates
}
