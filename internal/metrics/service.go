package metrics

import (
	"sort"
	"strings"

	"github.com/AngelCh415/marketing-intel/internal/kpi"
	"github.com/AngelCh415/marketing-intel/internal/models"
)

// Service answers dashboard queries over one unified dataset. Business-level
// figures always come from the daily view so a day's totals count once, no
// matter how many channel rows share that date.
type Service struct {
	ds  *models.Dataset
	cap float64
}

func NewService(ds *models.Dataset, changeCap float64) *Service {
	if ds == nil {
		ds = &models.Dataset{}
	}
	if changeCap <= 0 {
		changeCap = kpi.DefaultCap
	}
	return &Service{ds: ds, cap: changeCap}
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

type Filter struct {
	Window    kpi.Window
	Channels  []models.Channel
	States    []string
	Tactics   []string
	Campaigns []string
}

// marketing reports whether any channel-level filter is set.
func (f Filter) marketing() bool {
	return len(f.Channels) > 0 || len(f.States) > 0 || len(f.Tactics) > 0 || len(f.Campaigns) > 0
}

func inSet(v string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if norm(s) == norm(v) {
			return true
		}
	}
	return false
}

func (f Filter) matchRow(r models.UnifiedRecord) bool {
	if !f.Window.IsZero() && !f.Window.Contains(r.Date) {
		return false
	}
	if len(f.Channels) > 0 {
		ok := false
		for _, c := range f.Channels {
			if c == r.Source {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return inSet(r.State, f.States) && inSet(r.Tactic, f.Tactics) && inSet(r.Campaign, f.Campaigns)
}

// resolve fills an open window from the dataset's date range.
func (s *Service) resolve(f Filter) Filter {
	first, last := s.ds.DateRange()
	if f.Window.Start.IsZero() {
		f.Window.Start = first
	}
	if f.Window.End.IsZero() {
		f.Window.End = last
	}
	return f
}

func (s *Service) rows(f Filter) []models.UnifiedRecord {
	var out []models.UnifiedRecord
	for _, r := range s.ds.Rows {
		if f.matchRow(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) days(w kpi.Window) []models.DailyRecord {
	var out []models.DailyRecord
	for _, d := range s.ds.Days {
		if w.IsZero() || w.Contains(d.Date) {
			out = append(out, d)
		}
	}
	return out
}

// Page is one slice of filtered rows; Limit and Offset are the values applied
// after clamping.
type Page struct {
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Rows   []models.UnifiedRecord `json:"rows"`
}

// Rows returns filtered unified rows in dataset order (date, then feed order).
func (s *Service) Rows(f Filter, limit, offset int) Page {
	rows := s.rows(f)
	limit, offset = clampLimitOffset(limit, offset, len(rows))
	return Page{Total: len(rows), Limit: limit, Offset: offset, Rows: paginate(rows, limit, offset)}
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

const MaxPageSize = 1000

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	} // tope sano
	if offset > n {
		offset = n
	}
	return limit, offset
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
