package listing

import (
	"slices"
	"strings"
	"sync"
	"time"

	"seta-admin-backend/internal/parse"
)

// ViewState is the transient UI state of one list view. Changing the search
// term, a filter or the date range returns to page 1; changing the sort does
// not.
type ViewState struct {
	Search  string        `json:"search"`
	Filters []ExactFilter `json:"filters"`
	From    *time.Time    `json:"from,omitempty"`
	To      *time.Time    `json:"to,omitempty"`
	Sort    *SortSpec     `json:"sort,omitempty"`
	Page    int           `json:"page"`
}

// NewViewState returns the state a view starts with.
func NewViewState(v View) *ViewState {
	st := &ViewState{Page: 1}
	if v.DefaultSort != nil {
		s := *v.DefaultSort
		st.Sort = &s
	}
	return st
}

// SetSearch changes the free-text search term.
func (s *ViewState) SetSearch(term string) {
	if s.Search == term {
		return
	}
	s.Search = term
	s.Page = 1
}

// SetFilter sets or clears (empty value) the exact-match filter on field.
// Spellings of the same field ("companyId", "company_id") share one filter.
func (s *ViewState) SetFilter(field, value string) {
	value = strings.TrimSpace(value)
	key := parse.Snake(field)
	i := slices.IndexFunc(s.Filters, func(f ExactFilter) bool { return parse.Snake(f.Field) == key })
	switch {
	case i >= 0 && s.Filters[i].Value == value:
		return
	case i >= 0 && value == "":
		s.Filters = slices.Delete(s.Filters, i, i+1)
	case i >= 0:
		s.Filters[i].Value = value
	case value == "":
		return
	default:
		s.Filters = append(s.Filters, ExactFilter{Field: field, Value: value})
	}
	s.Page = 1
}

// SetDateRange replaces both date bounds.
func (s *ViewState) SetDateRange(from, to *time.Time) {
	if sameTime(s.From, from) && sameTime(s.To, to) {
		return
	}
	s.From, s.To = from, to
	s.Page = 1
}

// ToggleSort applies the column-header toggle rule to field.
func (s *ViewState) ToggleSort(field string) {
	next := Toggle(s.Sort, field)
	s.Sort = &next
}

// SetPage moves to page n. The value is not validated.
func (s *ViewState) SetPage(n int) {
	s.Page = n
}

// Criteria builds the filter criteria of the state for view v.
func (s *ViewState) Criteria(v View) Criteria {
	c := Criteria{
		SearchTerm:   s.Search,
		SearchFields: v.SearchFields,
		Exact:        slices.Clone(s.Filters),
	}
	if v.DateField != "" && (s.From != nil || s.To != nil) {
		c.DateRange = &DateRange{Field: v.DateField, Start: s.From, End: s.To}
	}
	return c
}

func (s *ViewState) clone() ViewState {
	c := *s
	c.Filters = slices.Clone(s.Filters)
	if s.Sort != nil {
		sort := *s.Sort
		c.Sort = &sort
	}
	return c
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Workspace groups the view states of one dashboard session and owns the
// search term typed into the navigation bar. Setting it propagates to every
// view the workspace owns, including views opened later.
type Workspace struct {
	mu     sync.Mutex
	search string
	views  map[string]*ViewState
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{views: make(map[string]*ViewState)}
}

// Search returns the shared search term.
func (w *Workspace) Search() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.search
}

// SetSearch sets the shared search term on the workspace and all its views.
func (w *Workspace) SetSearch(term string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.search = term
	for _, st := range w.views {
		st.SetSearch(term)
	}
}

// State returns a copy of the current state of view v.
func (w *Workspace) State(v View) ViewState {
	return w.Update(v, nil)
}

// Update applies fn to the state of view v and returns a copy of the result.
func (w *Workspace) Update(v View, fn func(*ViewState)) ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()
	st, ok := w.views[v.Name]
	if !ok {
		st = NewViewState(v)
		st.Search = w.search
		w.views[v.Name] = st
	}
	if fn != nil {
		fn(st)
	}
	return st.clone()
}
