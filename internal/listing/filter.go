package listing

import (
	"strings"
	"time"

	"seta-admin-backend/internal/parse"
)

// ExactFilter constrains Field to equal Value. An empty Value is no constraint.
type ExactFilter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// DateRange bounds Field to [Start, End]; End covers its whole day.
// A nil bound leaves that side open.
type DateRange struct {
	Field string     `json:"field"`
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

func (d *DateRange) active() bool {
	return d != nil && d.Field != "" && (d.Start != nil || d.End != nil)
}

// Criteria is the conjunction of everything a list view can constrain on.
type Criteria struct {
	SearchTerm   string
	SearchFields []string
	Exact        []ExactFilter
	DateRange    *DateRange
}

// IsZero reports whether the criteria constrain nothing.
func (c Criteria) IsZero() bool {
	if strings.TrimSpace(c.SearchTerm) != "" && len(c.SearchFields) > 0 {
		return false
	}
	for _, f := range c.Exact {
		if strings.TrimSpace(f.Value) != "" {
			return false
		}
	}
	return !c.DateRange.active()
}

// Filter returns the records that pass c, in their original order.
func Filter(records []Record, c Criteria) []Record {
	out := make([]Record, 0, len(records))
	if c.IsZero() {
		return append(out, records...)
	}
	m := newMatcher(c)
	for _, r := range records {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Match reports whether a single record passes c.
func Match(r Record, c Criteria) bool {
	return newMatcher(c).match(r)
}

type matcher struct {
	term      string
	fields    []string
	exact     []ExactFilter
	dateRange *DateRange
	end       time.Time
}

func newMatcher(c Criteria) matcher {
	m := matcher{
		term:   parse.Fold(strings.TrimSpace(c.SearchTerm)),
		fields: c.SearchFields,
	}
	for _, f := range c.Exact {
		if v := strings.TrimSpace(f.Value); v != "" {
			m.exact = append(m.exact, ExactFilter{Field: f.Field, Value: parse.Fold(v)})
		}
	}
	if c.DateRange.active() {
		m.dateRange = c.DateRange
		if c.DateRange.End != nil {
			m.end = parse.EndOfDay(*c.DateRange.End)
		}
	}
	return m
}

func (m matcher) match(r Record) bool {
	return m.matchSearch(r) && m.matchExact(r) && m.matchDate(r)
}

func (m matcher) matchSearch(r Record) bool {
	if m.term == "" || len(m.fields) == 0 {
		return true
	}
	for _, field := range m.fields {
		if strings.Contains(Normalize(r, field, KindText).Text, m.term) {
			return true
		}
	}
	return false
}

func (m matcher) matchExact(r Record) bool {
	for _, f := range m.exact {
		if Normalize(r, f.Field, KindText).Text != f.Value {
			return false
		}
	}
	return true
}

func (m matcher) matchDate(r Record) bool {
	if m.dateRange == nil {
		return true
	}
	v := Normalize(r, m.dateRange.Field, KindDate)
	if v.Missing {
		return false
	}
	if m.dateRange.Start != nil && v.Time.Before(*m.dateRange.Start) {
		return false
	}
	if m.dateRange.End != nil && v.Time.After(m.end) {
		return false
	}
	return true
}
