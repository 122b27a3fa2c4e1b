package api

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"seta-admin-backend/internal/listing"
	"seta-admin-backend/internal/parse"
)

// requestError is a client mistake in a query or body.
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(code, format string, args ...any) *requestError {
	return &requestError{code: code, message: fmt.Sprintf(format, args...)}
}

// parseListQuery builds a view state from the query string of a stateless
// list request:
//
//	?q=term&filter[status]=active&from=2024-01-01&to=2024-01-31&sort=name&dir=desc&page=2
func parseListQuery(c *gin.Context, v listing.View) (listing.ViewState, *requestError) {
	st := *listing.NewViewState(v)
	st.Search = strings.TrimSpace(c.Query("q"))

	filters := c.QueryMap("filter")
	fields := make([]string, 0, len(filters))
	for field := range filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if !v.AllowsFilter(field) {
			return st, badRequest("unknown_filter", "view %s cannot be filtered by %s", v.Name, field)
		}
		st.SetFilter(field, filters[field])
	}

	from, err := parseBound(c.Query("from"))
	if err != nil {
		return st, badRequest("invalid_date", "from: %v", err)
	}
	to, err := parseBound(c.Query("to"))
	if err != nil {
		return st, badRequest("invalid_date", "to: %v", err)
	}
	if (from != nil || to != nil) && v.DateField == "" {
		return st, badRequest("unknown_filter", "view %s has no date field", v.Name)
	}
	st.SetDateRange(from, to)

	if field := strings.TrimSpace(c.Query("sort")); field != "" {
		dir := listing.Asc
		if raw := c.Query("dir"); raw != "" {
			d, ok := listing.ParseDirection(raw)
			if !ok {
				return st, badRequest("invalid_sort", "dir must be asc or desc, got %q", raw)
			}
			dir = d
		}
		st.Sort = &listing.SortSpec{Field: field, Direction: dir}
	}

	page, rerr := parsePage(c.Query("page"))
	if rerr != nil {
		return st, rerr
	}
	st.SetPage(page)
	return st, nil
}

func parsePage(raw string) (int, *requestError) {
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid_page", "page must be an integer, got %q", raw)
	}
	return n, nil
}

// parseBound parses an optional date-range bound; an empty string is no bound.
func parseBound(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parse.Date(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
