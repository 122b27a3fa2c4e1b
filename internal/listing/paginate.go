package listing

import "slices"

// DefaultPageSize is the page size every dashboard table uses unless its view
// configures another.
const DefaultPageSize = 10

// Page is one slice of a sorted collection plus the metadata a pager needs.
type Page struct {
	Items      []Record `json:"items"`
	PageNumber int      `json:"page_number"`
	PageSize   int      `json:"page_size"`
	TotalItems int      `json:"total_items"`
	TotalPages int      `json:"total_pages"`
}

// HasPrevious reports whether a page precedes this one.
func (p Page) HasPrevious() bool {
	return p.PageNumber > 1 && p.TotalPages > 0
}

// HasNext reports whether a page follows this one.
func (p Page) HasNext() bool {
	return p.PageNumber < p.TotalPages
}

// Paginate returns page pageNumber (1-based) of records. Out-of-range pages,
// including those below 1, are returned empty rather than clamped.
func Paginate(records []Record, pageNumber, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(records)
	p := Page{
		Items:      []Record{},
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	if pageNumber < 1 {
		p.PageNumber = 1
		return p
	}

	if pageNumber > p.TotalPages {
		return p
	}
	start := (pageNumber - 1) * pageSize
	end := min(start+pageSize, total)
	p.Items = slices.Clone(records[start:end])
	return p
}
