package listing

import "seta-admin-backend/internal/parse"

// Relation enriches a view's records with the matching record of another
// collection.
type Relation struct {
	Name       string
	Collection string
	LocalKey   string
	ForeignKey string
}

// View is the per-table configuration of the pipeline.
type View struct {
	Name         string
	Path         string
	IDField      string
	PageSize     int
	SearchFields []string
	FilterFields []string
	DateField    string
	Kinds        map[string]FieldKind
	DefaultSort  *SortSpec
	Relations    []Relation
}

// KindOf returns the configured kind of field. The date field is always a date.
func (v View) KindOf(field string) FieldKind {
	if field == "" {
		return KindAuto
	}
	if v.DateField != "" && parse.Snake(field) == parse.Snake(v.DateField) {
		return KindDate
	}
	if k, ok := v.Kinds[field]; ok {
		return k
	}
	want := parse.Snake(field)
	for name, k := range v.Kinds {
		if parse.Snake(name) == want {
			return k
		}
	}
	return KindAuto
}

// AllowsFilter reports whether field is one of the view's exact-match filters.
func (v View) AllowsFilter(field string) bool {
	want := parse.Snake(field)
	for _, f := range v.FilterFields {
		if parse.Snake(f) == want {
			return true
		}
	}
	return false
}

// EffectivePageSize is the view's page size, falling back to DefaultPageSize.
func (v View) EffectivePageSize() int {
	if v.PageSize > 0 {
		return v.PageSize
	}
	return DefaultPageSize
}

// IDOf returns the identifier of r under the view's id field.
func (v View) IDOf(r Record) string {
	field := v.IDField
	if field == "" {
		field = "id"
	}
	raw, ok := Get(r, field)
	if !ok {
		return ""
	}
	s, _ := stringify(raw)
	return s
}

// Find returns the first record whose id equals id.
func (v View) Find(records []Record, id string) (Record, bool) {
	for _, r := range records {
		if v.IDOf(r) == id {
			return r, true
		}
	}
	return nil, false
}

// Lookups binds the view's relations to the given collections. Relations
// whose collection has not been loaded yet get an empty lookup.
func (v View) Lookups(collections map[string][]Record) []Lookup {
	lookups := make([]Lookup, 0, len(v.Relations))
	for _, rel := range v.Relations {
		lookups = append(lookups, Lookup{
			Name:       rel.Name,
			Records:    collections[rel.Collection],
			LocalKey:   rel.LocalKey,
			ForeignKey: rel.ForeignKey,
		})
	}
	return lookups
}
