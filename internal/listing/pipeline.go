package listing

// Result is one rendered list view.
type Result struct {
	View    string        `json:"view"`
	Page    Page          `json:"page"`
	Search  string        `json:"search,omitempty"`
	Filters []ExactFilter `json:"filters,omitempty"`
	Sort    *SortSpec     `json:"sort,omitempty"`
}

// Execute runs search, filter, sort and paginate over records for view v in
// state st, then projects the related collections onto the visible page.
func Execute(v View, records []Record, collections map[string][]Record, st ViewState) Result {
	filtered := Filter(records, st.Criteria(v))

	var spec *SortSpec
	if st.Sort != nil && st.Sort.Field != "" {
		s := *st.Sort
		if s.Kind == KindAuto {
			s.Kind = v.KindOf(s.Field)
		}
		spec = &s
	}
	sorted := Sort(filtered, spec)

	page := Paginate(sorted, st.Page, v.EffectivePageSize())
	page.Items = ProjectAll(page.Items, v.Lookups(collections)...)

	return Result{
		View:    v.Name,
		Page:    page,
		Search:  st.Search,
		Filters: st.Filters,
		Sort:    spec,
	}
}
