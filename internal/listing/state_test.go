package listing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placementView() View {
	return View{
		Name:         "placements",
		PageSize:     2,
		SearchFields: []string{"learner_name", "company_name"},
		FilterFields: []string{"status"},
		DateField:    "start_date",
		Kinds:        map[string]FieldKind{"stipend": KindNumber},
		DefaultSort:  &SortSpec{Field: "start_date", Direction: Desc},
		Relations: []Relation{
			{Name: "company", Collection: "host_companies", LocalKey: "company_id", ForeignKey: "id"},
		},
	}
}

func TestViewState_PageResets(t *testing.T) {
	st := NewViewState(placementView())
	require.Equal(t, 1, st.Page)
	require.Equal(t, &SortSpec{Field: "start_date", Direction: Desc}, st.Sort)

	st.SetPage(3)
	st.ToggleSort("stipend")
	assert.Equal(t, 3, st.Page, "sort change keeps the page")
	assert.Equal(t, &SortSpec{Field: "stipend", Direction: Asc}, st.Sort)

	st.SetSearch("acme")
	assert.Equal(t, 1, st.Page)

	st.SetPage(2)
	st.SetSearch("acme")
	assert.Equal(t, 2, st.Page, "unchanged search term keeps the page")

	st.SetFilter("status", "Active")
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, []ExactFilter{{Field: "status", Value: "Active"}}, st.Filters)

	st.SetPage(2)
	st.SetFilter("status", "")
	assert.Equal(t, 1, st.Page)
	assert.Empty(t, st.Filters)

	st.SetPage(2)
	st.SetDateRange(day("2024-01-01"), nil)
	assert.Equal(t, 1, st.Page)

	st.SetPage(2)
	st.SetDateRange(day("2024-01-01"), nil)
	assert.Equal(t, 2, st.Page)
}

func TestViewState_FilterKeySpellings(t *testing.T) {
	st := NewViewState(placementView())
	st.SetFilter("companyId", "1")
	st.SetFilter("company_id", "2")
	assert.Equal(t, []ExactFilter{{Field: "companyId", Value: "2"}}, st.Filters)

	st.SetFilter("CompanyId", "")
	assert.Empty(t, st.Filters)
}

func TestViewState_Criteria(t *testing.T) {
	v := placementView()
	st := NewViewState(v)
	st.SetSearch("zola")
	st.SetFilter("status", "Active")
	st.SetDateRange(day("2024-01-01"), day("2024-12-31"))

	c := st.Criteria(v)
	assert.Equal(t, "zola", c.SearchTerm)
	assert.Equal(t, v.SearchFields, c.SearchFields)
	assert.Equal(t, []ExactFilter{{Field: "status", Value: "Active"}}, c.Exact)
	require.NotNil(t, c.DateRange)
	assert.Equal(t, "start_date", c.DateRange.Field)

	v.DateField = ""
	assert.Nil(t, st.Criteria(v).DateRange)
}

func TestWorkspace_SharedSearch(t *testing.T) {
	ws := NewWorkspace()
	placements := placementView()
	students := View{Name: "students"}

	ws.Update(placements, func(st *ViewState) { st.SetPage(4) })
	ws.SetSearch("acme")

	p := ws.State(placements)
	assert.Equal(t, "acme", p.Search)
	assert.Equal(t, 1, p.Page)

	s := ws.State(students)
	assert.Equal(t, "acme", s.Search, "views opened later inherit the shared term")
	assert.Equal(t, "acme", ws.Search())
}

func TestWorkspace_StateIsACopy(t *testing.T) {
	ws := NewWorkspace()
	v := placementView()
	st := ws.State(v)
	st.Sort.Direction = Asc
	st.Filters = append(st.Filters, ExactFilter{Field: "status", Value: "x"})

	again := ws.State(v)
	assert.Equal(t, Desc, again.Sort.Direction)
	assert.Empty(t, again.Filters)
}

func TestExecute(t *testing.T) {
	v := placementView()
	var records []Record
	for i := 1; i <= 5; i++ {
		records = append(records, Record{
			"id":           fmt.Sprint(i),
			"learner_name": fmt.Sprintf("Learner %d", i),
			"company_id":   "c1",
			"status":       map[bool]string{true: "Active", false: "Completed"}[i%2 == 1],
			"start_date":   fmt.Sprintf("2024-0%d-01", i),
			"stipend":      fmt.Sprint(1000 * (6 - i)),
		})
	}
	collections := map[string][]Record{
		"host_companies": {{"id": "c1", "company_name": "Acme"}},
	}

	st := NewViewState(v)
	st.SetFilter("status", "active")
	res := Execute(v, records, collections, *st)

	assert.Equal(t, "placements", res.View)
	assert.Equal(t, 3, res.Page.TotalItems)
	assert.Equal(t, 2, res.Page.TotalPages)
	assert.Equal(t, []string{"5", "3"}, ids(res.Page.Items), "default sort is start_date descending")
	assert.Equal(t, "Acme", res.Page.Items[0]["company"].(Record)["company_name"])
	require.NotNil(t, res.Sort)
	assert.Equal(t, KindDate, res.Sort.Kind)

	st.ToggleSort("stipend")
	st.SetPage(2)
	res = Execute(v, records, collections, *st)
	assert.Equal(t, []string{"1"}, ids(res.Page.Items), "stipend is numeric: 1000 < 3000 < 5000")
	assert.Equal(t, KindNumber, res.Sort.Kind)

	res = Execute(v, records, nil, *st)
	_, projected := res.Page.Items[0]["company"]
	assert.False(t, projected, "missing lookup collection is tolerated")
}
