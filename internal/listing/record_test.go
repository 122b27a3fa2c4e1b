package listing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	r := Record{
		"first_name": "Thandi",
		"lastName":   "Mokoena",
		"Province":   "Gauteng",
		"middleName": nil,
		"middle_name": "Lerato",
		"company": map[string]any{
			"company_name": "Acme Mining",
		},
	}

	testCases := []struct {
		name     string
		field    string
		expected any
		found    bool
	}{
		{name: "exact key", field: "first_name", expected: "Thandi", found: true},
		{name: "camel asks snake", field: "firstName", expected: "Thandi", found: true},
		{name: "snake asks camel", field: "last_name", expected: "Mokoena", found: true},
		{name: "pascal key", field: "province", expected: "Gauteng", found: true},
		{name: "null falls through to other spelling", field: "middleName", expected: "Lerato", found: true},
		{name: "dotted path", field: "company.companyName", expected: "Acme Mining", found: true},
		{name: "missing", field: "email", found: false},
		{name: "dotted path through scalar", field: "province.name", found: false},
		{name: "empty field", field: "", found: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := Get(r, tc.field)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.expected, v)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	r := Record{
		"name":       "Alice",
		"stipend":    json.Number("4500.50"),
		"age":        23,
		"amount":     "1200",
		"start_date": "2024-01-15",
		"bad_date":   "someday",
		"active":     true,
		"tags":       []any{"a"},
	}

	assert.Equal(t, Value{Kind: KindText, Text: "alice"}, Normalize(r, "name", KindAuto))
	assert.Equal(t, Value{Kind: KindNumber, Text: "4500.50", Number: 4500.5}, Normalize(r, "stipend", KindAuto))
	assert.Equal(t, Value{Kind: KindNumber, Text: "23", Number: 23}, Normalize(r, "age", KindAuto))
	assert.Equal(t, Value{Kind: KindNumber, Text: "1200", Number: 1200}, Normalize(r, "amount", KindNumber))
	assert.Equal(t, KindText, Normalize(r, "amount", KindAuto).Kind)
	assert.Equal(t, Value{Kind: KindText, Text: "true"}, Normalize(r, "active", KindAuto))

	date := Normalize(r, "startDate", KindDate)
	assert.False(t, date.Missing)
	assert.True(t, date.Time.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))

	assert.True(t, Normalize(r, "bad_date", KindDate).Missing)
	assert.True(t, Normalize(r, "name", KindNumber).Missing)
	assert.True(t, Normalize(r, "tags", KindText).Missing)

	absent := Normalize(r, "email", KindAuto)
	assert.True(t, absent.Missing)
	assert.Equal(t, "", absent.Text)

	assert.True(t, Normalize(nil, "name", KindText).Missing)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Date")
	assert.True(t, ok)
	assert.Equal(t, KindDate, k)

	k, ok = ParseKind("numeric")
	assert.True(t, ok)
	assert.Equal(t, KindNumber, k)

	_, ok = ParseKind("colour")
	assert.False(t, ok)
}
