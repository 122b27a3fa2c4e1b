// Package listing implements the list pipeline shared by every dashboard
// table: search, filter, sort, paginate and project.
package listing

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"seta-admin-backend/internal/parse"
)

// Record is one loosely-typed entity as returned by the upstream API.
type Record map[string]any

// FieldKind tells the normalizer how to compare a field.
type FieldKind string

const (
	KindAuto   FieldKind = ""
	KindText   FieldKind = "text"
	KindNumber FieldKind = "number"
	KindDate   FieldKind = "date"
)

// ParseKind maps a configured kind name to a FieldKind.
func ParseKind(s string) (FieldKind, bool) {
	switch FieldKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindAuto:
		return KindAuto, true
	case KindText, "string":
		return KindText, true
	case KindNumber, "numeric":
		return KindNumber, true
	case KindDate, "datetime", "timestamp":
		return KindDate, true
	}
	return KindAuto, false
}

// Value is the comparable form of a record field.
type Value struct {
	Kind    FieldKind
	Text    string
	Number  float64
	Time    time.Time
	Missing bool
}

// Get returns the raw value of a logical field, accepting the snake_case,
// camelCase and PascalCase spellings of it as well as dotted paths into
// nested objects. Null values count as absent.
func Get(r Record, field string) (any, bool) {
	if r == nil || field == "" {
		return nil, false
	}
	if v, ok := lookupKey(r, field); ok {
		return v, true
	}
	if !strings.Contains(field, ".") {
		return nil, false
	}

	var cur any = map[string]any(r)
	for _, part := range strings.Split(field, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = lookupKey(m, part); !ok {
			return nil, false
		}
	}
	return cur, true
}

func lookupKey(m map[string]any, field string) (any, bool) {
	for _, key := range parse.KeyVariants(field) {
		if v, ok := m[key]; ok && v != nil {
			return v, true
		}
	}
	want := parse.Snake(field)
	if want == "" {
		return nil, false
	}
	for key, v := range m {
		if v != nil && parse.Snake(key) == want {
			return v, true
		}
	}
	return nil, false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}

// Normalize extracts the comparable value of field. Text is case-folded.
// Anything that cannot be read as the requested kind is reported as Missing.
func Normalize(r Record, field string, kind FieldKind) Value {
	raw, ok := Get(r, field)
	if !ok {
		return missing(kind)
	}
	text, scalar := stringify(raw)
	if !scalar {
		return missing(kind)
	}

	if kind == KindAuto {
		if isNumeric(raw) {
			kind = KindNumber
		} else {
			kind = KindText
		}
	}

	v := Value{Kind: kind, Text: parse.Fold(text)}
	switch kind {
	case KindNumber:
		n, ok := toFloat(raw)
		if !ok {
			return missing(kind)
		}
		v.Number = n
	case KindDate:
		t, ok := toTime(raw)
		if !ok {
			return missing(kind)
		}
		v.Time = t
	}
	return v
}

func missing(kind FieldKind) Value {
	if kind == KindAuto {
		kind = KindText
	}
	return Value{Kind: kind, Missing: true}
}

func stringify(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case bool:
		return strconv.FormatBool(v), true
	case time.Time:
		return v.UTC().Format(time.RFC3339), true
	}
	return "", false
}

func isNumeric(raw any) bool {
	switch raw.(type) {
	case json.Number, float64, float32, int, int64, int32, uint, uint64, uint32:
		return true
	}
	return false
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}

func toTime(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		t, err := parse.Date(v)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}
