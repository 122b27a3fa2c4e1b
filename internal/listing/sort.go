package listing

import (
	"cmp"
	"slices"
	"strings"
)

// Direction is the order a sorted column is displayed in.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc"/"desc" in any case; anything else is rejected.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	}
	return Asc, false
}

// SortSpec selects the single active sort column.
type SortSpec struct {
	Field     string    `json:"field" yaml:"field"`
	Direction Direction `json:"direction" yaml:"direction"`
	Kind      FieldKind `json:"kind,omitempty" yaml:"-"`
}

// Toggle returns the spec that results from clicking field's column header:
// the active field flips direction, any other field starts ascending.
func Toggle(current *SortSpec, field string) SortSpec {
	if current != nil && current.Field == field {
		next := *current
		if next.Direction == Desc {
			next.Direction = Asc
		} else {
			next.Direction = Desc
		}
		return next
	}
	return SortSpec{Field: field, Direction: Asc}
}

// Sort returns a stably sorted copy of records. A nil spec keeps input order.
// Missing values go last in either direction.
func Sort(records []Record, spec *SortSpec) []Record {
	out := slices.Clone(records)
	if spec == nil || spec.Field == "" || len(out) < 2 {
		return out
	}

	kind := resolveKind(out, spec.Field, spec.Kind)
	type keyed struct {
		rec Record
		key Value
	}
	items := make([]keyed, len(out))
	for i, r := range out {
		items[i] = keyed{rec: r, key: Normalize(r, spec.Field, kind)}
	}

	desc := spec.Direction == Desc
	slices.SortStableFunc(items, func(a, b keyed) int {
		return compareValues(a.key, b.key, desc)
	})

	for i := range items {
		out[i] = items[i].rec
	}
	return out
}

// resolveKind pins an automatic kind to one kind for the whole column so the
// comparator stays transitive: numeric only if every present value is a number.
func resolveKind(records []Record, field string, kind FieldKind) FieldKind {
	if kind != KindAuto {
		return kind
	}
	sawNumber := false
	for _, r := range records {
		raw, ok := Get(r, field)
		if !ok {
			continue
		}
		if !isNumeric(raw) {
			return KindText
		}
		sawNumber = true
	}
	if sawNumber {
		return KindNumber
	}
	return KindText
}

func compareValues(a, b Value, desc bool) int {
	switch {
	case a.Missing && b.Missing:
		return 0
	case a.Missing:
		return 1
	case b.Missing:
		return -1
	}

	var c int
	switch {
	case a.Kind == KindNumber && b.Kind == KindNumber:
		c = cmp.Compare(a.Number, b.Number)
	case a.Kind == KindDate && b.Kind == KindDate:
		c = a.Time.Compare(b.Time)
	default:
		c = strings.Compare(a.Text, b.Text)
	}
	if desc {
		return -c
	}
	return c
}
