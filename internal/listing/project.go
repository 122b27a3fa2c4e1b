package listing

import "maps"

// Lookup attaches the first record of Records whose ForeignKey equals the
// primary record's LocalKey under the field Name.
type Lookup struct {
	Name       string
	Records    []Record
	LocalKey   string
	ForeignKey string
}

// Project returns a copy of r enriched by each lookup. Unmatched lookups leave
// their field unset; r itself is never modified.
func Project(r Record, lookups ...Lookup) Record {
	out := make(Record, len(r)+len(lookups))
	maps.Copy(out, r)

	for _, l := range lookups {
		if l.Name == "" {
			continue
		}
		local := Normalize(r, l.LocalKey, KindText)
		if local.Missing || local.Text == "" {
			continue
		}
		for _, candidate := range l.Records {
			foreign := Normalize(candidate, l.ForeignKey, KindText)
			if !foreign.Missing && foreign.Text == local.Text {
				out[l.Name] = maps.Clone(candidate)
				break
			}
		}
	}
	return out
}

// ProjectAll projects every record of records.
func ProjectAll(records []Record, lookups ...Lookup) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Project(r, lookups...)
	}
	return out
}
