package config

import (
	"fmt"

	"seta-admin-backend/internal/listing"
)

// ViewConfig declares one dashboard table and the upstream collection behind it.
type ViewConfig struct {
	Name         string            `yaml:"name"`
	Path         string            `yaml:"path"`
	IDField      string            `yaml:"id_field"`
	PageSize     int               `yaml:"page_size"`
	SearchFields []string          `yaml:"search_fields"`
	FilterFields []string          `yaml:"filter_fields"`
	DateField    string            `yaml:"date_field"`
	FieldKinds   map[string]string `yaml:"field_kinds"`
	DefaultSort  *SortConfig       `yaml:"default_sort"`
	Relations    []RelationConfig  `yaml:"relations"`
}

// SortConfig is the initial sort of a view.
type SortConfig struct {
	Field     string `yaml:"field"`
	Direction string `yaml:"direction"`
}

// RelationConfig attaches a record of Collection to each row, matched on
// LocalKey == ForeignKey.
type RelationConfig struct {
	Name       string `yaml:"name"`
	Collection string `yaml:"collection"`
	LocalKey   string `yaml:"local_key"`
	ForeignKey string `yaml:"foreign_key"`
}

// View converts the configuration into a pipeline view.
func (vc ViewConfig) View() (listing.View, error) {
	v := listing.View{
		Name:         vc.Name,
		Path:         vc.Path,
		IDField:      vc.IDField,
		PageSize:     vc.PageSize,
		SearchFields: vc.SearchFields,
		FilterFields: vc.FilterFields,
		DateField:    vc.DateField,
		Kinds:        make(map[string]listing.FieldKind, len(vc.FieldKinds)),
	}
	if v.Path == "" {
		v.Path = "/" + vc.Name
	}
	if v.IDField == "" {
		v.IDField = "id"
	}
	if v.PageSize <= 0 {
		v.PageSize = listing.DefaultPageSize
	}

	for field, name := range vc.FieldKinds {
		kind, ok := listing.ParseKind(name)
		if !ok {
			return listing.View{}, fmt.Errorf("view %q: unknown kind %q for field %q", vc.Name, name, field)
		}
		v.Kinds[field] = kind
	}

	if vc.DefaultSort != nil && vc.DefaultSort.Field != "" {
		dir := listing.Asc
		if vc.DefaultSort.Direction != "" {
			var ok bool
			if dir, ok = listing.ParseDirection(vc.DefaultSort.Direction); !ok {
				return listing.View{}, fmt.Errorf("view %q: invalid sort direction %q", vc.Name, vc.DefaultSort.Direction)
			}
		}
		v.DefaultSort = &listing.SortSpec{Field: vc.DefaultSort.Field, Direction: dir}
	}

	for _, rc := range vc.Relations {
		v.Relations = append(v.Relations, listing.Relation{
			Name:       rc.Name,
			Collection: rc.Collection,
			LocalKey:   rc.LocalKey,
			ForeignKey: rc.ForeignKey,
		})
	}
	return v, nil
}

func validateViews(views []ViewConfig) error {
	names := make(map[string]struct{}, len(views))
	for _, vc := range views {
		if vc.Name == "" {
			return fmt.Errorf("view without a name")
		}
		if _, dup := names[vc.Name]; dup {
			return fmt.Errorf("duplicate view %q", vc.Name)
		}
		names[vc.Name] = struct{}{}
	}
	for _, vc := range views {
		for _, rc := range vc.Relations {
			if rc.Name == "" || rc.LocalKey == "" || rc.ForeignKey == "" {
				return fmt.Errorf("view %q: relation %q is incomplete", vc.Name, rc.Name)
			}
			if _, ok := names[rc.Collection]; !ok {
				return fmt.Errorf("view %q: relation %q points to unknown collection %q", vc.Name, rc.Name, rc.Collection)
			}
		}
		if _, err := vc.View(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultViews is the catalog of the SETA learnership dashboard.
func DefaultViews() []ViewConfig {
	return []ViewConfig{
		{
			Name:         "students",
			Path:         "/students",
			SearchFields: []string{"first_name", "last_name", "id_number", "email", "student_number"},
			FilterFields: []string{"status", "gender", "province", "qualification"},
			DateField:    "registration_date",
			DefaultSort:  &SortConfig{Field: "last_name", Direction: "asc"},
		},
		{
			Name:         "host_companies",
			Path:         "/host-companies",
			SearchFields: []string{"company_name", "registration_number", "contact_person", "contact_email"},
			FilterFields: []string{"industry", "province", "status"},
			DateField:    "created_at",
			FieldKinds:   map[string]string{"capacity": "number"},
			DefaultSort:  &SortConfig{Field: "company_name", Direction: "asc"},
		},
		{
			Name:         "agreements",
			Path:         "/seta-agreements",
			SearchFields: []string{"agreement_number", "seta_name", "programme"},
			FilterFields: []string{"seta_name", "status"},
			DateField:    "start_date",
			FieldKinds:   map[string]string{"total_budget": "number", "learner_slots": "number", "end_date": "date"},
			DefaultSort:  &SortConfig{Field: "start_date", Direction: "desc"},
		},
		{
			Name:         "funding_windows",
			Path:         "/funding-windows",
			SearchFields: []string{"name", "seta_name"},
			FilterFields: []string{"status", "seta_name"},
			DateField:    "opening_date",
			FieldKinds:   map[string]string{"budget": "number", "slots": "number", "closing_date": "date"},
			DefaultSort:  &SortConfig{Field: "opening_date", Direction: "desc"},
			Relations: []RelationConfig{
				{Name: "agreement", Collection: "agreements", LocalKey: "agreement_id", ForeignKey: "id"},
			},
		},
		{
			Name:         "placements",
			Path:         "/placements",
			SearchFields: []string{"learner_name", "company_name", "learner_id", "position"},
			FilterFields: []string{"status", "company_id", "agreement_id"},
			DateField:    "start_date",
			FieldKinds:   map[string]string{"stipend": "number", "end_date": "date"},
			DefaultSort:  &SortConfig{Field: "start_date", Direction: "desc"},
			Relations: []RelationConfig{
				{Name: "learner", Collection: "students", LocalKey: "learner_id", ForeignKey: "id"},
				{Name: "company", Collection: "host_companies", LocalKey: "company_id", ForeignKey: "id"},
				{Name: "agreement", Collection: "agreements", LocalKey: "agreement_id", ForeignKey: "id"},
			},
		},
		{
			Name:         "expenditures",
			Path:         "/expenditures",
			SearchFields: []string{"description", "reference", "category"},
			FilterFields: []string{"category", "agreement_id"},
			DateField:    "expense_date",
			FieldKinds:   map[string]string{"amount": "number"},
			DefaultSort:  &SortConfig{Field: "expense_date", Direction: "desc"},
			Relations: []RelationConfig{
				{Name: "agreement", Collection: "agreements", LocalKey: "agreement_id", ForeignKey: "id"},
			},
		},
		{
			Name:         "logs",
			Path:         "/activity-logs",
			SearchFields: []string{"action", "user", "description", "entity_type"},
			FilterFields: []string{"action", "entity_type", "level"},
			DateField:    "timestamp",
			DefaultSort:  &SortConfig{Field: "timestamp", Direction: "desc"},
		},
	}
}
