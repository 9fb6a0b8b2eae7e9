package schema

import (
	"sort"
	"testing"
)

func TestForCollection(t *testing.T) {
	apt, ok := ForCollection("apartments")
	if !ok || apt.Collection() != "apartments" {
		t.Errorf("apartments lookup failed: ok=%v collection=%q", ok, apt.Collection())
	}

	stu, ok := ForCollection("students")
	if !ok || stu.Collection() != "students" {
		t.Errorf("students lookup failed: ok=%v collection=%q", ok, stu.Collection())
	}

	if _, ok := ForCollection("offices"); ok {
		t.Error("unknown collection must not resolve")
	}
}

func TestApartments_FieldKinds(t *testing.T) {
	sch := Apartments()

	tests := []struct {
		name string
		kind Kind
	}{
		{"district", Tag},
		{"neighborhood", Tag},
		{"exterior", Flag},
		{"has_lift", Flag},
		{"price", Numeric},
		{"rooms", Numeric},
		{"size", Numeric},
	}
	for _, tc := range tests {
		f, ok := sch.Field(tc.name)
		if !ok {
			t.Errorf("field %q not declared", tc.name)
			continue
		}
		if f.Kind() != tc.kind {
			t.Errorf("field %q kind = %v, want %v", tc.name, f.Kind(), tc.kind)
		}
	}

	if _, ok := sch.Field("swimming_pool"); ok {
		t.Error("undeclared field must not resolve")
	}
}

func TestStudents_AllTagFields(t *testing.T) {
	sch := Students()

	for _, name := range sch.Names() {
		f, _ := sch.Field(name)
		if f.Kind() != Tag {
			t.Errorf("student field %q kind = %v, want Tag", name, f.Kind())
		}
	}

	if _, ok := sch.Field("sleep_schedule"); !ok {
		t.Error("sleep_schedule must be declared")
	}
}

func TestNames_CoverDeclaredFields(t *testing.T) {
	names := Apartments().Names()
	sort.Strings(names)

	if len(names) != 10 {
		t.Fatalf("expected 10 apartment fields, got %d: %v", len(names), names)
	}
	want := []string{"bathrooms", "district", "exterior", "has_lift", "neighborhood",
		"price", "property_type", "rooms", "size", "url"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("names[%d] = %q, want %q", i, names[i], n)
		}
	}
}
