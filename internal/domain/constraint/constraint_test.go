package constraint

import (
	"testing"

	"github.com/kailas-cloud/roomrank/internal/domain/schema"
)

func ptr(f float64) *float64 { return &f }

func TestNewEq_Validation(t *testing.T) {
	if _, err := NewEq("", "centro"); err == nil {
		t.Error("empty field must be rejected")
	}
	if _, err := NewEq("district", ""); err == nil {
		t.Error("empty value must be rejected")
	}
	if _, err := NewEq("district", "centro"); err != nil {
		t.Errorf("valid eq rejected: %v", err)
	}
}

func TestNewOneOf_Validation(t *testing.T) {
	if _, err := NewOneOf("district", nil); err == nil {
		t.Error("empty values must be rejected")
	}
	if _, err := NewOneOf("district", []string{" ", ""}); err == nil {
		t.Error("blank-only values must be rejected")
	}
	if _, err := NewOneOf("district", []string{"centro", " retiro "}); err != nil {
		t.Errorf("valid one_of rejected: %v", err)
	}
}

func TestNewRange_Validation(t *testing.T) {
	if _, err := NewRange("price", nil, nil); err == nil {
		t.Error("range without bounds must be rejected")
	}
	if _, err := NewRange("price", ptr(1000), ptr(500)); err == nil {
		t.Error("inverted bounds must be rejected")
	}
	if _, err := NewRange("price", nil, ptr(1500)); err != nil {
		t.Errorf("upper-bound-only range rejected: %v", err)
	}
}

func TestEq_CaseInsensitive(t *testing.T) {
	c, _ := NewEq("district", "Centro")

	if !c.Matches(map[string]string{"district": "  CENTRO "}, nil) {
		t.Error("case and whitespace differences must not matter")
	}
	if c.Matches(map[string]string{"district": "retiro"}, nil) {
		t.Error("different value must not match")
	}
}

func TestEq_MissingFieldFailsClosed(t *testing.T) {
	c, _ := NewEq("district", "centro")

	if c.Matches(map[string]string{"neighborhood": "sol"}, nil) {
		t.Error("a missing field must never satisfy a constraint")
	}
	if c.Matches(nil, nil) {
		t.Error("nil metadata must never satisfy a constraint")
	}
}

func TestOneOf_Matches(t *testing.T) {
	c, _ := NewOneOf("district", []string{"Centro", "Retiro"})

	if !c.Matches(map[string]string{"district": "retiro"}, nil) {
		t.Error("member value must match")
	}
	if c.Matches(map[string]string{"district": "chamberi"}, nil) {
		t.Error("non-member value must not match")
	}
}

func TestRange_Bounds(t *testing.T) {
	c, _ := NewRange("price", ptr(500), ptr(1500))

	for _, tc := range []struct {
		price float64
		want  bool
	}{
		{499, false},
		{500, true},
		{1000, true},
		{1500, true},
		{1501, false},
	} {
		got := c.Matches(nil, map[string]float64{"price": tc.price})
		if got != tc.want {
			t.Errorf("price %.0f: matches = %v, want %v", tc.price, got, tc.want)
		}
	}
}

func TestRange_ParsesTagFallback(t *testing.T) {
	c, _ := NewRange("price", nil, ptr(1500))

	if !c.Matches(map[string]string{"price": "1200"}, nil) {
		t.Error("numeric stored as string must still be comparable")
	}
	if c.Matches(map[string]string{"price": "cheap"}, nil) {
		t.Error("unparsable string must fail closed")
	}
	if c.Matches(nil, nil) {
		t.Error("missing field must fail closed")
	}
}

func TestSet_AllMustHold(t *testing.T) {
	eq, _ := NewEq("district", "centro")
	rng, _ := NewRange("price", nil, ptr(1500))
	set, err := NewSet([]Constraint{eq, rng})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}

	tags := map[string]string{"district": "centro"}
	if !set.Matches(tags, map[string]float64{"price": 1000}) {
		t.Error("all constraints satisfied must match")
	}
	if set.Matches(tags, map[string]float64{"price": 2000}) {
		t.Error("one failing constraint must exclude the candidate")
	}
}

func TestSet_SizeLimit(t *testing.T) {
	cs := make([]Constraint, MaxConstraints+1)
	for i := range cs {
		cs[i], _ = NewEq("district", "centro")
	}

	if _, err := NewSet(cs); err == nil {
		t.Error("oversized set must be rejected")
	}
	if _, err := NewSet(cs[:MaxConstraints]); err != nil {
		t.Errorf("set at the limit rejected: %v", err)
	}
}

func TestEmpty_IsPermissive(t *testing.T) {
	if !Empty().Matches(nil, nil) {
		t.Error("empty set must pass everything")
	}
}

func TestNormalize_DropsUnknownFields(t *testing.T) {
	known, _ := NewEq("district", "centro")
	unknown, _ := NewEq("swimming_pool", "true")
	set, _ := NewSet([]Constraint{known, unknown})

	kept, dropped := set.Normalize(schema.Apartments())

	if kept.Len() != 1 || kept.Constraints()[0].Field() != "district" {
		t.Errorf("kept = %v", kept.Constraints())
	}
	if len(dropped) != 1 || dropped[0] != "swimming_pool" {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestNormalize_DropsRangeOverTagField(t *testing.T) {
	rng, _ := NewRange("district", nil, ptr(3))
	set, _ := NewSet([]Constraint{rng})

	kept, dropped := set.Normalize(schema.Apartments())

	if kept.Len() != 0 {
		t.Errorf("range over a tag field must be dropped, kept %d", kept.Len())
	}
	if len(dropped) != 1 || dropped[0] != "district" {
		t.Errorf("dropped = %v", dropped)
	}
}

// Adding a constraint can only shrink the passing set, never grow it.
func TestSet_FilteringIsMonotonic(t *testing.T) {
	records := []struct {
		tags     map[string]string
		numerics map[string]float64
	}{
		{map[string]string{"district": "centro"}, map[string]float64{"price": 800}},
		{map[string]string{"district": "centro"}, map[string]float64{"price": 1800}},
		{map[string]string{"district": "retiro"}, map[string]float64{"price": 700}},
		{nil, nil},
	}

	eq, _ := NewEq("district", "centro")
	rng, _ := NewRange("price", nil, ptr(1500))

	smaller, _ := NewSet([]Constraint{eq})
	larger, _ := NewSet([]Constraint{eq, rng})

	for i, rec := range records {
		if larger.Matches(rec.tags, rec.numerics) && !smaller.Matches(rec.tags, rec.numerics) {
			t.Errorf("record %d passes the larger set but not its subset", i)
		}
	}
}
