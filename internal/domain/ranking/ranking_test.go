package ranking

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/roomrank/internal/domain/candidate"
)

func scored(id string, vector, final float64) candidate.Candidate {
	c := candidate.New(id, vector, "", nil, nil)
	c.SetFinalScore(final)
	return c
}

func ids(r Ranking) []string {
	out := make([]string, 0, r.Len())
	for _, c := range r.Results() {
		out = append(out, c.ID())
	}
	return out
}

func TestNew_OrdersByFinalScore(t *testing.T) {
	r := New([]candidate.Candidate{
		scored("b", 0.5, 0.3),
		scored("a", 0.5, 0.9),
		scored("c", 0.5, 0.6),
	}, 10, false)

	if got, want := ids(r), []string{"a", "c", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestNew_TiesBreakByVectorThenID(t *testing.T) {
	r := New([]candidate.Candidate{
		scored("b", 0.4, 0.5),
		scored("a", 0.4, 0.5),
		scored("c", 0.9, 0.5),
	}, 10, false)

	if got, want := ids(r), []string{"c", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestNew_Truncates(t *testing.T) {
	r := New([]candidate.Candidate{
		scored("a", 0.5, 0.9),
		scored("b", 0.5, 0.8),
		scored("c", 0.5, 0.7),
	}, 2, false)

	if got, want := ids(r), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestNew_ZeroTopKKeepsAll(t *testing.T) {
	r := New([]candidate.Candidate{
		scored("a", 0.5, 0.9),
		scored("b", 0.5, 0.8),
	}, 0, false)

	if r.Len() != 2 {
		t.Errorf("len = %d, want 2", r.Len())
	}
}

func TestNew_EmptyCarriesReason(t *testing.T) {
	r := New(nil, 5, false)

	if r.Reason() != ReasonNoMatches {
		t.Errorf("reason = %q, want %q", r.Reason(), ReasonNoMatches)
	}
	if r.Len() != 0 {
		t.Errorf("len = %d, want 0", r.Len())
	}
}

func TestNew_DoesNotMutateInput(t *testing.T) {
	in := []candidate.Candidate{
		scored("b", 0.5, 0.3),
		scored("a", 0.5, 0.9),
	}

	New(in, 10, false)

	if in[0].ID() != "b" || in[1].ID() != "a" {
		t.Error("input slice order must be preserved")
	}
}

func TestNew_Deterministic(t *testing.T) {
	build := func() Ranking {
		return New([]candidate.Candidate{
			scored("d", 0.4, 0.5),
			scored("b", 0.4, 0.5),
			scored("a", 0.4, 0.5),
			scored("c", 0.4, 0.5),
		}, 3, false)
	}

	first := ids(build())
	for i := 0; i < 5; i++ {
		if got := ids(build()); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, first run produced %v", i, got, first)
		}
	}
}

func TestEmpty_CarriesCustomReason(t *testing.T) {
	r := Empty("index rebuilding")
	if r.Reason() != "index rebuilding" || r.Len() != 0 {
		t.Errorf("reason = %q len = %d", r.Reason(), r.Len())
	}
}
