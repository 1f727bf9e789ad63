package optimistic

import (
	"reflect"
	"testing"
)

type item struct {
	ID    string
	Title string
	Done  bool
	Votes int
}

func byID(id string) func(item) bool {
	return func(v item) bool { return v.ID == id }
}

func TestInsertFront(t *testing.T) {
	in := []item{{ID: "a"}, {ID: "b"}}
	out := InsertFront(in, item{ID: "c"})

	if len(out) != 3 || out[0].ID != "c" || out[1].ID != "a" {
		t.Errorf("Expected [c a b], got %v", out)
	}
	if len(in) != 2 {
		t.Errorf("Expected input untouched, got %v", in)
	}
}

func TestRemoveBy(t *testing.T) {
	in := []item{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out := RemoveBy(in, byID("b"))

	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "c" {
		t.Errorf("Expected [a c], got %v", out)
	}
	if len(in) != 3 {
		t.Errorf("Expected input untouched, got %v", in)
	}

	same := RemoveBy(in, byID("missing"))
	if !reflect.DeepEqual(same, in) {
		t.Errorf("Expected unchanged content for no match, got %v", same)
	}
}

func TestPatchBy(t *testing.T) {
	in := []item{{ID: "a", Title: "old"}, {ID: "b", Title: "keep"}}
	out := PatchBy(in, byID("a"), func(v item) item {
		v.Title = "new"
		return v
	})

	if out[0].Title != "new" || out[1].Title != "keep" {
		t.Errorf("Expected only matched element patched, got %v", out)
	}
	if in[0].Title != "old" {
		t.Errorf("Expected input untouched, got %v", in)
	}
}

func TestToggleBy(t *testing.T) {
	in := []item{{ID: "a", Done: false}, {ID: "b", Done: true}}
	out := ToggleBy(in, byID("a"), func(v *item) *bool { return &v.Done })

	if !out[0].Done {
		t.Errorf("Expected a toggled to true, got %v", out[0])
	}
	if !out[1].Done {
		t.Errorf("Expected b untouched, got %v", out[1])
	}
	if in[0].Done {
		t.Errorf("Expected input untouched, got %v", in[0])
	}

	back := ToggleBy(out, byID("a"), func(v *item) *bool { return &v.Done })
	if back[0].Done {
		t.Errorf("Expected double toggle to restore, got %v", back[0])
	}
}

func TestIncrementBy(t *testing.T) {
	in := []item{{ID: "a", Votes: 1}, {ID: "b", Votes: 5}}
	out := IncrementBy(in, byID("a"), func(v *item) *int { return &v.Votes }, 2)

	if out[0].Votes != 3 {
		t.Errorf("Expected votes 3, got %d", out[0].Votes)
	}
	if out[1].Votes != 5 {
		t.Errorf("Expected b untouched, got %d", out[1].Votes)
	}
	if in[0].Votes != 1 {
		t.Errorf("Expected input untouched, got %d", in[0].Votes)
	}

	down := IncrementBy(out, byID("a"), func(v *item) *int { return &v.Votes }, -3)
	if down[0].Votes != 0 {
		t.Errorf("Expected negative delta to decrement, got %d", down[0].Votes)
	}
}
