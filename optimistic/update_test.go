package optimistic

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type todo struct {
	ID   string
	Done bool
}

func TestSuccessKeepsOptimisticState(t *testing.T) {
	state := NewVar([]todo{{ID: "a"}})

	var stateDuringCall []todo
	u := Update[[]todo, todo, string]{
		State: state,
		Apply: func(prev []todo, v todo) []todo {
			return InsertFront(prev, v)
		},
		Call: func(ctx context.Context, v todo) (string, error) {
			// The optimistic state must already be committed here.
			stateDuringCall = state.Get()
			return "created-" + v.ID, nil
		},
	}

	result, err := u.Do(context.Background(), todo{ID: "b"})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if result != "created-b" {
		t.Errorf("Expected remote result returned, got %q", result)
	}
	if len(stateDuringCall) != 2 || stateDuringCall[0].ID != "b" {
		t.Errorf("Expected optimistic state visible during remote call, got %v", stateDuringCall)
	}
	if got := state.Get(); len(got) != 2 || got[0].ID != "b" {
		t.Errorf("Expected optimistic state kept after success, got %v", got)
	}
}

func TestFailureRestoresSnapshot(t *testing.T) {
	before := []todo{{ID: "a"}, {ID: "b", Done: true}}
	state := NewVar(before)
	remoteErr := errors.New("server exploded")

	u := Update[[]todo, string, struct{}]{
		State: state,
		Apply: func(prev []todo, id string) []todo {
			return RemoveBy(prev, func(v todo) bool { return v.ID == id })
		},
		Call: func(ctx context.Context, id string) (struct{}, error) {
			if len(state.Get()) != 1 {
				t.Errorf("Expected optimistic removal before remote call, got %v", state.Get())
			}
			return struct{}{}, remoteErr
		},
	}

	_, err := u.Do(context.Background(), "a")
	if !errors.Is(err, remoteErr) {
		t.Fatalf("Expected remote error re-raised, got %v", err)
	}
	if got := state.Get(); !reflect.DeepEqual(got, before) {
		t.Errorf("Expected state restored to snapshot %v, got %v", before, got)
	}
}

func TestCustomRecovery(t *testing.T) {
	state := NewVar([]todo{{ID: "a"}})
	remoteErr := errors.New("nope")

	var gotCurrent, gotSnapshot []todo
	var gotArgs string
	u := Update[[]todo, string, struct{}]{
		State: state,
		Apply: func(prev []todo, id string) []todo {
			return InsertFront(prev, todo{ID: id})
		},
		Call: func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, remoteErr
		},
		Recover: func(current, snapshot []todo, args string, err error) []todo {
			gotCurrent, gotSnapshot, gotArgs = current, snapshot, args
			if !errors.Is(err, remoteErr) {
				t.Errorf("Expected recovery to receive the remote error, got %v", err)
			}
			// Deliberate partial revert: keep the failed entry, flagged.
			return PatchBy(current,
				func(v todo) bool { return v.ID == args },
				func(v todo) todo { v.Done = true; return v })
		},
	}

	_, err := u.Do(context.Background(), "b")
	if !errors.Is(err, remoteErr) {
		t.Fatalf("Expected error after recovery, got %v", err)
	}
	if len(gotCurrent) != 2 {
		t.Errorf("Expected recovery to see the optimistic state, got %v", gotCurrent)
	}
	if len(gotSnapshot) != 1 {
		t.Errorf("Expected recovery to see the snapshot, got %v", gotSnapshot)
	}
	if gotArgs != "b" {
		t.Errorf("Expected recovery to see original args, got %q", gotArgs)
	}
	if got := state.Get(); len(got) != 2 || !got[0].Done {
		t.Errorf("Expected custom recovery result committed, got %v", got)
	}
}

func TestZeroResultOnFailure(t *testing.T) {
	state := NewVar(0)
	u := Update[int, int, int]{
		State: state,
		Apply: func(prev, delta int) int { return prev + delta },
		Call: func(ctx context.Context, delta int) (int, error) {
			return 99, errors.New("fail")
		},
	}

	result, err := u.Do(context.Background(), 5)
	if err == nil {
		t.Fatal("Expected error")
	}
	if result != 0 {
		t.Errorf("Expected zero result on failure, got %d", result)
	}
	if got := state.Get(); got != 0 {
		t.Errorf("Expected rollback to 0, got %d", got)
	}
}
