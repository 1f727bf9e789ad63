// Package optimistic makes a state mutation appear instantaneous to the
// caller while reconciling with a slower remote confirmation: the local
// state is committed before the remote call and restored from a snapshot if
// the call fails.
package optimistic

import "context"

// State is injected read/write access to caller-owned state. Any
// state-management style (store, signal, plain variable) can satisfy it.
type State[S any] interface {
	Get() S
	Set(S)
}

// Var is a minimal in-memory State implementation.
type Var[S any] struct {
	v S
}

// NewVar returns a Var holding initial.
func NewVar[S any](initial S) *Var[S] {
	return &Var[S]{v: initial}
}

func (v *Var[S]) Get() S  { return v.v }
func (v *Var[S]) Set(s S) { v.v = s }

// Recovery computes the state to restore after a failed remote call. It
// receives the state current at failure time, the pre-mutation snapshot, the
// original arguments, and the error, letting callers do a partial or
// conditional revert.
type Recovery[S, A any] func(current, snapshot S, args A, err error) S

// Update binds one optimistic operation: Apply computes the optimistic next
// state, Call performs the remote confirmation, and Recover (optional)
// customizes rollback. With Recover unset a failure restores the raw
// snapshot.
type Update[S, A, R any] struct {
	State   State[S]
	Apply   func(prev S, args A) S
	Call    func(ctx context.Context, args A) (R, error)
	Recover Recovery[S, A]
}

// Do runs the operation: snapshot, commit the optimistic state
// synchronously, then invoke the remote call. On success the optimistic
// state stands and the remote result is returned. On failure the previous
// state is restored (or Recover decides) and the error is returned.
func (u Update[S, A, R]) Do(ctx context.Context, args A) (R, error) {
	snapshot := u.State.Get()
	u.State.Set(u.Apply(snapshot, args))

	result, err := u.Call(ctx, args)
	if err != nil {
		if u.Recover != nil {
			u.State.Set(u.Recover(u.State.Get(), snapshot, args, err))
		} else {
			u.State.Set(snapshot)
		}
		var zero R
		return zero, err
	}
	return result, nil
}
