package optimistic

// List mutation helpers for the common optimistic patterns. Each returns a
// fresh slice; the input is never mutated in place, so a caller can hold the
// original as its rollback snapshot.

// InsertFront returns a new slice with v prepended.
func InsertFront[T any](s []T, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, v)
	return append(out, s...)
}

// RemoveBy returns a new slice without the elements matched by match.
func RemoveBy[T any](s []T, match func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if !match(v) {
			out = append(out, v)
		}
	}
	return out
}

// PatchBy returns a new slice where each matched element is replaced by
// patch(element).
func PatchBy[T any](s []T, match func(T) bool, patch func(T) T) []T {
	out := make([]T, len(s))
	for i, v := range s {
		if match(v) {
			out[i] = patch(v)
		} else {
			out[i] = v
		}
	}
	return out
}

// ToggleBy returns a new slice where the boolean field selected by field is
// flipped on each matched element.
func ToggleBy[T any](s []T, match func(T) bool, field func(*T) *bool) []T {
	return PatchBy(s, match, func(v T) T {
		f := field(&v)
		*f = !*f
		return v
	})
}

// IncrementBy returns a new slice where the numeric field selected by field
// is incremented by delta on each matched element.
func IncrementBy[T any](s []T, match func(T) bool, field func(*T) *int, delta int) []T {
	return PatchBy(s, match, func(v T) T {
		f := field(&v)
		*f += delta
		return v
	})
}
