// Package sharedutil holds small generic slice helpers shared across the
// engine package, in the spirit of supersonic's sharedutil package.
package sharedutil

// FilterSlice returns a new slice containing only the elements of s for
// which keep returns true. A nil input yields a nil result.
func FilterSlice[T any](s []T, keep func(T) bool) []T {
	if s == nil {
		return nil
	}
	out := make([]T, 0, len(s))
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// MapSlice applies f to every element of s and returns the results in order.
// A nil input yields a nil result.
func MapSlice[T, U any](s []T, f func(T) U) []U {
	if s == nil {
		return nil
	}
	out := make([]U, 0, len(s))
	for _, v := range s {
		out = append(out, f(v))
	}
	return out
}

// FilterMapSlice applies f to every element of s, keeping the mapped value
// only when f reports ok. A nil input yields a nil result.
func FilterMapSlice[T, U any](s []T, f func(T) (U, bool)) []U {
	if s == nil {
		return nil
	}
	out := make([]U, 0, len(s))
	for _, v := range s {
		if u, ok := f(v); ok {
			out = append(out, u)
		}
	}
	return out
}

// Reversed returns a new slice with the elements of s in reverse order.
// A nil input yields a nil result.
func Reversed[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// ToSet converts a slice into a set represented as a map to an empty struct.
func ToSet[T comparable](s []T) map[T]struct{} {
	out := make(map[T]struct{}, len(s))
	for _, v := range s {
		out[v] = struct{}{}
	}
	return out
}
