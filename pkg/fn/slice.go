package fn

// Map applies f to each element.
func Map[T, U any](items []T, f func(T) U) []U {
	out := make([]U, len(items))
	for i, v := range items {
		out[i] = f(v)
	}
	return out
}

// Filter returns elements where pred is true.
func Filter[T any](items []T, pred func(T) bool) []T {
	var out []T
	for _, v := range items {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// DedupeBy returns items with duplicates (by key) removed, keeping the
// first occurrence and preserving order.
func DedupeBy[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]bool, len(items))
	var out []T
	for _, v := range items {
		k := key(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
