package functional

// Map applies transform to every item, keeping order. A nil slice maps to an
// empty one.
func Map[T any, R any](items []T, transform func(T) R) []R {
	mapped := make([]R, 0, len(items))
	for _, item := range items {
		mapped = append(mapped, transform(item))
	}
	return mapped
}
