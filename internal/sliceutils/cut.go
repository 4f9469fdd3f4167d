package sliceutils

func Cut[T any](slice []T, start, end int) []T {
	if len(slice) == 0 {
		return slice
	}

	if start < 0 {
		start = len(slice) + start
	}
	if end < 0 {
		end = len(slice) + end
	}

	return slice[max(start, 0):max(min(end, len(slice)), 0)]
}

// PrependCapped returns a new slice with v in front of slice, keeping at most
// limit elements. The oldest (tail) elements are dropped first. A limit of
// zero or less means unbounded.
func PrependCapped[T any](slice []T, v T, limit int) []T {
	res := make([]T, 0, len(slice)+1)
	res = append(res, v)
	res = append(res, slice...)
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}
