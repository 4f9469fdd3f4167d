package stringslices

import "strings"

func ContainsIgnoreCase(a []string, s string) bool {
	for _, v := range a {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// AnySubstringIgnoreCase reports whether s contains any of subs, ignoring case.
func AnySubstringIgnoreCase(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if sub != "" && strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
