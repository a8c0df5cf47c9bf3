package utils

import (
	"strings"
)

// DiffSeats returns the members of want not present in have, preserving want's order.
func DiffSeats(want, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[strings.ToUpper(strings.TrimSpace(h))] = struct{}{}
	}
	out := []string{}
	for _, w := range want {
		if _, ok := set[strings.ToUpper(strings.TrimSpace(w))]; !ok {
			out = append(out, w)
		}
	}
	return out
}

// IntersectSeats returns the members of want also present in have, preserving want's order.
func IntersectSeats(want, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[strings.ToUpper(strings.TrimSpace(h))] = struct{}{}
	}
	out := []string{}
	for _, w := range want {
		if _, ok := set[strings.ToUpper(strings.TrimSpace(w))]; ok {
			out = append(out, w)
		}
	}
	return out
}
