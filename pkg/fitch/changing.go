package fitch

import "github.com/matzehuels/parsimony/pkg/charset"

// Changing lists character indices in ascending order.
type Changing []int

// All lists every character of an nchar-character matrix.
func All(nchar int) Changing {
	c := make(Changing, nchar)
	for i := range c {
		c[i] = i
	}
	return c
}

// Diff lists the characters where a and b differ.
func Diff(a, b []charset.StateSet) Changing {
	var out Changing
	for i := range a {
		if a[i] != b[i] {
			out = append(out, i)
		}
	}
	return out
}

// Union merges two changing sets.
func Union(a, b Changing) Changing {
	out := make(Changing, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i == len(a) || b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// InsertionCost counts the characters where src shares no state with the
// union of a and b. Counting stops as soon as the cost exceeds bound.
func InsertionCost(src, a, b []charset.StateSet, bound int) int {
	cost := 0
	for c := range src {
		if src[c]&(a[c]|b[c]) == 0 {
			cost++
			if cost > bound {
				break
			}
		}
	}
	return cost
}
