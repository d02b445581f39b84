package library

import (
	"iter"
	"slices"
	"strings"
)

// naturalKey splits name into alternating text and digit runs. Even
// positions hold (lowercased, possibly empty) text, odd positions digits.
func naturalKey(name string) []string {
	key := make([]string, 0, 4)
	i := 0
	for i <= len(name) {
		j := i
		for j < len(name) && !isDigit(name[j]) {
			j++
		}
		key = append(key, strings.ToLower(name[i:j]))
		if j == len(name) {
			break
		}
		k := j
		for k < len(name) && isDigit(name[k]) {
			k++
		}
		key = append(key, name[j:k])
		i = k
	}
	return key
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// compareDigits compares two digit runs by numeric value without parsing,
// so arbitrarily long runs never overflow.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// NaturalCompare orders names so embedded numbers compare by value and
// text compares case-insensitively: "page2.jpg" < "page10.jpg".
// Names with equal keys ("01.png", "1.png") fall back to byte order.
func NaturalCompare(a, b string) int {
	return compareKeys(naturalKey(a), naturalKey(b), a, b)
}

func compareKeys(ka, kb []string, a, b string) int {
	for i := 0; i < len(ka) && i < len(kb); i++ {
		var c int
		if i%2 == 1 {
			c = compareDigits(ka[i], kb[i])
		} else {
			c = strings.Compare(ka[i], kb[i])
		}
		if c != 0 {
			return c
		}
	}
	if len(ka) != len(kb) {
		if len(ka) < len(kb) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// NaturalLess reports whether a sorts before b in natural order.
func NaturalLess(a, b string) bool {
	return NaturalCompare(a, b) < 0
}

type keyed struct {
	name string
	key  []string
}

// SortNatural sorts names in place. Each key is built once.
func SortNatural(names []string) {
	ks := make([]keyed, len(names))
	for i, n := range names {
		ks[i] = keyed{name: n, key: naturalKey(n)}
	}
	slices.SortFunc(ks, func(a, b keyed) int {
		return compareKeys(a.key, b.key, a.name, b.name)
	})
	for i := range ks {
		names[i] = ks[i].name
	}
}

// Sequence yields names in natural order. Sorting happens on a private
// copy when iteration starts, so the sequence can be ranged over again.
func Sequence(names []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		sorted := slices.Clone(names)
		SortNatural(sorted)
		for _, n := range sorted {
			if !yield(n) {
				return
			}
		}
	}
}
