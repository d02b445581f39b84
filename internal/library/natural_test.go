package library

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortNatural(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "numeric runs compare by value",
			in:   []string{"2.png", "10.png", "1.png"},
			want: []string{"1.png", "2.png", "10.png"},
		},
		{
			name: "prefixed pages",
			in:   []string{"page10.jpg", "page9.jpg", "page1.jpg", "page100.jpg"},
			want: []string{"page1.jpg", "page9.jpg", "page10.jpg", "page100.jpg"},
		},
		{
			name: "multiple digit runs",
			in:   []string{"page10a2.jpg", "page9a10.jpg", "page9a2.jpg"},
			want: []string{"page9a2.jpg", "page9a10.jpg", "page10a2.jpg"},
		},
		{
			name: "no digits is case-insensitive text",
			in:   []string{"cover.jpg", "Back.jpg", "alpha.png"},
			want: []string{"alpha.png", "Back.jpg", "cover.jpg"},
		},
		{
			name: "zero padding does not matter",
			in:   []string{"page010.jpg", "page2.jpg", "page001.jpg"},
			want: []string{"page001.jpg", "page2.jpg", "page010.jpg"},
		},
		{
			name: "digits sort before letters at the same position",
			in:   []string{"a.png", "1.png"},
			want: []string{"1.png", "a.png"},
		},
		{
			name: "huge numbers do not overflow",
			in:   []string{"p99999999999999999999999.png", "p100000000000000000000000.png", "p5.png"},
			want: []string{"p5.png", "p99999999999999999999999.png", "p100000000000000000000000.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Clone(tt.in)
			SortNatural(got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNaturalLess_PageNumbers(t *testing.T) {
	for n1 := 0; n1 < 120; n1 += 7 {
		for n2 := n1 + 1; n2 < 130; n2 += 11 {
			f1 := fmt.Sprintf("page%d.jpg", n1)
			f2 := fmt.Sprintf("page%d.jpg", n2)
			assert.True(t, NaturalLess(f1, f2), "%s < %s", f1, f2)
			assert.False(t, NaturalLess(f2, f1), "%s > %s", f2, f1)

			padded := fmt.Sprintf("page%04d.jpg", n1)
			assert.True(t, NaturalLess(padded, f2), "%s < %s", padded, f2)
		}
	}
}

func TestNaturalCompare_TotalOrder(t *testing.T) {
	assert.Equal(t, 0, NaturalCompare("a1.png", "a1.png"))
	// equal keys fall back to byte order so sorting is deterministic
	assert.NotEqual(t, 0, NaturalCompare("01.png", "1.png"))
	assert.Equal(t, -NaturalCompare("01.png", "1.png"), NaturalCompare("1.png", "01.png"))
	assert.NotEqual(t, 0, NaturalCompare("A.png", "a.png"))
}

func TestSequence_Restartable(t *testing.T) {
	names := []string{"3.jpg", "20.jpg", "1.jpg"}
	seq := Sequence(names)

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.Equal(t, []string{"1.jpg", "3.jpg", "20.jpg"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"3.jpg", "20.jpg", "1.jpg"}, names, "input must not be reordered")
}

func TestSequence_EarlyStop(t *testing.T) {
	var got []string
	for n := range Sequence([]string{"b2", "b10", "b1"}) {
		got = append(got, n)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"b1", "b2"}, got)
}

func TestSortNatural_AgreesWithCompare(t *testing.T) {
	names := []string{"b10", "B2", "a", "a01", "a1", "10", "9", "", "x007y2", "x7y10", "X7y1"}
	sorted := slices.Clone(names)
	SortNatural(sorted)

	assert.ElementsMatch(t, names, sorted)
	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, NaturalCompare(sorted[i-1], sorted[i]), 0, "%q before %q", sorted[i-1], sorted[i])
	}
}
