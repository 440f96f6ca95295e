package domain

import (
	"math"
	"sort"
)

// CosineDistance returns 1 - cos(a, b). Vectors of different length or
// with zero magnitude are maximally distant from everything.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// TopK sorts matches by ascending distance, keeping insertion order for
// ties, and truncates to k.
func TopK(matches []Match, k int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k < 0 {
		k = 0
	}
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}
