package tree

import (
	"math"
	"sync"
)

const (
	eulerGamma = 0.5772156649015328606
	// harmonic numbers up to this size are summed exactly
	exactHarmonicLimit = 256
	// expected separation depths are tabulated up to this size, and taken
	// as constant past it
	separationLimit = 1 << 16
)

func harmonic(n int) float64 {
	if n <= exactHarmonicLimit {
		var h float64
		for k := 1; k <= n; k++ {
			h += 1 / float64(k)
		}
		return h
	}
	x := float64(n)
	return math.Log(x) + eulerGamma + 1/(2*x) - 1/(12*x*x) + 1/(120*x*x*x*x)
}

/*
ExpectedPathLength returns c(n), the average path length of an unsuccessful
search in a binary search tree of n points, 2(H(n) - 1). It is the expected
depth still needed to isolate one of n points by random partitioning and is
used both as terminal correction and to normalise anomaly scores.
*/
func ExpectedPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	return 2 * (harmonic(n) - 1)
}

// separationTable holds s(n) for n up to separationLimit, filled on first use
var separationTable = sync.OnceValue(func() []float64 {
	table := make([]float64, separationLimit+1)
	table[2] = 1
	acc := 2.0
	for m := 3; m <= separationLimit; m++ {
		fm := float64(m)
		table[m] = 1 + 2*acc/(fm*(fm-1)*(fm-1))
		acc += fm * (fm - 1) * table[m]
	}
	return table
})

/*
ExpectedSeparation returns the expected number of random splits needed to
separate two points drawn from a group of n, following
s(n) = 1 + 2/(n(n-1)^2) * sum_{k=2}^{n-1} k(k-1)s(k), with s(2) = 1.
The table is computed once and only read afterwards.
*/
func ExpectedSeparation(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n > separationLimit {
		n = separationLimit
	}
	return separationTable()[n]
}
