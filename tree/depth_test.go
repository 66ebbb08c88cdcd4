package tree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedPathLength(t *testing.T) {
	assert.Equal(t, 0.0, ExpectedPathLength(0))
	assert.Equal(t, 0.0, ExpectedPathLength(1))
	assert.Equal(t, 1.0, ExpectedPathLength(2))
	assert.InDelta(t, 2*(1+0.5+1.0/3-1), ExpectedPathLength(3), 1e-12)
	// well known value for the default subsample size
	assert.InDelta(t, 10.2487, ExpectedPathLength(256), 1e-3)
	// the asymptotic expansion continues the exact sum smoothly
	assert.InDelta(t, ExpectedPathLength(256)+2.0/257, ExpectedPathLength(257), 1e-9)
	prev := 0.0
	for n := 1; n < 2000; n++ {
		c := ExpectedPathLength(n)
		assert.True(t, c >= prev, "c(%d) decreased", n)
		prev = c
	}
}

func TestExpectedSeparation(t *testing.T) {
	assert.Equal(t, 0.0, ExpectedSeparation(1))
	assert.Equal(t, 1.0, ExpectedSeparation(2))
	assert.InDelta(t, 4.0/3, ExpectedSeparation(3), 1e-12)
	prev := 1.0
	for _, n := range []int{4, 16, 256, 4096} {
		s := ExpectedSeparation(n)
		assert.True(t, s > prev, "s(%d) did not grow", n)
		assert.True(t, s < 3, "s(%d) = %v", n, s)
		prev = s
	}
	assert.Equal(t, ExpectedSeparation(separationLimit), ExpectedSeparation(separationLimit*2))
}

func TestExpectedSeparationFromConcurrentCallers(t *testing.T) {
	const n = 300
	want := make([]float64, n+1)
	want[2] = 1
	acc := 2.0
	for m := 3; m <= n; m++ {
		fm := float64(m)
		want[m] = 1 + 2*acc/(fm*(fm-1)*(fm-1))
		acc += fm * (fm - 1) * want[m]
	}

	got := make([][]float64, 8)
	var wg sync.WaitGroup
	for g := range got {
		got[g] = make([]float64, n+1)
		wg.Add(1)
		go func(values []float64) {
			defer wg.Done()
			for m := n; m >= 0; m-- {
				values[m] = ExpectedSeparation(m)
			}
		}(got[g])
	}
	wg.Wait()
	for _, values := range got {
		assert.InDeltaSlice(t, want, values, 1e-12)
	}
}
