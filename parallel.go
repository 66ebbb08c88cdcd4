package isoforest

import (
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

/*
parallel calls fn for every index in [0,n) from at most threads goroutines,
handing them out in consecutive chunks of the given size. It returns the
first error returned by fn.
*/
func parallel(n, threads, chunk int, fn func(i int) error) error {
	if chunk < 1 {
		chunk = 1
	}
	var g errgroup.Group
	g.SetLimit(threads)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// rowChunk returns a chunk size that gives every thread a few chunks of rows
func rowChunk(n, threads int) int {
	c := n / (threads * 4)
	if c < 16 {
		c = 16
	}
	return c
}

/*
treeSeed derives the seed of tree i from the master seed with a splitmix64
step, so that it only depends on both values and never on scheduling.
*/
func treeSeed(master uint64, i int) uint64 {
	z := master + (uint64(i)+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func treeRand(master uint64, i int) *rand.Rand {
	return rand.New(rand.NewSource(treeSeed(master, i)))
}
