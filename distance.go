package isoforest

import (
	"math"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

/*
Distances returns the symmetric matrix of pseudo-distances between every pair
of rows of the dataset. The distance between two rows is 2^(-D/s), with D the
average over the trees of the expected depth at which their splits separate
them and s the expected separation depth of two random points among as many
as the trees were grown from. Rows separated early are far apart; identical
rows are at distance 0.

It returns an InvalidInput error if the dataset does not match the forest's
schema or has missing values the forest is configured to fail on, and a
NumericOverflow error if distances cannot be normalised.
*/
func (f *Forest) Distances(d *dataset.Dataset, opts ...Option) (*mat.SymDense, error) {
	if err := f.checkSamples(d); err != nil {
		return nil, err
	}
	norm, err := f.separationNorm()
	if err != nil {
		return nil, err
	}
	s := newSettings(f.Config.Threads, opts)
	m := d.Len()
	data := make([]float64, m*m)
	err = parallel(m, s.threads, 1, func(i int) error {
		a := d.Row(i)
		for j := i + 1; j < m; j++ {
			dist, err := f.distance(a, d.Row(j), norm)
			if err != nil {
				return err
			}
			data[i*m+j] = dist
			data[j*m+i] = dist
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RowsProcessed("distance", m)
	s.logger.Debug("pairwise distances computed", zap.Int("rows", m))
	return mat.NewSymDense(m, data), nil
}

/*
DistancesTo returns the matrix of pseudo-distances between every row of the
dataset, one per matrix row, and every row of the reference dataset, one per
matrix column. Distances are computed as in Distances and both datasets
must match the forest's schema.
*/
func (f *Forest) DistancesTo(d, ref *dataset.Dataset, opts ...Option) (*mat.Dense, error) {
	if err := f.checkSamples(d); err != nil {
		return nil, err
	}
	if err := f.checkSamples(ref); err != nil {
		return nil, err
	}
	norm, err := f.separationNorm()
	if err != nil {
		return nil, err
	}
	s := newSettings(f.Config.Threads, opts)
	m, r := d.Len(), ref.Len()
	data := make([]float64, m*r)
	err = parallel(m, s.threads, 1, func(i int) error {
		a := d.Row(i)
		for j := 0; j < r; j++ {
			dist, err := f.distance(a, ref.Row(j), norm)
			if err != nil {
				return err
			}
			data[i*r+j] = dist
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RowsProcessed("distance", m)
	s.logger.Debug("reference distances computed", zap.Int("rows", m), zap.Int("references", r))
	return mat.NewDense(m, r, data), nil
}

func (f *Forest) separationNorm() (float64, error) {
	norm := f.expectedSeparation()
	if !(norm > 0) || !finite(norm) {
		return 0, failure.Errorf(failure.NumericOverflow, "cannot normalise distances with expected separation %v", norm)
	}
	return norm, nil
}

func (f *Forest) distance(a, b dataset.Row, norm float64) (float64, error) {
	if dataset.EqualRows(a, b) {
		return 0, nil
	}
	rules := f.Config.Rules()
	var sum float64
	for t := range f.Trees {
		sum += f.Trees[t].Separation(a, b, rules)
	}
	depth := sum / float64(len(f.Trees))
	if !finite(depth) {
		return 0, failure.Errorf(failure.NumericOverflow, "average separation depth of rows %d and %d is %v", a.Index(), b.Index(), depth)
	}
	return clamp(math.Exp2(-depth / norm)), nil
}
