package isoforest

import (
	"math"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"go.uber.org/zap"
)

/*
Depths returns, for every row of the dataset and in the same order, the
average over the trees of the forest of its path estimate: the number of
splits needed to isolate it plus the correction of the terminal node reached.

It returns an InvalidInput error if the dataset does not match the forest's
schema or has missing values the forest is configured to fail on, and a
NumericOverflow error if any average is not finite.
*/
func (f *Forest) Depths(d *dataset.Dataset, opts ...Option) ([]float64, error) {
	if err := f.checkSamples(d); err != nil {
		return nil, err
	}
	s := newSettings(f.Config.Threads, opts)
	rules := f.Config.Rules()
	depths := make([]float64, d.Len())
	err := parallel(d.Len(), s.threads, rowChunk(d.Len(), s.threads), func(i int) error {
		row := d.Row(i)
		var sum float64
		for t := range f.Trees {
			sum += f.Trees[t].PathEstimate(row, rules)
		}
		depths[i] = sum / float64(len(f.Trees))
		if !finite(depths[i]) {
			return failure.Errorf(failure.NumericOverflow, "average depth of row %d is %v", i, depths[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RowsProcessed("score", d.Len())
	s.logger.Debug("rows scored", zap.Int("rows", d.Len()), zap.Int("trees", len(f.Trees)))
	return depths, nil
}

/*
Score returns the anomaly score of every row of the dataset, in the same
order. Scores are 2^(-E/c), with E the average path estimate of the row and c
the expected path length of a random point among as many as the trees were
grown from. They lie in [0,1]: values close to 1 flag outliers while typical
rows score around 0.5 or below.

Score fails like Depths, and with a NumericOverflow error if the trees were
grown from single rows so that scores cannot be normalised.
*/
func (f *Forest) Score(d *dataset.Dataset, opts ...Option) ([]float64, error) {
	c := f.expectedPathLength()
	if !(c > 0) || !finite(c) {
		return nil, failure.Errorf(failure.NumericOverflow, "cannot normalise scores with expected path length %v", c)
	}
	scores, err := f.Depths(d, opts...)
	if err != nil {
		return nil, err
	}
	for i, depth := range scores {
		scores[i] = clamp(math.Exp2(-depth / c))
	}
	return scores, nil
}

func clamp(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
