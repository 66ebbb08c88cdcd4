package isoforest

import (
	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/feature"
	"github.com/pbanos/isoforest/tree"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

/*
Impute returns a copy of the dataset with its missing values filled in.

Every row with missing values is sent down each tree, following both children
of a split whose value it lacks with the probabilities recorded while growing
the tree. Each terminal node reached contributes the training statistics of
the missing features, the mean for numeric features and the level frequencies
for categorical ones, weighted by the probability of reaching it and, with
InverseDepth weighting, by 1/(1+depth). Numeric values are filled with the
weighted mean and categorical ones with the level of largest weight, the
first one on ties. When no terminal node observed the feature, the statistics
of the whole training data are used instead, and if the feature was never
observed the value is left missing.

Rows without missing values are returned unchanged. Impute returns an
InvalidInput error if the dataset does not match the forest's schema.
*/
func (f *Forest) Impute(d *dataset.Dataset, opts ...Option) (*dataset.Dataset, error) {
	if err := f.checkSchema(d); err != nil {
		return nil, err
	}
	s := newSettings(f.Config.Threads, opts)
	result := d.Clone()
	filled := make([]int, d.Len())
	err := parallel(d.Len(), s.threads, rowChunk(d.Len(), s.threads), func(i int) error {
		if d.RowHasMissing(i) {
			filled[i] = f.imputeRow(d, result, i)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	var total int
	for _, n := range filled {
		total += n
	}
	s.metrics.RowsProcessed("impute", d.Len())
	s.logger.Debug("values imputed", zap.Int("rows", d.Len()), zap.Int("values", total))
	return result, nil
}

/*
imputeRow fills the missing values of row i of d into the same row of dst and
returns how many it filled.
*/
func (f *Forest) imputeRow(d, dst *dataset.Dataset, i int) int {
	var missing []int
	for j := range f.Schema {
		if d.Missing(i, j) {
			missing = append(missing, j)
		}
	}
	sums := make([]float64, len(f.Schema))
	weights := make([]float64, len(f.Schema))
	votes := make([][]float64, len(f.Schema))
	for _, j := range missing {
		if f.Schema[j].Kind() == feature.Categorical {
			votes[j] = make([]float64, len(feature.Levels(f.Schema[j])))
		}
	}
	row := d.Row(i)
	unseen := f.Config.Rules().Unseen
	inverseDepth := f.Config.ImputeWeighting != Uniform
	for t := range f.Trees {
		f.Trees[t].VisitTerminals(row, unseen, func(n *tree.Node, p float64) {
			w := p
			if inverseDepth {
				w /= float64(n.Depth + 1)
			}
			for _, j := range missing {
				st := &n.Stats[j]
				if st.Observed == 0 {
					continue
				}
				weights[j] += w
				if votes[j] == nil {
					sums[j] += w * st.Mean
					continue
				}
				for c, count := range st.Counts {
					votes[j][c] += w * float64(count) / float64(st.Observed)
				}
			}
		})
	}
	var filled int
	for _, j := range missing {
		if weights[j] == 0 {
			if f.fillFallback(dst, i, j) {
				filled++
			}
			continue
		}
		if votes[j] == nil {
			dst.SetNumeric(i, j, sums[j]/weights[j])
		} else {
			dst.SetCategory(i, j, floats.MaxIdx(votes[j]))
		}
		filled++
	}
	return filled
}

func (f *Forest) fillFallback(dst *dataset.Dataset, i, j int) bool {
	st := &f.Fallback[j]
	if st.Observed == 0 {
		return false
	}
	if f.Schema[j].Kind() == feature.Numeric {
		dst.SetNumeric(i, j, st.Mean)
		return true
	}
	counts := make([]float64, len(st.Counts))
	for c, n := range st.Counts {
		counts[c] = float64(n)
	}
	dst.SetCategory(i, j, floats.MaxIdx(counts))
	return true
}
