package dataset

import "math"

/*
Row is a view on a single row of a Dataset. It is cheap to copy and does not
allocate.
*/
type Row struct {
	d *Dataset
	i int
}

// Index returns the position of the row in its dataset
func (r Row) Index() int {
	return r.i
}

// Numeric returns the value of numeric feature j, NaN if missing
func (r Row) Numeric(j int) float64 {
	return r.d.numeric[j][r.i]
}

// Category returns the level index of categorical feature j
func (r Row) Category(j int) int {
	return r.d.categorical[j][r.i]
}

// Missing returns whether the value of feature j is missing
func (r Row) Missing(j int) bool {
	return r.d.Missing(r.i, j)
}

/*
EqualRows returns whether two rows hold the same values, missing values
included. Both rows are expected to share a schema.
*/
func EqualRows(a, b Row) bool {
	for j := range a.d.schema {
		if a.d.numeric[j] != nil {
			x, y := a.Numeric(j), b.Numeric(j)
			if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
				return false
			}
			continue
		}
		if a.Category(j) != b.Category(j) {
			return false
		}
	}
	return true
}
