//go:build !noserialize

package serialize

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
	"testing"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	"github.com/pbanos/isoforest/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

var schema = feature.Schema{
	feature.NewNumericFeature("x"),
	feature.NewNumericFeature("y"),
	feature.NewCategoricalFeature("group", []string{"a", "b", "c"}),
}

func samples(t *testing.T, seed uint64, rows int) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	x, y, g := make([]float64, rows), make([]float64, rows), make([]int, rows)
	for i := range x {
		g[i] = rng.Intn(3)
		x[i] = float64(g[i]*5) + rng.NormFloat64()
		y[i] = rng.NormFloat64()
		if rng.Float64() < 0.1 {
			x[i] = math.NaN()
		}
		if rng.Float64() < 0.1 {
			g[i] = feature.MissingCategory
		}
	}
	d, err := dataset.New(schema, x, y, g)
	require.NoError(t, err)
	return d
}

func forest(t *testing.T, cfg isoforest.Config) *isoforest.Forest {
	t.Helper()
	f, err := isoforest.Build(samples(t, 1, 300), cfg)
	require.NoError(t, err)
	return f
}

func TestRoundTrip(t *testing.T) {
	configs := map[string]isoforest.Config{
		"random":           {Trees: 10, Seed: 3},
		"pooled-gain":      {Trees: 10, Seed: 4, Criterion: isoforest.PooledGain, CategorySplit: isoforest.SingleSplit},
		"linear":           {Trees: 10, Seed: 5, NDim: 2, MissingAction: "majority", UnseenAction: "smallest"},
		"feature-weighted": {Trees: 10, Seed: 6, FeatureWeights: []float64{1, 2, 3}, FeatureFraction: 0.7},
	}
	s := New()
	require.True(t, s.Capable())
	probe := samples(t, 2, 40)
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			f := forest(t, cfg)
			data, err := s.Marshal(f)
			require.NoError(t, err)
			g, err := s.Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, f, g)

			again, err := s.Marshal(g)
			require.NoError(t, err)
			assert.Equal(t, data, again)

			want, err := f.Score(probe)
			require.NoError(t, err)
			got, err := g.Score(probe)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			wantD, err := f.Distances(probe)
			require.NoError(t, err)
			gotD, err := g.Distances(probe)
			require.NoError(t, err)
			assert.Equal(t, wantD.RawSymmetric().Data, gotD.RawSymmetric().Data)

			wantI, err := f.Impute(probe)
			require.NoError(t, err)
			gotI, err := g.Impute(probe)
			require.NoError(t, err)
			assert.Equal(t, wantI, gotI)
		})
	}
}

func TestWriteAndRead(t *testing.T) {
	f := forest(t, isoforest.Config{Trees: 5, Seed: 7})
	s := New()
	buf := &bytes.Buffer{}
	require.NoError(t, s.Write(buf, f))
	g, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, f, g)
}

func TestMarshalRejectsInvalidForests(t *testing.T) {
	s := New()
	_, err := s.Marshal(nil)
	assert.True(t, errors.Is(err, failure.InvalidInput))

	f := forest(t, isoforest.Config{Trees: 3, Seed: 8})
	f.Trees = f.Trees[:2]
	_, err = s.Marshal(f)
	assert.True(t, errors.Is(err, failure.InvalidInput))
}

// resum recomputes the checksum of an encoded forest after tampering with it
func resum(data []byte) []byte {
	body := data[:len(data)-4]
	binary.LittleEndian.PutUint32(data[len(body):], crc32.ChecksumIEEE(body))
	return data
}

func TestUnmarshalRejectsCorruptData(t *testing.T) {
	s := New()
	f := forest(t, isoforest.Config{Trees: 4, Seed: 9})
	valid, err := s.Marshal(f)
	require.NoError(t, err)
	clone := func() []byte {
		return append([]byte(nil), valid...)
	}

	// offset of the first node's Left field: header, config, schema, fallback,
	// tree count, sample size, node count, then kind, depth, count, feature
	// and threshold
	e := &encoder{}
	e.buf = append(e.buf, magic...)
	e.buf = binary.LittleEndian.AppendUint16(e.buf, version)
	e.config(f.Config)
	e.schema(f.Schema)
	for j, st := range f.Fallback {
		e.stats(f.Schema[j], st)
	}
	left := len(e.buf) + 4 + 8 + 4 + 1 + 8*4
	require.NotEqual(t, tree.Terminal, f.Trees[0].Nodes[0].Kind, "root must be a split")

	cases := map[string][]byte{
		"empty":     nil,
		"short":     valid[:8],
		"magic":     func() []byte { d := clone(); d[0] = 'X'; return d }(),
		"version":   func() []byte { d := clone(); d[4] = 2; return resum(d) }(),
		"checksum":  func() []byte { d := clone(); d[len(d)/2] ^= 0xff; return d }(),
		"truncated": resum(append(clone()[:len(valid)-40], 0, 0, 0, 0)),
		"trailing":  resum(append(clone()[:len(valid)-4], 1, 2, 3, 4, 0, 0, 0, 0)),
		"child": func() []byte {
			d := clone()
			binary.LittleEndian.PutUint64(d[left:], uint64(len(f.Trees[0].Nodes)+5))
			return resum(d)
		}(),
		"self-reference": func() []byte {
			d := clone()
			binary.LittleEndian.PutUint64(d[left:], 0)
			return resum(d)
		}(),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			g, err := s.Unmarshal(data)
			assert.Nil(t, g)
			require.Error(t, err)
			assert.True(t, errors.Is(err, failure.CorruptData), "got %v", err)
		})
	}
}
