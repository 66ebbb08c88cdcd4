//go:build !noserialize

package serialize

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	"github.com/pbanos/isoforest/tree"
)

/*
Layout of an encoded forest, little endian:

	magic "ISOF" | version uint16 | config | schema | fallback stats |
	tree count uint32 | trees | CRC-32 (IEEE) of everything before it

Integers are stored as int64, floats by their IEEE 754 bits, strings and
slices prefixed by a uint32 length.
*/
const (
	magic   = "ISOF"
	version = 1
)

type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *encoder) u32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) u64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *encoder) int(v int) {
	e.u64(uint64(int64(v)))
}

func (e *encoder) f64(v float64) {
	e.u64(math.Float64bits(v))
}

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) bool(b bool) {
	if b {
		e.u8(1)
		return
	}
	e.u8(0)
}

func encode(f *isoforest.Forest) ([]byte, error) {
	e := &encoder{buf: make([]byte, 0, 4096)}
	e.buf = append(e.buf, magic...)
	e.buf = binary.LittleEndian.AppendUint16(e.buf, version)
	e.config(f.Config)
	e.schema(f.Schema)
	for j, s := range f.Fallback {
		e.stats(f.Schema[j], s)
	}
	e.u32(uint32(len(f.Trees)))
	for i := range f.Trees {
		e.tree(f.Schema, &f.Trees[i])
	}
	e.u32(crc32.ChecksumIEEE(e.buf))
	return e.buf, nil
}

func (e *encoder) config(c isoforest.Config) {
	e.int(c.Trees)
	e.int(c.SampleSize)
	e.int(c.MaxDepth)
	e.bool(c.WithReplacement)
	e.f64(c.FeatureFraction)
	e.u32(uint32(len(c.FeatureWeights)))
	for _, w := range c.FeatureWeights {
		e.f64(w)
	}
	e.str(string(c.Criterion))
	e.int(c.Candidates)
	e.int(c.NDim)
	e.str(string(c.CategorySplit))
	e.str(string(c.MissingAction))
	e.str(string(c.UnseenAction))
	e.str(string(c.ImputeWeighting))
	e.u64(c.Seed)
	e.int(c.Threads)
}

func (e *encoder) schema(s feature.Schema) {
	e.u32(uint32(len(s)))
	for _, f := range s {
		e.u8(uint8(f.Kind()))
		e.str(f.Name())
		if f.Kind() == feature.Categorical {
			levels := feature.Levels(f)
			e.u32(uint32(len(levels)))
			for _, l := range levels {
				e.str(l)
			}
		}
	}
}

func (e *encoder) stats(f feature.Feature, s tree.FeatureStats) {
	e.int(s.Observed)
	e.f64(s.Mean)
	if f.Kind() == feature.Categorical {
		e.u32(uint32(len(s.Counts)))
		for _, c := range s.Counts {
			e.int(c)
		}
	}
}

func (e *encoder) tree(schema feature.Schema, t *tree.Tree) {
	e.int(t.SampleSize)
	e.u32(uint32(len(t.Nodes)))
	for i := range t.Nodes {
		n := &t.Nodes[i]
		e.u8(uint8(n.Kind))
		e.int(n.Depth)
		e.int(n.Count)
		e.int(n.Feature)
		e.f64(n.Threshold)
		e.int(n.Left)
		e.int(n.Right)
		e.f64(n.MissingLeft)
		e.f64(n.Correction)
		switch n.Kind {
		case tree.CategoricalSplit:
			e.u32(uint32(len(n.Branches)))
			for _, b := range n.Branches {
				e.u8(uint8(b))
			}
		case tree.LinearSplit:
			e.u32(uint32(len(n.Terms)))
			for _, term := range n.Terms {
				e.int(term.Feature)
				e.f64(term.Coef)
				e.f64(term.Center)
			}
		case tree.Terminal:
			for j, s := range n.Stats {
				e.stats(schema[j], s)
			}
		}
	}
}

/*
decoder reads values from an encoded forest. The first read past the end of
the data sets err and every later read returns zero values.
*/
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = failure.Errorf(failure.CorruptData, format, args...)
	}
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.buf)-d.off < n {
		d.fail("unexpected end of data at offset %d", d.off)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) int() int {
	v := int64(d.u64())
	if v > math.MaxInt32 || v < math.MinInt32 {
		d.fail("integer %d out of range at offset %d", v, d.off-8)
		return 0
	}
	return int(v)
}

func (d *decoder) f64() float64 {
	return math.Float64frombits(d.u64())
}

func (d *decoder) bool() bool {
	switch v := d.u8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		d.fail("invalid boolean %d at offset %d", v, d.off-1)
		return false
	}
}

/*
length reads a length prefix for elements taking at least size bytes each
and checks that the remaining data can hold them.
*/
func (d *decoder) length(size int) int {
	n := int(d.u32())
	if d.err != nil {
		return 0
	}
	if n > (len(d.buf)-d.off)/size {
		d.fail("length %d at offset %d exceeds the remaining data", n, d.off-4)
		return 0
	}
	return n
}

func (d *decoder) str() string {
	return string(d.take(d.length(1)))
}

func decode(data []byte) (*isoforest.Forest, error) {
	header := len(magic) + 2
	if len(data) < header+4 {
		return nil, failure.Errorf(failure.CorruptData, "%d bytes are too few to hold a forest", len(data))
	}
	if !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return nil, failure.Errorf(failure.CorruptData, "unrecognized format: bad magic %q", data[:len(magic)])
	}
	if v := binary.LittleEndian.Uint16(data[len(magic):header]); v != version {
		return nil, failure.Errorf(failure.CorruptData, "unsupported format version %d", v)
	}
	body := data[:len(data)-4]
	if sum, expected := crc32.ChecksumIEEE(body), binary.LittleEndian.Uint32(data[len(body):]); sum != expected {
		return nil, failure.Errorf(failure.CorruptData, "checksum mismatch: computed %08x, stored %08x", sum, expected)
	}
	d := &decoder{buf: body, off: header}
	f := &isoforest.Forest{}
	f.Config = d.config()
	f.Schema = d.schema()
	if d.err != nil {
		return nil, d.err
	}
	if err := f.Schema.Validate(); err != nil {
		return nil, failure.Wrap(failure.CorruptData, err, "decoding schema")
	}
	f.Fallback = make([]tree.FeatureStats, len(f.Schema))
	for j := range f.Fallback {
		f.Fallback[j] = d.stats(f.Schema[j])
	}
	f.Trees = make([]tree.Tree, d.length(12))
	for i := range f.Trees {
		f.Trees[i] = d.tree(f.Schema)
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.off != len(d.buf) {
		return nil, failure.Errorf(failure.CorruptData, "%d trailing bytes after the last tree", len(d.buf)-d.off)
	}
	if err := f.Config.Rules().Validate(); err != nil {
		return nil, failure.Wrap(failure.CorruptData, err, "decoding config")
	}
	if err := f.Validate(); err != nil {
		return nil, failure.Wrap(failure.CorruptData, err, "decoding forest")
	}
	return f, nil
}

func (d *decoder) config() isoforest.Config {
	var c isoforest.Config
	c.Trees = d.int()
	c.SampleSize = d.int()
	c.MaxDepth = d.int()
	c.WithReplacement = d.bool()
	c.FeatureFraction = d.f64()
	if n := d.length(8); n > 0 {
		c.FeatureWeights = make([]float64, n)
		for j := range c.FeatureWeights {
			c.FeatureWeights[j] = d.f64()
		}
	}
	c.Criterion = isoforest.Criterion(d.str())
	c.Candidates = d.int()
	c.NDim = d.int()
	c.CategorySplit = isoforest.CategorySplit(d.str())
	c.MissingAction = tree.MissingAction(d.str())
	c.UnseenAction = tree.UnseenAction(d.str())
	c.ImputeWeighting = isoforest.ImputeWeighting(d.str())
	c.Seed = d.u64()
	c.Threads = d.int()
	return c
}

func (d *decoder) schema() feature.Schema {
	s := make(feature.Schema, d.length(5))
	for j := range s {
		kind := feature.Kind(d.u8())
		name := d.str()
		switch kind {
		case feature.Numeric:
			s[j] = feature.NewNumericFeature(name)
		case feature.Categorical:
			levels := make([]string, d.length(4))
			for k := range levels {
				levels[k] = d.str()
			}
			s[j] = feature.NewCategoricalFeature(name, levels)
		default:
			d.fail("feature %d has unknown kind %d", j, kind)
			return nil
		}
		if d.err != nil {
			return nil
		}
	}
	return s
}

func (d *decoder) stats(f feature.Feature) tree.FeatureStats {
	s := tree.FeatureStats{Observed: d.int(), Mean: d.f64()}
	if f.Kind() == feature.Categorical {
		s.Counts = make([]int, d.length(8))
		for k := range s.Counts {
			s.Counts[k] = d.int()
		}
	}
	return s
}

func (d *decoder) tree(schema feature.Schema) tree.Tree {
	t := tree.Tree{SampleSize: d.int()}
	t.Nodes = make([]tree.Node, d.length(65))
	for i := range t.Nodes {
		n := &t.Nodes[i]
		n.Kind = tree.Kind(d.u8())
		n.Depth = d.int()
		n.Count = d.int()
		n.Feature = d.int()
		n.Threshold = d.f64()
		n.Left = d.int()
		n.Right = d.int()
		n.MissingLeft = d.f64()
		n.Correction = d.f64()
		switch n.Kind {
		case tree.NumericSplit:
		case tree.CategoricalSplit:
			n.Branches = make([]tree.Branch, d.length(1))
			for k := range n.Branches {
				n.Branches[k] = tree.Branch(d.u8())
			}
		case tree.LinearSplit:
			n.Terms = make([]tree.Term, d.length(24))
			for k := range n.Terms {
				n.Terms[k] = tree.Term{Feature: d.int(), Coef: d.f64(), Center: d.f64()}
			}
		case tree.Terminal:
			n.Stats = make([]tree.FeatureStats, len(schema))
			for j := range n.Stats {
				n.Stats[j] = d.stats(schema[j])
			}
		default:
			d.fail("node %d has unknown kind %d", i, n.Kind)
		}
		if d.err != nil {
			return t
		}
	}
	return t
}
