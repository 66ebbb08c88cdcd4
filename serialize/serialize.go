/*
Package serialize converts forests to and from a versioned binary layout.

Serialization is a capability of the binary: it is compiled in by default and
left out when building with the noserialize tag. Callers never need to check
for it at the call site: a Serializer without the capability fails every
operation with a failure.CapabilityUnavailable error.
*/
package serialize

import (
	"fmt"
	"io"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/failure"
)

/*
Serializer encodes forests into bytes and decodes them back.
*/
type Serializer struct {
	capable bool
}

/*
New returns a Serializer that is capable if serialization was compiled into
the binary.
*/
func New() *Serializer {
	return &Serializer{capable: compiledIn}
}

/*
Unavailable returns a Serializer without the capability, whose operations
always fail with a failure.CapabilityUnavailable error.
*/
func Unavailable() *Serializer {
	return &Serializer{}
}

// Capable returns whether the serializer can encode and decode forests
func (s *Serializer) Capable() bool {
	return s != nil && s.capable
}

func (s *Serializer) check(op string) error {
	if !s.Capable() {
		return failure.Errorf(failure.CapabilityUnavailable, "%s: serialization support is not available in this build", op)
	}
	return nil
}

/*
Marshal returns the binary encoding of the forest. It returns an InvalidInput
error if the forest is nil or inconsistent.
*/
func (s *Serializer) Marshal(f *isoforest.Forest) ([]byte, error) {
	if err := s.check("serializing forest"); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, failure.Errorf(failure.InvalidInput, "serializing forest: no forest given")
	}
	if err := f.Validate(); err != nil {
		return nil, failure.Wrap(failure.InvalidInput, err, "serializing forest")
	}
	return encode(f)
}

/*
Unmarshal decodes a forest from its binary encoding. It returns a CorruptData
error if the data does not hold a valid forest in a supported format version.
*/
func (s *Serializer) Unmarshal(data []byte) (*isoforest.Forest, error) {
	if err := s.check("deserializing forest"); err != nil {
		return nil, err
	}
	return decode(data)
}

/*
Write encodes the forest and writes it to w.
*/
func (s *Serializer) Write(w io.Writer, f *isoforest.Forest) error {
	data, err := s.Marshal(f)
	if err != nil {
		return err
	}
	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("writing serialized forest: %w", err)
	}
	return nil
}

/*
Read reads all of r and decodes a forest from it.
*/
func (s *Serializer) Read(r io.Reader) (*isoforest.Forest, error) {
	if err := s.check("deserializing forest"); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading serialized forest: %w", err)
	}
	return decode(data)
}
