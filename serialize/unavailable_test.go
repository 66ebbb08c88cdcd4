package serialize

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/failure"
	"github.com/stretchr/testify/assert"
)

func TestUnavailable(t *testing.T) {
	s := Unavailable()
	assert.False(t, s.Capable())

	_, err := s.Marshal(&isoforest.Forest{})
	assert.True(t, errors.Is(err, failure.CapabilityUnavailable))
	_, err = s.Unmarshal([]byte("ISOF"))
	assert.True(t, errors.Is(err, failure.CapabilityUnavailable))
	assert.True(t, errors.Is(s.Write(&bytes.Buffer{}, &isoforest.Forest{}), failure.CapabilityUnavailable))
	_, err = s.Read(bytes.NewReader(nil))
	assert.True(t, errors.Is(err, failure.CapabilityUnavailable))

	var nilSerializer *Serializer
	assert.False(t, nilSerializer.Capable())
}

func TestNewMatchesBuild(t *testing.T) {
	assert.Equal(t, compiledIn, New().Capable())
}
