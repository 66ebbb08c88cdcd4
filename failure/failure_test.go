package failure

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesItsKind(t *testing.T) {
	err := Errorf(CorruptData, "bad magic %q", "XXXX")
	assert.True(t, errors.Is(err, CorruptData))
	assert.False(t, errors.Is(err, InvalidInput))
	assert.Equal(t, `corrupt data: bad magic "XXXX"`, err.Error())
}

func TestWrappedErrorKeepsKindAndCause(t *testing.T) {
	err := Wrap(CorruptData, io.ErrUnexpectedEOF, "reading tree %d", 3)
	outer := fmt.Errorf("loading model: %w", err)
	assert.True(t, errors.Is(outer, CorruptData))
	assert.True(t, errors.Is(outer, io.ErrUnexpectedEOF))
	k, ok := KindOf(outer)
	assert.True(t, ok)
	assert.Equal(t, CorruptData, k)
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
}
