//go:build noserialize

package serialize

import (
	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/failure"
)

const compiledIn = false

func encode(*isoforest.Forest) ([]byte, error) {
	return nil, failure.Errorf(failure.CapabilityUnavailable, "serialization support is not available in this build")
}

func decode([]byte) (*isoforest.Forest, error) {
	return nil, failure.Errorf(failure.CapabilityUnavailable, "serialization support is not available in this build")
}
