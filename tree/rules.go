package tree

import (
	"fmt"

	"github.com/pbanos/isoforest/failure"
)

/*
MissingAction decides how a sample lacking the value a split needs is routed
when computing path lengths and separation depths.
*/
type MissingAction string

const (
	// Divide sends the sample down both children, weighting each outcome
	// by the node's MissingLeft ratio
	Divide = MissingAction("divide")
	// Majority sends the sample to the child that received most training rows,
	// the left one on ties
	Majority = MissingAction("majority")
	// Fail rejects samples with missing values
	Fail = MissingAction("fail")
)

/*
UnseenAction decides how a sample whose level was not observed at a
categorical split while training is routed.
*/
type UnseenAction string

const (
	// UnseenAsMissing routes unseen levels the way missing values are routed
	UnseenAsMissing = UnseenAction("missing")
	// UnseenToSmallest sends unseen levels to the child that received fewer
	// training rows, the left one on ties
	UnseenToSmallest = UnseenAction("smallest")
)

/*
Rules gathers the routing decisions for samples a split cannot place by
itself.
*/
type Rules struct {
	Missing MissingAction
	Unseen  UnseenAction
}

/*
Validate returns an InvalidInput error if any of the rules is unknown.
Empty values are accepted and mean the defaults, Divide and UnseenAsMissing.
*/
func (r Rules) Validate() error {
	switch r.Missing {
	case "", Divide, Majority, Fail:
	default:
		return failure.Errorf(failure.InvalidInput, "unknown missing action %q", r.Missing)
	}
	switch r.Unseen {
	case "", UnseenAsMissing, UnseenToSmallest:
	default:
		return failure.Errorf(failure.InvalidInput, "unknown unseen action %q", r.Unseen)
	}
	return nil
}

// WithDefaults returns the rules with empty values replaced by the defaults
func (r Rules) WithDefaults() Rules {
	if r.Missing == "" {
		r.Missing = Divide
	}
	if r.Unseen == "" {
		r.Unseen = UnseenAsMissing
	}
	return r
}

func (r Rules) String() string {
	return fmt.Sprintf("missing: %s, unseen: %s", r.Missing, r.Unseen)
}
