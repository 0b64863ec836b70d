package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TierSet is the set of proficiency tiers studied in one round.
type TierSet []int

// Contains reports whether tier is part of the set.
func (ts TierSet) Contains(tier int) bool {
	for _, t := range ts {
		if t == tier {
			return true
		}
	}
	return false
}

// String joins tiers for human-readable notifications: "1", "1 and 2",
// "1, 2, and 3".
func (ts TierSet) String() string {
	labels := make([]string, len(ts))
	for i, t := range ts {
		labels[i] = strconv.Itoa(t)
	}
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	case 2:
		return labels[0] + " and " + labels[1]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + ", and " + labels[len(labels)-1]
	}
}

// Curriculum is the fixed ordered sequence of tier sets that rounds cycle
// through. Lower tiers reappear more often; higher tiers interleave late.
type Curriculum []TierSet

// DefaultCurriculum returns the standard seven-round spaced-repetition cycle.
func DefaultCurriculum() Curriculum {
	return Curriculum{
		{1},
		{1},
		{1, 2},
		{1},
		{1},
		{1},
		{1, 2, 3},
	}
}

// Validate rejects curricula that cannot drive a round cycle.
func (c Curriculum) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("curriculum must have at least one round")
	}
	for i, ts := range c {
		if len(ts) == 0 {
			return fmt.Errorf("curriculum round %d has no tiers", i)
		}
		for _, t := range ts {
			if t < 1 {
				return fmt.Errorf("curriculum round %d contains tier %d (min 1)", i, t)
			}
		}
	}
	return nil
}

// MaxTier is the highest tier named anywhere in the curriculum. Cards past it
// are considered mastered.
func (c Curriculum) MaxTier() int {
	max := 0
	for _, ts := range c {
		for _, t := range ts {
			if t > max {
				max = t
			}
		}
	}
	return max
}
