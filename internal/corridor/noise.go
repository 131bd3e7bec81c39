package corridor

import (
	"math/rand"
	"time"
)

// NormalSource yields standard normal variates. *rand.Rand satisfies it.
// A source is consumed by one Generate call at a time; it is not required to
// be safe for concurrent use.
type NormalSource interface {
	NormFloat64() float64
}

// NewSeededSource returns a reproducible source for the given seed.
func NewSeededSource(seed int64) NormalSource {
	return rand.New(rand.NewSource(seed))
}

func newEntropySource() NormalSource {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
