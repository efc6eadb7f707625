package interpreter

import (
	"math/rand/v2"
	"sync"
)

// Rand supplies the bounded pseudo-random values used for confidence
// scores and execution time labels
type Rand interface {
	// IntN returns a value in [0, n)
	IntN(n int) int
}

// NewRand returns a goroutine-safe source. A zero seed uses the runtime's
// randomly seeded global source.
func NewRand(seed int64) Rand {
	if seed == 0 {
		return globalRand{}
	}
	return &lockedRand{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))}
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
