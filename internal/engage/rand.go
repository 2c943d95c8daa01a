package engage

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the randomness source behind the simulator. Tests supply a
// deterministic implementation.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// NewRand returns a time-seeded source safe for concurrent use.
func NewRand() Rand {
	return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
