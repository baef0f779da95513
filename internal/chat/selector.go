package chat

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// Selector picks one of n equally valid reply variants.
type Selector interface {
	Pick(n int) int
}

type randomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector is seeded explicitly; seed 0 uses the clock.
func NewRandomSelector(seed int64) Selector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randomSelector{rng: rand.New(rand.NewSource(seed))}
}

func (s *randomSelector) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

type roundRobinSelector struct {
	next atomic.Uint64
}

func NewRoundRobinSelector() Selector {
	return &roundRobinSelector{}
}

func (s *roundRobinSelector) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return int((s.next.Add(1) - 1) % uint64(n))
}

// FirstSelector always picks the first variant.
type FirstSelector struct{}

func (FirstSelector) Pick(int) int { return 0 }

// NewSelector builds a selector by config name: random, roundrobin or first.
func NewSelector(kind string, seed int64) Selector {
	switch kind {
	case "roundrobin":
		return NewRoundRobinSelector()
	case "first":
		return FirstSelector{}
	default:
		return NewRandomSelector(seed)
	}
}
