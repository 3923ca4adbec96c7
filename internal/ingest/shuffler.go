package ingest

import (
	"math/rand"
	"sync"
	"time"

	"quiz-runner/internal/domain"
)

// Shuffler randomizes option order while keeping track of the correct text.
type Shuffler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewShuffler uses src for every permutation; pass a fixed seed for reproducible builds.
func NewShuffler(src rand.Source) *Shuffler {
	return &Shuffler{rnd: rand.New(src)}
}

func NewRandomShuffler() *Shuffler {
	return NewShuffler(rand.NewSource(time.Now().UnixNano()))
}

// Shuffle returns a uniform permutation of options and the index of correctText in it.
// When options repeat, the first match wins.
func (s *Shuffler) Shuffle(options [domain.OptionCount]string, correctText string) ([domain.OptionCount]string, int) {
	shuffled := options

	s.mu.Lock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	s.mu.Unlock()

	return shuffled, indexOf(shuffled, correctText)
}

func indexOf(options [domain.OptionCount]string, text string) int {
	for i, o := range options {
		if o == text {
			return i
		}
	}
	return -1
}
