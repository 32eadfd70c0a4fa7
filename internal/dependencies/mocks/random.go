package mocks

import (
	"sync"

	"github.com/mcoot/competitive-sudoku-go/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing. Queued values
// are returned in order; once a queue runs dry String falls back to a
// counter-based value so ids stay unique.
type MockRandom struct {
	mu       sync.Mutex
	ints     []int
	strings  []string
	fallback int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result modulo n, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 || n <= 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

// String returns the next queued result
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.strings) > 0 {
		v := r.strings[0]
		r.strings = r.strings[1:]
		return v
	}
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	r.fallback++
	out := make([]byte, length)
	n := r.fallback
	for i := length - 1; i >= 0; i-- {
		out[i] = alphabet[n%len(alphabet)]
		n /= len(alphabet)
	}
	return string(out)
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints = append(r.ints, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strings = append(r.strings, values...)
}
