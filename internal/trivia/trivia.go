package trivia

import (
	"math/rand/v2"
	"sync"
)

type Pair struct {
	Country string `yaml:"country"`
	Capital string `yaml:"capital"`
}

// Board keeps at most one open question per room. Answer checks and
// clearing happen under one lock, so only the first correct answer wins.
type Board struct {
	pairs []Pair
	pick  func(n int) int

	mu      sync.Mutex
	pending map[string]Pair
}

func NewBoard(pairs []Pair) *Board {
	return &Board{
		pairs:   append([]Pair(nil), pairs...),
		pick:    rand.IntN,
		pending: map[string]Pair{},
	}
}

// Ask draws a pair uniformly and makes it the room's open question,
// replacing any earlier one.
func (b *Board) Ask(room string) (Pair, bool) {
	if len(b.pairs) == 0 {
		return Pair{}, false
	}
	p := b.pairs[b.pick(len(b.pairs))]
	b.mu.Lock()
	b.pending[room] = p
	b.mu.Unlock()
	return p, true
}

// TryAnswer compares text to the expected capital byte for byte. A match
// clears the question and returns it.
func (b *Board) TryAnswer(room, text string) (Pair, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[room]
	if !ok || text != p.Capital {
		return Pair{}, false
	}
	delete(b.pending, room)
	return p, true
}

func (b *Board) Pending(room string) (Pair, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[room]
	return p, ok
}
