package trivia

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pairs = []Pair{
	{Country: "سوريا", Capital: "دمشق"},
	{Country: "لبنان", Capital: "بيروت"},
}

func TestAskSetsOnePendingQuestion(t *testing.T) {
	b := NewBoard(pairs)
	b.pick = func(int) int { return 1 }

	_, ok := b.Pending("r")
	require.False(t, ok)

	p, ok := b.Ask("r")
	require.True(t, ok)
	assert.Equal(t, pairs[1], p)

	got, ok := b.Pending("r")
	require.True(t, ok)
	assert.Equal(t, pairs[1], got)
	_, ok = b.Pending("other")
	assert.False(t, ok)
}

func TestTryAnswerExactMatchOnly(t *testing.T) {
	b := NewBoard(pairs)
	b.pick = func(int) int { return 0 }
	b.Ask("r")

	for _, wrong := range []string{"دمشق ", "بيروت", " دمشق", ""} {
		_, ok := b.TryAnswer("r", wrong)
		require.False(t, ok, wrong)
	}
	_, ok := b.TryAnswer("other", "دمشق")
	require.False(t, ok)

	p, ok := b.TryAnswer("r", "دمشق")
	require.True(t, ok)
	assert.Equal(t, "سوريا", p.Country)

	_, ok = b.Pending("r")
	assert.False(t, ok)
	_, ok = b.TryAnswer("r", "دمشق")
	assert.False(t, ok)
}

func TestTryAnswerFirstWriterWins(t *testing.T) {
	b := NewBoard(pairs)
	b.pick = func(int) int { return 0 }
	b.Ask("r")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := b.TryAnswer("r", "دمشق"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestAskWithoutPairs(t *testing.T) {
	_, ok := NewBoard(nil).Ask("r")
	assert.False(t, ok)
}
