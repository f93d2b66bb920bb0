package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateSplits(t *testing.T) {
	ids := make([]int, 100)
	for i := range ids {
		ids[i] = i + 1
	}

	t.Run("proportions and coverage", func(t *testing.T) {
		assignment := AllocateSplits(ids, DefaultSeed)
		assert.Len(t, assignment, 100)

		counts := map[Split]int{}
		for _, id := range ids {
			split, ok := assignment[id]
			assert.True(t, ok, "id %d unassigned", id)
			counts[split]++
		}
		assert.Equal(t, 80, counts[SplitTrain])
		assert.Equal(t, 10, counts[SplitVal])
		assert.Equal(t, 10, counts[SplitTest])
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		first := AllocateSplits(ids, DefaultSeed)
		second := AllocateSplits(ids, DefaultSeed)
		assert.Equal(t, first, second)
	})

	t.Run("input order does not matter", func(t *testing.T) {
		reversed := make([]int, len(ids))
		for i, id := range ids {
			reversed[len(ids)-1-i] = id
		}
		assert.Equal(t, AllocateSplits(ids, DefaultSeed), AllocateSplits(reversed, DefaultSeed))
	})

	t.Run("different seeds differ", func(t *testing.T) {
		assert.NotEqual(t, AllocateSplits(ids, 1), AllocateSplits(ids, 2))
	})

	t.Run("truncating boundaries on odd counts", func(t *testing.T) {
		odd := ids[:7]
		assignment := AllocateSplits(odd, DefaultSeed)
		counts := map[Split]int{}
		for _, s := range assignment {
			counts[s]++
		}
		// floor(0.8*7)=5 train, floor(0.9*7)-5=1 val, rest test.
		assert.Equal(t, 5, counts[SplitTrain])
		assert.Equal(t, 1, counts[SplitVal])
		assert.Equal(t, 1, counts[SplitTest])
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, AllocateSplits(nil, DefaultSeed))
	})
}
