package dataset

import (
	"math/rand"
	"sort"
)

// Split is one of the three dataset partitions.
type Split string

const (
	SplitTrain Split = "train"
	SplitVal   Split = "val"
	SplitTest  Split = "test"
)

// Splits lists the partitions in output order.
var Splits = []Split{SplitTrain, SplitVal, SplitTest}

// AllocateSplits assigns every image id to exactly one split: the first
// 80% of a seeded shuffle to train, the next 10% to val, the remainder
// to test. Ids are sorted before shuffling so the assignment depends
// only on the input set and the seed.
func AllocateSplits(ids []int, seed int64) map[int]Split {
	shuffled := make([]int, len(ids))
	copy(shuffled, ids)
	sort.Ints(shuffled)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	trainEnd := int(0.8 * float64(n))
	valEnd := int(0.9 * float64(n))

	assignment := make(map[int]Split, n)
	for i, id := range shuffled {
		switch {
		case i < trainEnd:
			assignment[id] = SplitTrain
		case i < valEnd:
			assignment[id] = SplitVal
		default:
			assignment[id] = SplitTest
		}
	}
	return assignment
}
