package inflate

import "sync"

var (
	fixedOnce      sync.Once
	fixedLiterals  *Tree
	fixedDistances *Tree
)

// fixedTrees returns the literal/length and distance trees of RFC 1951 section 3.2.6.
func fixedTrees() (*Tree, *Tree) {
	fixedOnce.Do(func() {
		literals, err := NewTree([]CodeLengthRange{
			{End: 143, BitLength: 8},
			{End: 255, BitLength: 9},
			{End: 279, BitLength: 7},
			{End: maxLiteralCodes - 1, BitLength: 8},
		})
		if err != nil {
			panic(err)
		}
		distances, err := NewTree([]CodeLengthRange{{End: maxDistanceCodes - 1, BitLength: 5}})
		if err != nil {
			panic(err)
		}
		fixedLiterals, fixedDistances = literals, distances
	})
	return fixedLiterals, fixedDistances
}
