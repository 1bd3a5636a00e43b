package presence

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any list of user ids and any shuffle of it, the bulk cache key is
// identical: permutations of the same id set address the same entry.
func TestProperty_BulkKeyOrderIndependence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("permuted id lists produce the same bulk key", prop.ForAll(
		func(ids []string, seed int64) bool {
			shuffled := make([]string, len(ids))
			copy(shuffled, ids)

			// Deterministic Fisher-Yates driven by the generated seed.
			r := seed
			for i := len(shuffled) - 1; i > 0; i-- {
				r = r*6364136223846793005 + 1442695040888963407
				j := int(uint64(r) % uint64(i+1))
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			}

			return BulkKey(ids) == BulkKey(shuffled)
		},
		gen.SliceOf(gen.Identifier()),
		gen.Int64(),
	))

	properties.Property("distinct id sets produce distinct keys", prop.ForAll(
		func(a, b string) bool {
			if a == b {
				return true
			}
			return BulkKey([]string{a}) != BulkKey([]string{b})
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
