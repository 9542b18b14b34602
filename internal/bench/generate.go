package bench

import (
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultMax matches keys drawn from the non-negative int32 range.
const DefaultMax = math.MaxInt32

const genChunk = 1 << 16

// Generate returns n keys uniform in [0, maxKey]. Each chunk of the output draws
// from its own stream derived from seed, so the result does not depend on
// scheduling.
func Generate(n int, seed int64, maxKey uint32) []uint32 {
	keys := make([]uint32, n)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for lo := 0; lo < n; lo += genChunk {
		hi := min(lo+genChunk, n)
		g.Go(func() error {
			r := rand.New(rand.NewPCG(uint64(seed), uint64(lo/genChunk)))
			for i := lo; i < hi; i++ {
				if maxKey == math.MaxUint32 {
					keys[i] = r.Uint32()
				} else {
					keys[i] = r.Uint32N(maxKey + 1)
				}
			}
			return nil
		})
	}
	g.Wait()
	return keys
}
