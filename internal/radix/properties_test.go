package radix_test

import (
	"math/rand/v2"
	"slices"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/radix/internal/compute"
	"github.com/san-kum/radix/internal/radix"
)

func keys(n int, seed uint64) []uint32 {
	r := rand.New(rand.NewPCG(seed, 1))
	out := make([]uint32, n)
	for i := range out {
		out[i] = r.Uint32()
	}
	return out
}

func sorted(in []uint32) []uint32 {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

var _ = Describe("Sorter", func() {
	var (
		backend *compute.CPUBackend
		params  radix.Params
		sorter  *radix.Sorter
	)

	BeforeEach(func() {
		backend = compute.NewCPUBackend(4)
		DeferCleanup(backend.Cleanup)
		params = radix.DefaultParams()
	})

	JustBeforeEach(func() {
		var err error
		sorter, err = radix.New(backend, params)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("output", func() {
		DescribeTable("is the sorted permutation of the input",
			func(n int, seed uint64) {
				in := keys(n, seed)
				out, err := sorter.Sort(in)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(HaveLen(n))
				Expect(out).To(Equal(sorted(in)))
			},
			Entry("one work-group", 128, uint64(1)),
			Entry("2^12", 1<<12, uint64(2)),
			Entry("2^15", 1<<15, uint64(3)),
			Entry("2^18", 1<<18, uint64(4)),
		)

		It("is idempotent", func() {
			once, err := sorter.Sort(keys(1<<12, 9))
			Expect(err).NotTo(HaveOccurred())
			twice, err := sorter.Sort(once)
			Expect(err).NotTo(HaveOccurred())
			Expect(twice).To(Equal(once))
		})

		It("keeps all-equal input unchanged", func() {
			in := make([]uint32, 1024)
			for i := range in {
				in[i] = 0xA5A5A5A5
			}
			out, err := sorter.Sort(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(in))
		})

		It("sorts a reversed permutation of distinct keys", func() {
			in := make([]uint32, 2048)
			for i := range in {
				in[i] = uint32(len(in) - i)
			}
			out, err := sorter.Sort(in)
			Expect(err).NotTo(HaveOccurred())
			for i, v := range out {
				Expect(v).To(Equal(uint32(i + 1)))
			}
		})

		It("places maximum keys at the end", func() {
			in := keys(512, 4)
			in[0], in[511] = 0xFFFFFFFF, 0xFFFFFFFF
			out, err := sorter.Sort(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out[510:]).To(Equal([]uint32{0xFFFFFFFF, 0xFFFFFFFF}))
		})
	})

	Describe("pass invariants", func() {
		var stats []radix.PassStats

		JustBeforeEach(func() {
			stats = nil
			sorter.AddObserver(radix.ObserverFunc(func(ps radix.PassStats) {
				stats = append(stats, ps)
			}))
		})

		It("conserves the element count in every histogram", func() {
			_, err := sorter.Sort(keys(1<<12, 5))
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(params.Iterations()))
			for _, ps := range stats {
				Expect(ps.HistogramSum()).To(BeEquivalentTo(1 << 12))
				Expect(ps.LastPrefix() + ps.LastCount()).To(BeEquivalentTo(1 << 12))
			}
		})

		It("orders keys by their low digits after each pass", func() {
			in := keys(1<<11, 6)
			_, err := sorter.Sort(in)
			Expect(err).NotTo(HaveOccurred())

			for i, ps := range stats {
				bits := uint((i + 1) * params.DigitBits)
				mask := uint32(0xFFFFFFFF)
				if bits < 32 {
					mask = 1<<bits - 1
				}
				want := slices.Clone(in)
				sort.SliceStable(want, func(a, b int) bool { return want[a]&mask < want[b]&mask })
				Expect(ps.Keys).To(Equal(want), "pass %d", i)
			}
		})
	})

	Context("with digits wider than a work-group", func() {
		BeforeEach(func() {
			params = radix.Params{DigitBits: 4, KeyBits: 32, WorkGroupSize: 8}
		})

		It("sorts the smallest input", func() {
			out, err := sorter.Sort([]uint32{5, 3, 8, 1, 9, 2, 7, 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]uint32{1, 2, 3, 4, 5, 7, 8, 9}))
		})
	})

	Context("with 8-bit digits", func() {
		BeforeEach(func() {
			params = radix.Params{DigitBits: 8, KeyBits: 32, WorkGroupSize: 256}
		})

		It("runs four passes", func() {
			Expect(params.Iterations()).To(Equal(4))
			in := keys(1<<13, 8)
			out, err := sorter.Sort(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(sorted(in)))
		})
	})

	Describe("preconditions", func() {
		It("rejects lengths that are not powers of two", func() {
			_, err := sorter.Sort(make([]uint32, 300))
			Expect(err).To(MatchError(radix.ErrNotPowerOfTwo))
		})

		It("rejects inputs smaller than one work-group", func() {
			_, err := sorter.Sort(make([]uint32, 64))
			Expect(err).To(MatchError(radix.ErrTooSmall))
		})
	})
})
