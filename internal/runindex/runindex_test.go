package runindex

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/powersweep/internal/sweep"
)

var _ = Describe("Indexer", func() {
	var ix *Indexer

	BeforeEach(func() {
		var err error
		ix, err = New(6, 2)
		Expect(err).NotTo(HaveOccurred())
	})

	It("covers run numbers 1..S*R", func() {
		Expect(ix.Total()).To(Equal(12))

		records := ix.All()
		Expect(records).To(HaveLen(12))
		for i, r := range records {
			Expect(r.RunNr).To(Equal(i + 1))
		}
	})

	It("resolves run 7 to parameter set 4, replicate 1", func() {
		id, rep, err := ix.Inverse(7)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(4))
		Expect(rep).To(Equal(1))

		run, err := ix.Forward(4, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(run).To(Equal(7))
	})

	DescribeTable("forward and inverse are mutual inverses",
		func(sets, replicates int) {
			ix, err := New(sets, replicates)
			Expect(err).NotTo(HaveOccurred())

			seen := map[int]bool{}
			for id := 1; id <= sets; id++ {
				for rep := 1; rep <= replicates; rep++ {
					run, err := ix.Forward(id, rep)
					Expect(err).NotTo(HaveOccurred())
					Expect(seen[run]).To(BeFalse())
					seen[run] = true

					gotID, gotRep, err := ix.Inverse(run)
					Expect(err).NotTo(HaveOccurred())
					Expect([]int{gotID, gotRep}).To(Equal([]int{id, rep}))
				}
			}
			Expect(seen).To(HaveLen(sets * replicates))
		},
		Entry("single run", 1, 1),
		Entry("one replicate", 5, 1),
		Entry("one set", 1, 7),
		Entry("binary sweep", 6, 2),
		Entry("wide", 13, 9),
	)

	It("rejects out-of-domain input", func() {
		_, err := ix.Forward(0, 1)
		Expect(err).To(MatchError(sweep.ErrValidation))
		_, err = ix.Forward(7, 1)
		Expect(err).To(MatchError(sweep.ErrValidation))
		_, err = ix.Forward(1, 3)
		Expect(err).To(MatchError(sweep.ErrValidation))
		_, _, err = ix.Inverse(0)
		Expect(err).To(MatchError(sweep.ErrValidation))
		_, _, err = ix.Inverse(13)
		Expect(err).To(MatchError(sweep.ErrValidation))
	})

	It("rejects an empty shape", func() {
		_, err := New(0, 2)
		Expect(err).To(MatchError(sweep.ErrValidation))
		_, err = New(2, 0)
		Expect(err).To(MatchError(sweep.ErrValidation))
	})

	It("fails fast on a replicate mismatch", func() {
		Expect(ix.Require(2)).To(Succeed())
		Expect(ix.Require(3)).To(MatchError(sweep.ErrMismatch))
	})
})
