package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should give the period", func() {
		f := 1 * MHz
		Expect(float64(f.Period())).To(BeNumerically("~", 1e-6, 1e-12))
	})

	It("should give the next tick time", func() {
		f := 1 * GHz
		Expect(float64(f.NextTick(1e-9))).
			To(BeNumerically("~", 2e-9, 1e-15))
	})

	It("should give the time after n cycles", func() {
		f := 1 * MHz
		t := f.NCyclesLater(10, 0)
		Expect(float64(t)).To(BeNumerically("~", 1e-5, 1e-11))
	})

	It("should round up to a tick boundary", func() {
		f := 1 * KHz
		Expect(float64(f.NoEarlierThan(0.0015))).
			To(BeNumerically("~", 0.002, 1e-9))
	})

	It("should panic on a zero frequency period", func() {
		f := 0 * Hz
		Expect(func() { f.Period() }).To(Panic())
	})
})
