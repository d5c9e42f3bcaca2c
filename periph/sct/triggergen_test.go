package sct

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sigsim/capture/sim"
)

var _ = Describe("TriggerGenerator", func() {
	var (
		engine *sim.SerialEngine
		tg     *TriggerGenerator
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		tg = MakeBuilder().
			WithEngine(engine).
			WithClock(1 * sim.MHz).
			Build("SCT")
	})

	It("should reject a pulse as long as the period", func() {
		err := tg.Configure(2, 2)

		Expect(err).To(HaveOccurred())
	})

	It("should reject a zero-width pulse", func() {
		err := tg.Configure(4, 0)

		Expect(err).To(HaveOccurred())
	})

	It("should refuse to start unconfigured", func() {
		err := tg.Start()

		Expect(err).To(HaveOccurred())
	})

	It("should refuse reconfiguration while running", func() {
		Expect(tg.Configure(4, 2)).To(Succeed())
		Expect(tg.Start()).To(Succeed())

		err := tg.Configure(8, 4)

		Expect(err).To(HaveOccurred())
	})

	It("should assert the first pulse one full period after start", func() {
		var rises []sim.VTimeInSec
		tg.Output().OnRising(func(now sim.VTimeInSec) {
			rises = append(rises, now)
		})

		Expect(tg.Configure(4, 2)).To(Succeed())
		Expect(tg.Start()).To(Succeed())

		_, err := engine.Step()

		Expect(err).NotTo(HaveOccurred())
		Expect(rises).To(HaveLen(1))
		Expect(rises[0]).To(BeNumerically("~", 4e-6, 1e-12))
	})

	It("should pulse with the configured period and width", func() {
		var rises, falls []sim.VTimeInSec
		tg.Output().OnRising(func(now sim.VTimeInSec) {
			rises = append(rises, now)
		})
		tg.Output().OnFalling(func(now sim.VTimeInSec) {
			falls = append(falls, now)
		})

		Expect(tg.Configure(4, 2)).To(Succeed())
		Expect(tg.Start()).To(Succeed())

		for i := 0; i < 6; i++ {
			_, err := engine.Step()
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(rises).To(HaveLen(3))
		Expect(rises[1]).To(BeNumerically("~", 8e-6, 1e-12))
		Expect(rises[2]).To(BeNumerically("~", 12e-6, 1e-12))
		Expect(falls).To(HaveLen(3))
		Expect(falls[0]).To(BeNumerically("~", 6e-6, 1e-12))
		Expect(falls[1]).To(BeNumerically("~", 10e-6, 1e-12))
	})

	It("should stop pulsing after a stop", func() {
		rises := 0
		tg.Output().OnRising(func(now sim.VTimeInSec) {
			rises++
		})

		Expect(tg.Configure(4, 2)).To(Succeed())
		Expect(tg.Start()).To(Succeed())

		_, err := engine.Step()
		Expect(err).NotTo(HaveOccurred())

		tg.Stop()
		Expect(engine.Run()).To(Succeed())

		Expect(rises).To(Equal(1))
		Expect(tg.Running()).To(BeFalse())
		Expect(tg.Output().Level()).To(BeFalse())
	})

	It("should restart cleanly after a stop", func() {
		var rises []sim.VTimeInSec
		tg.Output().OnRising(func(now sim.VTimeInSec) {
			rises = append(rises, now)
		})

		Expect(tg.Configure(4, 2)).To(Succeed())
		Expect(tg.Start()).To(Succeed())
		tg.Stop()
		Expect(engine.Run()).To(Succeed())

		Expect(tg.Configure(10, 5)).To(Succeed())
		Expect(tg.Start()).To(Succeed())

		_, err := engine.Step()

		Expect(err).NotTo(HaveOccurred())
		Expect(rises).To(HaveLen(1))
		Expect(rises[0]).To(BeNumerically("~", 1.4e-5, 1e-12))
	})
})
