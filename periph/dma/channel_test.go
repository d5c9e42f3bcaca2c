package dma

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sigsim/capture/hw/addrspace"
	"github.com/sigsim/capture/hw/irq"
	"github.com/sigsim/capture/hw/signal"
	"github.com/sigsim/capture/sim"
)

const (
	testRAMBase uint32 = 0x1000_0000
	testRAMSize uint32 = 0x1000
	testRegBase uint32 = 0x4000_0000
)

// sourceReg is a fixed 16-bit register the channel reads from.
type sourceReg struct {
	value uint16
}

func (r *sourceReg) Load(offset uint32, p []byte) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], r.value)
	copy(p, buf[offset:])
	return nil
}

func (r *sourceReg) Store(offset uint32, p []byte) error {
	return nil
}

// segDesc builds a 16-bit register-to-memory descriptor whose destination
// block ends at the given last-word address.
func segDesc(count uint32, lastWordAddr uint32, terminal bool) *Descriptor {
	return &Descriptor{
		Transfer: TransferConfig{
			Valid:           true,
			Reload:          !terminal,
			InterruptOnDone: true,
			Width:           Width16,
			IncrementSrc:    false,
			IncrementDst:    true,
			Count:           count,
		},
		Source:      testRegBase,
		Destination: lastWordAddr,
	}
}

var _ = Describe("ValidateChain", func() {
	It("should reject an empty chain", func() {
		Expect(ValidateChain(nil)).NotTo(Succeed())
	})

	It("should accept a single terminal descriptor", func() {
		d := segDesc(4, testRAMBase+6, true)

		Expect(ValidateChain(d)).To(Succeed())
		Expect(ChainLen(d)).To(Equal(1))
	})

	It("should reject a descriptor not marked valid", func() {
		d := segDesc(4, testRAMBase+6, true)
		d.Transfer.Valid = false

		Expect(ValidateChain(d)).NotTo(Succeed())
	})

	It("should reject a zero transfer count", func() {
		d := segDesc(4, testRAMBase+6, true)
		d.Transfer.Count = 0

		Expect(ValidateChain(d)).NotTo(Succeed())
	})

	It("should reject a count above the per-descriptor limit", func() {
		d := segDesc(MaxTransferCount+1, testRAMBase+6, true)

		Expect(ValidateChain(d)).NotTo(Succeed())
	})

	It("should reject a successor without reload", func() {
		first := segDesc(4, testRAMBase+6, true)
		first.Next = segDesc(4, testRAMBase+14, true)

		Expect(ValidateChain(first)).NotTo(Succeed())
	})

	It("should reject a terminal descriptor that reloads", func() {
		d := segDesc(4, testRAMBase+6, false)

		Expect(ValidateChain(d)).NotTo(Succeed())
	})

	It("should reject a cyclic chain", func() {
		first := segDesc(4, testRAMBase+6, false)
		second := segDesc(4, testRAMBase+14, false)
		first.Next = second
		second.Next = first

		Expect(ValidateChain(first)).NotTo(Succeed())
	})
})

var _ = Describe("Channel", func() {
	var (
		engine   *sim.SerialEngine
		space    *addrspace.Space
		ram      *addrspace.SRAM
		src      *sourceReg
		ctrl     *irq.Controller
		ch       *Channel
		req      *signal.Line
		irqCount int
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		space = addrspace.NewSpace()
		ram = addrspace.NewSRAM(testRAMSize)
		src = &sourceReg{value: 0x0ab0}

		Expect(space.Map(testRAMBase, testRAMSize, ram)).To(Succeed())
		Expect(space.Map(testRegBase, 4, src)).To(Succeed())

		ctrl = irq.NewController(engine)
		irqCount = 0
		ctrl.SetHandler(10, func(now sim.VTimeInSec) {
			ch.ClearInterruptFlag()
			irqCount++
		})
		ctrl.Enable(10)

		ch = MakeBuilder().
			WithEngine(engine).
			WithAddressSpace(space).
			WithInterrupt(ctrl, 10).
			Build("DMA")
		Expect(ch.Configure(ChannelConfig{
			HardwareTrigger: true,
			TriggerType:     TriggerEdge,
			Polarity:        ActiveHigh,
		})).To(Succeed())
		ch.Enable()
		ch.EnableInterrupt()

		req = signal.NewLine("Req")
		ch.SetRequestSource(req)
	})

	It("should refuse to start when not configured", func() {
		fresh := MakeBuilder().
			WithEngine(engine).
			WithAddressSpace(space).
			WithInterrupt(ctrl, 10).
			Build("DMA2")

		err := fresh.Start(segDesc(4, testRAMBase+6, true))

		Expect(err).To(HaveOccurred())
	})

	It("should refuse to start when disabled", func() {
		ch.Disable()

		err := ch.Start(segDesc(4, testRAMBase+6, true))

		Expect(err).To(HaveOccurred())
	})

	It("should refuse to start an invalid chain", func() {
		err := ch.Start(segDesc(0, testRAMBase+6, true))

		Expect(err).To(HaveOccurred())
	})

	It("should refuse to start while a chain is active", func() {
		Expect(ch.Start(segDesc(4, testRAMBase+6, true))).To(Succeed())

		err := ch.Start(segDesc(4, testRAMBase+14, true))

		Expect(err).To(HaveOccurred())
	})

	It("should move one word per request edge toward the end address", func() {
		Expect(ch.Start(segDesc(4, testRAMBase+6, true))).To(Succeed())

		req.Pulse(0)
		Expect(ch.WordsMoved()).To(Equal(uint64(1)))

		v, err := space.Read16(testRAMBase)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint16(0x0ab0)))

		v, err = space.Read16(testRAMBase + 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint16(0)))
	})

	It("should fill the block in ascending address order", func() {
		Expect(ch.Start(segDesc(4, testRAMBase+6, true))).To(Succeed())

		for i := 0; i < 4; i++ {
			src.value = uint16(0x100 + i)
			req.Pulse(sim.VTimeInSec(i) * 1e-6)
		}

		for i := uint32(0); i < 4; i++ {
			v, err := space.Read16(testRAMBase + 2*i)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint16(0x100 + i)))
		}
	})

	It("should halt after the terminal descriptor completes", func() {
		Expect(ch.Start(segDesc(2, testRAMBase+2, true))).To(Succeed())

		req.Pulse(0)
		req.Pulse(1e-6)

		Expect(ch.Active()).To(BeFalse())
		Expect(irqCount).To(Equal(1))

		req.Pulse(2e-6)
		Expect(ch.WordsMoved()).To(Equal(uint64(2)))
	})

	It("should reload the successor with no gap", func() {
		first := segDesc(2, testRAMBase+2, false)
		first.Next = segDesc(2, testRAMBase+6, true)
		Expect(ch.Start(first)).To(Succeed())

		for i := 0; i < 4; i++ {
			src.value = uint16(0x200 + i)
			req.Pulse(sim.VTimeInSec(i) * 1e-6)
		}

		for i := uint32(0); i < 4; i++ {
			v, err := space.Read16(testRAMBase + 2*i)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint16(0x200 + i)))
		}
		Expect(ch.Active()).To(BeFalse())
		Expect(irqCount).To(Equal(2))
	})

	It("should report completed blocks in chain order", func() {
		first := segDesc(2, testRAMBase+2, false)
		first.Next = segDesc(2, testRAMBase+6, true)
		Expect(ch.Start(first)).To(Succeed())

		var blocks []int
		hook := &blockHook{blocks: &blocks}
		ch.AcceptHook(hook)

		for i := 0; i < 4; i++ {
			req.Pulse(sim.VTimeInSec(i) * 1e-6)
		}

		Expect(blocks).To(Equal([]int{0, 1}))
	})

	It("should not pend the interrupt when masked", func() {
		fresh := MakeBuilder().
			WithEngine(engine).
			WithAddressSpace(space).
			WithInterrupt(ctrl, 10).
			Build("DMA3")
		Expect(fresh.Configure(ChannelConfig{
			HardwareTrigger: true,
			TriggerType:     TriggerEdge,
			Polarity:        ActiveHigh,
		})).To(Succeed())
		fresh.Enable()

		line := signal.NewLine("Req3")
		fresh.SetRequestSource(line)
		Expect(fresh.Start(segDesc(1, testRAMBase+0x100, true))).To(Succeed())

		line.Pulse(0)

		Expect(irqCount).To(Equal(0))
		Expect(fresh.InterruptPending()).To(BeTrue())
	})

	It("should ignore requests while disabled", func() {
		Expect(ch.Start(segDesc(2, testRAMBase+2, true))).To(Succeed())
		ch.Disable()

		req.Pulse(0)

		Expect(ch.WordsMoved()).To(Equal(uint64(0)))
	})

	It("should reject software-triggered configurations", func() {
		err := ch.Configure(ChannelConfig{HardwareTrigger: false})

		Expect(err).To(HaveOccurred())
	})
})

type blockHook struct {
	blocks *[]int
}

func (h *blockHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosBlockComplete {
		return
	}
	*h.blocks = append(*h.blocks, ctx.Item.(int))
}
