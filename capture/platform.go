package capture

import (
	"fmt"
	"io"

	"github.com/sigsim/capture/hw/addrspace"
	"github.com/sigsim/capture/hw/gpio"
	"github.com/sigsim/capture/hw/irq"
	"github.com/sigsim/capture/hw/pinmux"
	"github.com/sigsim/capture/hw/uart"
	"github.com/sigsim/capture/periph/adc"
	"github.com/sigsim/capture/periph/dma"
	"github.com/sigsim/capture/periph/sct"
	"github.com/sigsim/capture/sim"
)

// Memory map and interrupt routing of the simulated chip.
const (
	SRAMBase uint32 = 0x1000_0000
	ADCBase  uint32 = 0x4001_c000

	// DMAInterrupt is the interrupt line of the transfer engine.
	DMAInterrupt = 10
)

// Pin routing.
const (
	uartTxPin       = 4
	uartRxPin       = 0
	triggerDebugPin = 15
	debugPinPort    = 0
	debugPinIndex   = 14
)

// A Platform is the assembled chip a capture session runs on: the engine,
// the address space with SRAM and the converter's registers mapped into
// it, the three peripherals, and the observation-only extras.
type Platform struct {
	Engine      sim.Engine
	SystemClock sim.Freq

	Space *addrspace.Space
	SRAM  *addrspace.SRAM
	IRQ   *irq.Controller

	Trigger   *sct.TriggerGenerator
	Converter *adc.Converter
	DMA       *dma.Channel

	PinMux   *pinmux.Matrix
	Serial   *uart.Tx
	DebugPin *gpio.Pin
}

// ResultAddr returns the physical address of a channel's conversion
// result register. Descriptor chains use it as their source address.
func (p *Platform) ResultAddr(channel int) uint32 {
	return ADCBase + adc.ResultRegisterOffset(channel)
}

// A PlatformBuilder builds Platforms.
type PlatformBuilder struct {
	engine      sim.Engine
	systemClock sim.Freq
	sramSize    uint32
	waveform    adc.Waveform
	serial      io.Writer
	debugPin    bool
}

// MakePlatformBuilder creates a PlatformBuilder with the reference chip
// parameters: a 30 MHz system clock and 8 KiB of SRAM.
func MakePlatformBuilder() PlatformBuilder {
	return PlatformBuilder{
		systemClock: 30 * sim.MHz,
		sramSize:    0x2000,
		waveform:    adc.ConstantWave(0),
		serial:      io.Discard,
		debugPin:    true,
	}
}

// WithEngine sets the engine the platform runs on. Without one, Build
// creates a serial engine.
func (b PlatformBuilder) WithEngine(engine sim.Engine) PlatformBuilder {
	b.engine = engine
	return b
}

// WithSystemClock sets the system clock frequency. The timer and the
// converter both run from it.
func (b PlatformBuilder) WithSystemClock(f sim.Freq) PlatformBuilder {
	b.systemClock = f
	return b
}

// WithSRAMSize sets the SRAM size in bytes.
func (b PlatformBuilder) WithSRAMSize(size uint32) PlatformBuilder {
	b.sramSize = size
	return b
}

// WithWaveform connects the analog input waveform.
func (b PlatformBuilder) WithWaveform(w adc.Waveform) PlatformBuilder {
	b.waveform = w
	return b
}

// WithSerialOutput directs the serial port's transmit data to a writer.
func (b PlatformBuilder) WithSerialOutput(w io.Writer) PlatformBuilder {
	b.serial = w
	return b
}

// WithoutDebugPin omits the completion debug pin.
func (b PlatformBuilder) WithoutDebugPin() PlatformBuilder {
	b.debugPin = false
	return b
}

// Build creates a Platform.
func (b PlatformBuilder) Build(name string) (*Platform, error) {
	engine := b.engine
	if engine == nil {
		engine = sim.NewSerialEngine()
	}

	space := addrspace.NewSpace()
	sram := addrspace.NewSRAM(b.sramSize)
	if err := space.Map(SRAMBase, sram.Size(), sram); err != nil {
		return nil, fmt.Errorf("mapping sram: %w", err)
	}

	ctrl := irq.NewController(engine)

	converter := adc.MakeBuilder().
		WithEngine(engine).
		WithClock(b.systemClock).
		WithInput(b.waveform).
		Build(name + ".ADC")
	if err := space.Map(
		ADCBase, adc.RegisterBlockSize, converter); err != nil {
		return nil, fmt.Errorf("mapping converter registers: %w", err)
	}

	trigger := sct.MakeBuilder().
		WithEngine(engine).
		WithClock(b.systemClock).
		Build(name + ".SCT")

	channel := dma.MakeBuilder().
		WithEngine(engine).
		WithAddressSpace(space).
		WithInterrupt(ctrl, DMAInterrupt).
		Build(name + ".DMA")

	mux, err := routePins(b.debugPin)
	if err != nil {
		return nil, err
	}

	serial := uart.NewTx(b.serial)
	if err := serial.Configure(uart.DefaultConfig); err != nil {
		return nil, fmt.Errorf("configuring serial port: %w", err)
	}
	serial.EnableTx()
	serial.Enable()

	p := &Platform{
		Engine:      engine,
		SystemClock: b.systemClock,
		Space:       space,
		SRAM:        sram,
		IRQ:         ctrl,
		Trigger:     trigger,
		Converter:   converter,
		DMA:         channel,
		PinMux:      mux,
		Serial:      serial,
	}

	if b.debugPin {
		p.DebugPin = gpio.NewPin(engine, debugPinPort, debugPinIndex)
	}

	return p, nil
}

// routePins performs the switch-matrix setup: clock on, route the movable
// functions, enable the fixed analog input, clock back off.
func routePins(debugPin bool) (*pinmux.Matrix, error) {
	mux := pinmux.NewMatrix()
	mux.SetPeripheralClock(true)
	defer mux.SetPeripheralClock(false)

	if err := mux.Assign(pinmux.UARTTxd, uartTxPin); err != nil {
		return nil, err
	}
	if err := mux.Assign(pinmux.UARTRxd, uartRxPin); err != nil {
		return nil, err
	}
	if debugPin {
		if err := mux.Assign(
			pinmux.TriggerDebug, triggerDebugPin); err != nil {
			return nil, err
		}
	}
	if err := mux.EnableFixedPin(pinmux.FixedAnalogIn3); err != nil {
		return nil, err
	}

	return mux, nil
}
