// Package bus implements the NES system bus: CPU-side address decoding,
// the open-bus latch, and the OAM-DMA/DMC-DMA arbitration that ties the
// CPU's per-cycle schedule to the PPU, APU and mapper.
package bus

import (
	"github.com/yoshiomiyamaegones/pkg/apu"
	"github.com/yoshiomiyamaegones/pkg/cpu"
	"github.com/yoshiomiyamaegones/pkg/input"
	"github.com/yoshiomiyamaegones/pkg/ppu"
)

// Cartridge is the subset of *cartridge.Cartridge the Bus needs. Kept as
// an interface so tests can substitute a bare mapper fake.
type Cartridge interface {
	ReadPRG(addr uint16) uint8
	WritePRG(addr uint16, value uint8)
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, value uint8)
	Step()
	IsIRQPending() bool
	ClearIRQ()
}

// Bus wires the CPU, PPU, APU, cartridge and controllers together and
// implements cpu.Bus. Every CPU-visible cycle arrives through
// OnCPUCycle, which is where the 3:1 PPU:CPU and 1:1 APU:CPU stepping
// and the OAM-DMA/DMC-DMA state machines live.
type Bus struct {
	RAM [2048]uint8

	PPU         *ppu.PPU
	APU         *apu.APU
	Cartridge   Cartridge
	Controller1 *input.Controller
	Controller2 *input.Controller

	openBus uint8

	totalCycles uint64

	oam oamDMAState
	dmc dmcDMAState
}

// New creates a Bus with no peripherals attached; callers wire PPU/APU/
// Cartridge/Controllers via the Attach* setters before running the CPU.
func New() *Bus {
	return &Bus{}
}

func (b *Bus) AttachPPU(p *ppu.PPU)             { b.PPU = p }
func (b *Bus) AttachAPU(a *apu.APU)             { b.APU = a }
func (b *Bus) AttachCartridge(c Cartridge)      { b.Cartridge = c }
func (b *Bus) AttachControllers(c1, c2 *input.Controller) {
	b.Controller1 = c1
	b.Controller2 = c2
}

// Read decodes a CPU-side address and returns the byte a real bus read
// would return, updating the open-bus latch as it goes. It performs no
// side-steps on the PPU/APU/mapper - that only happens through
// OnCPUCycle, driven by the CPU's own read/write helpers.
func (b *Bus) Read(addr uint16) uint8 {
	var value uint8
	switch {
	case addr < 0x2000:
		value = b.RAM[addr&0x07FF]

	case addr < 0x4000:
		if b.PPU != nil {
			value = b.PPU.ReadRegister(0x2000 + (addr & 0x7))
		} else {
			value = b.openBus
		}

	case addr == 0x4015:
		if b.APU != nil {
			value = b.APU.ReadRegister(addr)
		} else {
			value = b.openBus
		}

	case addr == 0x4016:
		if b.Controller1 != nil {
			value = (b.Controller1.Read() & 0x01) | (b.openBus & 0xE0)
		} else {
			value = b.openBus
		}

	case addr == 0x4017:
		if b.Controller2 != nil {
			value = (b.Controller2.Read() & 0x01) | (b.openBus & 0xE0)
		} else {
			value = b.openBus
		}

	case addr < 0x4018:
		// Remaining APU registers are write-only; reads return open bus.
		value = b.openBus

	case addr < 0x4020:
		// Test-mode registers, unimplemented: open bus.
		value = b.openBus

	case addr >= 0x6000:
		if b.Cartridge != nil {
			value = b.Cartridge.ReadPRG(addr)
		} else {
			value = b.openBus
		}

	default:
		// 0x4020-0x5FFF mapper expansion area; no mapper in the
		// specified set uses it, so this is open bus.
		value = b.openBus
	}

	b.openBus = value
	return value
}

// Write decodes a CPU-side address and dispatches the write to the
// appropriate peripheral.
func (b *Bus) Write(addr uint16, value uint8) {
	b.openBus = value

	switch {
	case addr < 0x2000:
		b.RAM[addr&0x07FF] = value

	case addr < 0x4000:
		if b.PPU != nil {
			b.PPU.WriteRegister(0x2000+(addr&0x7), value)
		}

	case addr == 0x4014:
		b.startOAMDMA(value)

	case addr == 0x4016:
		if b.Controller1 != nil {
			b.Controller1.Write(value)
		}
		if b.Controller2 != nil {
			b.Controller2.Write(value)
		}

	case addr < 0x4018:
		if b.APU != nil {
			b.APU.WriteRegister(addr, value)
		}

	case addr < 0x4020:
		// Test-mode registers: no-op.

	case addr >= 0x6000:
		if b.Cartridge != nil {
			b.Cartridge.WritePRG(addr, value)
		}

	default:
		// Mapper expansion area: no-op for the specified mapper set.
	}
}

// DMAActive reports whether the CPU must be held idle this cycle - true
// while OAM-DMA or a DMC-DMA stall is in progress.
func (b *Bus) DMAActive() bool {
	return b.oam.active || b.dmc.pendingFetch
}

// OnCPUCycle is invoked once per CPU-visible cycle (read, write, or
// idle) and performs, in the fixed order the hardware requires:
// OAM-DMA step, DMC-DMA step, three PPU dots, one APU cycle, one mapper
// clock. The aggregate IRQ line is not recomputed here; IRQLine computes
// it when called.
func (b *Bus) OnCPUCycle(kind cpu.CycleKind) {
	b.totalCycles++

	b.stepOAMDMA()
	b.stepDMCDMA()

	if b.PPU != nil {
		b.PPU.Step()
		b.PPU.Step()
		b.PPU.Step()
	}

	if b.APU != nil {
		b.APU.Step()
		if addr, ok := b.APU.NeedsDMCFetch(); ok && !b.dmc.pendingFetch {
			b.beginDMCFetch(addr, kind)
		}
	}

	if b.Cartridge != nil {
		b.Cartridge.Step()
	}
}

// IRQLine computes the aggregate, level-sensitive IRQ line the CPU
// should observe: APU frame/DMC IRQ OR'd with the mapper's IRQ line.
// Exposed for the Console to feed into CPU.SetIRQLine after each cycle,
// matching the "latched after PPU/APU steps, seen at next instruction
// boundary" polling contract.
func (b *Bus) IRQLine() bool {
	apuIRQ := b.APU != nil && b.APU.IRQLine()
	mapperIRQ := b.Cartridge != nil && b.Cartridge.IsIRQPending()
	return apuIRQ || mapperIRQ
}
