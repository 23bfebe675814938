package cpu

import (
	"github.com/yoshiomiyamaegones/pkg/logger"
)

// CycleKind classifies the bus activity of a single CPU cycle so the Bus
// can arbitrate DMA stalls (the DMC-DMA stall length depends on the kind of
// cycle it lands on) and drive
// per-cycle PPU/APU/mapper stepping uniformly regardless of what the CPU
// is actually doing on that cycle.
type CycleKind int

const (
	CycleRead CycleKind = iota
	CycleWrite
	CycleIdle
)

// Bus is the capability surface the CPU needs from its host. Every single
// real CPU cycle, whether it touches memory or not, must flow through
// OnCPUCycle exactly once so the Bus can keep the PPU (3 dots), the APU
// (1 cycle), and the current mapper in lockstep with the CPU clock.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
	OnCPUCycle(kind CycleKind)
	DMAActive() bool
}

// Status flag bits.
const (
	FlagCarry     = 1 << 0 // C
	FlagZero      = 1 << 1 // Z
	FlagInterrupt = 1 << 2 // I
	FlagDecimal   = 1 << 3 // D
	FlagBreak     = 1 << 4 // B
	FlagUnused    = 1 << 5 // -
	FlagOverflow  = 1 << 6 // V
	FlagNegative  = 1 << 7 // N
)

type microOp func(c *CPU)

// CPU is a cycle-accurate 2A03 core. Tick advances exactly one CPU cycle;
// callers never step whole instructions. Instructions are decoded into a
// queue of micro-ops the first time they're fetched, and Tick just pops
// and runs the next one, so the queue length at any instant is the number
// of cycles left in the instruction currently in flight.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16
	P  uint8

	Bus Bus

	queue []microOp

	nmiLine     bool // current physical /NMI level, set by the PPU
	prevNMILine bool // previous-cycle level, for edge detection
	nmiPending  bool // latched 1->0 edge, cleared once serviced
	irqLine     bool // level-sensitive; Bus recomputes this every cycle

	pendingVector   uint16
	pendingVectorLo uint8

	Halted bool // JAM/KIL opcode hit
}

// New creates a CPU. The bus is wired in separately via SetBus once both
// exist; the Bus holds no CPU reference, and the Console feeds the
// interrupt lines in through SetNMILine and SetIRQLine.
func New() *CPU {
	return &CPU{
		SP: 0xFD,
		P:  FlagUnused | FlagInterrupt,
	}
}

// SetBus wires the host bus. Must be called before Reset or Tick.
func (c *CPU) SetBus(bus Bus) {
	c.Bus = bus
}

// Reset restores power-on register state and loads PC from the reset
// vector. Real hardware burns 7 cycles doing this (dummy stack pushes that
// don't actually write because R/W is forced high); the console's reset
// sequencing charges those cycles against the bus itself, so this just
// resets the visible register state.
func (c *CPU) Reset() {
	c.A = 0
	c.X = 0
	c.Y = 0
	c.SP = 0xFD
	c.P = FlagUnused | FlagInterrupt
	c.queue = nil
	c.nmiLine = false
	c.prevNMILine = false
	c.nmiPending = false
	c.irqLine = false
	c.Halted = false

	lo := c.Bus.Read(0xFFFC)
	hi := c.Bus.Read(0xFFFD)
	c.PC = uint16(hi)<<8 | uint16(lo)
}

// Tick advances the CPU by exactly one cycle. When DMA owns the bus the
// CPU stalls, still charging the bus one idle cycle so PPU/APU keep
// advancing; otherwise it continues the instruction in flight or begins
// the next one.
func (c *CPU) Tick() {
	if c.Bus.DMAActive() {
		c.Bus.OnCPUCycle(CycleIdle)
		return
	}
	if c.Halted {
		c.Bus.OnCPUCycle(CycleIdle)
		return
	}

	c.pollInterruptLines()

	if len(c.queue) > 0 {
		op := c.queue[0]
		c.queue = c.queue[1:]
		op(c)
		return
	}

	c.beginInstruction()
}

// pollInterruptLines latches the NMI edge. IRQ stays level-sensitive and
// is read straight out of c.irqLine, which SetIRQLine refreshes every
// cycle from the Bus's aggregate of APU frame-IRQ, DMC-IRQ and mapper-IRQ.
func (c *CPU) pollInterruptLines() {
	if c.nmiLine && !c.prevNMILine {
		c.nmiPending = true
	}
	c.prevNMILine = c.nmiLine
}

// SetNMILine sets the physical /NMI pin level for this cycle.
func (c *CPU) SetNMILine(asserted bool) {
	c.nmiLine = asserted
}

// SetIRQLine sets the aggregate level-sensitive /IRQ line for this cycle.
func (c *CPU) SetIRQLine(asserted bool) {
	c.irqLine = asserted
}

// beginInstruction runs the first cycle of the next instruction: either an
// interrupt sequence, if one is pending, or an opcode fetch. The remaining
// cycles are queued as micro-ops for subsequent Tick calls.
func (c *CPU) beginInstruction() {
	if c.nmiPending {
		c.nmiPending = false
		c.readByte(c.PC) // cycle 1: dummy opcode fetch, PC not advanced
		c.runInterruptSequence(0xFFFA, false)
		return
	}
	if c.irqLine && !c.getFlag(FlagInterrupt) {
		c.readByte(c.PC) // cycle 1: dummy opcode fetch, PC not advanced
		c.runInterruptSequence(0xFFFE, false)
		return
	}

	opcode := c.fetchByte()
	entry := opcodeTable[opcode]
	if entry.build == nil {
		logger.LogCPU("unimplemented opcode $%02X at PC=$%04X", opcode, c.PC-1)
		c.queue = nil
		return
	}
	c.queue = entry.build(c)
}

// runInterruptSequence runs the remaining 6 cycles of the 7-cycle hardware
// interrupt dance; the caller's dispatch already charged cycle 1 (the
// dummy opcode fetch). brk distinguishes a software BRK (B flag set in the
// pushed P, eligible for the NMI-hijack quirk below) from a real NMI/IRQ.
func (c *CPU) runInterruptSequence(vector uint16, brk bool) {
	c.queue = []microOp{
		func(cpu *CPU) { cpu.idleCycle() },
		func(cpu *CPU) { cpu.pushByte(uint8(cpu.PC >> 8)) },
		func(cpu *CPU) { cpu.pushByte(uint8(cpu.PC & 0xFF)) },
		func(cpu *CPU) {
			flags := cpu.P | FlagUnused
			if brk {
				flags |= FlagBreak
			} else {
				flags &^= FlagBreak
			}
			cpu.pushByte(flags)
			cpu.setFlag(FlagInterrupt, true)
		},
		func(cpu *CPU) {
			v := vector
			// An NMI landing while we're mid-BRK hijacks the vector
			// fetch: the pushed P above still reads as a BRK, but we
			// jump through $FFFA instead of $FFFE/IRQ's vector.
			if cpu.nmiPending {
				cpu.nmiPending = false
				v = 0xFFFA
			}
			cpu.pendingVector = v
			cpu.pendingVectorLo = cpu.readByte(v)
		},
		func(cpu *CPU) {
			hi := cpu.readByte(cpu.pendingVector + 1)
			cpu.PC = uint16(hi)<<8 | uint16(cpu.pendingVectorLo)
		},
	}
}

// Flag helpers.
func (c *CPU) getFlag(flag uint8) bool { return c.P&flag != 0 }
func (c *CPU) setFlag(flag uint8, value bool) {
	if value {
		c.P |= flag
	} else {
		c.P &^= flag
	}
}

// GetFlag exposes flag state for tests and debug tooling.
func (c *CPU) GetFlag(flag uint8) bool { return c.getFlag(flag) }

// AtInstructionBoundary reports whether the micro-op queue is empty -
// the only point at which register/cycle-count state alone (without the
// in-flight queue of closures) fully describes the CPU. Save-state
// snapshots are taken here.
func (c *CPU) AtInstructionBoundary() bool { return len(c.queue) == 0 }

// NMIPending and IRQLine expose latched interrupt state for debug
// tooling and save-state snapshots.
func (c *CPU) NMIPending() bool { return c.nmiPending }
func (c *CPU) IRQLine() bool    { return c.irqLine }

// State is the serializable snapshot of CPU register and interrupt-
// latch state for save states. Only valid at an instruction boundary:
// the micro-op queue itself holds closures and is never serialized,
// so State must be taken (and RestoreState called) only when
// AtInstructionBoundary is true.
type State struct {
	A, X, Y, SP uint8
	PC          uint16
	P           uint8
	NMILine     bool
	PrevNMILine bool
	NMIPending  bool
	IRQLine     bool
	Halted      bool
}

// State captures the CPU's architectural and interrupt-latch state.
func (c *CPU) State() State {
	return State{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP, PC: c.PC, P: c.P,
		NMILine:     c.nmiLine,
		PrevNMILine: c.prevNMILine,
		NMIPending:  c.nmiPending,
		IRQLine:     c.irqLine,
		Halted:      c.Halted,
	}
}

// RestoreState reloads architectural register and interrupt-latch
// state from a save-state snapshot. Must only be called at an
// instruction boundary (queue already drained).
func (c *CPU) RestoreState(s State) {
	c.A, c.X, c.Y, c.SP, c.PC, c.P = s.A, s.X, s.Y, s.SP, s.PC, s.P
	c.nmiLine, c.prevNMILine, c.nmiPending, c.irqLine, c.Halted = s.NMILine, s.PrevNMILine, s.NMIPending, s.IRQLine, s.Halted
	c.queue = nil
}

// Bus access helpers. Every one of these charges exactly one OnCPUCycle,
// the invariant the rest of the package (addressing.go, alu.go,
// opcodes.go) relies on: one microOp body, one bus-visible cycle.
func (c *CPU) readByte(addr uint16) uint8 {
	v := c.Bus.Read(addr)
	c.Bus.OnCPUCycle(CycleRead)
	return v
}

func (c *CPU) writeByte(addr uint16, v uint8) {
	c.Bus.Write(addr, v)
	c.Bus.OnCPUCycle(CycleWrite)
}

func (c *CPU) idleCycle() {
	c.Bus.OnCPUCycle(CycleIdle)
}

func (c *CPU) fetchByte() uint8 {
	v := c.readByte(c.PC)
	c.PC++
	return v
}

// Stack helpers. The 6502 stack lives at $0100-$01FF; SP only ever holds
// the low byte of the next free slot.
func (c *CPU) pushByte(v uint8) {
	c.writeByte(0x0100|uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pullByte() uint8 {
	c.SP++
	return c.readByte(0x0100 | uint16(c.SP))
}

// TriggerNMI is a test/debug convenience that asserts the NMI line and
// latches its edge at once, so the NMI is taken at the next instruction
// boundary even when the Console sets the line from the PPU before that
// Tick. Production wiring should drive SetNMILine from the PPU's
// VBlank-start/$2000 toggle logic instead.
func (c *CPU) TriggerNMI() {
	c.nmiLine = true
	c.prevNMILine = false
	c.nmiPending = true
}
