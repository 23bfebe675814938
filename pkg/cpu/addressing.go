package cpu

// AddressingMode identifies one of the 6502's addressing modes. Unlike the
// teacher's static per-opcode cycle table, these modes now drive the
// actual sequencing of bus-visible cycles: every dummy read the hardware
// performs (page-cross speculation, (zp,X)'s base read, absolute,X/Y's
// fixed wrong-address read on RMW/write) happens for real here, in the
// order real silicon does it, because the Bus/mapper/PPU need to observe
// those cycles too (MMC3's A12 filter and open-bus decay both depend on
// it).
type AddressingMode int

const (
	AddrImplied AddressingMode = iota
	AddrAccumulator
	AddrImmediate
	AddrZeroPage
	AddrZeroPageX
	AddrZeroPageY
	AddrRelative
	AddrAbsolute
	AddrAbsoluteX
	AddrAbsoluteY
	AddrIndirect
	AddrIndexedIndirect // (zp,X)
	AddrIndirectIndexed // (zp),Y
)

// insertNext splices extra micro-ops to the front of the queue, used by
// addressing modes whose cycle count isn't known until a runtime page
// boundary check (absolute,X/Y and (zp),Y in read mode only take the
// penalty cycle when the index actually crosses a page).
func (c *CPU) insertNext(ops ...microOp) {
	c.queue = append(append([]microOp{}, ops...), c.queue...)
}

func idxReg(c *CPU, mode AddressingMode) uint8 {
	if mode == AddrZeroPageX || mode == AddrAbsoluteX {
		return c.X
	}
	return c.Y
}

// resolveAddress returns a micro-op sequence that computes an effective
// address and invokes done(addr) on the cycle the real 6502 would already
// know it, WITHOUT performing the final operand read/write (the caller
// supplies that, since read/write/RMW treat the last cycle differently).
// alwaysExtra selects write/RMW's fixed-length behavior (the penalty
// cycle always happens); read callers pass false and only pay it on an
// actual page cross.
func resolveAddress(mode AddressingMode, alwaysExtra bool, done func(c *CPU, addr uint16)) []microOp {
	switch mode {
	case AddrZeroPage:
		var addr uint16
		return []microOp{
			func(c *CPU) { addr = uint16(c.fetchByte()) },
			func(c *CPU) { done(c, addr) },
		}

	case AddrZeroPageX, AddrZeroPageY:
		var base uint8
		var addr uint16
		return []microOp{
			func(c *CPU) { base = c.fetchByte() },
			func(c *CPU) {
				c.readByte(uint16(base)) // dummy read before indexing
				addr = uint16(base+idxReg(c, mode)) & 0xFF
			},
			func(c *CPU) { done(c, addr) },
		}

	case AddrAbsolute:
		var lo, hi uint8
		return []microOp{
			func(c *CPU) { lo = c.fetchByte() },
			func(c *CPU) { hi = c.fetchByte() },
			func(c *CPU) { done(c, uint16(hi)<<8|uint16(lo)) },
		}

	case AddrAbsoluteX, AddrAbsoluteY:
		var lo, hi uint8
		return []microOp{
			func(c *CPU) { lo = c.fetchByte() },
			func(c *CPU) { hi = c.fetchByte() },
			func(c *CPU) {
				base := uint16(hi)<<8 | uint16(lo)
				addr := base + uint16(idxReg(c, mode))
				wrong := (base & 0xFF00) | (addr & 0x00FF)
				crossed := (base & 0xFF00) != (addr & 0xFF00)
				if crossed || alwaysExtra {
					c.readByte(wrong) // dummy read at the un-carried address
					c.insertNext(func(c *CPU) { done(c, addr) })
				} else {
					done(c, addr)
				}
			},
		}

	case AddrIndexedIndirect:
		var ptr, lo, hi uint8
		return []microOp{
			func(c *CPU) { ptr = c.fetchByte() },
			func(c *CPU) { c.readByte(uint16(ptr)) }, // dummy read before indexing
			func(c *CPU) { lo = c.readByte(uint16(ptr+c.X) & 0xFF) },
			func(c *CPU) { hi = c.readByte(uint16(ptr+c.X+1) & 0xFF) },
			func(c *CPU) { done(c, uint16(hi)<<8|uint16(lo)) },
		}

	case AddrIndirectIndexed:
		var ptr, lo, hi uint8
		return []microOp{
			func(c *CPU) { ptr = c.fetchByte() },
			func(c *CPU) { lo = c.readByte(uint16(ptr)) },
			func(c *CPU) { hi = c.readByte(uint16(ptr+1) & 0xFF) },
			func(c *CPU) {
				base := uint16(hi)<<8 | uint16(lo)
				addr := base + uint16(c.Y)
				wrong := (base & 0xFF00) | (addr & 0x00FF)
				crossed := (base & 0xFF00) != (addr & 0xFF00)
				if crossed || alwaysExtra {
					c.readByte(wrong) // dummy read at the un-carried address
					c.insertNext(func(c *CPU) { done(c, addr) })
				} else {
					done(c, addr)
				}
			},
		}
	}
	return nil
}

// buildRead returns the micro-ops for a read instruction (LDA, ADC, CMP,
// the unofficial combined-read opcodes, ...) in the given mode. apply
// receives the fetched byte.
func buildRead(mode AddressingMode, apply func(c *CPU, v uint8)) func(c *CPU) []microOp {
	return func(c *CPU) []microOp {
		if mode == AddrImmediate {
			return []microOp{func(c *CPU) { apply(c, c.fetchByte()) }}
		}
		return resolveAddress(mode, false, func(c *CPU, addr uint16) {
			apply(c, c.readByte(addr))
		})
	}
}

// buildWrite returns the micro-ops for a store instruction (STA/STX/STY).
// Indexed absolute/indirect modes always take their worst-case cycle
// count: there's no operand to short-circuit on since nothing is read.
func buildWrite(mode AddressingMode, value func(c *CPU) uint8) func(c *CPU) []microOp {
	return func(c *CPU) []microOp {
		return resolveAddress(mode, true, func(c *CPU, addr uint16) {
			c.writeByte(addr, value(c))
		})
	}
}

// buildRMW returns the micro-ops for a read-modify-write instruction
// (INC/DEC/ASL/LSR/ROL/ROR and their unofficial combined forms). Real
// hardware always writes the unmodified value back before writing the
// modified one; the Bus/mapper sees that intermediate write, which
// matters for MMC3's A12 filtering against spurious toggles.
func buildRMW(mode AddressingMode, apply func(c *CPU, v uint8) uint8) func(c *CPU) []microOp {
	return func(c *CPU) []microOp {
		return resolveAddress(mode, true, func(c *CPU, addr uint16) {
			v := c.readByte(addr)
			c.insertNext(
				func(c *CPU) { c.writeByte(addr, v) },
				func(c *CPU) { c.writeByte(addr, apply(c, v)) },
			)
		})
	}
}

// buildAccumulator handles the accumulator-addressed forms of ASL/LSR/
// ROL/ROR (e.g. $0A), which take a single extra internal cycle and never
// touch the bus for their operand.
func buildAccumulator(apply func(c *CPU, v uint8) uint8) func(c *CPU) []microOp {
	return func(c *CPU) []microOp {
		return []microOp{func(c *CPU) {
			c.idleCycle()
			c.A = apply(c, c.A)
		}}
	}
}

// buildImplied handles register-only instructions (INX, TAX, CLC, ...)
// that take one extra internal cycle beyond the opcode fetch.
func buildImplied(apply func(c *CPU)) func(c *CPU) []microOp {
	return func(c *CPU) []microOp {
		return []microOp{func(c *CPU) {
			c.idleCycle()
			apply(c)
		}}
	}
}

// buildBranch handles the eight relative-branch opcodes. Taking the
// branch costs one extra cycle; crossing a page while doing so costs a
// second. Both extra cycles are genuine bus-idle cycles on hardware.
func buildBranch(cond func(c *CPU) bool) func(c *CPU) []microOp {
	return func(c *CPU) []microOp {
		return []microOp{func(c *CPU) {
			offset := int8(c.fetchByte())
			if !cond(c) {
				return
			}
			c.insertNext(func(c *CPU) {
				c.idleCycle()
				oldPC := c.PC
				target := uint16(int32(oldPC) + int32(offset))
				c.PC = (oldPC & 0xFF00) | (target & 0x00FF)
				if (target & 0xFF00) != (oldPC & 0xFF00) {
					c.insertNext(func(c *CPU) {
						c.idleCycle()
						c.PC = target
					})
				}
			})
		}}
	}
}
