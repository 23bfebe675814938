package bus

import "github.com/yoshiomiyamaegones/pkg/cpu"

// oamDMAState tracks the 513/514-cycle OAM-DMA transfer triggered by a
// write to $4014. Read and write steps alternate 256 times, preceded by
// 1 alignment cycle if the trigger landed on an even CPU cycle, 2 if
// odd.
type oamDMAState struct {
	active   bool
	page     uint8
	align    int
	count    int
	haveByte bool
	latch    uint8
}

func (b *Bus) startOAMDMA(page uint8) {
	b.oam = oamDMAState{
		active: true,
		page:   page,
	}
	if b.totalCycles%2 == 0 {
		b.oam.align = 1
	} else {
		b.oam.align = 2
	}
}

// stepOAMDMA advances the transfer by one CPU cycle. It pauses itself
// while a DMC-DMA fetch is in flight, so the DMC's single read is
// inserted into the OAM transfer rather than racing it for the bus -
// an approximation of the 1-2 extra cycles spec.md §4.1 describes,
// rather than a cycle-exact reproduction of the interleave.
func (b *Bus) stepOAMDMA() {
	if !b.oam.active || b.dmc.pendingFetch {
		return
	}

	if b.oam.align > 0 {
		b.oam.align--
		return
	}

	if !b.oam.haveByte {
		addr := uint16(b.oam.page)<<8 | uint16(b.oam.count)
		b.oam.latch = b.Read(addr)
		b.oam.haveByte = true
		return
	}

	if b.PPU != nil {
		b.PPU.WriteRegister(0x2004, b.oam.latch)
	}
	b.oam.haveByte = false
	b.oam.count++
	if b.oam.count >= 256 {
		b.oam.active = false
	}
}

// dmcDMAState tracks a single pending DMC sample fetch: a 1-4 cycle
// stall (depending on what the CPU's bus was doing when the request
// landed) followed by one read delivered back to the APU.
type dmcDMAState struct {
	pendingFetch bool
	stall        int
	addr         uint16
}

func (b *Bus) beginDMCFetch(addr uint16, kind cpu.CycleKind) {
	b.dmc.pendingFetch = true
	b.dmc.addr = addr
	b.dmc.stall = dmcStallCycles(kind)
}

// dmcStallCycles approximates the 1-4 cycle stall spec.md §4.1
// describes from the kind of bus activity the CPU was doing when the
// DMC raised its request: a write costs 1 cycle, an idle/halt cycle
// costs 2, a read costs 3. The documented 4-cycle case (certain
// back-to-back read sequences) is not modeled separately.
func dmcStallCycles(kind cpu.CycleKind) int {
	switch kind {
	case cpu.CycleWrite:
		return 1
	case cpu.CycleIdle:
		return 2
	default:
		return 3
	}
}

func (b *Bus) stepDMCDMA() {
	if !b.dmc.pendingFetch {
		return
	}
	if b.dmc.stall > 0 {
		b.dmc.stall--
		return
	}
	value := b.Read(b.dmc.addr)
	b.APU.CompleteDMCFetch(value)
	b.dmc.pendingFetch = false
}
