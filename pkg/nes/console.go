// Package nes wires the CPU, PPU, APU, Bus, cartridge and controllers
// into a single Console and owns the master per-cycle schedule.
package nes

import (
	"fmt"
	"io"

	"github.com/yoshiomiyamaegones/pkg/apu"
	"github.com/yoshiomiyamaegones/pkg/bus"
	"github.com/yoshiomiyamaegones/pkg/cartridge"
	"github.com/yoshiomiyamaegones/pkg/cpu"
	"github.com/yoshiomiyamaegones/pkg/input"
	"github.com/yoshiomiyamaegones/pkg/logger"
	"github.com/yoshiomiyamaegones/pkg/ppu"
)

// maxCyclesPerFrame bounds RunFrame against a cartridge or CPU bug that
// never raises frame-complete, mirroring the teacher's own frame-step
// safety valve.
const maxCyclesPerFrame = 200000

// Console owns every core component and is the single entry point
// frontends drive: Load a ROM, PowerOn/Reset, Tick or RunFrame, then
// read Frame/DrainAudio and feed SetButtons back in.
type Console struct {
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	APU       *apu.APU
	Bus       *bus.Bus
	Cartridge *cartridge.Cartridge

	Controller1 *input.Controller
	Controller2 *input.Controller

	Cycles uint64
}

// New creates a Console with all core components wired together, but
// without a cartridge loaded - Load must be called before PowerOn.
func New() *Console {
	c := &Console{
		CPU:         cpu.New(),
		PPU:         ppu.New(),
		APU:         apu.New(),
		Bus:         bus.New(),
		Controller1: input.New(),
		Controller2: input.New(),
	}

	c.Bus.AttachPPU(c.PPU)
	c.Bus.AttachAPU(c.APU)
	c.Bus.AttachControllers(c.Controller1, c.Controller2)
	c.CPU.SetBus(c.Bus)

	return c
}

// Load reads an iNES image and attaches its cartridge to the Console.
// The CPU is not reset here; call PowerOn or Reset afterward.
func (c *Console) Load(r io.Reader) error {
	cart, err := cartridge.LoadFromReader(r)
	if err != nil {
		return fmt.Errorf("nes: load cartridge: %w", err)
	}
	c.Cartridge = cart
	c.Bus.AttachCartridge(cart)
	c.PPU.SetCartridge(cart)
	logger.LogInfo("cartridge loaded: mapper %v, PRG=%dKiB CHR=%dKiB",
		cart.Header.Flags6>>4|cart.Header.Flags7&0xF0, len(cart.PRGROM)/1024, len(cart.CHRROM)/1024)
	return nil
}

// PowerOn performs a cold boot: resets the APU and PPU, zeroes the cycle
// counter, then runs Reset. CPU RAM, PRG-RAM and CHR-RAM are not cleared.
func (c *Console) PowerOn() {
	c.APU.Reset()
	c.PPU.Reset()
	c.Cycles = 0
	c.Reset()
}

// Reset preserves RAM/CHR-RAM/PRG-RAM contents but reloads the CPU from
// the reset vector, forces APU silence, and clears PPU VBlank/OAMADDR.
func (c *Console) Reset() {
	c.APU.WriteRegister(0x4015, 0x00)
	c.PPU.Reset()
	c.CPU.Reset()
	// The CPU's reset sequence spends 7 cycles on the bus.
	for i := 0; i < 7; i++ {
		c.Bus.OnCPUCycle(cpu.CycleIdle)
	}
}

// Tick advances the whole system by exactly one CPU cycle: the NMI and
// aggregate IRQ lines are latched from last cycle's PPU/APU/mapper
// state before the CPU consumes this cycle, so interrupt changes are
// only visible at the next instruction boundary - matching real 6502
// polling behavior.
func (c *Console) Tick() {
	c.CPU.SetNMILine(c.PPU.NMILine())
	c.CPU.SetIRQLine(c.Bus.IRQLine())
	c.CPU.Tick()
	c.Cycles++
}

// RunFrame ticks the Console until the PPU reports a completed frame.
func (c *Console) RunFrame() {
	for i := 0; i < maxCyclesPerFrame; i++ {
		c.Tick()
		if c.PPU.FrameComplete {
			c.PPU.FrameComplete = false
			return
		}
	}
	logger.LogPPU("frame did not complete within %d cycles, forcing frame boundary", maxCyclesPerFrame)
}

// Frame returns the current framebuffer as packed 0xAARRGGBB pixels.
func (c *Console) Frame() []uint32 {
	return c.PPU.GetDisplayFrameBuffer()
}

// FrameRGBA returns the current framebuffer as interleaved RGBA bytes,
// for frontends (SDL2 textures, PNG encoders) that want bytes rather
// than packed pixels.
func (c *Console) FrameRGBA() []uint8 {
	pixels := c.Frame()
	rgba := make([]uint8, len(pixels)*4)
	for i, pixel := range pixels {
		rgba[i*4+0] = uint8(pixel >> 16) // R
		rgba[i*4+1] = uint8(pixel >> 8)  // G
		rgba[i*4+2] = uint8(pixel)       // B
		rgba[i*4+3] = uint8(pixel >> 24) // A
	}
	return rgba
}

// DrainAudio returns all samples produced since the last call and
// clears the internal buffer.
func (c *Console) DrainAudio() []float32 {
	out := make([]float32, len(c.APU.Output))
	copy(out, c.APU.Output)
	c.APU.Output = c.APU.Output[:0]
	return out
}

// SetButtons overwrites the full button mask for one controller port
// (0 or 1).
func (c *Console) SetButtons(port int, mask uint8) {
	switch port {
	case 0:
		c.Controller1.SetButtons(mask)
	case 1:
		c.Controller2.SetButtons(mask)
	}
}
