package nes

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/yoshiomiyamaegones/pkg/apu"
	"github.com/yoshiomiyamaegones/pkg/cartridge"
	"github.com/yoshiomiyamaegones/pkg/cartridge/mapper"
	"github.com/yoshiomiyamaegones/pkg/cpu"
	"github.com/yoshiomiyamaegones/pkg/ppu"
)

// stateMagic/stateVersion guard against loading a save state into the
// wrong game or an incompatible build; bumping stateVersion invalidates
// every state produced by an older build rather than risk decoding
// garbage into a live console.
const (
	stateMagic   = "GONESAVE"
	stateVersion = 1
)

func init() {
	gob.Register(mapper.Mapper0State{})
	gob.Register(mapper.Mapper1State{})
	gob.Register(mapper.Mapper2State{})
	gob.Register(mapper.Mapper3State{})
	gob.Register(mapper.Mapper4State{})
}

// saveStateFile is the on-disk/in-memory layout gob encodes. PRG-ROM
// and CHR-ROM are never included: the caller is expected to reload the
// same cartridge image before calling LoadState.
type saveStateFile struct {
	Magic   string
	Version int

	CPU cpu.State
	PPU ppu.State
	APU apu.APU

	MapperState interface{}
	PRGRAM      []uint8
	CHRRAM      []uint8

	Cycles uint64
}

// SaveState snapshots the Console to a byte slice. If the CPU isn't at
// an instruction boundary, it is ticked forward (continuing to drive
// the PPU/APU/mapper normally) until it is, so the snapshot always
// describes a well-defined point in the instruction stream.
func (c *Console) SaveState() ([]byte, error) {
	for !c.CPU.AtInstructionBoundary() {
		c.Tick()
	}

	state := saveStateFile{
		Magic:       stateMagic,
		Version:     stateVersion,
		CPU:         c.CPU.State(),
		PPU:         c.PPU.State(),
		APU:         *c.APU,
		MapperState: c.Cartridge.MapperBankState(),
		PRGRAM:      append([]uint8(nil), c.Cartridge.PRGRAMBytes()...),
		CHRRAM:      append([]uint8(nil), c.Cartridge.CHRRAMBytes()...),
		Cycles:      c.Cycles,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, fmt.Errorf("nes: encode save state: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadState restores a Console from a snapshot produced by SaveState.
// The same cartridge must already be loaded via Load; only RAM and
// bank-select state travels in the snapshot.
func (c *Console) LoadState(data []byte) error {
	var state saveStateFile
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return fmt.Errorf("%w: %v", cartridge.ErrCorruptSaveState, err)
	}
	if state.Magic != stateMagic {
		return fmt.Errorf("%w: bad magic", cartridge.ErrCorruptSaveState)
	}
	if state.Version != stateVersion {
		return fmt.Errorf("%w: state is version %d, runtime is %d", cartridge.ErrVersionMismatch, state.Version, stateVersion)
	}
	if c.Cartridge == nil {
		return fmt.Errorf("%w: no cartridge loaded", cartridge.ErrCorruptSaveState)
	}

	c.CPU.RestoreState(state.CPU)
	c.PPU.RestoreState(state.PPU)
	*c.APU = state.APU
	c.Cartridge.LoadMapperBankState(state.MapperState)
	copy(c.Cartridge.PRGRAMBytes(), state.PRGRAM)
	copy(c.Cartridge.CHRRAMBytes(), state.CHRRAM)
	c.Cycles = state.Cycles
	return nil
}
