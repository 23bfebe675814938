package nes

import (
	"bytes"
	"testing"

	"github.com/yoshiomiyamaegones/pkg/cartridge"
)

func TestSaveStateRoundTripsRegisters(t *testing.T) {
	c := newTestConsole(t)
	for i := 0; i < 1000; i++ {
		c.Tick()
	}

	data, err := c.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	wantA, wantPC, wantCycles := c.CPU.A, c.CPU.PC, c.Cycles

	// Scramble live state, then restore and check it matches the snapshot.
	c.CPU.A = 0xFF
	for i := 0; i < 100; i++ {
		c.Tick()
	}

	if err := c.LoadState(data); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if c.CPU.A != wantA {
		t.Fatalf("A = $%02X, want $%02X", c.CPU.A, wantA)
	}
	if c.CPU.PC != wantPC {
		t.Fatalf("PC = $%04X, want $%04X", c.CPU.PC, wantPC)
	}
	if c.Cycles != wantCycles {
		t.Fatalf("Cycles = %d, want %d", c.Cycles, wantCycles)
	}
}

func TestSaveStateOnlyTakenAtInstructionBoundary(t *testing.T) {
	c := newTestConsole(t)
	c.Tick() // mid-instruction: JMP takes 3 cycles

	if _, err := c.SaveState(); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if !c.CPU.AtInstructionBoundary() {
		t.Fatal("SaveState should tick forward to an instruction boundary before snapshotting")
	}
}

func TestLoadStateRejectsBadMagic(t *testing.T) {
	c := newTestConsole(t)
	if err := c.LoadState([]byte("not a save state")); err == nil {
		t.Fatal("expected an error decoding garbage bytes")
	}
}

func TestLoadStateRejectsTruncatedData(t *testing.T) {
	c := newTestConsole(t)
	data, err := c.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	var buf bytes.Buffer
	buf.Write(data)
	truncated := buf.Bytes()[:buf.Len()/2]

	if err := c.LoadState(truncated); err == nil {
		t.Fatal("expected an error decoding a truncated save state")
	} else if cartridge.ErrCorruptSaveState == nil {
		t.Fatal("sentinel should exist")
	}
}
