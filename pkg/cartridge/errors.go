package cartridge

import "errors"

// Sentinel errors returned by cartridge loading and save-state
// round-tripping. Callers use errors.Is against these rather than
// string-matching.
var (
	// ErrUnsupportedMapper is returned when the iNES header names a
	// mapper number this core has no implementation for.
	ErrUnsupportedMapper = errors.New("cartridge: unsupported mapper")

	// ErrInvalidCartridge is returned when the ROM image fails the
	// iNES magic-number check or is truncated mid-header/mid-ROM.
	ErrInvalidCartridge = errors.New("cartridge: invalid or truncated iNES image")

	// ErrCorruptSaveState is returned by save-state decoding when the
	// magic prefix doesn't match.
	ErrCorruptSaveState = errors.New("cartridge: corrupt save state")

	// ErrVersionMismatch is returned by save-state decoding when the
	// magic prefix matches but the version byte does not.
	ErrVersionMismatch = errors.New("cartridge: save state version mismatch")
)
