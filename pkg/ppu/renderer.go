package ppu

import (
	"github.com/yoshiomiyamaegones/pkg/logger"
)

// SpriteData represents sprite attribute data
type SpriteData struct {
	Y          uint8 // Y position - 1
	TileIndex  uint8 // Tile index
	Attributes uint8 // Attributes (palette, priority, flip)
	X          uint8 // X position
}

// SpriteInfo represents a sprite with its OAM index
type SpriteInfo struct {
	SpriteData
	OAMIndex int // Original index in OAM (for sprite 0 detection)
}

// Sprite attribute flags
const (
	SpriteFlipHorizontal = 0x40
	SpritePriority       = 0x20 // 0=front of background, 1=behind background
	SpriteFlipVertical   = 0x80
	SpritePaletteMask    = 0x03 // Palette selection (bits 0-1)
)

// tickBackgroundPipeline advances the background shift registers and, on
// visible and pre-render lines, runs the 8-dot nametable/attribute/pattern
// fetch sequence that keeps them fed. This mirrors the real 2C02: the
// registers hold the current and next tile's pattern bits, shifted one bit
// left every dot, with fineX picking out the bit that becomes this dot's
// pixel.
func (p *PPU) tickBackgroundPipeline(renderingEnabled bool) {
	if !renderingEnabled {
		return
	}

	inFetchWindow := (p.Cycle >= 1 && p.Cycle <= 256) || (p.Cycle >= 321 && p.Cycle <= 336)
	if inFetchWindow {
		p.shiftBackgroundRegisters()

		switch p.Cycle % 8 {
		case 1:
			p.loadBackgroundShiftRegisters()
			p.ntByte = p.fetchNameTableByte()
		case 3:
			p.atByte = p.fetchAttributeByte()
		case 5:
			p.bgLoByte = p.fetchPatternByte(false)
		case 7:
			p.bgHiByte = p.fetchPatternByte(true)
		case 0:
			p.incrementCoarseX()
			if p.Cycle == 256 {
				p.incrementFineY()
			}
		}
	}

	if p.Cycle == 257 {
		p.loadBackgroundShiftRegisters()
		p.v = (p.v & 0xFBE0) | (p.t & 0x041F) // copy horizontal bits t->v
	}

	if p.Scanline == -1 && p.Cycle >= 280 && p.Cycle <= 304 {
		p.v = (p.v & 0x841F) | (p.t & 0x7BE0) // copy vertical bits t->v
	}
}

func (p *PPU) shiftBackgroundRegisters() {
	p.bgPatternLoShift <<= 1
	p.bgPatternHiShift <<= 1
	p.bgAttribLoShift <<= 1
	p.bgAttribHiShift <<= 1
}

// loadBackgroundShiftRegisters merges the latest fetched tile byte pair and
// attribute bits into the low byte of each shift register; the bits already
// shifted up occupy the high byte, belonging to the tile currently on screen.
func (p *PPU) loadBackgroundShiftRegisters() {
	p.bgPatternLoShift = (p.bgPatternLoShift & 0xFF00) | uint16(p.bgLoByte)
	p.bgPatternHiShift = (p.bgPatternHiShift & 0xFF00) | uint16(p.bgHiByte)

	if p.atByte&0x01 != 0 {
		p.bgAttribLoShift |= 0x00FF
	} else {
		p.bgAttribLoShift &^= 0x00FF
	}
	if p.atByte&0x02 != 0 {
		p.bgAttribHiShift |= 0x00FF
	} else {
		p.bgAttribHiShift &^= 0x00FF
	}
}

func (p *PPU) fetchNameTableByte() uint8 {
	addr := 0x2000 | (p.v & 0x0FFF)
	return p.readVRAM(addr)
}

func (p *PPU) fetchAttributeByte() uint8 {
	addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
	shift := ((p.v >> 4) & 4) | (p.v & 2)
	return (p.readVRAM(addr) >> shift) & 0x03
}

func (p *PPU) fetchPatternByte(highPlane bool) uint8 {
	fineY := (p.v >> 12) & 0x07
	table := uint16(0)
	if p.PPUCTRL&PPUCTRLBGTable != 0 {
		table = 0x1000
	}
	addr := table + uint16(p.ntByte)*16 + fineY
	if highPlane {
		addr += 8
	}
	return p.readVRAM(addr)
}

// incrementCoarseX implements the standard v-register coarse-X increment,
// wrapping into the neighboring horizontal nametable at the tile boundary.
func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementFineY implements the standard v-register fine/coarse-Y increment,
// wrapping into the neighboring vertical nametable at the 30th row.
func (p *PPU) incrementFineY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

// backgroundPixel reads the current dot's background color index and
// palette straight out of the shift registers, using fineX to select the
// bit that represents this pixel.
func (p *PPU) backgroundPixel() (colorIndex, palette uint8) {
	mux := uint16(0x8000) >> p.x

	lo, hi := uint8(0), uint8(0)
	if p.bgPatternLoShift&mux != 0 {
		lo = 1
	}
	if p.bgPatternHiShift&mux != 0 {
		hi = 1
	}
	colorIndex = (hi << 1) | lo

	alo, ahi := uint8(0), uint8(0)
	if p.bgAttribLoShift&mux != 0 {
		alo = 1
	}
	if p.bgAttribHiShift&mux != 0 {
		ahi = 1
	}
	palette = (ahi << 1) | alo
	return
}

// renderBackgroundPixel renders the background color for the current dot,
// respecting the PPUMASK show/left-clip bits.
func (p *PPU) renderBackgroundPixel(x int) (color uint32, opaque bool) {
	if p.PPUMASK&PPUMASKBGShow == 0 {
		return p.PaletteManager.GetBackgroundColor(0, 0), false
	}
	if x < 8 && p.PPUMASK&PPUMASKBGLeft == 0 {
		return p.PaletteManager.GetBackgroundColor(0, 0), false
	}

	colorIndex, palette := p.backgroundPixel()
	return p.PaletteManager.GetBackgroundColor(palette, colorIndex), colorIndex != 0
}

// getPixelColor extracts pixel color from a pair of pattern-table bit planes
func getPixelColor(patternLo, patternHi uint8, pixelX int) uint8 {
	bitPos := 7 - pixelX
	lowBit := (patternLo >> bitPos) & 1
	highBit := (patternHi >> bitPos) & 1
	return (highBit << 1) | lowBit
}

// fetchSpriteData fetches data for all sprites on current scanline
func (p *PPU) fetchSpriteData(scanline int) []SpriteInfo {
	var sprites []SpriteInfo
	spriteHeight := 8

	if p.PPUCTRL&PPUCTRLSpriteSize != 0 {
		spriteHeight = 16
	}

	for i := 0; i < 64; i++ {
		spriteY := int(p.OAM[i*4])

		if scanline >= spriteY && scanline < spriteY+spriteHeight {
			sprite := SpriteInfo{
				SpriteData: SpriteData{
					Y:          p.OAM[i*4],
					TileIndex:  p.OAM[i*4+1],
					Attributes: p.OAM[i*4+2],
					X:          p.OAM[i*4+3],
				},
				OAMIndex: i,
			}
			sprites = append(sprites, sprite)

			// Real secondary OAM only ever holds 8 sprites per scanline.
			if len(sprites) >= 8 {
				p.PPUSTATUS |= PPUSTATUSSpriteOverflow
				logger.LogPPU("sprite overflow at scanline %d", scanline)
				break
			}
		}
	}

	return sprites
}

// renderSpritePixel renders sprite pixels for a given position
func (p *PPU) renderSpritePixel(x, y int, sprites []SpriteInfo) (uint32, bool, bool) {
	if p.PPUMASK&PPUMASKSpriteShow == 0 {
		return 0x00000000, false, false
	}
	if x < 8 && p.PPUMASK&PPUMASKSpriteLeft == 0 {
		return 0x00000000, false, false
	}

	spriteHeight := 8
	if p.PPUCTRL&PPUCTRLSpriteSize != 0 {
		spriteHeight = 16
	}

	for _, sprite := range sprites {
		spriteX := int(sprite.X)
		spriteY := int(sprite.Y)

		if x < spriteX || x >= spriteX+8 || y < spriteY || y >= spriteY+spriteHeight {
			continue
		}

		pixelX := x - spriteX
		pixelY := y - spriteY

		if sprite.Attributes&SpriteFlipHorizontal != 0 {
			pixelX = 7 - pixelX
		}
		if sprite.Attributes&SpriteFlipVertical != 0 {
			pixelY = (spriteHeight - 1) - pixelY
		}

		patternTableBase := uint16(0x0000)
		if p.PPUCTRL&PPUCTRLSpriteTable != 0 {
			patternTableBase = 0x1000
		}

		var tileAddr uint16
		if spriteHeight == 16 {
			tileIndex := sprite.TileIndex & 0xFE
			if pixelY >= 8 {
				tileIndex++
				pixelY -= 8
			}
			if sprite.TileIndex&1 != 0 {
				patternTableBase = 0x1000
			} else {
				patternTableBase = 0x0000
			}
			tileAddr = patternTableBase + uint16(tileIndex)*16 + uint16(pixelY)
		} else {
			tileAddr = patternTableBase + uint16(sprite.TileIndex)*16 + uint16(pixelY)
		}

		patternLo := p.readVRAM(tileAddr)
		patternHi := p.readVRAM(tileAddr + 8)
		colorIndex := getPixelColor(patternLo, patternHi, pixelX)

		if colorIndex != 0 {
			palette := sprite.Attributes & SpritePaletteMask
			color := p.PaletteManager.GetSpriteColor(palette, colorIndex)
			priority := sprite.Attributes&SpritePriority == 0
			sprite0Hit := sprite.OAMIndex == 0
			return color, priority, sprite0Hit
		}
	}

	return 0x00000000, false, false
}

// renderPixel combines the background and sprite pipelines for the current
// dot into a single output pixel. Called once per dot for dots 1-256 of
// each visible scanline.
func (p *PPU) renderPixel() {
	x := p.Cycle - 1
	y := p.Scanline
	index := y*256 + x
	if index < 0 || index >= len(p.FrameBuffer) {
		return
	}

	renderingEnabled := (p.PPUMASK & (PPUMASKBGShow | PPUMASKSpriteShow)) != 0
	if !renderingEnabled {
		p.FrameBuffer[index] = p.PaletteManager.GetBackgroundColor(0, 0)
		return
	}

	bgColor, bgOpaque := p.renderBackgroundPixel(x)

	if x == 0 {
		p.currentSprites = p.fetchSpriteData(y)
	}

	if len(p.currentSprites) == 0 {
		p.FrameBuffer[index] = bgColor
		return
	}

	spriteColor, spritePriority, sprite0Hit := p.renderSpritePixel(x, y, p.currentSprites)

	finalColor := bgColor
	if spriteColor&0xFF000000 != 0 {
		if spritePriority || !bgOpaque {
			finalColor = spriteColor
		}

		if sprite0Hit && p.PPUSTATUS&PPUSTATUSSprite0Hit == 0 {
			spriteEnabled := p.PPUMASK&PPUMASKSpriteShow != 0
			bgEnabled := p.PPUMASK&PPUMASKBGShow != 0
			leftClipped := x < 8 && (p.PPUMASK&(PPUMASKSpriteLeft|PPUMASKBGLeft)) != (PPUMASKSpriteLeft|PPUMASKBGLeft)

			// x=255 never triggers a hit: real hardware's sprite
			// evaluation can't latch a hit on the last dot of the line.
			if bgOpaque && spriteEnabled && bgEnabled && !leftClipped && x != 255 {
				p.PPUSTATUS |= PPUSTATUSSprite0Hit
			}
		}
	}

	p.FrameBuffer[index] = finalColor
}
