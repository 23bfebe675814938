// Command gones-ebiten is a second demonstration frontend for the core,
// driving the Console through the ebiten.Game interface instead of SDL2.
package main

import (
	"flag"
	"image"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/yoshiomiyamaegones/pkg/input"
	"github.com/yoshiomiyamaegones/pkg/logger"
	"github.com/yoshiomiyamaegones/pkg/nes"
)

const (
	screenWidth  = 256
	screenHeight = 240
	windowScale  = 3

	audioSampleRate = 44100
)

var romFile = flag.String("rom", "", "path to an iNES ROM file")

func main() {
	flag.Parse()

	if *romFile == "" {
		log.Fatal("usage: gones-ebiten -rom <file.nes>")
	}

	if err := logger.Initialize(logger.LogLevelInfo, ""); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	file, err := os.Open(*romFile)
	if err != nil {
		log.Fatalf("Failed to open ROM file: %v", err)
	}

	console := nes.New()
	if err := console.Load(file); err != nil {
		file.Close()
		log.Fatalf("Failed to load ROM: %v", err)
	}
	file.Close()
	console.PowerOn()

	game := &nesGame{console: console}

	audioContext := audio.NewContext(audioSampleRate)
	audioPlayer, err := audioContext.NewPlayer(&audioStream{console: console})
	if err != nil {
		logger.LogError("Failed to create audio player: %v", err)
	} else {
		audioPlayer.Play()
	}

	ebiten.SetWindowSize(screenWidth*windowScale, screenHeight*windowScale)
	ebiten.SetWindowTitle("GoNES")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}

// nesGame adapts a Console to the ebiten.Game interface: Update drives
// one frame of emulation per tick, Draw blits the resulting framebuffer.
type nesGame struct {
	console *nes.Console
	padMask uint8
	screen  *image.RGBA
}

// Layout returns the NES's fixed native resolution; ebiten scales the
// window to it rather than the other way around.
func (g *nesGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// Update runs one NES frame and samples the keyboard for controller 1.
// ebiten calls Update at a fixed 60Hz, close enough to the NES's own
// 60.0988Hz that no separate frame pacer is needed here.
func (g *nesGame) Update() error {
	g.pollInput()
	g.console.RunFrame()
	return nil
}

// Draw copies the Console's RGBA framebuffer onto the ebiten screen.
func (g *nesGame) Draw(screen *ebiten.Image) {
	if g.screen == nil {
		g.screen = image.NewRGBA(image.Rect(0, 0, screenWidth, screenHeight))
	}
	copy(g.screen.Pix, g.console.FrameRGBA())
	screen.WritePixels(g.screen.Pix)
}

func (g *nesGame) pollInput() {
	set := func(bit uint8, key ebiten.Key) {
		if ebiten.IsKeyPressed(key) {
			g.padMask |= bit
		} else {
			g.padMask &^= bit
		}
	}

	set(input.ButtonMaskA, ebiten.KeyZ)
	set(input.ButtonMaskB, ebiten.KeyX)
	set(input.ButtonMaskSelect, ebiten.KeyA)
	set(input.ButtonMaskStart, ebiten.KeyS)
	set(input.ButtonMaskUp, ebiten.KeyUp)
	set(input.ButtonMaskDown, ebiten.KeyDown)
	set(input.ButtonMaskLeft, ebiten.KeyLeft)
	set(input.ButtonMaskRight, ebiten.KeyRight)

	g.console.SetButtons(0, g.padMask)
}

// audioStream adapts the Console's float32 mono APU output to the
// stereo 16-bit PCM stream ebiten's audio package expects, draining
// whatever the core has produced since the last Read.
type audioStream struct {
	console *nes.Console
	pending []byte
}

func (s *audioStream) Read(p []byte) (int, error) {
	for len(s.pending) < len(p) {
		samples := s.console.DrainAudio()
		if len(samples) == 0 {
			break
		}
		for _, sample := range samples {
			if sample > 1.0 {
				sample = 1.0
			} else if sample < -1.0 {
				sample = -1.0
			}
			v := int16(sample * 32767)
			frame := []byte{byte(v), byte(v >> 8), byte(v), byte(v >> 8)} // L, R
			s.pending = append(s.pending, frame...)
		}
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	if n == 0 {
		// No samples ready yet; hand back silence rather than blocking.
		n = copy(p, make([]byte, len(p)))
	}
	return n, nil
}
