// Package runahead implements input-latency reduction by running hidden
// future frames on a saved/restored or persistent trailing copy of the
// Console, so the frame the player sees already reflects input that
// hasn't "really" happened yet.
package runahead

import "fmt"

// Rollbackable is the narrow surface the run-ahead engine needs from a
// console: a save/restore pair cheap enough to call every displayed
// frame, frame advance, and output draining. *nes.Console satisfies
// this directly.
type Rollbackable interface {
	SaveState() ([]byte, error)
	LoadState(data []byte) error
	RunFrame()
	Frame() []uint32
	DrainAudio() []float32
}

// Engine drives a single Rollbackable console through save/replay/
// restore to produce a displayed frame that is k frames ahead of what
// a straight single-instance emulation would show.
type Engine struct {
	K int // run-ahead depth, 0..4

	secondary Rollbackable
	history   [][]byte // primary states from the last K frames, oldest first
}

// New creates an Engine with run-ahead depth k. k is clamped to 0..4
// per the supported range; 0 disables run-ahead (Tick behaves like a
// plain RunFrame).
func New(k int) *Engine {
	if k < 0 {
		k = 0
	}
	if k > 4 {
		k = 4
	}
	return &Engine{K: k}
}

// Tick advances primary by K hidden frames plus one real frame,
// restoring primary's state in between so the hidden frames leave no
// trace: the returned framebuffer is the K-th hidden frame (what the
// player should see "now"), while primary itself ends the call exactly
// one real frame further along, with its audio output intact.
//
// Per spec: save state S, advance K frames discarding video (the Kth
// becomes the displayed frame), restore to S, advance exactly 1 real
// frame discarding its video but keeping its audio, then present the
// frame captured in step 2.
func (e *Engine) Tick(primary Rollbackable) ([]uint32, []float32, error) {
	if e.K == 0 {
		primary.RunFrame()
		frame := append([]uint32(nil), primary.Frame()...)
		return frame, primary.DrainAudio(), nil
	}

	snapshot, err := primary.SaveState()
	if err != nil {
		return nil, nil, fmt.Errorf("runahead: save primary: %w", err)
	}

	var displayed []uint32
	for i := 0; i < e.K; i++ {
		primary.RunFrame()
		if i == e.K-1 {
			displayed = append([]uint32(nil), primary.Frame()...)
		}
	}
	// Hidden frames' audio is discarded along with their video; only
	// the real frame below contributes to the audio stream.
	primary.DrainAudio()

	if err := primary.LoadState(snapshot); err != nil {
		return nil, nil, fmt.Errorf("runahead: restore primary: %w", err)
	}

	primary.RunFrame()
	audio := primary.DrainAudio()

	return displayed, audio, nil
}

// TickTwoInstance advances both primary and a persistent secondary
// console that trails primary by K frames: primary supplies video (the
// secondary is never displayed), the secondary supplies audio (trailing
// audio avoids the pops a save/restore/replay cycle would otherwise
// introduce on every frame). The secondary is created and seeded lazily
// on first use, then kept K frames behind by replaying primary's own
// state history rather than re-deriving it from buffered input.
func (e *Engine) TickTwoInstance(primary Rollbackable, newSecondary func() (Rollbackable, error)) ([]uint32, []float32, error) {
	if e.secondary == nil {
		secondary, err := newSecondary()
		if err != nil {
			return nil, nil, fmt.Errorf("runahead: create secondary: %w", err)
		}
		e.secondary = secondary
	}

	preTick, err := primary.SaveState()
	if err != nil {
		return nil, nil, fmt.Errorf("runahead: snapshot primary: %w", err)
	}
	primary.RunFrame()
	primary.DrainAudio()

	e.history = append(e.history, preTick)
	if len(e.history) <= e.K {
		// Not enough history yet to trail by a full K frames: the
		// secondary just silently sits idle until it is.
		return append([]uint32(nil), primary.Frame()...), nil, nil
	}

	trailing := e.history[0]
	e.history = e.history[1:]

	if err := e.secondary.LoadState(trailing); err != nil {
		return nil, nil, fmt.Errorf("runahead: advance trailing secondary: %w", err)
	}
	e.secondary.RunFrame()
	audio := e.secondary.DrainAudio()

	return append([]uint32(nil), primary.Frame()...), audio, nil
}
