package shell

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/purchess/purchess/internal/input"
)

var keys = map[ebiten.Key]input.Key{
	ebiten.KeyEscape:     input.KeyEscape,
	ebiten.KeyR:          input.KeyR,
	ebiten.KeyArrowLeft:  input.KeyLeft,
	ebiten.KeyArrowRight: input.KeyRight,
	ebiten.KeyArrowUp:    input.KeyUp,
	ebiten.KeyArrowDown:  input.KeyDown,
	ebiten.KeySpace:      input.KeySpace,
}

var buttons = map[ebiten.MouseButton]input.Button{
	ebiten.MouseButtonLeft:   input.ButtonLeft,
	ebiten.MouseButtonMiddle: input.ButtonMiddle,
	ebiten.MouseButtonRight:  input.ButtonRight,
}

// source is the slice of ebiten's input state the shell reads.
type source interface {
	KeyJustPressed(k ebiten.Key) bool
	KeyJustReleased(k ebiten.Key) bool
	KeyDown(k ebiten.Key) bool
	ButtonJustPressed(b ebiten.MouseButton) bool
	ButtonJustReleased(b ebiten.MouseButton) bool
	Cursor() (int, int)
	Wheel() (float64, float64)
}

type ebitenSource struct{}

func (ebitenSource) KeyJustPressed(k ebiten.Key) bool  { return inpututil.IsKeyJustPressed(k) }
func (ebitenSource) KeyJustReleased(k ebiten.Key) bool { return inpututil.IsKeyJustReleased(k) }
func (ebitenSource) KeyDown(k ebiten.Key) bool         { return ebiten.IsKeyPressed(k) }
func (ebitenSource) ButtonJustPressed(b ebiten.MouseButton) bool {
	return inpututil.IsMouseButtonJustPressed(b)
}
func (ebitenSource) ButtonJustReleased(b ebiten.MouseButton) bool {
	return inpututil.IsMouseButtonJustReleased(b)
}
func (ebitenSource) Cursor() (int, int)        { return ebiten.CursorPosition() }
func (ebitenSource) Wheel() (float64, float64) { return ebiten.Wheel() }

func modifiers(src source) input.Modifiers {
	return input.Modifiers{
		Shift:   src.KeyDown(ebiten.KeyShift),
		Control: src.KeyDown(ebiten.KeyControl),
		Alt:     src.KeyDown(ebiten.KeyAlt),
		Logo:    src.KeyDown(ebiten.KeyMeta),
	}
}

// poll copies this tick's edges into in. The cursor moves before buttons
// change so presses record the right origin.
func poll(in *input.State, src source) {
	mods := modifiers(src)
	for ek, k := range keys {
		if src.KeyJustPressed(ek) {
			in.Keyboard.Press(k, mods)
		}
		if src.KeyJustReleased(ek) {
			in.Keyboard.Release(k, mods)
		}
	}
	in.Keyboard.Modifiers = mods

	x, y := src.Cursor()
	in.Mouse.MoveTo(float64(x), float64(y))
	for eb, b := range buttons {
		if src.ButtonJustPressed(eb) {
			in.Mouse.Press(b)
		}
		if src.ButtonJustReleased(eb) {
			in.Mouse.Release(b)
		}
	}
	if dx, dy := src.Wheel(); dx != 0 || dy != 0 {
		in.Mouse.Scroll(dx, dy)
	}
}
