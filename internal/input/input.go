// Package input latches keyboard and mouse state once per frame. The window
// shell feeds events in; the session queries the latched state.
package input

// Key identifies a keyboard key. Only the keys the game reacts to exist.
type Key int

const (
	KeyEscape Key = iota
	KeyR
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeySpace
	keyCount
)

// Modifiers is the modifier state at the last key event.
type Modifiers struct {
	Shift   bool
	Control bool
	Alt     bool
	Logo    bool
}

// Keyboard tracks held keys plus the keys that changed this frame.
type Keyboard struct {
	Modifiers Modifiers
	down      [keyCount]bool
	pressed   [keyCount]bool
	released  [keyCount]bool
}

// BeginFrame clears the per-frame edges. Held keys stay down.
func (k *Keyboard) BeginFrame() {
	k.pressed = [keyCount]bool{}
	k.released = [keyCount]bool{}
}

func (k *Keyboard) Press(key Key, mods Modifiers) {
	if !valid(key) {
		return
	}
	k.down[key] = true
	k.pressed[key] = true
	k.Modifiers = mods
}

func (k *Keyboard) Release(key Key, mods Modifiers) {
	if !valid(key) {
		return
	}
	k.down[key] = false
	k.released[key] = true
	k.Modifiers = mods
}

func (k *Keyboard) Down(key Key) bool     { return valid(key) && k.down[key] }
func (k *Keyboard) Pressed(key Key) bool  { return valid(key) && k.pressed[key] }
func (k *Keyboard) Released(key Key) bool { return valid(key) && k.released[key] }

func valid(key Key) bool {
	return key >= 0 && key < keyCount
}

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
	buttonCount = 8
)

// Point is a position in window pixels.
type Point struct {
	X, Y float64
}

// Mouse tracks the cursor, held buttons and this frame's edges.
type Mouse struct {
	position     Point
	downPosition *Point
	down         [buttonCount]bool
	pressed      [buttonCount]bool
	released     [buttonCount]bool
	scroll       Point
}

// BeginFrame clears the per-frame edges and the scroll delta.
func (m *Mouse) BeginFrame() {
	m.pressed = [buttonCount]bool{}
	m.released = [buttonCount]bool{}
	m.scroll = Point{}
}

func (m *Mouse) MoveTo(x, y float64) {
	m.position = Point{X: x, Y: y}
}

// Press records the press origin for drag handling.
func (m *Mouse) Press(b Button) {
	if b < 0 || b >= buttonCount {
		return
	}
	m.down[b] = true
	m.pressed[b] = true
	origin := m.position
	m.downPosition = &origin
}

func (m *Mouse) Release(b Button) {
	if b < 0 || b >= buttonCount {
		return
	}
	m.down[b] = false
	m.released[b] = true
	m.downPosition = nil
}

// Scroll accumulates wheel movement for this frame.
func (m *Mouse) Scroll(dx, dy float64) {
	m.scroll.X += dx
	m.scroll.Y += dy
}

func (m *Mouse) Position() Point { return m.position }

// DownPosition is where the held button went down, if any is held.
func (m *Mouse) DownPosition() (Point, bool) {
	if m.downPosition == nil {
		return Point{}, false
	}
	return *m.downPosition, true
}

func (m *Mouse) ScrollDelta() Point { return m.scroll }

func (m *Mouse) Down(b Button) bool {
	return b >= 0 && b < buttonCount && m.down[b]
}

func (m *Mouse) Pressed(b Button) bool {
	return b >= 0 && b < buttonCount && m.pressed[b]
}

func (m *Mouse) Released(b Button) bool {
	return b >= 0 && b < buttonCount && m.released[b]
}

// State bundles both devices.
type State struct {
	Keyboard Keyboard
	Mouse    Mouse
}

// BeginFrame resets both devices' per-frame edges.
func (s *State) BeginFrame() {
	s.Keyboard.BeginFrame()
	s.Mouse.BeginFrame()
}

// RestartRequested is Logo+R or Ctrl+R pressed this frame.
func (s *State) RestartRequested() bool {
	mods := s.Keyboard.Modifiers
	return s.Keyboard.Pressed(KeyR) && (mods.Logo || mods.Control)
}

// QuitRequested is Escape pressed this frame.
func (s *State) QuitRequested() bool {
	return s.Keyboard.Pressed(KeyEscape)
}
