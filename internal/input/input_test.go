package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyboardEdgesResetEachFrame(t *testing.T) {
	var s State
	s.BeginFrame()
	s.Keyboard.Press(KeyR, Modifiers{Control: true})

	assert.True(t, s.Keyboard.Down(KeyR))
	assert.True(t, s.Keyboard.Pressed(KeyR))
	assert.True(t, s.RestartRequested())

	s.BeginFrame()
	assert.True(t, s.Keyboard.Down(KeyR), "held keys survive the frame boundary")
	assert.False(t, s.Keyboard.Pressed(KeyR))
	assert.False(t, s.RestartRequested())

	s.Keyboard.Release(KeyR, Modifiers{})
	assert.False(t, s.Keyboard.Down(KeyR))
	assert.True(t, s.Keyboard.Released(KeyR))

	assert.False(t, s.Keyboard.Pressed(Key(99)))
}

func TestRestartNeedsModifier(t *testing.T) {
	var s State
	s.Keyboard.Press(KeyR, Modifiers{})
	assert.False(t, s.RestartRequested())

	s.BeginFrame()
	s.Keyboard.Press(KeyEscape, Modifiers{})
	assert.True(t, s.QuitRequested())
}

func TestMousePressOrigin(t *testing.T) {
	var m Mouse
	m.MoveTo(10, 20)
	m.Press(ButtonLeft)
	m.MoveTo(30, 40)
	m.Scroll(0, -1)

	origin, ok := m.DownPosition()
	assert.True(t, ok)
	assert.Equal(t, Point{X: 10, Y: 20}, origin)
	assert.Equal(t, Point{X: 30, Y: 40}, m.Position())
	assert.True(t, m.Pressed(ButtonLeft))
	assert.Equal(t, Point{Y: -1}, m.ScrollDelta())

	m.BeginFrame()
	assert.False(t, m.Pressed(ButtonLeft))
	assert.True(t, m.Down(ButtonLeft))
	assert.Equal(t, Point{}, m.ScrollDelta())

	m.Release(ButtonLeft)
	_, ok = m.DownPosition()
	assert.False(t, ok)
	assert.True(t, m.Released(ButtonLeft))
}
