package seatinput

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go.chromium.org/sommelier/internal/wire"
)

type recordingWriter struct {
	sent []sentEvent
}

type sentEvent struct {
	sender uint32
	opcode uint16
	args   *wire.ArgWriter
}

func (w *recordingWriter) SendEvent(sender uint32, opcode uint16, args *wire.ArgWriter) error {
	w.sent = append(w.sent, sentEvent{sender, opcode, args})
	return nil
}

// Property (spec.md §4.5): an X11-focused pointer's discrete scroll below
// the floor is bumped to ±5, sign preserved; a non-X11 focus passes
// through unchanged.
func TestFrameBumpsX11DiscreteScroll(t *testing.T) {
	p := NewPointer(&recordingWriter{})
	p.focusIsX11 = true
	p.Axis(false, -0.4, -2)
	_, v := p.Frame()
	require.Equal(t, int32(-5), v)

	p2 := NewPointer(&recordingWriter{})
	p2.focusIsX11 = false
	p2.Axis(false, -0.4, -2)
	_, v2 := p2.Frame()
	require.Equal(t, int32(-2), v2)
}

func TestFrameLeavesDiscreteScrollAboveFloorUnchanged(t *testing.T) {
	p := NewPointer(&recordingWriter{})
	p.focusIsX11 = true
	p.Axis(false, 1, 12)
	_, v := p.Frame()
	require.Equal(t, int32(12), v)
}

func TestRelativeMotionMagnifiesSubPixelForX11(t *testing.T) {
	p := NewPointer(&recordingWriter{})
	p.focusIsX11 = true
	x, y := p.RelativeMotion(wire.Fixed(0x00000080), wire.Fixed(-0x80)) // 0.5, -0.5 in 24.8 fixed
	require.Equal(t, int32(1), x)
	require.Equal(t, int32(-1), y)
}

func TestRelativeMotionPassesThroughForNonX11(t *testing.T) {
	p := NewPointer(&recordingWriter{})
	p.focusIsX11 = false
	x, y := p.RelativeMotion(wire.Fixed(0x00000080), wire.Fixed(-0x80))
	require.Equal(t, int32(0), x)
	require.Equal(t, int32(0), y)
}

func TestKeyboardDedupsHeldPress(t *testing.T) {
	k := NewKeyboard(nil, false)
	require.Equal(t, Forward, k.Key(30, 0x61, true))
	require.Equal(t, Ignore, k.Key(30, 0x61, true))
	require.Equal(t, Forward, k.Key(30, 0x61, false))
}

func TestKeyboardIgnoresUnmatchedRelease(t *testing.T) {
	k := NewKeyboard(nil, false)
	require.Equal(t, Ignore, k.Key(30, 0x61, false))
}

func TestKeyboardSwallowsMatchingAccelerator(t *testing.T) {
	k := NewKeyboard([]Accelerator{{Modifiers: 0x4, Keysym: 0x74}}, false)
	k.SetModifierMask(0x4)
	require.Equal(t, Swallow, k.Key(20, 0x74, true))
}

func TestKeyboardSwallowsWithAckWhenExtendedNegotiated(t *testing.T) {
	k := NewKeyboard([]Accelerator{{Modifiers: 0x4, Keysym: 0x74}}, true)
	k.SetModifierMask(0x4)
	require.Equal(t, SwallowAckNotHandled, k.Key(20, 0x74, true))
}

func TestTouchFrameFlagsStylusFingersAndResets(t *testing.T) {
	touch := NewTouch()
	touch.Down(1, 10, 10, false)
	touch.Down(2, 20, 20, true)
	touch.Motion(2, 21, 21)
	touch.Up(1)

	results := touch.Frame()
	require.Len(t, results, 2)

	byID := map[int32]FrameResult{}
	for _, r := range results {
		byID[r.ID] = r
	}
	require.False(t, byID[1].IsStylus)
	require.Len(t, byID[1].Events, 2) // down, up
	require.True(t, byID[2].IsStylus)
	require.Len(t, byID[2].Events, 2) // down, motion

	// Frame clears all recorders.
	require.Empty(t, touch.Frame())
}

func TestTouchCancelDropsFingerWithoutReplay(t *testing.T) {
	touch := NewTouch()
	touch.Down(1, 0, 0, false)
	touch.Cancel(1)
	require.Empty(t, touch.Frame())
}

func TestTouchRecorderBoundsRingSize(t *testing.T) {
	touch := NewTouch()
	touch.Down(1, 0, 0, false)
	for i := 0; i < touchRingCapacity+10; i++ {
		touch.Motion(1, float64(i), float64(i))
	}
	results := touch.Frame()
	require.Len(t, results, 1)
	require.LessOrEqual(t, len(results[0].Events), touchRingCapacity)
}
