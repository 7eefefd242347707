// Package seatinput implements the Seat & Input Router (spec.md §4.5):
// pointer focus and axis accumulation, keyboard key tracking and
// accelerator interception, touch recording with stylus-as-tablet
// translation, relative-pointer sub-pixel magnification, and viewport-
// override pointer scaling.
//
// Grounded on internal/hostproto's pointer-constraints/relative-pointer
// bindings for the host side, and on sommelier-transform.h's
// sl_transform_pointer for the coordinate math (delegated to
// internal/scale).
package seatinput

import (
	"go.chromium.org/sommelier/internal/hostproto"
	"go.chromium.org/sommelier/internal/proxyfab"
	"go.chromium.org/sommelier/internal/scale"
	"go.chromium.org/sommelier/internal/wire"
)

// x11DiscreteScrollFloor is the minimum |discrete axis units| an X11
// client's scroll wheel handling reliably notices; smaller deltas are
// bumped up to this, per spec.md §4.5.
const x11DiscreteScrollFloor = 5

const opPointerEnter uint16 = 0

// Pointer tracks one host seat's pointer: the focused guest resource, its
// surface (held weakly, since the surface may be destroyed while still
// focused), and the running per-frame axis accumulators.
type Pointer struct {
	events proxyfab.EventWriter

	focusResourceID uint32
	focusSurface    proxyfab.WeakHandle[FocusSurface]
	focusIsX11      bool

	axisH, axisV         float64
	discreteH, discreteV int32
	viewportPointerScale float64 // 0 means unset/1:1

	lastX, lastY scale.Fixed
}

// FocusSurface is the minimal shape seatinput needs from whatever surface
// type internal/surface defines, kept local to avoid an import cycle.
type FocusSurface struct {
	proxyfab.Alive
	IsX11Client bool
}

func NewPointer(events proxyfab.EventWriter) *Pointer {
	return &Pointer{events: events, viewportPointerScale: 1}
}

// Enter translates a host pointer-enter's logical-space coordinates into
// virtual space before forwarding to the guest, per spec.md §4.5's
// "enter translates logical->virtual fixed-point", then forwards the
// translated enter event to the resource that now holds focus.
func (p *Pointer) Enter(c scale.Context, s *scale.Surface, serial uint32, resourceID, surfaceID uint32, surface FocusSurface, alive *proxyfab.Alive, logicalX, logicalY scale.Fixed) {
	p.focusResourceID = resourceID
	p.focusIsX11 = surface.IsX11Client
	p.focusSurface = proxyfab.NewWeakHandle(&surface, alive)

	vx, vy := scale.HostToGuestFixed(c, s, logicalX, logicalY)
	vx, vy = p.applyViewportScale(vx, vy)
	p.lastX, p.lastY = vx, vy

	args := wire.NewArgWriter()
	args.PutUint32(serial)
	args.PutUint32(surfaceID)
	args.PutFixed(vx)
	args.PutFixed(vy)
	p.events.SendEvent(resourceID, opPointerEnter, args)
}

func (p *Pointer) applyViewportScale(x, y scale.Fixed) (scale.Fixed, scale.Fixed) {
	if p.viewportPointerScale == 0 || p.viewportPointerScale == 1 {
		return x, y
	}
	return scale.Fixed(float64(x) * p.viewportPointerScale), scale.Fixed(float64(y) * p.viewportPointerScale)
}

// SetViewportPointerScale sets the factor cursor positions are multiplied
// by once a containerised window picks a viewport override (spec.md
// §4.6), so the cursor stays registered on the pixel the user sees.
// Nothing in this repository calls it, so the factor stays 1.
func (p *Pointer) SetViewportPointerScale(s float64) {
	if s <= 0 {
		s = 1
	}
	p.viewportPointerScale = s
}

// Axis accumulates one axis event for the current frame; the accumulated
// value is only turned into a discrete bump and flushed on Frame.
func (p *Pointer) Axis(horizontal bool, value float64, discrete int32) {
	if horizontal {
		p.axisH += value
		p.discreteH += discrete
	} else {
		p.axisV += value
		p.discreteV += discrete
	}
}

// Frame closes out the current axis accumulation. If the focused client
// is X11 and the accumulated discrete value is non-zero but below the
// floor X toolkits notice, it is bumped to the floor (sign-preserved),
// per spec.md §4.5.
func (p *Pointer) Frame() (discreteH, discreteV int32) {
	discreteH = bumpForX11(p.focusIsX11, p.discreteH)
	discreteV = bumpForX11(p.focusIsX11, p.discreteV)
	p.axisH, p.axisV = 0, 0
	p.discreteH, p.discreteV = 0, 0
	return discreteH, discreteV
}

func bumpForX11(isX11 bool, discrete int32) int32 {
	if !isX11 || discrete == 0 {
		return discrete
	}
	abs := discrete
	if abs < 0 {
		abs = -abs
	}
	if abs >= x11DiscreteScrollFloor {
		return discrete
	}
	if discrete > 0 {
		return x11DiscreteScrollFloor
	}
	return -x11DiscreteScrollFloor
}

// RelativeMotion magnifies sub-pixel deltas for X11 clients, per
// spec.md §4.5: "magnify sub-pixel deltas to ±1 to bypass integer-
// truncation in X toolkits."
func (p *Pointer) RelativeMotion(dx, dy wire.Fixed) (int32, int32) {
	fx, fy := dx.ToFloat64(), dy.ToFloat64()
	ix, iy := int32(fx), int32(fy)
	if !p.focusIsX11 {
		return ix, iy
	}
	if ix == 0 && fx != 0 {
		ix = sign32(fx)
	}
	if iy == 0 && fy != 0 {
		iy = sign32(fy)
	}
	return ix, iy
}

func sign32(f float64) int32 {
	if f < 0 {
		return -1
	}
	return 1
}

// Grab owns the lifetime of one pointer-lock + relative-pointer pair used
// while a guest surface holds exclusive pointer capture (a game capturing
// the mouse). Tearing it down releases both host objects.
type Grab struct {
	locked   *hostproto.LockedPointer
	relative *hostproto.RelativePointer
}

func StartGrab(pcm *hostproto.PointerConstraintsManager, rpm *hostproto.RelativePointerManager, surface, pointer wire.Object, onMotion func(dx, dy wire.Fixed)) (*Grab, error) {
	locked, err := pcm.LockPointer(surface, pointer, nil, hostproto.LifetimePersistent)
	if err != nil {
		return nil, err
	}
	relative, err := rpm.GetRelativePointer(pointer)
	if err != nil {
		_ = locked.Destroy()
		return nil, err
	}
	relative.SetRelativeMotionHandler(func(dx, dy, _, _ wire.Fixed) {
		onMotion(dx, dy)
	})
	return &Grab{locked: locked, relative: relative}, nil
}

func (g *Grab) Release() error {
	err1 := g.relative.Destroy()
	err2 := g.locked.Destroy()
	if err1 != nil {
		return err1
	}
	return err2
}
