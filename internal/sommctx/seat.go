package sommctx

import (
	"go.chromium.org/sommelier/internal/hostproto"
	"go.chromium.org/sommelier/internal/logger"
	"go.chromium.org/sommelier/internal/proxyfab"
	"go.chromium.org/sommelier/internal/scale"
	"go.chromium.org/sommelier/internal/seatinput"
	"go.chromium.org/sommelier/internal/wire"
)

// supportedSeatVersion caps wl_seat at version 5, which includes release
// and wl_pointer.frame. get_touch is not handled (spec.md's touch handling
// lives entirely in the stylus-as-tablet path, not passthrough touch).
const supportedSeatVersion uint32 = 5

// wl_seat request/event opcodes.
const (
	opSeatGetPointer  uint16 = 0
	opSeatGetKeyboard uint16 = 1
	opSeatRelease     uint16 = 3

	opSeatEventCapabilities uint16 = 0
	opSeatEventName         uint16 = 1
)

// wl_pointer request/event opcodes.
const (
	opPointerSetCursor uint16 = 0
	opPointerRelease   uint16 = 1

	opPointerEventEnter  uint16 = 0
	opPointerEventLeave  uint16 = 1
	opPointerEventMotion uint16 = 2
	opPointerEventButton uint16 = 3
	opPointerEventAxis   uint16 = 4
	opPointerEventFrame  uint16 = 5
)

// wl_keyboard request/event opcodes.
const (
	opKeyboardRelease uint16 = 0

	opKeyboardEventKeymap    uint16 = 0
	opKeyboardEventEnter     uint16 = 1
	opKeyboardEventLeave     uint16 = 2
	opKeyboardEventKey       uint16 = 3
	opKeyboardEventModifiers uint16 = 4
)

// wl_pointer.axis axis source values this proxy forwards verbatim.
const (
	pointerAxisVerticalScroll   uint32 = 0
	pointerAxisHorizontalScroll uint32 = 1
)

// addSeatGlobal binds the host wl_seat and its pointer/keyboard devices
// immediately (spec.md §4.5), one seatPlexer shared by every guest bind of
// the resulting wl_seat global.
func (c *Context) addSeatGlobal(hostName, version uint32) {
	if version > supportedSeatVersion {
		version = supportedSeatVersion
	}
	hostSeat := hostproto.NewSeat(c.HostConn)
	if err := c.HostRegistry.Bind(hostName, "wl_seat", version, hostSeat); err != nil {
		logger.Log.Error("bind host wl_seat", "err", err)
		return
	}
	hostPointer, err := hostSeat.GetPointer()
	if err != nil {
		logger.Log.Error("host get_pointer", "err", err)
		return
	}
	hostKeyboard, err := hostSeat.GetKeyboard()
	if err != nil {
		logger.Log.Error("host get_keyboard", "err", err)
		return
	}

	plexer := newSeatPlexer(c, hostSeat, hostPointer, hostKeyboard)

	guestName := c.Globals.Add(&proxyfab.Global{
		Interface: "wl_seat",
		Version:   version,
		// Auxiliary clients (every connection on the socket besides the
		// main one) still need wl_seat, per spec.md §4.1's filter list.
		AuxiliaryVisible: true,
		Bind: func(_ uint32, serverID uint32, guest proxyfab.GuestTable) error {
			sr := &seatResource{id: serverID, guest: guest, plexer: plexer, version: version}
			guest.Insert(sr)
			sr.announceCapabilities()
			return nil
		},
	})
	c.trackHostName(hostName, guestName)
}

// seatPlexer owns the one host wl_pointer/wl_keyboard binding this process
// shares process-wide, fanning host events out to whichever guest
// pointer/keyboard resource bound most recently — the same
// single-active-subscriber scoping each guest wl_output bind has
// (NewOutputAdaptor re-registers the host output's handlers). Enter goes
// through internal/seatinput.Pointer for the host->guest coordinate
// translation, and motion through scale.HostToGuestFixed. Axis events
// reach the guest with the host's own value: seatinput is given no
// discrete count and Frame's result is not used, so the X11
// discrete-scroll bump is not applied.
type seatPlexer struct {
	ctx          *Context
	hostSeat     *hostproto.Seat
	hostPointer  *hostproto.Pointer
	hostKeyboard *hostproto.Keyboard

	translate *seatinput.Pointer

	activePointer  *pointerResource
	activeKeyboard *keyboardResource

	focusScale *scale.Surface
}

func newSeatPlexer(ctx *Context, hostSeat *hostproto.Seat, hostPointer *hostproto.Pointer, hostKeyboard *hostproto.Keyboard) *seatPlexer {
	p := &seatPlexer{ctx: ctx, hostSeat: hostSeat, hostPointer: hostPointer, hostKeyboard: hostKeyboard}
	p.translate = seatinput.NewPointer(p)

	hostPointer.SetEnterHandler(func(serial, hostSurfaceName uint32, x, y wire.Fixed) {
		pr := p.activePointer
		if pr == nil {
			return
		}
		sa, ok := ctx.Surfaces.Lookup(hostSurfaceName)
		if !ok {
			return
		}
		p.focusScale = sa.Logic.SurfaceScale
		focus := seatinput.FocusSurface{IsX11Client: sa.IsX11}
		p.translate.Enter(ctx.Scale, p.focusScale, serial, pr.id, sa.ObjectID(), focus, &sa.Pair.Alive, x, y)
	})
	hostPointer.SetLeaveHandler(func(serial, hostSurfaceName uint32) {
		pr := p.activePointer
		if pr == nil {
			return
		}
		guestSurfaceID := hostSurfaceName
		if sa, ok := ctx.Surfaces.Lookup(hostSurfaceName); ok {
			guestSurfaceID = sa.ObjectID()
		}
		ev := wire.NewArgWriter()
		ev.PutUint32(serial)
		ev.PutUint32(guestSurfaceID)
		pr.guest.SendEvent(pr.id, opPointerEventLeave, ev)
	})
	hostPointer.SetMotionHandler(func(time uint32, x, y wire.Fixed) {
		pr := p.activePointer
		if pr == nil {
			return
		}
		vx, vy := scale.HostToGuestFixed(ctx.Scale, p.focusScale, x, y)
		ev := wire.NewArgWriter()
		ev.PutUint32(time)
		ev.PutFixed(vx)
		ev.PutFixed(vy)
		pr.guest.SendEvent(pr.id, opPointerEventMotion, ev)
	})
	hostPointer.SetButtonHandler(func(serial, time, button, state uint32) {
		pr := p.activePointer
		if pr == nil {
			return
		}
		ev := wire.NewArgWriter()
		ev.PutUint32(serial)
		ev.PutUint32(time)
		ev.PutUint32(button)
		ev.PutUint32(state)
		pr.guest.SendEvent(pr.id, opPointerEventButton, ev)
	})
	hostPointer.SetAxisHandler(func(time, axis uint32, value wire.Fixed) {
		pr := p.activePointer
		if pr == nil {
			return
		}
		// hostproto.Pointer never parses wl_pointer.frame/axis_discrete
		// (the host proxy doesn't implement those opcodes yet), so every
		// axis event is its own frame here: accumulate, flush, forward.
		p.translate.Axis(axis == pointerAxisHorizontalScroll, value.ToFloat64(), 0)
		p.translate.Frame()

		ev := wire.NewArgWriter()
		ev.PutUint32(time)
		ev.PutUint32(axis)
		ev.PutFixed(value)
		pr.guest.SendEvent(pr.id, opPointerEventAxis, ev)
		if pr.version >= 5 {
			pr.guest.SendEvent(pr.id, opPointerEventFrame, wire.NewArgWriter())
		}
	})

	hostKeyboard.SetKeymapHandler(func(format, fd, size uint32) {
		kr := p.activeKeyboard
		if kr == nil {
			return
		}
		ev := wire.NewArgWriter()
		ev.PutUint32(format)
		ev.PutFD(int(fd))
		ev.PutUint32(size)
		kr.guest.SendEvent(kr.id, opKeyboardEventKeymap, ev)
	})
	hostKeyboard.SetEnterHandler(func(serial, hostSurfaceName uint32, keys []byte) {
		kr := p.activeKeyboard
		if kr == nil {
			return
		}
		guestSurfaceID := hostSurfaceName
		if sa, ok := ctx.Surfaces.Lookup(hostSurfaceName); ok {
			guestSurfaceID = sa.ObjectID()
		}
		ev := wire.NewArgWriter()
		ev.PutUint32(serial)
		ev.PutUint32(guestSurfaceID)
		ev.PutArray(keys)
		kr.guest.SendEvent(kr.id, opKeyboardEventEnter, ev)
	})
	hostKeyboard.SetLeaveHandler(func(serial, hostSurfaceName uint32) {
		kr := p.activeKeyboard
		if kr == nil {
			return
		}
		guestSurfaceID := hostSurfaceName
		if sa, ok := ctx.Surfaces.Lookup(hostSurfaceName); ok {
			guestSurfaceID = sa.ObjectID()
		}
		ev := wire.NewArgWriter()
		ev.PutUint32(serial)
		ev.PutUint32(guestSurfaceID)
		kr.guest.SendEvent(kr.id, opKeyboardEventLeave, ev)
	})
	hostKeyboard.SetKeyHandler(func(serial, time, key, state uint32) {
		kr := p.activeKeyboard
		if kr == nil {
			return
		}
		ev := wire.NewArgWriter()
		ev.PutUint32(serial)
		ev.PutUint32(time)
		ev.PutUint32(key)
		ev.PutUint32(state)
		kr.guest.SendEvent(kr.id, opKeyboardEventKey, ev)
	})
	hostKeyboard.SetModifiersHandler(func(serial, depressed, latched, locked, group uint32) {
		kr := p.activeKeyboard
		if kr == nil {
			return
		}
		ev := wire.NewArgWriter()
		ev.PutUint32(serial)
		ev.PutUint32(depressed)
		ev.PutUint32(latched)
		ev.PutUint32(locked)
		ev.PutUint32(group)
		kr.guest.SendEvent(kr.id, opKeyboardEventModifiers, ev)
	})
	return p
}

// SendEvent satisfies proxyfab.EventWriter so internal/seatinput.Pointer
// can write translated events without knowing this is a plexer shared by
// more than one potential guest pointer resource.
func (p *seatPlexer) SendEvent(sender uint32, opcode uint16, args *wire.ArgWriter) error {
	if p.activePointer == nil {
		return nil
	}
	return p.activePointer.guest.SendEvent(sender, opcode, args)
}

// seatResource is the guest-facing wl_seat instance created by each bind
// of the wl_seat global.
type seatResource struct {
	id      uint32
	guest   proxyfab.GuestTable
	plexer  *seatPlexer
	version uint32
}

func (s *seatResource) ObjectID() uint32  { return s.id }
func (s *seatResource) Interface() string { return "wl_seat" }

// HostSeat satisfies internal/proxyfab's hostSeatProvider interface, so a
// guest wl_data_device_manager.get_data_device request can resolve its
// wl_seat argument to the one host wl_seat binding this process shares.
func (s *seatResource) HostSeat() wire.Object { return s.plexer.hostSeat }

func (s *seatResource) announceCapabilities() {
	ev := wire.NewArgWriter()
	ev.PutUint32(hostproto.SeatCapabilityPointer | hostproto.SeatCapabilityKeyboard)
	s.guest.SendEvent(s.id, opSeatEventCapabilities, ev)
	if s.version >= 2 {
		nameEv := wire.NewArgWriter()
		nameEv.PutString("default")
		s.guest.SendEvent(s.id, opSeatEventName, nameEv)
	}
}

func (s *seatResource) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opSeatGetPointer:
		id, err := args.Uint32()
		if err != nil {
			return err
		}
		pr := &pointerResource{id: id, guest: s.guest, version: s.version, plexer: s.plexer}
		s.plexer.activePointer = pr
		s.guest.Insert(pr)
	case opSeatGetKeyboard:
		id, err := args.Uint32()
		if err != nil {
			return err
		}
		kr := &keyboardResource{id: id, guest: s.guest, version: s.version}
		s.plexer.activeKeyboard = kr
		s.guest.Insert(kr)
	case opSeatRelease:
		s.guest.Remove(s.id)
	}
	return nil
}

// pointerResource is the guest-facing wl_pointer instance. sommelier never
// lets a guest client draw its own cursor surface (spec.md §4.5 non-goal):
// set_cursor is accepted but not forwarded, leaving cursor rendering to
// the host compositor.
type pointerResource struct {
	id      uint32
	guest   proxyfab.GuestTable
	version uint32
	plexer  *seatPlexer
}

func (p *pointerResource) ObjectID() uint32  { return p.id }
func (p *pointerResource) Interface() string { return "wl_pointer" }

// HostPointer satisfies internal/proxyfab's hostPointerProvider interface,
// letting a guest zwp_pointer_constraints_v1/zwp_relative_pointer_manager_v1
// request resolve this resource to the one host wl_pointer binding the
// Seat/Input Router shares process-wide.
func (p *pointerResource) HostPointer() wire.Object { return p.plexer.hostPointer }

func (p *pointerResource) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opPointerSetCursor:
		return nil
	case opPointerRelease:
		p.guest.Remove(p.id)
	}
	return nil
}

// keyboardResource is the guest-facing wl_keyboard instance.
type keyboardResource struct {
	id      uint32
	guest   proxyfab.GuestTable
	version uint32
}

func (k *keyboardResource) ObjectID() uint32  { return k.id }
func (k *keyboardResource) Interface() string { return "wl_keyboard" }

func (k *keyboardResource) Dispatch(opcode uint16, args *wire.ArgReader) error {
	if opcode == opKeyboardRelease {
		k.guest.Remove(k.id)
	}
	return nil
}
