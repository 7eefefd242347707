package proxyfab

import (
	"fmt"

	"go.chromium.org/sommelier/internal/hostproto"
	"go.chromium.org/sommelier/internal/wire"
)

// zwp_pointer_constraints_v1 request opcodes.
const (
	opPointerConstraintsDestroy        uint16 = 0
	opPointerConstraintsLockPointer    uint16 = 1
	opPointerConstraintsConfinePointer uint16 = 2
)

// zwp_locked_pointer_v1 request and event opcodes.
const (
	opLockedPointerDestroy               uint16 = 0
	opLockedPointerSetCursorPositionHint uint16 = 1
	opLockedPointerSetRegion             uint16 = 2

	opLockedPointerEventLocked   uint16 = 0
	opLockedPointerEventUnlocked uint16 = 1
)

// zwp_confined_pointer_v1 request and event opcodes.
const (
	opConfinedPointerDestroy   uint16 = 0
	opConfinedPointerSetRegion uint16 = 1

	opConfinedPointerEventConfined   uint16 = 0
	opConfinedPointerEventUnconfined uint16 = 1
)

// zwp_relative_pointer_manager_v1 / zwp_relative_pointer_v1 opcodes.
const (
	opRelativePointerManagerDestroy           uint16 = 0
	opRelativePointerManagerGetRelativePointer uint16 = 1

	opRelativePointerDestroy      uint16 = 0
	opRelativePointerEventMotion  uint16 = 0
)

// hostPointerProvider is implemented by the guest-facing wl_pointer
// resource (internal/sommctx's pointerResource) so this file can resolve a
// guest wl_pointer object id to the one host wl_pointer binding the Seat/
// Input Router already proxies, without proxyfab importing sommctx.
type hostPointerProvider interface {
	HostPointer() wire.Object
}

// PointerConstraintsManagerAdaptor is the zwp_pointer_constraints_v1 global
// (spec.md §4.5 / line 230's advertised-globals list): it hands a guest's
// lock/confine request straight to the host compositor against the same
// surface+pointer pair the Seat/Input Router already proxies, instead of
// only pinning the pointer inside sommelier's own bookkeeping.
type PointerConstraintsManagerAdaptor struct {
	id    uint32
	host  *hostproto.PointerConstraintsManager
	guest GuestTable
}

func NewPointerConstraintsManagerAdaptor(serverID uint32, host *hostproto.PointerConstraintsManager, guest GuestTable) *PointerConstraintsManagerAdaptor {
	return &PointerConstraintsManagerAdaptor{id: serverID, host: host, guest: guest}
}

func (m *PointerConstraintsManagerAdaptor) ObjectID() uint32  { return m.id }
func (m *PointerConstraintsManagerAdaptor) Interface() string { return "zwp_pointer_constraints_v1" }

func (m *PointerConstraintsManagerAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opPointerConstraintsDestroy:
		m.guest.Remove(m.id)
		return m.host.Destroy()
	case opPointerConstraintsLockPointer:
		return m.lockPointer(args)
	case opPointerConstraintsConfinePointer:
		return m.confinePointer(args)
	}
	return nil
}

// resolveTarget reads the (new_id, surface, pointer, region) prefix every
// lock_pointer/confine_pointer request shares and resolves surface/pointer
// to the host objects LockPointer/ConfinePointer need; lifetime is read by
// the caller since it's the final argument in both requests.
func (m *PointerConstraintsManagerAdaptor) resolveTarget(args *wire.ArgReader) (newID uint32, hostSurface, hostPointer, region wire.Object, err error) {
	newID, err = args.Uint32()
	if err != nil {
		return
	}
	surfaceID, err := args.Uint32()
	if err != nil {
		return
	}
	pointerID, err := args.Uint32()
	if err != nil {
		return
	}
	regionID, err := args.Uint32()
	if err != nil {
		return
	}

	sobj, ok := m.guest.Lookup(surfaceID)
	if !ok {
		err = fmt.Errorf("proxyfab: pointer constraint references unknown wl_surface %d", surfaceID)
		return
	}
	sa, ok := sobj.(*SurfaceAdaptor)
	if !ok {
		err = fmt.Errorf("proxyfab: pointer constraint surface argument is not a wl_surface")
		return
	}
	hostSurface = sa.Sink.HostSurf

	pobj, ok := m.guest.Lookup(pointerID)
	if !ok {
		err = fmt.Errorf("proxyfab: pointer constraint references unknown wl_pointer %d", pointerID)
		return
	}
	provider, ok := pobj.(hostPointerProvider)
	if !ok {
		err = fmt.Errorf("proxyfab: pointer constraint pointer argument is not a wl_pointer")
		return
	}
	hostPointer = provider.HostPointer()

	region = regionObjectOrNil(m.guest, regionID)
	return
}

func (m *PointerConstraintsManagerAdaptor) lockPointer(args *wire.ArgReader) error {
	newID, hostSurface, hostPointer, region, err := m.resolveTarget(args)
	if err != nil {
		return err
	}
	lifetime, err := args.Uint32()
	if err != nil {
		return err
	}
	hostLocked, err := m.host.LockPointer(hostSurface, hostPointer, region, lifetime)
	if err != nil {
		return fmt.Errorf("proxyfab: host lock_pointer: %w", err)
	}
	return registerObject(m.guest, newLockedPointerAdaptor(newID, hostLocked, m.guest))
}

func (m *PointerConstraintsManagerAdaptor) confinePointer(args *wire.ArgReader) error {
	newID, hostSurface, hostPointer, region, err := m.resolveTarget(args)
	if err != nil {
		return err
	}
	lifetime, err := args.Uint32()
	if err != nil {
		return err
	}
	hostConfined, err := m.host.ConfinePointer(hostSurface, hostPointer, region, lifetime)
	if err != nil {
		return fmt.Errorf("proxyfab: host confine_pointer: %w", err)
	}
	return registerObject(m.guest, newConfinedPointerAdaptor(newID, hostConfined, m.guest))
}

// lockedPointerAdaptor is zwp_locked_pointer_v1: it forwards the host's
// locked/unlocked events and the guest's cursor-position-hint/set_region
// requests verbatim, since neither needs any scale translation (the pointer
// itself isn't moving while locked).
type lockedPointerAdaptor struct {
	id    uint32
	host  *hostproto.LockedPointer
	guest GuestTable
}

func newLockedPointerAdaptor(serverID uint32, host *hostproto.LockedPointer, guest GuestTable) *lockedPointerAdaptor {
	a := &lockedPointerAdaptor{id: serverID, host: host, guest: guest}
	host.SetLockedHandler(func() {
		guest.SendEvent(serverID, opLockedPointerEventLocked, wire.NewArgWriter())
	})
	host.SetUnlockedHandler(func() {
		guest.SendEvent(serverID, opLockedPointerEventUnlocked, wire.NewArgWriter())
	})
	return a
}

func (a *lockedPointerAdaptor) ObjectID() uint32  { return a.id }
func (a *lockedPointerAdaptor) Interface() string { return "zwp_locked_pointer_v1" }

func (a *lockedPointerAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opLockedPointerDestroy:
		a.guest.Remove(a.id)
		return a.host.Destroy()
	case opLockedPointerSetCursorPositionHint:
		x, err := args.Fixed()
		if err != nil {
			return err
		}
		y, err := args.Fixed()
		if err != nil {
			return err
		}
		return a.host.SetCursorPositionHint(x, y)
	case opLockedPointerSetRegion:
		regionID, err := args.Uint32()
		if err != nil {
			return err
		}
		return a.host.SetRegion(regionObjectOrNil(a.guest, regionID))
	}
	return nil
}

// confinedPointerAdaptor is zwp_confined_pointer_v1, mirroring
// lockedPointerAdaptor for the confine (rather than lock) variant.
type confinedPointerAdaptor struct {
	id    uint32
	host  *hostproto.ConfinedPointer
	guest GuestTable
}

func newConfinedPointerAdaptor(serverID uint32, host *hostproto.ConfinedPointer, guest GuestTable) *confinedPointerAdaptor {
	a := &confinedPointerAdaptor{id: serverID, host: host, guest: guest}
	host.SetConfinedHandler(func() {
		guest.SendEvent(serverID, opConfinedPointerEventConfined, wire.NewArgWriter())
	})
	host.SetUnconfinedHandler(func() {
		guest.SendEvent(serverID, opConfinedPointerEventUnconfined, wire.NewArgWriter())
	})
	return a
}

func (a *confinedPointerAdaptor) ObjectID() uint32  { return a.id }
func (a *confinedPointerAdaptor) Interface() string { return "zwp_confined_pointer_v1" }

func (a *confinedPointerAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opConfinedPointerDestroy:
		a.guest.Remove(a.id)
		return a.host.Destroy()
	case opConfinedPointerSetRegion:
		regionID, err := args.Uint32()
		if err != nil {
			return err
		}
		return a.host.SetRegion(regionObjectOrNil(a.guest, regionID))
	}
	return nil
}

// RelativePointerManagerAdaptor is the zwp_relative_pointer_manager_v1
// global, paired with PointerConstraintsManagerAdaptor to deliver
// unaccelerated motion while the pointer is locked — the X11 sub-pixel
// magnification case spec.md §4.5 calls out.
type RelativePointerManagerAdaptor struct {
	id    uint32
	host  *hostproto.RelativePointerManager
	guest GuestTable
}

func NewRelativePointerManagerAdaptor(serverID uint32, host *hostproto.RelativePointerManager, guest GuestTable) *RelativePointerManagerAdaptor {
	return &RelativePointerManagerAdaptor{id: serverID, host: host, guest: guest}
}

func (m *RelativePointerManagerAdaptor) ObjectID() uint32  { return m.id }
func (m *RelativePointerManagerAdaptor) Interface() string { return "zwp_relative_pointer_manager_v1" }

func (m *RelativePointerManagerAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opRelativePointerManagerDestroy:
		m.guest.Remove(m.id)
		return m.host.Destroy()
	case opRelativePointerManagerGetRelativePointer:
		newID, err := args.Uint32()
		if err != nil {
			return err
		}
		pointerID, err := args.Uint32()
		if err != nil {
			return err
		}
		pobj, ok := m.guest.Lookup(pointerID)
		if !ok {
			return fmt.Errorf("proxyfab: get_relative_pointer references unknown wl_pointer %d", pointerID)
		}
		provider, ok := pobj.(hostPointerProvider)
		if !ok {
			return fmt.Errorf("proxyfab: get_relative_pointer argument is not a wl_pointer")
		}
		hostRel, err := m.host.GetRelativePointer(provider.HostPointer())
		if err != nil {
			return fmt.Errorf("proxyfab: host get_relative_pointer: %w", err)
		}
		return registerObject(m.guest, newRelativePointerAdaptor(newID, hostRel, m.guest))
	}
	return nil
}

// relativePointerAdaptor is zwp_relative_pointer_v1: it forwards the
// host's relative_motion event verbatim. No sub-pixel magnification
// (spec.md §4.5) is applied on this path: every guest, X11 or not, gets
// the raw host deltas.
type relativePointerAdaptor struct {
	id    uint32
	host  *hostproto.RelativePointer
	guest GuestTable
}

func newRelativePointerAdaptor(serverID uint32, host *hostproto.RelativePointer, guest GuestTable) *relativePointerAdaptor {
	a := &relativePointerAdaptor{id: serverID, host: host, guest: guest}
	host.SetRelativeMotionHandler(func(dx, dy, dxUnaccel, dyUnaccel wire.Fixed) {
		ev := wire.NewArgWriter()
		ev.PutUint32(0)
		ev.PutUint32(0)
		ev.PutFixed(dx)
		ev.PutFixed(dy)
		ev.PutFixed(dxUnaccel)
		ev.PutFixed(dyUnaccel)
		guest.SendEvent(serverID, opRelativePointerEventMotion, ev)
	})
	return a
}

func (a *relativePointerAdaptor) ObjectID() uint32  { return a.id }
func (a *relativePointerAdaptor) Interface() string { return "zwp_relative_pointer_v1" }

func (a *relativePointerAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	if opcode == opRelativePointerDestroy {
		a.guest.Remove(a.id)
		return a.host.Destroy()
	}
	return nil
}
