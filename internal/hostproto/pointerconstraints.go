package hostproto

import "go.chromium.org/sommelier/internal/wire"

// Pointer-constraint lifetimes, per zwp_pointer_constraints_v1.
const (
	LifetimeOneshot    uint32 = 1
	LifetimePersistent uint32 = 2
)

// PointerConstraintsManager is the host proxy for
// zwp_pointer_constraints_v1, used by the Seat/Input Router (spec.md
// §4.5) to lock the host pointer while a guest surface has an active
// relative-pointer grab (e.g. a game capturing the mouse).
type PointerConstraintsManager struct {
	proxyBase
}

// NewPointerConstraintsManager allocates the local object id; the caller
// still owes registry.Bind(name, "zwp_pointer_constraints_v1", version, m).
func NewPointerConstraintsManager(conn *Conn) *PointerConstraintsManager {
	m := &PointerConstraintsManager{proxyBase: newProxyBase(conn, "zwp_pointer_constraints_v1")}
	m.register(m)
	return m
}

func (m *PointerConstraintsManager) LockPointer(surface, pointer wire.Object, region wire.Object, lifetime uint32) (*LockedPointer, error) {
	const opLockPointer = 1
	lp := &LockedPointer{proxyBase: newProxyBase(m.conn, "zwp_locked_pointer_v1")}
	w := wire.NewArgWriter()
	w.PutUint32(lp.id)
	w.PutUint32(surface.ObjectID())
	w.PutUint32(pointer.ObjectID())
	putNullable(w, region)
	w.PutUint32(lifetime)
	if err := m.request(opLockPointer, w); err != nil {
		return nil, err
	}
	lp.register(lp)
	return lp, nil
}

func (m *PointerConstraintsManager) ConfinePointer(surface, pointer wire.Object, region wire.Object, lifetime uint32) (*ConfinedPointer, error) {
	const opConfinePointer = 2
	cp := &ConfinedPointer{proxyBase: newProxyBase(m.conn, "zwp_confined_pointer_v1")}
	w := wire.NewArgWriter()
	w.PutUint32(cp.id)
	w.PutUint32(surface.ObjectID())
	w.PutUint32(pointer.ObjectID())
	putNullable(w, region)
	w.PutUint32(lifetime)
	if err := m.request(opConfinePointer, w); err != nil {
		return nil, err
	}
	cp.register(cp)
	return cp, nil
}

// putNullable writes a nullable object-id argument: 0 when obj is nil,
// matching libwayland's wire representation for an absent new_id/object.
func putNullable(w *wire.ArgWriter, obj wire.Object) {
	if obj == nil {
		w.PutUint32(0)
		return
	}
	w.PutUint32(obj.ObjectID())
}

func (m *PointerConstraintsManager) Destroy() error { return m.destroyRequest(0) }

// Release satisfies internal/proxyfab.HostProxy.
func (m *PointerConstraintsManager) Release(version uint32) error { return m.Destroy() }

func (m *PointerConstraintsManager) Dispatch(opcode uint16, args *wire.ArgReader) error { return nil }

// LockedPointer is zwp_locked_pointer_v1: the pointer stays put on the
// host while the guest receives synthetic relative motion via
// zwp_relative_pointer_v1.
type LockedPointer struct {
	proxyBase
	lockedHandler   func()
	unlockedHandler func()
}

func (lp *LockedPointer) SetLockedHandler(h func())   { lp.lockedHandler = h }
func (lp *LockedPointer) SetUnlockedHandler(h func()) { lp.unlockedHandler = h }

func (lp *LockedPointer) SetCursorPositionHint(x, y wire.Fixed) error {
	const opSetCursorPositionHint = 1
	w := wire.NewArgWriter()
	w.PutFixed(x)
	w.PutFixed(y)
	return lp.request(opSetCursorPositionHint, w)
}

func (lp *LockedPointer) SetRegion(region wire.Object) error {
	const opSetRegion = 2
	w := wire.NewArgWriter()
	putNullable(w, region)
	return lp.request(opSetRegion, w)
}

func (lp *LockedPointer) Destroy() error { return lp.destroyRequest(0) }

// Release satisfies internal/proxyfab.HostProxy.
func (lp *LockedPointer) Release(version uint32) error { return lp.Destroy() }

func (lp *LockedPointer) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0:
		if lp.lockedHandler != nil {
			lp.lockedHandler()
		}
	case 1:
		if lp.unlockedHandler != nil {
			lp.unlockedHandler()
		}
	}
	return nil
}

// ConfinedPointer is zwp_confined_pointer_v1: the pointer stays within a
// region but is not locked to a single point.
type ConfinedPointer struct {
	proxyBase
	confinedHandler   func()
	unconfinedHandler func()
}

func (cp *ConfinedPointer) SetConfinedHandler(h func())   { cp.confinedHandler = h }
func (cp *ConfinedPointer) SetUnconfinedHandler(h func()) { cp.unconfinedHandler = h }

func (cp *ConfinedPointer) SetRegion(region wire.Object) error {
	const opSetRegion = 1
	w := wire.NewArgWriter()
	putNullable(w, region)
	return cp.request(opSetRegion, w)
}

func (cp *ConfinedPointer) Destroy() error { return cp.destroyRequest(0) }

// Release satisfies internal/proxyfab.HostProxy.
func (cp *ConfinedPointer) Release(version uint32) error { return cp.Destroy() }

func (cp *ConfinedPointer) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0:
		if cp.confinedHandler != nil {
			cp.confinedHandler()
		}
	case 1:
		if cp.unconfinedHandler != nil {
			cp.unconfinedHandler()
		}
	}
	return nil
}

// RelativePointerManager is the host proxy for
// zwp_relative_pointer_manager_v1, paired with PointerConstraintsManager
// to deliver unaccelerated relative motion while the pointer is locked —
// the X11 sub-pixel-magnification scenario from spec.md §4.5.
type RelativePointerManager struct {
	proxyBase
}

// NewRelativePointerManager allocates the local object id; the caller
// still owes registry.Bind(name, "zwp_relative_pointer_manager_v1",
// version, m).
func NewRelativePointerManager(conn *Conn) *RelativePointerManager {
	m := &RelativePointerManager{proxyBase: newProxyBase(conn, "zwp_relative_pointer_manager_v1")}
	m.register(m)
	return m
}

func (m *RelativePointerManager) GetRelativePointer(pointer wire.Object) (*RelativePointer, error) {
	const opGetRelativePointer = 1
	rp := &RelativePointer{proxyBase: newProxyBase(m.conn, "zwp_relative_pointer_v1")}
	w := wire.NewArgWriter()
	w.PutUint32(rp.id)
	w.PutUint32(pointer.ObjectID())
	if err := m.request(opGetRelativePointer, w); err != nil {
		return nil, err
	}
	rp.register(rp)
	return rp, nil
}

func (m *RelativePointerManager) Destroy() error { return m.destroyRequest(0) }

// Release satisfies internal/proxyfab.HostProxy.
func (m *RelativePointerManager) Release(version uint32) error { return m.Destroy() }

func (m *RelativePointerManager) Dispatch(opcode uint16, args *wire.ArgReader) error { return nil }

// RelativePointer is zwp_relative_pointer_v1.
type RelativePointer struct {
	proxyBase
	motionHandler func(dx, dy, dxUnaccel, dyUnaccel wire.Fixed)
}

func (rp *RelativePointer) SetRelativeMotionHandler(h func(dx, dy, dxUnaccel, dyUnaccel wire.Fixed)) {
	rp.motionHandler = h
}

func (rp *RelativePointer) Destroy() error { return rp.destroyRequest(0) }

// Release satisfies internal/proxyfab.HostProxy.
func (rp *RelativePointer) Release(version uint32) error { return rp.Destroy() }

func (rp *RelativePointer) Dispatch(opcode uint16, args *wire.ArgReader) error {
	if opcode == 0 { // relative_motion
		_, _ = args.Uint32() // utime_hi, unused
		_, _ = args.Uint32() // utime_lo, unused
		dx, _ := args.Fixed()
		dy, _ := args.Fixed()
		dxUnaccel, _ := args.Fixed()
		dyUnaccel, _ := args.Fixed()
		if rp.motionHandler != nil {
			rp.motionHandler(dx, dy, dxUnaccel, dyUnaccel)
		}
	}
	return nil
}
