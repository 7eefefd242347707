package proxyfab

import (
	"fmt"

	"go.chromium.org/sommelier/internal/hostproto"
	"go.chromium.org/sommelier/internal/surface"
	"go.chromium.org/sommelier/internal/wire"
)

// xdg_wm_base request opcodes.
const (
	opWmBaseDestroy           uint16 = 0
	opWmBaseCreatePositioner  uint16 = 1
	opWmBaseGetXdgSurface     uint16 = 2
	opWmBasePong              uint16 = 3
)

// xdg_surface request opcodes.
const (
	opXdgSurfaceDestroy            uint16 = 0
	opXdgSurfaceGetToplevel        uint16 = 1
	opXdgSurfaceSetWindowGeometry  uint16 = 3
	opXdgSurfaceAckConfigure       uint16 = 4
)

// xdg_surface/xdg_toplevel event opcodes.
const (
	opXdgSurfaceConfigure    uint16 = 0
	opXdgToplevelConfigure   uint16 = 0
	opXdgToplevelClose       uint16 = 1
)

// xdg_toplevel request opcodes this adaptor forwards.
const (
	opToplevelDestroy       uint16 = 0
	opToplevelSetTitle      uint16 = 2
	opToplevelSetAppID      uint16 = 3
	opToplevelSetMaxSize    uint16 = 7
	opToplevelSetMinSize    uint16 = 8
	opToplevelSetMaximized  uint16 = 9
	opToplevelUnsetMaximized uint16 = 10
	opToplevelSetFullscreen uint16 = 11
	opToplevelUnsetFullscreen uint16 = 12
)

// WmBaseAdaptor is the xdg_wm_base global: it pairs each get_xdg_surface
// request with the SurfaceAdaptor the guest surface id already names, so
// the Surface/Buffer Pipeline (internal/surface) can start tracking a
// configure obligation (spec.md §4.4 rule 1).
type WmBaseAdaptor struct {
	id       uint32
	hostBase *hostproto.XdgWmBase
	guest    GuestTable
}

// NewWmBaseAdaptor binds serverID to the host xdg_wm_base hostBase. Each
// get_xdg_surface request resolves its guest wl_surface id straight out of
// guest's object table, same as regionObjectOrNil does for wl_region.
func NewWmBaseAdaptor(serverID uint32, hostBase *hostproto.XdgWmBase, guest GuestTable) *WmBaseAdaptor {
	b := &WmBaseAdaptor{id: serverID, hostBase: hostBase, guest: guest}
	hostBase.SetPingHandler(func(serial uint32) {
		ev := wire.NewArgWriter()
		ev.PutUint32(serial)
		guest.SendEvent(serverID, 0, ev) // xdg_wm_base.ping, forwarded verbatim
	})
	return b
}

func (b *WmBaseAdaptor) ObjectID() uint32  { return b.id }
func (b *WmBaseAdaptor) Interface() string { return "xdg_wm_base" }

func (b *WmBaseAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opWmBaseDestroy:
		b.guest.Remove(b.id)
		return b.hostBase.Destroy()
	case opWmBaseCreatePositioner:
		// xdg_positioner backs popup placement; sommelier forwards no
		// popups (spec.md §4.6 only exercises toplevels), so the guest
		// resource is accepted and left inert.
		id, err := args.Uint32()
		if err != nil {
			return err
		}
		return registerObject(b.guest, &positionerAdaptor{id: id})
	case opWmBaseGetXdgSurface:
		newID, err := args.Uint32()
		if err != nil {
			return err
		}
		surfaceID, err := args.Uint32()
		if err != nil {
			return err
		}
		obj, ok := b.guest.Lookup(surfaceID)
		if !ok {
			return fmt.Errorf("proxyfab: get_xdg_surface references unknown wl_surface %d", surfaceID)
		}
		sa, ok := obj.(*SurfaceAdaptor)
		if !ok {
			return fmt.Errorf("proxyfab: get_xdg_surface argument is not a wl_surface")
		}
		hostXdgSurf, err := b.hostBase.GetXdgSurface(sa.Sink.HostSurf)
		if err != nil {
			return fmt.Errorf("proxyfab: host get_xdg_surface: %w", err)
		}
		xs := NewXdgSurfaceAdaptor(newID, hostXdgSurf, sa, b.guest)
		return registerObject(b.guest, xs)
	case opWmBasePong:
		serial, err := args.Uint32()
		if err != nil {
			return err
		}
		return b.hostBase.Pong(serial)
	}
	return nil
}

// positionerAdaptor is an inert xdg_positioner: sommelier never forwards
// popups, so it only needs to exist long enough to be destroyed.
type positionerAdaptor struct{ id uint32 }

func (p *positionerAdaptor) ObjectID() uint32                      { return p.id }
func (p *positionerAdaptor) Interface() string                     { return "xdg_positioner" }
func (p *positionerAdaptor) Dispatch(uint16, *wire.ArgReader) error { return nil }

// XdgSurfaceAdaptor is the xdg_surface instance pairing one guest surface's
// shell role with its host xdg_surface, and installing a
// surface.PlainConfigureTracker on the SurfaceAdaptor's pipeline state so
// Commit starts enforcing the ack-before-forward ordering invariant.
type XdgSurfaceAdaptor struct {
	id       uint32
	hostSurf *hostproto.XdgSurface
	owner    *SurfaceAdaptor
	guest    GuestTable
	tracker  *surface.PlainConfigureTracker
}

// NewXdgSurfaceAdaptor wires hostSurf's configure events into owner's
// PlainConfigureTracker and tells owner's Sink to ack against hostSurf.
func NewXdgSurfaceAdaptor(serverID uint32, hostSurf *hostproto.XdgSurface, owner *SurfaceAdaptor, guest GuestTable) *XdgSurfaceAdaptor {
	tracker := &surface.PlainConfigureTracker{}
	owner.Logic.Configure = tracker
	owner.SetXdgSurface(hostSurf)

	xs := &XdgSurfaceAdaptor{id: serverID, hostSurf: hostSurf, owner: owner, guest: guest, tracker: tracker}
	hostSurf.SetConfigureHandler(func(serial uint32) {
		w, h := owner.pendingToplevelSize()
		tracker.SetPending(serial, w, h)
		ev := wire.NewArgWriter()
		ev.PutUint32(serial)
		guest.SendEvent(serverID, opXdgSurfaceConfigure, ev)
	})
	return xs
}

func (x *XdgSurfaceAdaptor) ObjectID() uint32  { return x.id }
func (x *XdgSurfaceAdaptor) Interface() string { return "xdg_surface" }

func (x *XdgSurfaceAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opXdgSurfaceDestroy:
		x.guest.Remove(x.id)
		x.owner.Logic.Configure = nil
		return x.hostSurf.Destroy()
	case opXdgSurfaceGetToplevel:
		newID, err := args.Uint32()
		if err != nil {
			return err
		}
		hostTop, err := x.hostSurf.GetToplevel()
		if err != nil {
			return fmt.Errorf("proxyfab: host get_toplevel: %w", err)
		}
		tl := NewToplevelAdaptor(newID, hostTop, x.owner, x.guest)
		return registerObject(x.guest, tl)
	case opXdgSurfaceSetWindowGeometry:
		xx, _ := args.Int32()
		yy, _ := args.Int32()
		w, _ := args.Int32()
		h, _ := args.Int32()
		return x.hostSurf.SetWindowGeometry(xx, yy, w, h)
	case opXdgSurfaceAckConfigure:
		// The guest's own ack is informational only: sommelier tracks
		// satisfaction itself via Surface.Commit/ConfigureTracker and
		// issues the host ack right before forwarding the matching
		// commit (spec.md §4.4 rule 1), not here.
		return nil
	}
	return nil
}

// ToplevelAdaptor is the xdg_toplevel instance: it forwards window-chrome
// requests straight to the host and turns host configure/close events back
// into guest events, recording the most recent announced size so
// XdgSurfaceAdaptor's configure handler can feed it to the
// PlainConfigureTracker.
type ToplevelAdaptor struct {
	id       uint32
	hostTop  *hostproto.XdgToplevel
	owner    *SurfaceAdaptor
	guest    GuestTable
}

// NewToplevelAdaptor wires hostTop's configure/close events through to the
// guest resource serverID.
func NewToplevelAdaptor(serverID uint32, hostTop *hostproto.XdgToplevel, owner *SurfaceAdaptor, guest GuestTable) *ToplevelAdaptor {
	t := &ToplevelAdaptor{id: serverID, hostTop: hostTop, owner: owner, guest: guest}
	hostTop.SetConfigureHandler(func(width, height int32, states []uint32) {
		owner.setPendingToplevelSize(width, height)
		ev := wire.NewArgWriter()
		ev.PutInt32(width)
		ev.PutInt32(height)
		raw := make([]byte, 0, len(states)*4)
		for _, s := range states {
			raw = append(raw, byte(s), byte(s>>8), byte(s>>16), byte(s>>24))
		}
		ev.PutArray(raw)
		guest.SendEvent(serverID, opXdgToplevelConfigure, ev)
	})
	hostTop.SetCloseHandler(func() {
		guest.SendEvent(serverID, opXdgToplevelClose, wire.NewArgWriter())
	})
	return t
}

func (t *ToplevelAdaptor) ObjectID() uint32  { return t.id }
func (t *ToplevelAdaptor) Interface() string { return "xdg_toplevel" }

func (t *ToplevelAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opToplevelDestroy:
		t.guest.Remove(t.id)
		return t.hostTop.Destroy()
	case opToplevelSetTitle:
		s, err := args.String()
		if err != nil {
			return err
		}
		return t.hostTop.SetTitle(s)
	case opToplevelSetAppID:
		s, err := args.String()
		if err != nil {
			return err
		}
		return t.hostTop.SetAppID(s)
	case opToplevelSetMaxSize:
		w, _ := args.Int32()
		h, _ := args.Int32()
		return t.hostTop.SetMaxSize(w, h)
	case opToplevelSetMinSize:
		w, _ := args.Int32()
		h, _ := args.Int32()
		return t.hostTop.SetMinSize(w, h)
	case opToplevelSetMaximized:
		return t.hostTop.SetMaximized()
	case opToplevelUnsetMaximized:
		return t.hostTop.UnsetMaximized()
	case opToplevelSetFullscreen:
		return t.hostTop.SetFullscreen(nil)
	case opToplevelUnsetFullscreen:
		return t.hostTop.UnsetFullscreen()
	}
	return nil
}
