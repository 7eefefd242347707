package proxyfab

import (
	"fmt"

	"go.chromium.org/sommelier/internal/hostproto"
	"go.chromium.org/sommelier/internal/wire"
)

// wp_viewporter / wp_viewport request opcodes.
const (
	opViewporterDestroy     uint16 = 0
	opViewporterGetViewport uint16 = 1

	opViewportDestroy        uint16 = 0
	opViewportSetSource      uint16 = 1
	opViewportSetDestination uint16 = 2
)

// ViewporterAdaptor is the wp_viewporter global (spec.md §4.3's
// `scale`/direct-scale mode, advertised per line 230's global list): it
// lets a guest surface get a wp_viewport the Scaling Engine then drives
// straight through SurfaceAdaptor.commit, the same way every other
// per-surface host call goes through that path.
type ViewporterAdaptor struct {
	id    uint32
	host  *hostproto.Viewporter
	guest GuestTable
}

func NewViewporterAdaptor(serverID uint32, host *hostproto.Viewporter, guest GuestTable) *ViewporterAdaptor {
	return &ViewporterAdaptor{id: serverID, host: host, guest: guest}
}

func (v *ViewporterAdaptor) ObjectID() uint32  { return v.id }
func (v *ViewporterAdaptor) Interface() string { return "wp_viewporter" }

func (v *ViewporterAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opViewporterDestroy:
		v.guest.Remove(v.id)
		return v.host.Destroy()
	case opViewporterGetViewport:
		newID, err := args.Uint32()
		if err != nil {
			return err
		}
		surfaceID, err := args.Uint32()
		if err != nil {
			return err
		}
		sobj, ok := v.guest.Lookup(surfaceID)
		if !ok {
			return fmt.Errorf("proxyfab: get_viewport references unknown wl_surface %d", surfaceID)
		}
		sa, ok := sobj.(*SurfaceAdaptor)
		if !ok {
			return fmt.Errorf("proxyfab: get_viewport argument is not a wl_surface")
		}
		if sa.viewport != nil {
			return fmt.Errorf("proxyfab: wp_viewport already requested for this wl_surface")
		}
		hostViewport, err := v.host.GetViewport(sa.Sink.HostSurf)
		if err != nil {
			return fmt.Errorf("proxyfab: host get_viewport: %w", err)
		}
		vp := newViewportAdaptor(newID, hostViewport, sa, v.guest)
		return registerObject(v.guest, vp)
	}
	return nil
}

// viewportAdaptor is wp_viewport. Besides forwarding the guest's own
// set_source/set_destination requests, SurfaceAdaptor.commit calls
// applyScale on it directly whenever internal/scale.ViewportScale decides
// the Scaling Engine's own direct-scale resize is needed — the same
// object serves both the guest's explicit requests and sommelier's
// internal scaling, exactly as wp_viewport's single-instance-per-surface
// restriction assumes.
type viewportAdaptor struct {
	id      uint32
	host    *hostproto.Viewport
	owner   *SurfaceAdaptor
	guest   GuestTable
	lastW   int32
	lastH   int32
}

func newViewportAdaptor(serverID uint32, host *hostproto.Viewport, owner *SurfaceAdaptor, guest GuestTable) *viewportAdaptor {
	vp := &viewportAdaptor{id: serverID, host: host, owner: owner, guest: guest}
	owner.viewport = vp
	return vp
}

func (v *viewportAdaptor) ObjectID() uint32  { return v.id }
func (v *viewportAdaptor) Interface() string { return "wp_viewport" }

func (v *viewportAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opViewportDestroy:
		v.guest.Remove(v.id)
		if v.owner != nil {
			v.owner.viewport = nil
		}
		return v.host.Destroy()
	case opViewportSetSource:
		x, err := args.Fixed()
		if err != nil {
			return err
		}
		y, err := args.Fixed()
		if err != nil {
			return err
		}
		w, err := args.Fixed()
		if err != nil {
			return err
		}
		h, err := args.Fixed()
		if err != nil {
			return err
		}
		return v.host.SetSource(x, y, w, h)
	case opViewportSetDestination:
		width, err := args.Int32()
		if err != nil {
			return err
		}
		height, err := args.Int32()
		if err != nil {
			return err
		}
		v.lastW, v.lastH = width, height
		return v.host.SetDestination(width, height)
	}
	return nil
}

// applyScale is the Scaling Engine's own call into this viewport, driven
// from SurfaceAdaptor.commit whenever internal/scale.ViewportScale decides
// a direct-scale resize is needed for the surface's current buffer size.
// It's idempotent against the guest's own set_destination: duplicate
// width/height requests are skipped rather than re-sent to the host.
func (v *viewportAdaptor) applyScale(width, height int32) error {
	if v.lastW == width && v.lastH == height {
		return nil
	}
	v.lastW, v.lastH = width, height
	return v.host.SetDestination(width, height)
}
