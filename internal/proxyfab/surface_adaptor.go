package proxyfab

import (
	"fmt"

	"golang.org/x/sys/unix"

	"go.chromium.org/sommelier/internal/hostproto"
	"go.chromium.org/sommelier/internal/scale"
	"go.chromium.org/sommelier/internal/surface"
	"go.chromium.org/sommelier/internal/wire"
)

// wl_compositor request opcodes.
const (
	opCompositorCreateSurface uint16 = 0
	opCompositorCreateRegion uint16 = 1
)

// wl_surface request opcodes.
const (
	opSurfaceDestroy          uint16 = 0
	opSurfaceAttach           uint16 = 1
	opSurfaceDamage           uint16 = 2
	opSurfaceFrame            uint16 = 3
	opSurfaceSetOpaqueRegion  uint16 = 4
	opSurfaceSetInputRegion   uint16 = 5
	opSurfaceCommit           uint16 = 6
	opSurfaceSetBufferScale   uint16 = 8
	opSurfaceDamageBuffer     uint16 = 9
)

// wl_buffer/wl_callback event opcodes this adaptor emits.
const (
	opBufferRelease  uint16 = 0
	opCallbackDone   uint16 = 0
	opSurfaceEnter   uint16 = 0
	opSurfaceLeave   uint16 = 1
)

// ObjectResolver is the subset of wire.Table a guest-facing adaptor needs
// to turn an incoming new_id/object argument into the resource it names,
// and to retire one once its destroy request has run; *wire.Table
// satisfies this directly alongside EventWriter.
type ObjectResolver interface {
	Lookup(id uint32) (wire.Object, bool)
	Insert(wire.Object)
	Remove(id uint32)
	// NewServerID allocates a fresh server-side object id, for the rare
	// request whose reply introduces an object the SERVER names rather
	// than the guest (wl_data_offer via wl_data_device.data_offer).
	NewServerID() uint32
}

// GuestTable bundles what a server-side adaptor needs back from the guest
// connection: sending it events, and resolving/registering/retiring
// object-id arguments. *wire.Table is the concrete type every caller
// passes.
type GuestTable interface {
	EventWriter
	ObjectResolver
}

// CompositorAdaptor is the wl_compositor global: the factory half of the
// Proxy Fabric's wl_compositor/wl_surface adaptor pair (spec.md §4.1,
// §6.1). It has no host event listeners of its own (wl_compositor emits
// no events); create_surface builds a SurfaceAdaptor around its own
// ProxyPair, and create_region a plain RegionAdaptor.
type CompositorAdaptor struct {
	id             uint32
	hostCompositor *hostproto.Compositor
	hostShm        *hostproto.Shm
	guest          GuestTable
	surfaces       *SurfaceRegistry
}

// NewCompositorAdaptor binds serverID as the guest-facing wl_compositor
// resource produced by this global's bind. surfaces may be nil, in which
// case created surfaces are never indexed by host id (only acceptable for
// tests that don't exercise seat focus routing).
func NewCompositorAdaptor(serverID uint32, hostCompositor *hostproto.Compositor, hostShm *hostproto.Shm, guest GuestTable, surfaces *SurfaceRegistry) *CompositorAdaptor {
	return &CompositorAdaptor{id: serverID, hostCompositor: hostCompositor, hostShm: hostShm, guest: guest, surfaces: surfaces}
}

func (c *CompositorAdaptor) ObjectID() uint32  { return c.id }
func (c *CompositorAdaptor) Interface() string { return "wl_compositor" }

func (c *CompositorAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opCompositorCreateSurface:
		id, err := args.Uint32()
		if err != nil {
			return err
		}
		hostSurf, err := c.hostCompositor.CreateSurface()
		if err != nil {
			return fmt.Errorf("proxyfab: host create_surface: %w", err)
		}
		adaptor := NewSurfaceAdaptor(id, hostSurf, c.hostShm, c.guest, c.surfaces)
		if c.surfaces != nil {
			c.surfaces.put(adaptor)
		}
		return registerObject(c.guest, adaptor)
	case opCompositorCreateRegion:
		id, err := args.Uint32()
		if err != nil {
			return err
		}
		hostRegion, err := c.hostCompositor.CreateRegion()
		if err != nil {
			return fmt.Errorf("proxyfab: host create_region: %w", err)
		}
		return registerObject(c.guest, NewRegionAdaptor(id, hostRegion, c.guest))
	}
	return nil
}

// registerObject inserts obj into the guest table under its own id.
func registerObject(guest GuestTable, obj wire.Object) error {
	guest.Insert(obj)
	return nil
}

// RegionAdaptor is wl_region: a thin forward of add/destroy requests onto
// the paired host wl_region, since sommelier never interprets region
// contents itself.
type RegionAdaptor struct {
	id         uint32
	hostRegion *hostproto.Region
	guest      GuestTable
}

func NewRegionAdaptor(id uint32, hostRegion *hostproto.Region, guest GuestTable) *RegionAdaptor {
	return &RegionAdaptor{id: id, hostRegion: hostRegion, guest: guest}
}

func (r *RegionAdaptor) ObjectID() uint32  { return r.id }
func (r *RegionAdaptor) Interface() string { return "wl_region" }

func (r *RegionAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0: // destroy
		r.guest.Remove(r.id)
		return r.hostRegion.Destroy()
	case 1: // add
		x, _ := args.Int32()
		y, _ := args.Int32()
		w, _ := args.Int32()
		h, _ := args.Int32()
		return r.hostRegion.Add(x, y, w, h)
	case 2: // subtract: sommelier forwards regions opaquely and never
		// needs subtract results itself; silently accepted like every
		// other pass-through region op it doesn't interpret.
		return nil
	}
	return nil
}

// SurfaceAdaptor is the wl_surface instance of the Proxy Fabric's
// three-part shape (spec.md §4.1): a server implementation (this type's
// Dispatch, handling every wl_surface request), a host event listener
// (enter/leave wired in NewSurfaceAdaptor), and a destructor (Pair.Destroy
// via Release). The substantive buffer-translation/ack work on commit is
// delegated to internal/surface's pure Commit logic plus its HostSink
// wiring (internal/surface/wiring.go).
type SurfaceAdaptor struct {
	Pair   *ProxyPair[*hostproto.Surface]
	Logic  *surface.Surface
	Sink   *surface.HostSink
	guest  GuestTable

	// IsX11 marks a surface as belonging to an X11-backed (XWayland)
	// window; internal/seatinput's pointer-focus tracking uses it for the
	// scroll/sub-pixel special-casing X toolkits need. Set by the X11
	// Window Manager bridge once it associates this surface with an X11
	// window; false (Wayland-native) otherwise.
	IsX11 bool

	surfaces *SurfaceRegistry

	// viewport is this surface's wp_viewport, set by ViewporterAdaptor the
	// first time the guest requests one; nil until then. sommelier never
	// creates one itself, so commit sets a viewport destination only on
	// surfaces whose guest asked for a wp_viewport.
	viewport *viewportAdaptor

	pendingBuffer *BufferAdaptor
	pendingDamage []surface.DamageRect

	pendingToplevelW, pendingToplevelH int32
}

// pendingToplevelSize returns the size most recently announced by a host
// xdg_toplevel.configure, for XdgSurfaceAdaptor to pass to
// surface.PlainConfigureTracker.SetPending alongside the paired
// xdg_surface.configure serial.
func (a *SurfaceAdaptor) pendingToplevelSize() (int32, int32) {
	return a.pendingToplevelW, a.pendingToplevelH
}

func (a *SurfaceAdaptor) setPendingToplevelSize(w, h int32) {
	a.pendingToplevelW, a.pendingToplevelH = w, h
}

// NewSurfaceAdaptor binds a freshly created host wl_surface to the guest
// resource serverID and wires its enter/leave events straight through
// (spec.md §4.4 doesn't transform output membership, only geometry).
func NewSurfaceAdaptor(serverID uint32, hostSurf *hostproto.Surface, shm *hostproto.Shm, guest GuestTable, surfaces *SurfaceRegistry) *SurfaceAdaptor {
	a := &SurfaceAdaptor{
		Pair:     NewProxyPair[*hostproto.Surface](serverID, hostSurf, 1),
		Logic:    &surface.Surface{},
		Sink:     surface.NewHostSink(shm, hostSurf, nil),
		guest:    guest,
		surfaces: surfaces,
	}
	hostSurf.SetEnterHandler(func(output uint32) {
		ev := wire.NewArgWriter()
		ev.PutUint32(output)
		guest.SendEvent(serverID, opSurfaceEnter, ev)
	})
	hostSurf.SetLeaveHandler(func(output uint32) {
		ev := wire.NewArgWriter()
		ev.PutUint32(output)
		guest.SendEvent(serverID, opSurfaceLeave, ev)
	})
	return a
}

// SetXdgSurface attaches the xdg_surface role once xdg_wm_base.get_xdg_surface
// binds one to this surface, so Commit can ack configures against it.
func (a *SurfaceAdaptor) SetXdgSurface(xdgSurf *hostproto.XdgSurface) {
	a.Sink.XdgSurf = xdgSurf
}

func (a *SurfaceAdaptor) ObjectID() uint32  { return a.Pair.ServerID }
func (a *SurfaceAdaptor) Interface() string { return "wl_surface" }

func (a *SurfaceAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case opSurfaceDestroy:
		a.guest.Remove(a.Pair.ServerID)
		a.Sink.Close()
		if a.surfaces != nil {
			a.surfaces.remove(a)
		}
		return a.Pair.Destroy()
	case opSurfaceAttach:
		bufID, err := args.Uint32()
		if err != nil {
			return err
		}
		_, _ = args.Int32() // x, always 0 since protocol version 5
		_, _ = args.Int32() // y
		if bufID == 0 {
			a.pendingBuffer = nil
			return a.Sink.HostSurf.Attach(nil, 0, 0)
		}
		obj, ok := a.guest.Lookup(bufID)
		if !ok {
			return fmt.Errorf("%s", "proxyfab: attach references unknown wl_buffer")
		}
		buf, ok := obj.(*BufferAdaptor)
		if !ok {
			return fmt.Errorf("%s", "proxyfab: attach argument is not a wl_buffer")
		}
		a.pendingBuffer = buf
		return nil
	case opSurfaceDamage:
		x, _ := args.Int32()
		y, _ := args.Int32()
		w, _ := args.Int32()
		h, _ := args.Int32()
		a.pendingDamage = append(a.pendingDamage, surface.DamageRect{X1: int64(x), Y1: int64(y), X2: int64(x + w), Y2: int64(y + h)})
		return nil
	case opSurfaceDamageBuffer:
		x, _ := args.Int32()
		y, _ := args.Int32()
		w, _ := args.Int32()
		h, _ := args.Int32()
		a.pendingDamage = append(a.pendingDamage, surface.DamageRect{X1: int64(x), Y1: int64(y), X2: int64(x + w), Y2: int64(y + h)})
		return nil
	case opSurfaceFrame:
		cbID, err := args.Uint32()
		if err != nil {
			return err
		}
		hostCB, err := a.Sink.HostSurf.Frame()
		if err != nil {
			return err
		}
		callback := &CallbackAdaptor{id: cbID, guest: a.guest}
		hostCB.SetDoneHandler(callback.fire)
		return registerObject(a.guest, callback)
	case opSurfaceSetOpaqueRegion:
		id, _ := args.Uint32()
		return a.Sink.HostSurf.SetOpaqueRegion(regionObjectOrNil(a.guest, id))
	case opSurfaceSetInputRegion:
		id, _ := args.Uint32()
		return a.Sink.HostSurf.SetInputRegion(regionObjectOrNil(a.guest, id))
	case opSurfaceSetBufferScale:
		s, _ := args.Int32()
		a.Logic.BufferScaleX, a.Logic.BufferScaleY = float64(s), float64(s)
		return a.Sink.HostSurf.SetBufferScale(s)
	case opSurfaceCommit:
		return a.commit()
	}
	return nil
}

func regionObjectOrNil(guest GuestTable, id uint32) wire.Object {
	if id == 0 {
		return nil
	}
	obj, ok := guest.Lookup(id)
	if !ok {
		return nil
	}
	if r, ok := obj.(*RegionAdaptor); ok {
		return regionWireObject{r.hostRegion}
	}
	return nil
}

// regionWireObject adapts a *hostproto.Region (which is already a
// wire.Object through its proxyBase) to the wire.Object interface
// explicitly, for callers that only have a RegionAdaptor in hand.
type regionWireObject struct{ *hostproto.Region }

// commit runs the pure decision logic in internal/surface.Surface.Commit,
// then drives the actual host calls through HostSink: buffer translation
// (shm copy-on-commit) first, then ack/damage/commit via Apply, then the
// commit request itself and any resulting guest wl_buffer.release.
func (a *SurfaceAdaptor) commit() error {
	damage := a.pendingDamage
	a.pendingDamage = nil

	var buf *surface.Buffer
	var hostBuf *hostproto.Buffer
	if a.pendingBuffer != nil {
		pb := a.pendingBuffer
		buf = pb.logic
		var err error
		hostBuf, err = a.Sink.TranslateShm(pb.pixelData(), pb.width, pb.height, pb.stride, pb.format)
		if err != nil {
			if handleErr := a.Logic.HandleTranslationFailure(buf); handleErr != nil {
				return fmt.Errorf("surface: translation failed, falling back to passthrough: %w", handleErr)
			}
		} else if err := a.Sink.HostSurf.Attach(hostBuf, 0, 0); err != nil {
			return fmt.Errorf("surface: attach: %w", err)
		}
	}

	pxW, pxH := a.pendingBuffer.widthOrZero(), a.pendingBuffer.heightOrZero()
	res := a.Logic.Commit(buf, pxW, pxH, damage)
	if err := a.Sink.Apply(res); err != nil {
		return err
	}
	if a.viewport != nil && pxW != 0 && pxH != 0 {
		contentsScale := a.Logic.BufferScaleX
		if contentsScale == 0 {
			contentsScale = 1
		}
		if outW, outH, needed := scale.ViewportScale(a.Logic.Scale, a.Logic.SurfaceScale, contentsScale, pxW, pxH); needed {
			if err := a.viewport.applyScale(outW, outH); err != nil {
				return fmt.Errorf("surface: wp_viewport set_destination: %w", err)
			}
		}
	}
	if err := a.Sink.HostSurf.Commit(); err != nil {
		return fmt.Errorf("surface: host commit: %w", err)
	}
	if res.ReleaseGuestBufferNow && a.pendingBuffer != nil {
		a.pendingBuffer.sendRelease()
	}
	if hostBuf != nil {
		b := a.pendingBuffer
		hostBuf.SetReleaseHandler(func() {
			if b.logic.HostRelease() {
				b.sendRelease()
			}
		})
	}
	return nil
}

// CallbackAdaptor is the guest-facing wl_callback object created by
// wl_surface.frame: a one-shot resource that self-destructs after its
// single done event, mirroring hostproto.Callback's own lifetime.
type CallbackAdaptor struct {
	id    uint32
	guest GuestTable
}

func (c *CallbackAdaptor) ObjectID() uint32                           { return c.id }
func (c *CallbackAdaptor) Interface() string                          { return "wl_callback" }
func (c *CallbackAdaptor) Dispatch(uint16, *wire.ArgReader) error { return nil }

func (c *CallbackAdaptor) fire(data uint32) {
	ev := wire.NewArgWriter()
	ev.PutUint32(data)
	c.guest.SendEvent(c.id, opCallbackDone, ev)
	c.guest.Remove(c.id)

	del := wire.NewArgWriter()
	del.PutUint32(c.id)
	c.guest.SendEvent(DisplayObjectID, opDisplayEventDeleteID, del)
}

// BufferAdaptor is the guest-facing wl_buffer object created by
// wl_shm_pool.create_buffer: a view into the guest's mmap'd shm pool plus
// the internal/surface.Buffer bookkeeping that decides when its release
// event is due.
type BufferAdaptor struct {
	id                         uint32
	guest                      GuestTable
	pool                       *ShmPoolAdaptor
	offset, width, height, stride int32
	format                     uint32
	logic                      *surface.Buffer
}

func (b *BufferAdaptor) widthOrZero() int32 {
	if b == nil {
		return 0
	}
	return b.width
}

func (b *BufferAdaptor) heightOrZero() int32 {
	if b == nil {
		return 0
	}
	return b.height
}

// pixelData reads the live bytes of this buffer out of its pool's
// current mmap, re-slicing at offset/stride*height each call since a
// resize can move the mapping.
func (b *BufferAdaptor) pixelData() []byte {
	size := b.stride * b.height
	return b.pool.mmap[b.offset : b.offset+size]
}

func (b *BufferAdaptor) ObjectID() uint32  { return b.id }
func (b *BufferAdaptor) Interface() string { return "wl_buffer" }

func (b *BufferAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	if opcode == 0 { // destroy
		b.pool.forget(b)
		b.guest.Remove(b.id)
	}
	return nil
}

func (b *BufferAdaptor) sendRelease() {
	b.guest.SendEvent(b.id, opBufferRelease, wire.NewArgWriter())
}

// ShmAdaptor is the guest-facing wl_shm global: advertises the two pixel
// formats sommelier's copy-on-commit path actually produces (spec.md
// §4.4 does not attempt a format-converting blit) and creates
// ShmPoolAdaptor instances for incoming create_pool requests. It has no
// host-side counterpart to pair with — the host wl_shm instance is only
// ever used indirectly, through internal/surface.HostSink's own pool.
type ShmAdaptor struct {
	id    uint32
	guest GuestTable
}

// NewShmAdaptor binds serverID and immediately advertises this
// sommelier's two supported shm formats, matching wl_shm's "format
// events sent once right after bind" contract.
func NewShmAdaptor(serverID uint32, guest GuestTable) *ShmAdaptor {
	s := &ShmAdaptor{id: serverID, guest: guest}
	for _, f := range []uint32{hostproto.ShmFormatARGB8888, hostproto.ShmFormatXRGB8888} {
		ev := wire.NewArgWriter()
		ev.PutUint32(f)
		guest.SendEvent(serverID, 0, ev)
	}
	return s
}

func (s *ShmAdaptor) ObjectID() uint32  { return s.id }
func (s *ShmAdaptor) Interface() string { return "wl_shm" }

func (s *ShmAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	if opcode != 0 { // create_pool
		return nil
	}
	id, err := args.Uint32()
	if err != nil {
		return err
	}
	fd, err := args.FD()
	if err != nil {
		return err
	}
	size, err := args.Int32()
	if err != nil {
		return err
	}
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("proxyfab: mmap guest shm pool: %w", err)
	}
	pool := &ShmPoolAdaptor{id: id, guest: s.guest, fd: fd, mmap: data, size: size, buffers: map[uint32]*BufferAdaptor{}}
	return registerObject(s.guest, pool)
}

// ShmPoolAdaptor is wl_shm_pool: the guest's mmap'd shared memory region,
// kept mapped read-only (sommelier only ever reads guest pixel data to
// copy it into a host-owned pool, per internal/surface.HostSink) until
// destroy.
type ShmPoolAdaptor struct {
	id      uint32
	guest   GuestTable
	fd      int
	mmap    []byte
	size    int32
	buffers map[uint32]*BufferAdaptor
}

func (p *ShmPoolAdaptor) ObjectID() uint32  { return p.id }
func (p *ShmPoolAdaptor) Interface() string { return "wl_shm_pool" }

func (p *ShmPoolAdaptor) Dispatch(opcode uint16, args *wire.ArgReader) error {
	switch opcode {
	case 0: // create_buffer
		id, _ := args.Uint32()
		offset, _ := args.Int32()
		width, _ := args.Int32()
		height, _ := args.Int32()
		stride, _ := args.Int32()
		format, _ := args.Uint32()
		buf := &BufferAdaptor{
			id: id, guest: p.guest, pool: p,
			offset: offset, width: width, height: height, stride: stride, format: format,
			logic: surface.NewShmBuffer(id),
		}
		p.buffers[id] = buf
		return registerObject(p.guest, buf)
	case 1: // destroy
		p.guest.Remove(p.id)
		return p.unmap()
	case 2: // resize
		size, _ := args.Int32()
		return p.resize(size)
	}
	return nil
}

func (p *ShmPoolAdaptor) resize(size int32) error {
	if err := unix.Munmap(p.mmap); err != nil {
		return err
	}
	data, err := unix.Mmap(p.fd, 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	p.mmap = data
	p.size = size
	return nil
}

func (p *ShmPoolAdaptor) unmap() error {
	if p.mmap == nil {
		return nil
	}
	err := unix.Munmap(p.mmap)
	p.mmap = nil
	return err
}

func (p *ShmPoolAdaptor) forget(b *BufferAdaptor) { delete(p.buffers, b.id) }
